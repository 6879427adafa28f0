//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"context"

	"github.com/bionicotaku/lingo-services-moderation/internal/controllers"
	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/database"
	"github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/gcs"
	"github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/pubsub"
	"github.com/bionicotaku/lingo-services-moderation/internal/moderation"
	"github.com/bionicotaku/lingo-services-moderation/internal/repositories"
	"github.com/bionicotaku/lingo-services-moderation/internal/server"
	"github.com/bionicotaku/lingo-services-moderation/internal/services"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

//go:generate go run github.com/google/wire/cmd/wire

// wireApp init kratos application.
func wireApp(context.Context, *loader.Bootstrap, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		loader.ProvideServerConfig,
		loader.ProvideDataConfig,
		loader.ProvideStorageConfig,
		loader.ProvideModerationConfig,
		loader.ProvideMessagingConfig,
		loader.ProvideIntakeConfig,
		database.ProviderSet,
		gcs.ProviderSet,
		pubsub.ProviderSet,
		moderation.ProviderSet,
		repositories.ProviderSet,
		services.ProviderSet,
		controllers.ProviderSet,
		server.ProviderSet,
		newApp,
	))
}
