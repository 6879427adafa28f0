//go:build wireinject
// +build wireinject

// Package main 为 events 任务 CLI 提供 Wire 依赖注入定义。
package main

import (
	"context"
	"fmt"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/database"
	"github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/gcs"
	"github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/logger"
	"github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/pubsub"
	"github.com/bionicotaku/lingo-services-moderation/internal/moderation"
	"github.com/bionicotaku/lingo-services-moderation/internal/repositories"
	"github.com/bionicotaku/lingo-services-moderation/internal/services"
	eventtasks "github.com/bionicotaku/lingo-services-moderation/internal/tasks/events"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

//go:generate go run github.com/google/wire/cmd/wire

func wireEventsTask(context.Context, loader.Params) (*eventsTaskApp, func(), error) {
	panic(wire.Build(
		loader.Build,
		loader.ProviderSet,
		logger.ProviderSet,
		database.ProviderSet,
		gcs.ProviderSet,
		pubsub.ProviderSet,
		moderation.ProviderSet,
		repositories.ProviderSet,
		services.ProviderSet,
		eventtasks.ProvideRunner,
		newEventsTaskApp,
	))
}

func newEventsTaskApp(logger log.Logger, runner *eventtasks.Runner) (*eventsTaskApp, error) {
	if runner == nil {
		return &eventsTaskApp{Logger: logger}, nil
	}
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	return &eventsTaskApp{
		Runner: runner,
		Logger: logger,
	}, nil
}
