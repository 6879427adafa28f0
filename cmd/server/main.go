// Package main boots the moderation service HTTP entrypoint.
package main

import (
	"context"
	"flag"
	"os"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
	loginfra "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/logger"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name string
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "", "config path, eg: -conf configs/config.yaml")
}

func newApp(logger log.Logger, hs *khttp.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			hs,
		),
	)
}

func main() {
	flag.Parse()

	// 加载 bootstrap 配置并推导服务元信息。
	bundle, err := loader.Build(loader.Params{ConfPath: flagconf})
	if err != nil {
		panic(err)
	}

	meta := bundle.Service
	if Name != "" {
		meta.Name = Name
	} else {
		Name = meta.Name
	}
	if Version != "" {
		meta.Version = Version
	} else {
		Version = meta.Version
	}

	// 构建全应用共享的结构化日志器。
	logger := loginfra.NewLogger(loginfra.FromMetadata(meta))

	app, cleanup, err := wireApp(context.Background(), bundle.Bootstrap, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}
