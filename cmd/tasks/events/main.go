// Package main 提供存储事件 Runner 的独立进程入口，便于后台单独运行。
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
	eventrunner "github.com/bionicotaku/lingo-services-moderation/internal/tasks/events"
	"github.com/go-kratos/kratos/v2/log"
)

type eventsTaskApp struct {
	Runner *eventrunner.Runner
	Logger log.Logger
}

func main() {
	ctx := context.Background()

	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	flag.Parse()

	params := loader.Params{ConfPath: *confFlag}
	app, cleanup, err := wireEventsTask(ctx, params)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	logger := app.Logger
	if logger == nil {
		logger = log.NewStdLogger(os.Stdout)
	}
	helper := log.NewHelper(logger)

	if app.Runner == nil {
		helper.Warn("events runner disabled (missing messaging.events_subscription configuration)")
		return
	}

	helper.Info("starting storage events runner")

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		helper.Errorf("events runner stopped unexpectedly: %v", err)
		os.Exit(1)
	}

	helper.Info("events runner stopped")
}
