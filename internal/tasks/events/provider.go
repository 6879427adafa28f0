package events

import (
	gcppubsub "cloud.google.com/go/pubsub/v2"
	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-moderation/internal/services"
	"github.com/go-kratos/kratos/v2/log"
)

// ProvideRunner 装配存储事件 Runner。
func ProvideRunner(
	pipeline services.PipelineRunner,
	sub *gcppubsub.Subscriber,
	storageCfg *loader.Storage,
	logger log.Logger,
) *Runner {
	if pipeline == nil || sub == nil || storageCfg == nil || logger == nil {
		return nil
	}

	runner, err := NewRunner(RunnerParams{
		Subscriber: sub,
		Pipeline:   pipeline,
		Storage:    storageCfg,
		Logger:     logger,
	})
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "init events runner failed", "error", err)
		return nil
	}
	return runner
}
