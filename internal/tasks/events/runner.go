package events

import (
	"context"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-moderation/internal/services"
	"github.com/go-kratos/kratos/v2/log"
)

// Runner 负责消费 GCS OBJECT_FINALIZE 事件。
type Runner struct {
	sub     *gcppubsub.Subscriber
	decoder *notificationDecoder
	handler *Handler
	log     *log.Helper
}

// RunnerParams 注入构建 Runner 所需的依赖。
type RunnerParams struct {
	Subscriber *gcppubsub.Subscriber
	Pipeline   services.PipelineRunner
	Storage    *loader.Storage
	Logger     log.Logger
}

// NewRunner 构造存储事件 Runner。
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Subscriber == nil {
		return nil, fmt.Errorf("events: subscriber is required")
	}
	if params.Pipeline == nil {
		return nil, fmt.Errorf("events: pipeline is required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("events: storage config is required")
	}

	handler := NewHandler(params.Pipeline, params.Storage.StagingBucket, params.Storage.StagingPrefix, params.Logger)

	return &Runner{
		sub:     params.Subscriber,
		decoder: newDecoder(),
		handler: handler,
		log:     log.NewHelper(params.Logger),
	}, nil
}

// Run 启动消费循环，直至 ctx 取消。
// 只有处理抵达终态的消息才会被确认；畸形载荷重投无益，确认并告警。
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.sub == nil {
		return nil
	}
	return r.sub.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		n, err := r.decoder.Decode(msg.Data)
		if err != nil {
			r.log.WithContext(ctx).Warnf("events: drop malformed payload: %v", err)
			msg.Ack()
			return
		}
		if err := r.handler.Handle(ctx, msg.Attributes[attrEventType], n); err != nil {
			r.log.WithContext(ctx).Errorf("events: handle object %s: %v", n.ObjectName, err)
			msg.Nack()
			return
		}
		msg.Ack()
	})
}
