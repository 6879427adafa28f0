package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/bionicotaku/lingo-services-moderation/internal/services"
	"github.com/go-kratos/kratos/v2/log"
)

const (
	gcsObjectFinalizeEvent = "OBJECT_FINALIZE"

	attrEventType = "eventType"
)

type pipelineRunner interface {
	Process(ctx context.Context, in services.ProcessInput) services.Resolution
}

// Handler 过滤存储通知并驱动审核流水线。
type Handler struct {
	pipeline      pipelineRunner
	stagingBucket string
	stagingPrefix string
	log           *log.Helper
}

// NewHandler 构造存储事件处理器。
func NewHandler(pipeline pipelineRunner, stagingBucket, stagingPrefix string, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.NewStdLogger(nil)
	}
	return &Handler{
		pipeline:      pipeline,
		stagingBucket: stagingBucket,
		stagingPrefix: stagingPrefix,
		log:           log.NewHelper(logger),
	}
}

// Handle 执行 OBJECT_FINALIZE 事件的业务处理。
// 流水线总是给出终态，因此返回 nil 即代表消息可以确认。
func (h *Handler) Handle(ctx context.Context, eventType string, n *Notification) error {
	if n == nil {
		return fmt.Errorf("events: nil notification")
	}
	if !strings.EqualFold(eventType, gcsObjectFinalizeEvent) {
		return nil
	}
	if h.pipeline == nil {
		return fmt.Errorf("events: handler not initialized")
	}

	if h.stagingBucket != "" && n.Bucket != h.stagingBucket {
		h.log.WithContext(ctx).Warnf("events: finalize from foreign bucket bucket=%s object=%s", n.Bucket, n.ObjectName)
		return nil
	}
	if h.stagingPrefix != "" && !strings.HasPrefix(n.ObjectName, h.stagingPrefix) {
		h.log.WithContext(ctx).Debugf("events: skip object outside staging prefix object=%s", n.ObjectName)
		return nil
	}

	h.pipeline.Process(ctx, services.ProcessInput{
		StagingKey:  n.ObjectName,
		ContentType: n.ContentType,
		Metadata:    n.Metadata,
	})
	return nil
}
