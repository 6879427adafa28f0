// Package pubsub 提供 Cloud Pub/Sub 客户端与收发端的基础设施封装。
package pubsub

import (
	"context"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/go-kratos/kratos/v2/log"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
)

// NewClient 创建共享的 Pub/Sub 客户端并返回清理函数。
// 本地调试可通过 PUBSUB_EMULATOR_HOST 指向模拟器。
func NewClient(ctx context.Context, cfg *loader.Messaging, logger log.Logger) (*gcppubsub.Client, func(), error) {
	helper := log.NewHelper(logger)

	if cfg == nil || cfg.ProjectID == "" {
		return nil, nil, errors.New("pubsub: messaging.project_id is required")
	}

	client, err := gcppubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("create pubsub client: %w", err)
	}

	cleanup := func() {
		helper.Info("closing pubsub client")
		if err := client.Close(); err != nil {
			helper.Warnf("close pubsub client: %v", err)
		}
	}
	return client, cleanup, nil
}

// ProvideDecisionPublisher 返回终审通知主题的发布端。
// 未配置 notify_topic 时返回 nil，通知降级为仅记日志。
// cleanup 中 Stop 会等待在途消息发送完成。
func ProvideDecisionPublisher(client *gcppubsub.Client, cfg *loader.Messaging, logger log.Logger) (*gcppubsub.Publisher, func(), error) {
	helper := log.NewHelper(logger)

	if client == nil {
		return nil, nil, errors.New("pubsub: client is required")
	}
	if cfg == nil || cfg.NotifyTopic == "" {
		helper.Info("notify topic not configured, decision notifications are log-only")
		return nil, func() {}, nil
	}

	publisher := client.Publisher(cfg.NotifyTopic)
	cleanup := func() {
		helper.Info("stopping decision publisher")
		publisher.Stop()
	}
	return publisher, cleanup, nil
}

// ProvideEventsSubscriber 返回存储事件订阅端，并应用有界并发参数。
func ProvideEventsSubscriber(client *gcppubsub.Client, cfg *loader.Messaging) (*gcppubsub.Subscriber, error) {
	if client == nil {
		return nil, errors.New("pubsub: client is required")
	}
	if cfg == nil || cfg.EventsSubscription == "" {
		return nil, errors.New("pubsub: messaging.events_subscription is required")
	}

	sub := client.Subscriber(cfg.EventsSubscription)
	if rc := cfg.Receive; rc != nil {
		// MaxOutstandingMessages × NumGoroutines 即流水线的最大并发处理量。
		if rc.MaxOutstandingMessages > 0 {
			sub.ReceiveSettings.MaxOutstandingMessages = rc.MaxOutstandingMessages
		}
		if rc.NumGoroutines > 0 {
			sub.ReceiveSettings.NumGoroutines = rc.NumGoroutines
		}
	}
	return sub, nil
}
