package services

import (
	"context"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/go-kratos/kratos/v2/log"
)

// DecisionPublisher 抽象终态通知的发布端，便于测试。
// *pubsub.Publisher 直接满足该接口。
type DecisionPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

// DecisionNotifier 在流水线终态后发布一条人类可读的决策通知。
// 通知是尽力而为的：发布失败只记录日志，绝不回改终态。
type DecisionNotifier struct {
	publisher DecisionPublisher
	log       *log.Helper
}

// NewDecisionNotifier 构造通知器。publisher 为空时通知降级为日志输出。
func NewDecisionNotifier(publisher DecisionPublisher, logger log.Logger) *DecisionNotifier {
	return &DecisionNotifier{
		publisher: publisher,
		log:       log.NewHelper(logger),
	}
}

// Notify 为一个终态投稿发布恰好一条通知。
func (n *DecisionNotifier) Notify(ctx context.Context, res Resolution) {
	body := formatDecision(res)
	if n.publisher == nil {
		n.log.WithContext(ctx).Infof("decision (no publisher configured): %s", body)
		return
	}

	attributes := map[string]string{
		"stagingKey": res.StagingKey,
		"decision":   string(res.Decision),
	}
	if res.Reason != "" {
		attributes["reason"] = res.Reason
	}
	if res.SubmitterEmail != "" {
		attributes["submitter"] = res.SubmitterEmail
	}

	result := n.publisher.Publish(ctx, &gcppubsub.Message{
		Data:       []byte(body),
		Attributes: attributes,
	})
	if _, err := result.Get(ctx); err != nil {
		n.log.WithContext(ctx).Warnf("publish decision failed: staging_key=%s err=%v", res.StagingKey, err)
		return
	}
	n.log.WithContext(ctx).Debugf("decision published: staging_key=%s decision=%s", res.StagingKey, res.Decision)
}

func formatDecision(res Resolution) string {
	name := res.OriginalFilename
	if name == "" {
		name = res.StagingKey
	}
	from := ""
	if res.SubmitterEmail != "" {
		from = fmt.Sprintf(" from %s", res.SubmitterEmail)
	}
	if res.Published() {
		return fmt.Sprintf("Upload %q%s was approved and published: %s", name, from, res.PublicURL)
	}
	if res.Detail != "" {
		return fmt.Sprintf("Upload %q%s was rejected (%s): %s", name, from, res.Reason, res.Detail)
	}
	return fmt.Sprintf("Upload %q%s was rejected (%s)", name, from, res.Reason)
}
