package moderation

import (
	"context"
	"fmt"

	video "cloud.google.com/go/videointelligence/apiv1"
	"cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/googleapis/gax-go/v2"
)

// VideoJob 抽象一个进行中的显式内容分析长任务。
// *video.AnnotateVideoOperation 直接满足该接口。
type VideoJob interface {
	Poll(ctx context.Context, opts ...gax.CallOption) (*videointelligencepb.AnnotateVideoResponse, error)
	Done() bool
}

// VideoAnnotator 抽象显式内容分析任务的提交，便于测试。
type VideoAnnotator interface {
	SubmitExplicitContentJob(ctx context.Context, gsURI string) (VideoJob, error)
}

// NewVideoIntelligenceClient 创建 Video Intelligence 客户端。
func NewVideoIntelligenceClient(ctx context.Context, logger log.Logger) (*video.Client, func(), error) {
	client, err := video.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create video intelligence client: %w", err)
	}

	helper := log.NewHelper(logger)
	cleanup := func() {
		if closeErr := client.Close(); closeErr != nil {
			helper.Warnf("close video intelligence client failed: %v", closeErr)
		}
	}
	return client, cleanup, nil
}

type videoAnnotator struct {
	client *video.Client
}

// ProvideVideoAnnotator 以接口形式暴露 Video Intelligence 客户端。
func ProvideVideoAnnotator(client *video.Client) VideoAnnotator {
	return &videoAnnotator{client: client}
}

// SubmitExplicitContentJob 按 gs:// 地址提交一次显式内容检测任务。
func (a *videoAnnotator) SubmitExplicitContentJob(ctx context.Context, gsURI string) (VideoJob, error) {
	op, err := a.client.AnnotateVideo(ctx, &videointelligencepb.AnnotateVideoRequest{
		InputUri: gsURI,
		Features: []videointelligencepb.Feature{videointelligencepb.Feature_EXPLICIT_CONTENT_DETECTION},
	})
	if err != nil {
		return nil, fmt.Errorf("submit explicit content job: %w", err)
	}
	return op, nil
}

var _ VideoAnnotator = (*videoAnnotator)(nil)
