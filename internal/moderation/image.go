package moderation

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/googleapis/gax-go/v2"
)

// ImageAnnotator 抽象 Vision SafeSearch 调用，便于测试。
// *vision.ImageAnnotatorClient 直接满足该接口。
type ImageAnnotator interface {
	DetectSafeSearch(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, opts ...gax.CallOption) (*visionpb.SafeSearchAnnotation, error)
}

// NewImageAnnotatorClient 创建 Vision 客户端。
// 凭证走 Application Default Credentials。
func NewImageAnnotatorClient(ctx context.Context, logger log.Logger) (*vision.ImageAnnotatorClient, func(), error) {
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create vision client: %w", err)
	}

	helper := log.NewHelper(logger)
	cleanup := func() {
		if closeErr := client.Close(); closeErr != nil {
			helper.Warnf("close vision client failed: %v", closeErr)
		}
	}
	return client, cleanup, nil
}

// ProvideImageAnnotator 以接口形式暴露 Vision 客户端。
func ProvideImageAnnotator(client *vision.ImageAnnotatorClient) ImageAnnotator {
	return client
}

// safeSearchLabels 将五个 SafeSearch 类别折算为置信度标签，固定顺序输出。
func safeSearchLabels(annotation *visionpb.SafeSearchAnnotation) []Label {
	if annotation == nil {
		return nil
	}
	return []Label{
		{Name: "Adult", Confidence: likelihoodConfidence(int32(annotation.GetAdult()))},
		{Name: "Spoof", Confidence: likelihoodConfidence(int32(annotation.GetSpoof()))},
		{Name: "Medical", Confidence: likelihoodConfidence(int32(annotation.GetMedical()))},
		{Name: "Violence", Confidence: likelihoodConfidence(int32(annotation.GetViolence()))},
		{Name: "Racy", Confidence: likelihoodConfidence(int32(annotation.GetRacy()))},
	}
}
