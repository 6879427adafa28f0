package moderation

import "github.com/google/wire"

// ProviderSet 暴露审核适配器的构造函数供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	NewImageAnnotatorClient,
	ProvideImageAnnotator,
	NewVideoIntelligenceClient,
	ProvideVideoAnnotator,
	NewAdapter,
	NewDurationProber,
)
