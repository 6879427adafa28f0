package controllers

import (
	"github.com/google/wire"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
)

// ProviderSet 暴露 HTTP Handler 的构造函数供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	ProvideBaseHandler,
	NewUploadHandler,
	NewHealthHandler,
)

// ProvideBaseHandler 从服务器配置推导 Handler 超时策略。
func ProvideBaseHandler(cfg *loader.Server) *BaseHandler {
	timeouts := HandlerTimeouts{}
	if cfg != nil && cfg.HTTP != nil {
		timeouts.Default = cfg.HTTP.Timeout.AsDuration()
	}
	return NewBaseHandler(timeouts)
}
