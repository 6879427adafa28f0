package controllers

import (
	"net/http"
	"time"

	"github.com/bionicotaku/lingo-services-moderation/internal/controllers/dto"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// HealthHandler 暴露轻量健康检查接口。
type HealthHandler struct {
	now func() time.Time
}

// NewHealthHandler 构造 HealthHandler。
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{now: time.Now}
}

// Register 挂载健康检查路由。
func (h *HealthHandler) Register(r *khttp.Router) {
	r.GET("/health", h.Health)
}

// Health 返回进程存活状态与当前时间。
func (h *HealthHandler) Health(ctx khttp.Context) error {
	return ctx.Result(http.StatusOK, dto.NewHealthResponse(h.now()))
}
