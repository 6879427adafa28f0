package controllers

import (
	"context"
	"net/http"

	"github.com/bionicotaku/lingo-services-moderation/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-moderation/internal/models/po"
	"github.com/bionicotaku/lingo-services-moderation/internal/services"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// 手写路由没有 proto 生成的操作名，这里保持同样的命名形状供中间件消费。
const (
	OperationCreateUploadSlot = "/moderation.v1.Uploads/CreateSlot"
	OperationConfirmUpload    = "/moderation.v1.Uploads/Confirm"
	OperationIngestWebhook    = "/moderation.v1.Uploads/Webhook"
	OperationGetSubmission    = "/moderation.v1.Uploads/GetSubmission"
)

// UploadHandler 暴露上传入口的 HTTP 接口。
type UploadHandler struct {
	*BaseHandler
	svc *services.IntakeService
}

// NewUploadHandler 构造 UploadHandler。
func NewUploadHandler(base *BaseHandler, svc *services.IntakeService) *UploadHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &UploadHandler{BaseHandler: base, svc: svc}
}

// Register 挂载上传相关路由。stagingKey 含斜杠，路径参数需要贪婪匹配。
func (h *UploadHandler) Register(r *khttp.Router) {
	r.POST("/uploads/slot", h.CreateSlot)
	r.POST("/uploads/confirm", h.ConfirmUpload)
	r.POST("/uploads/webhook", h.IngestWebhook)
	r.GET("/uploads/{stagingKey:.+}", h.GetSubmission)
}

// CreateSlot 处理上传凭证申请。
func (h *UploadHandler) CreateSlot(ctx khttp.Context) error {
	var req dto.CreateSlotRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	khttp.SetOperation(ctx, OperationCreateUploadSlot)
	handler := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
		timeoutCtx, cancel := h.WithTimeout(ctx, HandlerTypeCommand)
		defer cancel()
		return h.svc.CreateUploadSlot(timeoutCtx, req.(*dto.CreateSlotRequest).ToInput())
	})
	out, err := handler(ctx, &req)
	if err != nil {
		return err
	}
	return ctx.Result(http.StatusOK, dto.NewCreateSlotResponse(out.(*services.CreateSlotResult)))
}

// ConfirmUpload 处理字节就位后的确认请求。
func (h *UploadHandler) ConfirmUpload(ctx khttp.Context) error {
	var req dto.ConfirmUploadRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	khttp.SetOperation(ctx, OperationConfirmUpload)
	handler := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
		timeoutCtx, cancel := h.WithTimeout(ctx, HandlerTypeCommand)
		defer cancel()
		return h.svc.ConfirmUpload(timeoutCtx, req.(*dto.ConfirmUploadRequest).ToInput())
	})
	out, err := handler(ctx, &req)
	if err != nil {
		return err
	}
	return h.respondConfirm(ctx, out.(*services.ConfirmResult))
}

// IngestWebhook 处理远端拉取入库请求。
func (h *UploadHandler) IngestWebhook(ctx khttp.Context) error {
	var req dto.WebhookRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	khttp.SetOperation(ctx, OperationIngestWebhook)
	handler := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
		timeoutCtx, cancel := h.WithTimeout(ctx, HandlerTypeCommand)
		defer cancel()
		return h.svc.IngestRemote(timeoutCtx, req.(*dto.WebhookRequest).ToInput())
	})
	out, err := handler(ctx, &req)
	if err != nil {
		return err
	}
	return h.respondConfirm(ctx, out.(*services.ConfirmResult))
}

// GetSubmission 处理投稿状态查询。
func (h *UploadHandler) GetSubmission(ctx khttp.Context) error {
	stagingKey := ctx.Vars().Get("stagingKey")

	khttp.SetOperation(ctx, OperationGetSubmission)
	handler := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
		timeoutCtx, cancel := h.WithTimeout(ctx, HandlerTypeQuery)
		defer cancel()
		return h.svc.GetSubmission(timeoutCtx, req.(string))
	})
	out, err := handler(ctx, stagingKey)
	if err != nil {
		return err
	}
	return ctx.Result(http.StatusOK, dto.NewSubmissionResponse(out.(*po.Submission)))
}

// respondConfirm 将确认出参映射到 HTTP：async 返回 started，
// sync 发布返回终态正文，sync 拒绝映射为 422/500。
func (h *UploadHandler) respondConfirm(ctx khttp.Context, result *services.ConfirmResult) error {
	if result.Started {
		return ctx.Result(http.StatusOK, dto.NewStartedResponse(result.StagingKey))
	}
	res := result.Resolution
	if res == nil {
		return kerrors.InternalServer(services.ReasonInternalError, "pipeline returned no resolution")
	}
	if res.Published() {
		return ctx.Result(http.StatusOK, dto.NewPublishedResponse(*res))
	}
	if res.Reason == services.ReasonInternalError {
		return kerrors.InternalServer(res.Reason, res.Detail)
	}
	return kerrors.New(http.StatusUnprocessableEntity, res.Reason, res.Detail)
}
