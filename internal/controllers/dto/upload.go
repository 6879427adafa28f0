// Package dto 定义 HTTP 层的请求/响应载体及其与服务层的转换。
package dto

import (
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-moderation/internal/models/po"
	"github.com/bionicotaku/lingo-services-moderation/internal/services"
)

// CreateSlotRequest 描述上传凭证申请的 JSON 请求体。
type CreateSlotRequest struct {
	Filename       string `json:"filename"`
	ContentType    string `json:"contentType"`
	SubmitterEmail string `json:"submitterEmail"`
	Category       string `json:"category"`
	Consent        bool   `json:"consent"`
	Comments       string `json:"comments,omitempty"`
}

// ToInput 转换为服务层输入。
func (r *CreateSlotRequest) ToInput() services.CreateSlotInput {
	if r == nil {
		return services.CreateSlotInput{}
	}
	return services.CreateSlotInput{
		Filename:       strings.TrimSpace(r.Filename),
		ContentType:    strings.TrimSpace(r.ContentType),
		SubmitterEmail: strings.TrimSpace(r.SubmitterEmail),
		Category:       strings.TrimSpace(r.Category),
		Consent:        r.Consent,
		Comments:       strings.TrimSpace(r.Comments),
	}
}

// CreateSlotResponse 返回一次性上传凭证。
type CreateSlotResponse struct {
	UploadURL       string            `json:"uploadUrl"`
	StagingKey      string            `json:"stagingKey"`
	RequiredHeaders map[string]string `json:"requiredHeaders,omitempty"`
	ExpiresAtUnixMs int64             `json:"expiresAtUnixMs"`
}

// NewCreateSlotResponse 将服务层结果转换为响应体。
func NewCreateSlotResponse(result *services.CreateSlotResult) *CreateSlotResponse {
	if result == nil {
		return &CreateSlotResponse{}
	}
	return &CreateSlotResponse{
		UploadURL:       result.UploadURL,
		StagingKey:      result.StagingKey,
		RequiredHeaders: result.RequiredHeaders,
		ExpiresAtUnixMs: result.ExpiresAt.UTC().UnixMilli(),
	}
}

// ConfirmUploadRequest 描述上传确认的 JSON 请求体。
type ConfirmUploadRequest struct {
	StagingKey     string `json:"stagingKey"`
	Filename       string `json:"filename"`
	SubmitterEmail string `json:"submitterEmail"`
	Category       string `json:"category"`
	Comments       string `json:"comments,omitempty"`
}

// ToInput 转换为服务层输入。
func (r *ConfirmUploadRequest) ToInput() services.ConfirmUploadInput {
	if r == nil {
		return services.ConfirmUploadInput{}
	}
	return services.ConfirmUploadInput{
		StagingKey:     strings.TrimSpace(r.StagingKey),
		Filename:       strings.TrimSpace(r.Filename),
		SubmitterEmail: strings.TrimSpace(r.SubmitterEmail),
		Category:       strings.TrimSpace(r.Category),
		Comments:       strings.TrimSpace(r.Comments),
	}
}

// WebhookRequest 描述远端拉取入库的 JSON 请求体。
type WebhookRequest struct {
	SourceURL      string `json:"sourceUrl"`
	Filename       string `json:"filename"`
	ContentType    string `json:"contentType,omitempty"`
	SubmitterEmail string `json:"submitterEmail"`
	Category       string `json:"category"`
	Comments       string `json:"comments,omitempty"`
}

// ToInput 转换为服务层输入。
func (r *WebhookRequest) ToInput() services.IngestRemoteInput {
	if r == nil {
		return services.IngestRemoteInput{}
	}
	return services.IngestRemoteInput{
		SourceURL:      strings.TrimSpace(r.SourceURL),
		Filename:       strings.TrimSpace(r.Filename),
		ContentType:    strings.TrimSpace(r.ContentType),
		SubmitterEmail: strings.TrimSpace(r.SubmitterEmail),
		Category:       strings.TrimSpace(r.Category),
		Comments:       strings.TrimSpace(r.Comments),
	}
}

// ConfirmResponse 描述确认/入库请求的成功响应。
// async 契约只携带 started；sync 契约在发布时携带终态信息。
type ConfirmResponse struct {
	Status     string `json:"status"`
	StagingKey string `json:"stagingKey,omitempty"`
	PublicURL  string `json:"publicUrl,omitempty"`
}

// NewStartedResponse 表示流水线已在后台启动。
func NewStartedResponse(stagingKey string) *ConfirmResponse {
	return &ConfirmResponse{Status: "started", StagingKey: stagingKey}
}

// NewPublishedResponse 表示同步契约下的发布终态。
func NewPublishedResponse(res services.Resolution) *ConfirmResponse {
	return &ConfirmResponse{
		Status:     string(res.Decision),
		StagingKey: res.StagingKey,
		PublicURL:  res.PublicURL,
	}
}

// SubmissionResponse 描述投稿状态查询的响应体。
type SubmissionResponse struct {
	StagingKey string `json:"stagingKey"`
	Filename   string `json:"filename,omitempty"`
	Category   string `json:"category,omitempty"`
	Status     string `json:"status"`
	PublicURL  string `json:"publicUrl,omitempty"`
	Reason     string `json:"reason,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// NewSubmissionResponse 将记账行转换为响应体。
func NewSubmissionResponse(sub *po.Submission) *SubmissionResponse {
	if sub == nil {
		return &SubmissionResponse{}
	}
	resp := &SubmissionResponse{
		StagingKey: sub.StagingKey,
		Filename:   sub.OriginalFilename,
		Category:   sub.Category,
		Status:     string(sub.Status),
		CreatedAt:  FormatTime(sub.CreatedAt),
		UpdatedAt:  FormatTime(sub.UpdatedAt),
	}
	if sub.PublicURL != nil {
		resp.PublicURL = *sub.PublicURL
	}
	if sub.RejectReason != nil {
		resp.Reason = *sub.RejectReason
	}
	return resp
}

// HealthResponse 描述健康检查响应体。
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// NewHealthResponse 返回当前时刻的健康响应。
func NewHealthResponse(now time.Time) *HealthResponse {
	return &HealthResponse{Status: "ok", Time: FormatTime(now)}
}

// FormatTime 以 UTC RFC3339Nano 输出时间，零值返回空串。
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
