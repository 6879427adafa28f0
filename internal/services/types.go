// Package services 承载上传审核的业务用例编排。
package services

// 错误原因码，贯穿服务层与 HTTP 层。
const (
	ReasonValidationError       = "VALIDATION_ERROR"
	ReasonUploadNotFound        = "UPLOAD_NOT_FOUND"
	ReasonSourceUnavailable     = "SOURCE_UNAVAILABLE"
	ReasonDuplicateContent      = "DUPLICATE_CONTENT"
	ReasonModerationFlagged     = "MODERATION_FLAGGED"
	ReasonModerationUnavailable = "MODERATION_UNAVAILABLE"
	ReasonDurationOutOfRange    = "DURATION_OUT_OF_RANGE"
	ReasonInternalError         = "INTERNAL_ERROR"
)

// Decision 表示流水线对一个暂存对象的终态。
type Decision string

const (
	DecisionPublished Decision = "published"
	DecisionRejected  Decision = "rejected"
)

// Resolution 表示一次流水线运行的完整结论。
// 每个暂存对象恰好产生一个 Resolution，伴随恰好一次通知。
type Resolution struct {
	StagingKey       string
	OriginalFilename string
	SubmitterEmail   string
	Decision         Decision
	// PublicURL 仅在 Published 时有值。
	PublicURL string
	// Reason 为 Rejected 时的原因码（UPPER_SNAKE）。
	Reason string
	// Detail 为人类可读的补充说明（命中标签、失败类别等）。
	Detail string
}

// Published 判断终态是否为发布。
func (r Resolution) Published() bool {
	return r.Decision == DecisionPublished
}

// ProcessInput 描述一次流水线运行的触发信息。
// Filename/ContentType/Metadata 缺失时以暂存对象自身的属性兜底。
type ProcessInput struct {
	StagingKey  string
	Filename    string
	ContentType string
	Metadata    map[string]string
}
