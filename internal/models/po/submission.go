package po

import (
	"time"
)

// SubmissionStatus 表示一次投稿在审核流水线中的当前状态。
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusPublished SubmissionStatus = "published"
	SubmissionStatusRejected  SubmissionStatus = "rejected"
)

// Submission 描述 moderation.submissions 表中的一条投稿记录。
// 该表仅做旁路记账：流水线判定不依赖它，写入失败不影响终态。
type Submission struct {
	StagingKey       string
	OriginalFilename string
	ContentType      *string
	SubmitterEmail   string
	Category         string
	Status           SubmissionStatus
	RejectReason     *string
	PublicURL        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
