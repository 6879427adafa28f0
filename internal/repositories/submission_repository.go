package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/bionicotaku/lingo-services-moderation/internal/models/po"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSubmissionNotFound 表示投稿记录不存在。
var ErrSubmissionNotFound = errors.New("submission not found")

// SubmissionRepository 封装 moderation.submissions 表的访问逻辑。
type SubmissionRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewSubmissionRepository 构造仓储。
func NewSubmissionRepository(db *pgxpool.Pool, logger log.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:  db,
		log: log.NewHelper(logger),
	}
}

// UpsertSubmissionInput 描述确认入库时登记的投稿元数据。
type UpsertSubmissionInput struct {
	StagingKey       string
	OriginalFilename string
	ContentType      *string
	SubmitterEmail   string
	Category         string
}

const submissionColumns = `
    staging_key, original_filename, content_type, submitter_email, category,
    status, reject_reason, public_url, created_at, updated_at`

const upsertSubmissionSQL = `
INSERT INTO moderation.submissions (
    staging_key, original_filename, content_type, submitter_email, category
) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (staging_key) DO UPDATE SET
    original_filename = EXCLUDED.original_filename,
    content_type      = EXCLUDED.content_type,
    submitter_email   = EXCLUDED.submitter_email,
    category          = EXCLUDED.category,
    updated_at        = now()
RETURNING` + submissionColumns

const markSubmissionPublishedSQL = `
UPDATE moderation.submissions
SET status = 'published', public_url = $2, reject_reason = NULL, updated_at = now()
WHERE staging_key = $1 AND status = 'pending'
RETURNING` + submissionColumns

const markSubmissionRejectedSQL = `
UPDATE moderation.submissions
SET status = 'rejected', reject_reason = $2, public_url = NULL, updated_at = now()
WHERE staging_key = $1 AND status = 'pending'
RETURNING` + submissionColumns

const getSubmissionSQL = `
SELECT` + submissionColumns + `
FROM moderation.submissions
WHERE staging_key = $1`

// Upsert 登记一条待审投稿；重复确认同一暂存对象时刷新元数据，不重置状态。
func (r *SubmissionRepository) Upsert(ctx context.Context, input UpsertSubmissionInput) (*po.Submission, error) {
	row := r.db.QueryRow(ctx, upsertSubmissionSQL,
		input.StagingKey,
		input.OriginalFilename,
		textFromPtr(input.ContentType),
		input.SubmitterEmail,
		input.Category,
	)
	submission, err := scanSubmission(row)
	if err != nil {
		r.log.WithContext(ctx).Errorf("upsert submission failed: staging_key=%s err=%v", input.StagingKey, err)
		return nil, fmt.Errorf("upsert submission: %w", err)
	}
	return submission, nil
}

// MarkPublished 将待审投稿标记为已发布并记录公开地址。
// 终态只写一次：行缺失或已终态时返回 ErrSubmissionNotFound，
// 事件重投不会改写先前的结论。
func (r *SubmissionRepository) MarkPublished(ctx context.Context, stagingKey, publicURL string) (*po.Submission, error) {
	row := r.db.QueryRow(ctx, markSubmissionPublishedSQL, stagingKey, publicURL)
	submission, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		r.log.WithContext(ctx).Errorf("mark submission published failed: staging_key=%s err=%v", stagingKey, err)
		return nil, fmt.Errorf("mark submission published: %w", err)
	}
	return submission, nil
}

// MarkRejected 将待审投稿标记为已拒绝并记录原因。
// 与 MarkPublished 同样只作用于 pending 行。
func (r *SubmissionRepository) MarkRejected(ctx context.Context, stagingKey, reason string) (*po.Submission, error) {
	row := r.db.QueryRow(ctx, markSubmissionRejectedSQL, stagingKey, reason)
	submission, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		r.log.WithContext(ctx).Errorf("mark submission rejected failed: staging_key=%s err=%v", stagingKey, err)
		return nil, fmt.Errorf("mark submission rejected: %w", err)
	}
	return submission, nil
}

// Get 按暂存键返回投稿记录。
func (r *SubmissionRepository) Get(ctx context.Context, stagingKey string) (*po.Submission, error) {
	row := r.db.QueryRow(ctx, getSubmissionSQL, stagingKey)
	submission, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		r.log.WithContext(ctx).Errorf("get submission failed: staging_key=%s err=%v", stagingKey, err)
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return submission, nil
}

func scanSubmission(row pgx.Row) (*po.Submission, error) {
	var (
		submission   po.Submission
		status       string
		contentType  pgtype.Text
		rejectReason pgtype.Text
		publicURL    pgtype.Text
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
	)
	if err := row.Scan(
		&submission.StagingKey,
		&submission.OriginalFilename,
		&contentType,
		&submission.SubmitterEmail,
		&submission.Category,
		&status,
		&rejectReason,
		&publicURL,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	submission.Status = po.SubmissionStatus(status)
	submission.ContentType = ptrFromText(contentType)
	submission.RejectReason = ptrFromText(rejectReason)
	submission.PublicURL = ptrFromText(publicURL)
	submission.CreatedAt = createdAt.Time
	submission.UpdatedAt = updatedAt.Time
	return &submission, nil
}

var _ interface {
	Upsert(context.Context, UpsertSubmissionInput) (*po.Submission, error)
	MarkPublished(context.Context, string, string) (*po.Submission, error)
	MarkRejected(context.Context, string, string) (*po.Submission, error)
	Get(context.Context, string) (*po.Submission, error)
} = (*SubmissionRepository)(nil)
