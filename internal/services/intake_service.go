package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/gcs"
	"github.com/bionicotaku/lingo-services-moderation/internal/models/po"
	"github.com/bionicotaku/lingo-services-moderation/internal/repositories"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

const confirmModeSync = "sync"

// SlotSigner 抽象签名 PUT URL 的生成。*gcs.UploadSigner 直接满足该接口。
type SlotSigner interface {
	SignedPutURL(ctx context.Context, bucket, objectName, contentType string, metadata map[string]string, ttl time.Duration) (string, map[string]string, time.Time, error)
}

// IntakeStore 抽象入口需要的对象存储操作。*gcs.ObjectStore 直接满足该接口。
type IntakeStore interface {
	StatStaging(ctx context.Context, key string) (*gcs.ObjectInfo, error)
	WriteStaging(ctx context.Context, key, contentType string, metadata map[string]string, r io.Reader) (int64, error)
	DeleteStaging(ctx context.Context, key string) error
	StagingBucket() string
}

// PipelineRunner 抽象流水线入口。*PipelineService 直接满足该接口。
type PipelineRunner interface {
	Process(ctx context.Context, in ProcessInput) Resolution
}

// SubmissionLog 抽象投稿记账的登记与查询。*repositories.SubmissionRepository 满足。
type SubmissionLog interface {
	Upsert(ctx context.Context, input repositories.UpsertSubmissionInput) (*po.Submission, error)
	Get(ctx context.Context, stagingKey string) (*po.Submission, error)
}

// CreateSlotInput 描述一次上传凭证申请。
type CreateSlotInput struct {
	Filename       string
	ContentType    string
	SubmitterEmail string
	Category       string
	Consent        bool
	Comments       string
}

// CreateSlotResult 返回一次性上传凭证。
type CreateSlotResult struct {
	UploadURL       string
	StagingKey      string
	RequiredHeaders map[string]string
	ExpiresAt       time.Time
}

// ConfirmUploadInput 描述字节就位后的确认请求。
type ConfirmUploadInput struct {
	StagingKey     string
	Filename       string
	SubmitterEmail string
	Category       string
	Comments       string
}

// IngestRemoteInput 描述服务端拉取远端文件的入库请求。
type IngestRemoteInput struct {
	SourceURL      string
	Filename       string
	ContentType    string
	SubmitterEmail string
	Category       string
	Comments       string
}

// ConfirmResult 表示确认请求的出参：async 契约下 Started=true 且无终态；
// sync 契约下携带流水线终态。StagingKey 始终给出，供调用方轮询状态。
type ConfirmResult struct {
	StagingKey string
	Started    bool
	Resolution *Resolution
}

// IntakeService 实现上传入口用例：签发上传槽、确认入库、远端拉取与状态查询。
type IntakeService struct {
	signer          SlotSigner
	store           IntakeStore
	pipeline        PipelineRunner
	submissions     SubmissionLog
	httpClient      *http.Client
	stagingPrefix   string
	signedURLTTL    time.Duration
	confirmMode     string
	allowedTypes    map[string]struct{}
	keyMaxLen       int
	valueMaxLen     int
	maxFetchBytes   int64
	pipelineTimeout time.Duration
	log             *log.Helper
	newID           func() uuid.UUID
}

// NewIntakeService 构造上传入口服务。
func NewIntakeService(
	signer SlotSigner,
	store IntakeStore,
	pipeline PipelineRunner,
	submissions SubmissionLog,
	storageCfg *loader.Storage,
	intakeCfg *loader.Intake,
	logger log.Logger,
) (*IntakeService, error) {
	switch {
	case signer == nil:
		return nil, errors.New("intake service: signer is required")
	case store == nil:
		return nil, errors.New("intake service: object store is required")
	case pipeline == nil:
		return nil, errors.New("intake service: pipeline is required")
	case storageCfg == nil:
		return nil, errors.New("intake service: storage config is required")
	case intakeCfg == nil:
		return nil, errors.New("intake service: intake config is required")
	}

	allowed := make(map[string]struct{}, len(intakeCfg.AllowedContentTypes))
	for _, contentType := range intakeCfg.AllowedContentTypes {
		allowed[strings.ToLower(strings.TrimSpace(contentType))] = struct{}{}
	}

	return &IntakeService{
		signer:          signer,
		store:           store,
		pipeline:        pipeline,
		submissions:     submissions,
		httpClient:      http.DefaultClient,
		stagingPrefix:   storageCfg.StagingPrefix,
		signedURLTTL:    storageCfg.SignedURLTTL.AsDuration(),
		confirmMode:     intakeCfg.ConfirmMode,
		allowedTypes:    allowed,
		keyMaxLen:       intakeCfg.MetadataKeyMaxLen,
		valueMaxLen:     intakeCfg.MetadataValueMaxLen,
		maxFetchBytes:   intakeCfg.MaxRemoteFetchBytes,
		pipelineTimeout: intakeCfg.PipelineTimeout.AsDuration(),
		log:             log.NewHelper(logger),
		newID:           uuid.New,
	}, nil
}

// CreateUploadSlot 签发一个限时、限键的 V4 签名 PUT URL。
func (s *IntakeService) CreateUploadSlot(ctx context.Context, in CreateSlotInput) (*CreateSlotResult, error) {
	if err := s.validateSlotInput(in); err != nil {
		return nil, err
	}

	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	stagingKey := s.newStagingKey(in.Filename)
	metadata := s.submissionMetadata(in.SubmitterEmail, in.Category, in.Comments)

	uploadURL, requiredHeaders, expiresAt, err := s.signer.SignedPutURL(ctx, s.store.StagingBucket(), stagingKey, contentType, metadata, s.signedURLTTL)
	if err != nil {
		return nil, kerrors.InternalServer(ReasonInternalError, "issue upload slot failed").WithCause(err)
	}

	s.recordPending(ctx, stagingKey, in.Filename, contentType, in.SubmitterEmail, in.Category)

	return &CreateSlotResult{
		UploadURL:       uploadURL,
		StagingKey:      stagingKey,
		RequiredHeaders: requiredHeaders,
		ExpiresAt:       expiresAt,
	}, nil
}

// ConfirmUpload 在字节就位后触发流水线。
// async 契约立即返回 started；sync 契约阻塞到终态。
func (s *IntakeService) ConfirmUpload(ctx context.Context, in ConfirmUploadInput) (*ConfirmResult, error) {
	switch {
	case strings.TrimSpace(in.StagingKey) == "":
		return nil, kerrors.BadRequest(ReasonValidationError, "stagingKey is required")
	case !strings.HasPrefix(in.StagingKey, s.stagingPrefix):
		return nil, kerrors.BadRequest(ReasonValidationError, "stagingKey is outside the staging area")
	case strings.TrimSpace(in.Filename) == "":
		return nil, kerrors.BadRequest(ReasonValidationError, "filename is required")
	}
	if err := validateEmail(in.SubmitterEmail); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, kerrors.BadRequest(ReasonValidationError, "category is required")
	}

	info, err := s.store.StatStaging(ctx, in.StagingKey)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return nil, kerrors.NotFound(ReasonUploadNotFound, "staged object not found")
		}
		return nil, kerrors.InternalServer(ReasonInternalError, "stat staged object failed").WithCause(err)
	}

	return s.dispatch(ctx, ProcessInput{
		StagingKey:  in.StagingKey,
		Filename:    in.Filename,
		ContentType: info.ContentType,
		Metadata: map[string]string{
			"email":    in.SubmitterEmail,
			"category": in.Category,
			"comments": in.Comments,
		},
	}), nil
}

// IngestRemote 服务端拉取远端文件写入暂存区，然后按确认契约触发流水线。
// 面向可信自动化调用方；签名校验不在此处。
func (s *IntakeService) IngestRemote(ctx context.Context, in IngestRemoteInput) (*ConfirmResult, error) {
	if err := s.validateIngestInput(in); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.SourceURL, nil)
	if err != nil {
		return nil, kerrors.BadRequest(ReasonValidationError, "sourceUrl is not a valid URL").WithCause(err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, kerrors.BadRequest(ReasonSourceUnavailable, "fetch source failed").WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, kerrors.BadRequest(ReasonSourceUnavailable, fmt.Sprintf("source returned status %d", resp.StatusCode))
	}

	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	if contentType == "" {
		contentType = responseContentType(resp)
	}

	stagingKey := s.newStagingKey(in.Filename)
	metadata := s.submissionMetadata(in.SubmitterEmail, in.Category, in.Comments)

	// 多读一个字节以区分“恰好到上限”与“超限”。
	written, err := s.store.WriteStaging(ctx, stagingKey, contentType, metadata, io.LimitReader(resp.Body, s.maxFetchBytes+1))
	if err != nil {
		return nil, kerrors.InternalServer(ReasonInternalError, "stage remote file failed").WithCause(err)
	}
	if written > s.maxFetchBytes {
		if delErr := s.store.DeleteStaging(ctx, stagingKey); delErr != nil {
			s.log.WithContext(ctx).Warnf("delete oversized staging object failed: staging_key=%s err=%v", stagingKey, delErr)
		}
		return nil, kerrors.BadRequest(ReasonValidationError, fmt.Sprintf("source exceeds the %d byte limit", s.maxFetchBytes))
	}

	s.recordPending(ctx, stagingKey, in.Filename, contentType, in.SubmitterEmail, in.Category)

	return s.dispatch(ctx, ProcessInput{
		StagingKey:  stagingKey,
		Filename:    in.Filename,
		ContentType: contentType,
		Metadata: map[string]string{
			"email":    in.SubmitterEmail,
			"category": in.Category,
			"comments": in.Comments,
		},
	}), nil
}

// GetSubmission 按暂存键查询投稿状态。
func (s *IntakeService) GetSubmission(ctx context.Context, stagingKey string) (*po.Submission, error) {
	if strings.TrimSpace(stagingKey) == "" {
		return nil, kerrors.BadRequest(ReasonValidationError, "stagingKey is required")
	}
	if s.submissions == nil {
		return nil, kerrors.NotFound(ReasonUploadNotFound, "submission tracking is not enabled")
	}

	submission, err := s.submissions.Get(ctx, stagingKey)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, kerrors.NotFound(ReasonUploadNotFound, "submission not found")
		}
		return nil, kerrors.InternalServer(ReasonInternalError, "load submission failed").WithCause(err)
	}
	return submission, nil
}

// dispatch 按确认契约运行流水线：sync 阻塞至终态，async 派生独立上下文后台运行。
func (s *IntakeService) dispatch(ctx context.Context, in ProcessInput) *ConfirmResult {
	if s.confirmMode == confirmModeSync {
		runCtx, cancel := context.WithTimeout(ctx, s.pipelineTimeout)
		defer cancel()
		res := s.pipeline.Process(runCtx, in)
		return &ConfirmResult{StagingKey: in.StagingKey, Resolution: &res}
	}

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), s.pipelineTimeout)
		defer cancel()
		s.pipeline.Process(runCtx, in)
	}()
	return &ConfirmResult{StagingKey: in.StagingKey, Started: true}
}

// recordPending 尽力登记 pending 记账行；失败只记日志。
func (s *IntakeService) recordPending(ctx context.Context, stagingKey, filename, contentType, email, category string) {
	if s.submissions == nil {
		return
	}
	var contentTypePtr *string
	if contentType != "" {
		contentTypePtr = &contentType
	}
	if _, err := s.submissions.Upsert(ctx, repositories.UpsertSubmissionInput{
		StagingKey:       stagingKey,
		OriginalFilename: filename,
		ContentType:      contentTypePtr,
		SubmitterEmail:   email,
		Category:         category,
	}); err != nil {
		s.log.WithContext(ctx).Warnf("record pending submission failed: staging_key=%s err=%v", stagingKey, err)
	}
}

func (s *IntakeService) newStagingKey(filename string) string {
	return s.stagingPrefix + s.newID().String() + "_" + SanitizeFilename(filename)
}

func (s *IntakeService) submissionMetadata(email, category, comments string) map[string]string {
	metadata := map[string]string{
		"email":    email,
		"category": category,
	}
	if comments != "" {
		metadata["comments"] = comments
	}
	return SanitizeMetadata(metadata, s.keyMaxLen, s.valueMaxLen)
}

func (s *IntakeService) validateSlotInput(in CreateSlotInput) error {
	switch {
	case strings.TrimSpace(in.Filename) == "":
		return kerrors.BadRequest(ReasonValidationError, "filename is required")
	case !in.Consent:
		return kerrors.BadRequest(ReasonValidationError, "consent is required")
	case strings.TrimSpace(in.Category) == "":
		return kerrors.BadRequest(ReasonValidationError, "category is required")
	}
	if err := validateEmail(in.SubmitterEmail); err != nil {
		return err
	}
	return s.validateContentType(in.ContentType, true)
}

func (s *IntakeService) validateIngestInput(in IngestRemoteInput) error {
	parsed, err := url.Parse(strings.TrimSpace(in.SourceURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return kerrors.BadRequest(ReasonValidationError, "sourceUrl must be an absolute http(s) URL")
	}
	if strings.TrimSpace(in.Filename) == "" {
		return kerrors.BadRequest(ReasonValidationError, "filename is required")
	}
	if err := validateEmail(in.SubmitterEmail); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return kerrors.BadRequest(ReasonValidationError, "category is required")
	}
	return s.validateContentType(in.ContentType, false)
}

// validateContentType 校验声明的 MIME 类型；允许清单为空时放行任意类型。
func (s *IntakeService) validateContentType(contentType string, required bool) error {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if normalized == "" {
		if required {
			return kerrors.BadRequest(ReasonValidationError, "contentType is required")
		}
		return nil
	}
	if len(s.allowedTypes) == 0 {
		return nil
	}
	if _, ok := s.allowedTypes[normalized]; !ok {
		return kerrors.BadRequest(ReasonValidationError, fmt.Sprintf("contentType %q is not allowed", contentType))
	}
	return nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return kerrors.BadRequest(ReasonValidationError, "submitterEmail is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return kerrors.BadRequest(ReasonValidationError, "submitterEmail is not a valid address")
	}
	return nil
}

func responseContentType(resp *http.Response) string {
	contentType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
