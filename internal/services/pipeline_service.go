package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-moderation/internal/fingerprint"
	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/gcs"
	"github.com/bionicotaku/lingo-services-moderation/internal/models/po"
	"github.com/bionicotaku/lingo-services-moderation/internal/moderation"
	"github.com/bionicotaku/lingo-services-moderation/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StagingStore 抽象流水线依赖的对象存储操作，便于测试。
// *gcs.ObjectStore 直接满足该接口。
type StagingStore interface {
	StatStaging(ctx context.Context, key string) (*gcs.ObjectInfo, error)
	OpenStaging(ctx context.Context, key string) (io.ReadCloser, error)
	CopyToPublic(ctx context.Context, stagingKey, publicKey, contentType string, metadata map[string]string) error
	DeleteStaging(ctx context.Context, key string) error
	GSURI(key string) string
	PublicURL(key string) string
}

// FingerprintLedger 抽象指纹账本，便于测试。
type FingerprintLedger interface {
	Lookup(ctx context.Context, digest fingerprint.Digest) (bool, error)
	Record(ctx context.Context, digest fingerprint.Digest) (bool, error)
}

// ContentModerator 抽象内容审核判定，便于测试。
type ContentModerator interface {
	Evaluate(ctx context.Context, in moderation.EvaluateInput) (moderation.Verdict, error)
}

// MediaProber 抽象本地副本的时长探测。
type MediaProber interface {
	Probe(ctx context.Context, path string) (time.Duration, error)
}

// DecisionSink 抽象终态通知。*DecisionNotifier 直接满足该接口。
type DecisionSink interface {
	Notify(ctx context.Context, res Resolution)
}

// SubmissionRecorder 抽象投稿记账的终态更新。
type SubmissionRecorder interface {
	MarkPublished(ctx context.Context, stagingKey, publicURL string) (*po.Submission, error)
	MarkRejected(ctx context.Context, stagingKey, reason string) (*po.Submission, error)
}

type durationGate struct {
	enabled bool
	min     time.Duration
	max     time.Duration
}

// PipelineService 实现审核-发布状态机：
// Staged → Fingerprinting → DuplicateCheck → Moderating → {Publishing → Published} | Rejected。
// 严格串行；任一步失败短路到 Rejected；每次运行恰好一个终态、恰好一次通知，
// 且暂存副本在两条终态路径上都被移除（尽力而为）。
type PipelineService struct {
	store        StagingStore
	ledger       FingerprintLedger
	moderator    ContentModerator
	prober       MediaProber
	notifier     DecisionSink
	submissions  SubmissionRecorder
	publicPrefix string
	gate         durationGate
	keyMaxLen    int
	valueMaxLen  int
	metrics      *pipelineMetrics
	log          *log.Helper
	now          func() time.Time
	newID        func() uuid.UUID
}

// NewPipelineService 构造流水线服务。
func NewPipelineService(
	store StagingStore,
	ledger FingerprintLedger,
	moderator ContentModerator,
	prober MediaProber,
	notifier DecisionSink,
	submissions SubmissionRecorder,
	storageCfg *loader.Storage,
	moderationCfg *loader.Moderation,
	intakeCfg *loader.Intake,
	logger log.Logger,
) (*PipelineService, error) {
	switch {
	case store == nil:
		return nil, errors.New("pipeline service: staging store is required")
	case ledger == nil:
		return nil, errors.New("pipeline service: fingerprint ledger is required")
	case moderator == nil:
		return nil, errors.New("pipeline service: moderator is required")
	case notifier == nil:
		return nil, errors.New("pipeline service: notifier is required")
	case storageCfg == nil:
		return nil, errors.New("pipeline service: storage config is required")
	case moderationCfg == nil:
		return nil, errors.New("pipeline service: moderation config is required")
	case intakeCfg == nil:
		return nil, errors.New("pipeline service: intake config is required")
	}

	gate := durationGate{}
	if moderationCfg.Duration != nil && moderationCfg.Duration.Enabled {
		if prober == nil {
			return nil, errors.New("pipeline service: duration gate enabled but prober is missing")
		}
		gate = durationGate{
			enabled: true,
			min:     moderationCfg.Duration.Min.AsDuration(),
			max:     moderationCfg.Duration.Max.AsDuration(),
		}
	}

	helper := log.NewHelper(logger)
	meter := otel.GetMeterProvider().Meter("lingo-services-moderation.pipeline")

	return &PipelineService{
		store:        store,
		ledger:       ledger,
		moderator:    moderator,
		prober:       prober,
		notifier:     notifier,
		submissions:  submissions,
		publicPrefix: storageCfg.PublicPrefix,
		gate:         gate,
		keyMaxLen:    intakeCfg.MetadataKeyMaxLen,
		valueMaxLen:  intakeCfg.MetadataValueMaxLen,
		metrics:      newPipelineMetrics(meter, helper),
		log:          helper,
		now:          time.Now,
		newID:        uuid.New,
	}, nil
}

// Process 将一个暂存对象推进到终态。
// 意外错误折入 Rejected(INTERNAL_ERROR)，调用方拿到的始终是终态结论。
func (s *PipelineService) Process(ctx context.Context, in ProcessInput) Resolution {
	start := s.now()
	res := s.resolve(ctx, in)

	s.notifier.Notify(ctx, res)
	s.bookkeep(ctx, res)
	s.metrics.recordResolution(ctx, res, s.now().Sub(start))
	s.log.WithContext(ctx).Infof("pipeline resolved: staging_key=%s decision=%s reason=%s", res.StagingKey, res.Decision, res.Reason)
	return res
}

func (s *PipelineService) resolve(ctx context.Context, in ProcessInput) Resolution {
	base := Resolution{
		StagingKey:       in.StagingKey,
		OriginalFilename: in.Filename,
		SubmitterEmail:   in.Metadata["email"],
	}
	if base.OriginalFilename == "" {
		base.OriginalFilename = FilenameFromStagingKey(in.StagingKey)
	}

	// 1. 读取暂存对象属性，合并触发方提供的线索。
	info, err := s.store.StatStaging(ctx, in.StagingKey)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return s.reject(ctx, base, ReasonSourceUnavailable, "staging object is gone", false)
		}
		return s.reject(ctx, base, ReasonSourceUnavailable, fmt.Sprintf("stat staging object: %v", err), false)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = in.ContentType
	}
	metadata := mergeMetadata(info.Metadata, in.Metadata)
	if email := metadata["email"]; email != "" {
		base.SubmitterEmail = email
	}
	kind := moderation.DetectKind(contentType, base.OriginalFilename)

	// 2. 流式计算指纹；视频且时长闸门开启时旁路一份本地副本。
	stageStart := s.now()
	needTee := s.gate.enabled && kind == moderation.KindVideo
	digest, tempPath, err := s.fingerprintStaging(ctx, in.StagingKey, needTee)
	if tempPath != "" {
		defer os.Remove(tempPath)
	}
	if err != nil {
		return s.reject(ctx, base, ReasonSourceUnavailable, fmt.Sprintf("read staging object: %v", err), true)
	}
	s.metrics.recordStage(ctx, "fingerprint", s.now().Sub(stageStart))

	// 3. 查重：命中即拒绝，不重复登记。
	stageStart = s.now()
	seen, err := s.ledger.Lookup(ctx, digest)
	if err != nil {
		return s.reject(ctx, base, ReasonInternalError, fmt.Sprintf("ledger lookup: %v", err), true)
	}
	s.metrics.recordStage(ctx, "duplicate_check", s.now().Sub(stageStart))
	if seen {
		return s.reject(ctx, base, ReasonDuplicateContent, fmt.Sprintf("fingerprint %s already recorded", digest), true)
	}

	// 4. 时长闸门（软）：探测失败放行，超界拒绝。
	if needTee && tempPath != "" {
		if duration, probeErr := s.prober.Probe(ctx, tempPath); probeErr != nil {
			s.log.WithContext(ctx).Warnf("duration probe failed, gate passes: staging_key=%s err=%v", in.StagingKey, probeErr)
		} else if duration < s.gate.min || duration > s.gate.max {
			detail := fmt.Sprintf("duration %s outside [%s, %s]", duration.Round(time.Millisecond), s.gate.min, s.gate.max)
			return s.reject(ctx, base, ReasonDurationOutOfRange, detail, true)
		}
	}

	// 5. 内容审核：命中标签或提供方不可用都走拒绝。
	stageStart = s.now()
	verdict, err := s.moderator.Evaluate(ctx, moderation.EvaluateInput{
		GSURI:       s.store.GSURI(in.StagingKey),
		ContentType: contentType,
		Filename:    base.OriginalFilename,
	})
	if err != nil {
		return s.reject(ctx, base, ReasonInternalError, fmt.Sprintf("evaluate content: %v", err), true)
	}
	s.metrics.recordStage(ctx, "moderate", s.now().Sub(stageStart))
	if len(verdict.Flagged) > 0 {
		return s.reject(ctx, base, ReasonModerationFlagged, labelSummary(verdict.Flagged), true)
	}
	if verdict.Outcome != moderation.OutcomeCompleted {
		return s.reject(ctx, base, ReasonModerationUnavailable, fmt.Sprintf("moderation job %s", verdict.Outcome), true)
	}

	// 6. 发布：拷贝到公共桶；成功后登记指纹并清理暂存副本。
	// 登记或清理失败只记录日志，不降级已发布的终态。
	stageStart = s.now()
	publicKey := s.publicObjectKey(base.OriginalFilename)
	sanitized := SanitizeMetadata(metadata, s.keyMaxLen, s.valueMaxLen)
	if err := s.store.CopyToPublic(ctx, in.StagingKey, publicKey, contentType, sanitized); err != nil {
		return s.reject(ctx, base, ReasonInternalError, fmt.Sprintf("copy to public: %v", err), true)
	}
	if _, err := s.ledger.Record(ctx, digest); err != nil {
		s.log.WithContext(ctx).Warnf("record fingerprint after publish failed: staging_key=%s err=%v", in.StagingKey, err)
	}
	if err := s.store.DeleteStaging(ctx, in.StagingKey); err != nil && !errors.Is(err, gcs.ErrObjectNotFound) {
		s.log.WithContext(ctx).Warnf("delete staging after publish failed: staging_key=%s err=%v", in.StagingKey, err)
	}
	s.metrics.recordStage(ctx, "publish", s.now().Sub(stageStart))

	base.Decision = DecisionPublished
	base.PublicURL = s.store.PublicURL(publicKey)
	return base
}

// reject 收束到 Rejected 终态，按需尽力移除暂存副本。
func (s *PipelineService) reject(ctx context.Context, base Resolution, reason, detail string, removeStaging bool) Resolution {
	if removeStaging {
		if err := s.store.DeleteStaging(ctx, base.StagingKey); err != nil && !errors.Is(err, gcs.ErrObjectNotFound) {
			s.log.WithContext(ctx).Warnf("delete staging on reject failed: staging_key=%s err=%v", base.StagingKey, err)
		}
	}
	base.Decision = DecisionRejected
	base.Reason = reason
	base.Detail = detail
	return base
}

// fingerprintStaging 打开暂存对象并流式计算指纹。
// needTee 时旁路写入临时文件供时长探测；临时文件创建失败退化为无旁路。
func (s *PipelineService) fingerprintStaging(ctx context.Context, key string, needTee bool) (fingerprint.Digest, string, error) {
	reader, err := s.store.OpenStaging(ctx, key)
	if err != nil {
		return fingerprint.Digest{}, "", err
	}
	defer reader.Close()

	if !needTee {
		digest, _, computeErr := fingerprint.Compute(reader)
		return digest, "", computeErr
	}

	tmp, err := os.CreateTemp("", "moderation-staging-*")
	if err != nil {
		s.log.WithContext(ctx).Warnf("create temp copy failed, probing disabled for this run: staging_key=%s err=%v", key, err)
		digest, _, computeErr := fingerprint.Compute(reader)
		return digest, "", computeErr
	}

	digest, _, computeErr := fingerprint.Compute(io.TeeReader(reader, tmp))
	closeErr := tmp.Close()
	if computeErr != nil {
		os.Remove(tmp.Name())
		return fingerprint.Digest{}, "", computeErr
	}
	if closeErr != nil {
		os.Remove(tmp.Name())
		s.log.WithContext(ctx).Warnf("flush temp copy failed, probing disabled for this run: staging_key=%s err=%v", key, closeErr)
		return digest, "", nil
	}
	return digest, tmp.Name(), nil
}

// bookkeep 尽力更新投稿记账行；失败绝不影响终态。
func (s *PipelineService) bookkeep(ctx context.Context, res Resolution) {
	if s.submissions == nil {
		return
	}

	var err error
	if res.Published() {
		_, err = s.submissions.MarkPublished(ctx, res.StagingKey, res.PublicURL)
	} else {
		reason := res.Reason
		if res.Detail != "" {
			reason = res.Reason + ": " + res.Detail
		}
		_, err = s.submissions.MarkRejected(ctx, res.StagingKey, reason)
	}
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrSubmissionNotFound):
		s.log.WithContext(ctx).Debugf("no pending submission row to update: staging_key=%s", res.StagingKey)
	default:
		s.log.WithContext(ctx).Warnf("update submission failed: staging_key=%s err=%v", res.StagingKey, err)
	}
}

// publicObjectKey 生成公开桶中的日期分区新键：<prefix>yyyy/mm/dd/<uuid>_<filename>。
func (s *PipelineService) publicObjectKey(filename string) string {
	now := s.now().UTC()
	return fmt.Sprintf("%s%04d/%02d/%02d/%s_%s",
		s.publicPrefix, now.Year(), int(now.Month()), now.Day(), s.newID(), SanitizeFilename(filename))
}

// FilenameFromStagingKey 从 <prefix><uuid>_<filename> 形式的键还原展示文件名。
func FilenameFromStagingKey(key string) string {
	base := path.Base(key)
	if i := strings.IndexByte(base, '_'); i > 0 && i+1 < len(base) {
		if _, err := uuid.Parse(base[:i]); err == nil {
			return base[i+1:]
		}
	}
	return base
}

func labelSummary(labels []moderation.Label) string {
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, label.String())
	}
	return strings.Join(parts, ", ")
}

func mergeMetadata(primary, fallback map[string]string) map[string]string {
	if len(primary) == 0 {
		return fallback
	}
	if len(fallback) == 0 {
		return primary
	}
	merged := make(map[string]string, len(primary)+len(fallback))
	for key, value := range fallback {
		merged[key] = value
	}
	for key, value := range primary {
		merged[key] = value
	}
	return merged
}

type pipelineMetrics struct {
	resolutions metric.Int64Counter
	duration    metric.Float64Histogram
	stages      metric.Float64Histogram
	helper      *log.Helper
	enabled     bool
}

const (
	metricNameResolutions   = "moderation_pipeline_resolutions_total"
	metricNameRunDuration   = "moderation_pipeline_duration_seconds"
	metricNameStageDuration = "moderation_pipeline_stage_seconds"
)

func newPipelineMetrics(meter metric.Meter, helper *log.Helper) *pipelineMetrics {
	m := &pipelineMetrics{helper: helper}
	if meter == nil {
		return m
	}

	var err error
	if m.resolutions, err = meter.Int64Counter(metricNameResolutions,
		metric.WithDescription("Number of pipeline runs per terminal decision")); err != nil {
		helper.Warnf("pipeline metrics: register resolutions counter: %v", err)
		return m
	}
	if m.duration, err = meter.Float64Histogram(metricNameRunDuration,
		metric.WithDescription("End-to-end pipeline run duration"), metric.WithUnit("s")); err != nil {
		helper.Warnf("pipeline metrics: register duration histogram: %v", err)
	}
	if m.stages, err = meter.Float64Histogram(metricNameStageDuration,
		metric.WithDescription("Per-stage pipeline duration"), metric.WithUnit("s")); err != nil {
		helper.Warnf("pipeline metrics: register stage histogram: %v", err)
	}
	m.enabled = true
	return m
}

func (m *pipelineMetrics) recordResolution(ctx context.Context, res Resolution, elapsed time.Duration) {
	if m == nil || !m.enabled {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("decision", string(res.Decision)),
		attribute.String("reason", res.Reason),
	)
	if m.resolutions != nil {
		m.resolutions.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("decision", string(res.Decision))))
	}
}

func (m *pipelineMetrics) recordStage(ctx context.Context, stage string, elapsed time.Duration) {
	if m == nil || !m.enabled || m.stages == nil {
		return
	}
	m.stages.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}
