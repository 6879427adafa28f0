package moderation

import (
	"context"
	"errors"
	"time"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"github.com/go-kratos/kratos/v2/log"
)

// PolicyAllow、PolicyReject 为未知媒体类型的两种显式处置方式。
const (
	PolicyAllow  = "allow"
	PolicyReject = "reject"
)

// unsupportedKindLabel 为未知媒体类型按 reject 策略处置时的标签名。
const unsupportedKindLabel = "UnsupportedMediaKind"

// EvaluateInput 描述待审对象的定位信息与类型线索。
type EvaluateInput struct {
	// GSURI 为暂存对象的 gs://bucket/key 地址。
	GSURI string
	// ContentType 为客户端声明的 MIME 类型，仅作类别推断线索。
	ContentType string
	// Filename 为原始文件名，Content-Type 缺失或过于宽泛时按扩展名推断。
	Filename string
}

// Adapter 将图像与视频审核统一为单一 Evaluate 入口。
// 适配器本身无存储副作用；提供方失败与预算耗尽折入 Verdict，不作为 error 返回。
type Adapter struct {
	images    ImageAnnotator
	videos    VideoAnnotator
	threshold float64
	interval  time.Duration
	budget    time.Duration
	policy    string
	log       *log.Helper
	now       func() time.Time
}

// NewAdapter 构造审核适配器。
func NewAdapter(images ImageAnnotator, videos VideoAnnotator, cfg *loader.Moderation, logger log.Logger) (*Adapter, error) {
	switch {
	case images == nil:
		return nil, errors.New("moderation adapter: image annotator is required")
	case videos == nil:
		return nil, errors.New("moderation adapter: video annotator is required")
	case cfg == nil:
		return nil, errors.New("moderation adapter: config is required")
	case cfg.PollInterval.AsDuration() <= 0:
		return nil, errors.New("moderation adapter: poll interval must be positive")
	case cfg.WaitBudget.AsDuration() <= 0:
		return nil, errors.New("moderation adapter: wait budget must be positive")
	case cfg.UnknownMediaPolicy != PolicyAllow && cfg.UnknownMediaPolicy != PolicyReject:
		return nil, errors.New("moderation adapter: unknown media policy must be allow or reject")
	}

	return &Adapter{
		images:    images,
		videos:    videos,
		threshold: cfg.ConfidenceThreshold,
		interval:  cfg.PollInterval.AsDuration(),
		budget:    cfg.WaitBudget.AsDuration(),
		policy:    cfg.UnknownMediaPolicy,
		log:       log.NewHelper(logger),
		now:       time.Now,
	}, nil
}

// Evaluate 对一个暂存对象给出审核结论。
// 仅入参非法时返回 error；提供方故障映射为 OutcomeFailed/OutcomeTimedOut。
func (a *Adapter) Evaluate(ctx context.Context, in EvaluateInput) (Verdict, error) {
	if in.GSURI == "" {
		return Verdict{}, errors.New("moderation adapter: gs uri is required")
	}

	kind := DetectKind(in.ContentType, in.Filename)
	switch kind {
	case KindImage:
		return a.evaluateImage(ctx, in.GSURI), nil
	case KindVideo:
		return a.evaluateVideo(ctx, in.GSURI), nil
	default:
		return a.resolveUnknownKind(ctx, in), nil
	}
}

// resolveUnknownKind 按配置的显式策略处置无法识别的媒体类型。
func (a *Adapter) resolveUnknownKind(ctx context.Context, in EvaluateInput) Verdict {
	if a.policy == PolicyAllow {
		a.log.WithContext(ctx).Infof("unknown media kind allowed by policy: uri=%s content_type=%q filename=%q", in.GSURI, in.ContentType, in.Filename)
		return Verdict{Outcome: OutcomeCompleted}
	}
	a.log.WithContext(ctx).Warnf("unknown media kind rejected by policy: uri=%s content_type=%q filename=%q", in.GSURI, in.ContentType, in.Filename)
	return Verdict{
		Flagged: []Label{{Name: unsupportedKindLabel, Confidence: 100}},
		Outcome: OutcomeCompleted,
	}
}

// evaluateImage 执行一次同步 SafeSearch 调用并按阈值筛选标签。
func (a *Adapter) evaluateImage(ctx context.Context, gsURI string) Verdict {
	annotation, err := a.images.DetectSafeSearch(ctx, vision.NewImageFromURI(gsURI), nil)
	if err != nil {
		a.log.WithContext(ctx).Warnf("safe search detection failed: uri=%s err=%v", gsURI, err)
		return Verdict{Outcome: OutcomeFailed}
	}
	return Verdict{
		Flagged: a.filterLabels(safeSearchLabels(annotation)),
		Outcome: OutcomeCompleted,
	}
}

// evaluateVideo 提交显式内容检测任务，并在等待预算内按固定间隔轮询。
func (a *Adapter) evaluateVideo(ctx context.Context, gsURI string) Verdict {
	job, err := a.videos.SubmitExplicitContentJob(ctx, gsURI)
	if err != nil {
		a.log.WithContext(ctx).Warnf("submit video annotation failed: uri=%s err=%v", gsURI, err)
		return Verdict{Outcome: OutcomeFailed}
	}

	deadline := a.now().Add(a.budget)
	timer := time.NewTimer(a.interval)
	defer timer.Stop()

	for {
		resp, pollErr := job.Poll(ctx)
		if pollErr != nil {
			a.log.WithContext(ctx).Warnf("video annotation poll failed: uri=%s err=%v", gsURI, pollErr)
			return Verdict{Outcome: OutcomeFailed}
		}
		if job.Done() && resp != nil {
			return a.videoVerdict(resp)
		}
		if !a.now().Before(deadline) {
			a.log.WithContext(ctx).Warnf("video annotation wait budget exhausted: uri=%s budget=%s", gsURI, a.budget)
			return Verdict{Outcome: OutcomeTimedOut}
		}

		timer.Reset(a.interval)
		select {
		case <-ctx.Done():
			a.log.WithContext(ctx).Warnf("video annotation wait canceled: uri=%s err=%v", gsURI, ctx.Err())
			return Verdict{Outcome: OutcomeTimedOut}
		case <-timer.C:
		}
	}
}

// videoVerdict 将所有结果页的逐帧标注展平为单一 ExplicitContent 标签（取最大置信度）。
func (a *Adapter) videoVerdict(resp *videointelligencepb.AnnotateVideoResponse) Verdict {
	maxConfidence := 0
	for _, result := range resp.GetAnnotationResults() {
		if result.GetError() != nil {
			a.log.Warnf("video annotation result carries error: %s", result.GetError().GetMessage())
			return Verdict{Outcome: OutcomeFailed}
		}
		for _, frame := range result.GetExplicitAnnotation().GetFrames() {
			if confidence := likelihoodConfidence(int32(frame.GetPornographyLikelihood())); confidence > maxConfidence {
				maxConfidence = confidence
			}
		}
	}

	verdict := Verdict{Outcome: OutcomeCompleted}
	if float64(maxConfidence) >= a.threshold {
		verdict.Flagged = []Label{{Name: "ExplicitContent", Confidence: maxConfidence}}
	}
	return verdict
}

// filterLabels 丢弃低于阈值的标签。
func (a *Adapter) filterLabels(labels []Label) []Label {
	var flagged []Label
	for _, label := range labels {
		if float64(label.Confidence) >= a.threshold {
			flagged = append(flagged, label)
		}
	}
	return flagged
}
