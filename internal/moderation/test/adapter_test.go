package moderation_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-moderation/internal/moderation"

	"cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/googleapis/gax-go/v2"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
)

type stubImageAnnotator struct {
	annotation *visionpb.SafeSearchAnnotation
	err        error
	calls      int
	lastURI    string
}

func (s *stubImageAnnotator) DetectSafeSearch(_ context.Context, img *visionpb.Image, _ *visionpb.ImageContext, _ ...gax.CallOption) (*visionpb.SafeSearchAnnotation, error) {
	s.calls++
	if img != nil {
		s.lastURI = img.GetSource().GetImageUri()
	}
	return s.annotation, s.err
}

type stubVideoJob struct {
	resp           *videointelligencepb.AnnotateVideoResponse
	pollErr        error
	pollsUntilDone int
	polls          int
}

func (s *stubVideoJob) Poll(_ context.Context, _ ...gax.CallOption) (*videointelligencepb.AnnotateVideoResponse, error) {
	s.polls++
	if s.pollErr != nil {
		return nil, s.pollErr
	}
	if s.Done() {
		return s.resp, nil
	}
	return nil, nil
}

func (s *stubVideoJob) Done() bool {
	return s.polls >= s.pollsUntilDone
}

type stubVideoAnnotator struct {
	job       *stubVideoJob
	submitErr error
	lastURI   string
}

func (s *stubVideoAnnotator) SubmitExplicitContentJob(_ context.Context, gsURI string) (moderation.VideoJob, error) {
	s.lastURI = gsURI
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return s.job, nil
}

func newAdapter(t *testing.T, images moderation.ImageAnnotator, videos moderation.VideoAnnotator, policy string) *moderation.Adapter {
	t.Helper()

	adapter, err := moderation.NewAdapter(images, videos, &loader.Moderation{
		ConfidenceThreshold: 90,
		PollInterval:        loader.Duration(time.Millisecond),
		WaitBudget:          loader.Duration(25 * time.Millisecond),
		UnknownMediaPolicy:  policy,
	}, log.NewStdLogger(io.Discard))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return adapter
}

func TestAdapter_ImageClean(t *testing.T) {
	images := &stubImageAnnotator{annotation: &visionpb.SafeSearchAnnotation{
		Adult:    visionpb.Likelihood_VERY_UNLIKELY,
		Violence: visionpb.Likelihood_UNLIKELY,
	}}
	adapter := newAdapter(t, images, &stubVideoAnnotator{}, moderation.PolicyReject)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:       "gs://staging/pending/cat.jpg",
		ContentType: "image/jpeg",
		Filename:    "cat.jpg",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !verdict.Clean() {
		t.Fatalf("expected clean verdict, got %+v", verdict)
	}
	if images.lastURI != "gs://staging/pending/cat.jpg" {
		t.Fatalf("unexpected uri passed to vision: %s", images.lastURI)
	}
}

func TestAdapter_ImageFlaggedAtThreshold(t *testing.T) {
	images := &stubImageAnnotator{annotation: &visionpb.SafeSearchAnnotation{
		Violence: visionpb.Likelihood_VERY_LIKELY,
	}}
	adapter := newAdapter(t, images, &stubVideoAnnotator{}, moderation.PolicyReject)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:       "gs://staging/pending/fight.png",
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if verdict.Outcome != moderation.OutcomeCompleted {
		t.Fatalf("expected completed outcome, got %s", verdict.Outcome)
	}
	if len(verdict.Flagged) != 1 {
		t.Fatalf("expected one flagged label, got %v", verdict.Flagged)
	}
	if verdict.Flagged[0].Name != "Violence" || verdict.Flagged[0].Confidence != 95 {
		t.Fatalf("unexpected label: %v", verdict.Flagged[0])
	}
}

// 阈值 90 时 LIKELY（80）不应出现在标签中。
func TestAdapter_ImageBelowThresholdDropped(t *testing.T) {
	images := &stubImageAnnotator{annotation: &visionpb.SafeSearchAnnotation{
		Racy: visionpb.Likelihood_LIKELY,
	}}
	adapter := newAdapter(t, images, &stubVideoAnnotator{}, moderation.PolicyReject)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:       "gs://staging/pending/beach.jpg",
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !verdict.Clean() {
		t.Fatalf("expected clean verdict, got %+v", verdict)
	}
}

func TestAdapter_ImageProviderFailure(t *testing.T) {
	images := &stubImageAnnotator{err: errors.New("vision unavailable")}
	adapter := newAdapter(t, images, &stubVideoAnnotator{}, moderation.PolicyReject)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:       "gs://staging/pending/cat.jpg",
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if verdict.Outcome != moderation.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", verdict.Outcome)
	}
	if len(verdict.Flagged) != 0 {
		t.Fatalf("expected no labels on provider failure, got %v", verdict.Flagged)
	}
}

func TestAdapter_VideoFlaggedFrames(t *testing.T) {
	job := &stubVideoJob{
		pollsUntilDone: 2,
		resp: &videointelligencepb.AnnotateVideoResponse{
			AnnotationResults: []*videointelligencepb.VideoAnnotationResults{{
				ExplicitAnnotation: &videointelligencepb.ExplicitContentAnnotation{
					Frames: []*videointelligencepb.ExplicitContentFrame{
						{PornographyLikelihood: videointelligencepb.Likelihood_POSSIBLE},
						{PornographyLikelihood: videointelligencepb.Likelihood_VERY_LIKELY},
					},
				},
			}},
		},
	}
	videos := &stubVideoAnnotator{job: job}
	adapter := newAdapter(t, &stubImageAnnotator{}, videos, moderation.PolicyReject)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:       "gs://staging/pending/clip.mp4",
		ContentType: "video/mp4",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if verdict.Outcome != moderation.OutcomeCompleted {
		t.Fatalf("expected completed outcome, got %s", verdict.Outcome)
	}
	if len(verdict.Flagged) != 1 || verdict.Flagged[0].Name != "ExplicitContent" || verdict.Flagged[0].Confidence != 95 {
		t.Fatalf("expected ExplicitContent(95), got %v", verdict.Flagged)
	}
	if videos.lastURI != "gs://staging/pending/clip.mp4" {
		t.Fatalf("unexpected uri submitted: %s", videos.lastURI)
	}
}

func TestAdapter_VideoCleanFrames(t *testing.T) {
	job := &stubVideoJob{
		pollsUntilDone: 1,
		resp: &videointelligencepb.AnnotateVideoResponse{
			AnnotationResults: []*videointelligencepb.VideoAnnotationResults{{
				ExplicitAnnotation: &videointelligencepb.ExplicitContentAnnotation{
					Frames: []*videointelligencepb.ExplicitContentFrame{
						{PornographyLikelihood: videointelligencepb.Likelihood_UNLIKELY},
					},
				},
			}},
		},
	}
	adapter := newAdapter(t, &stubImageAnnotator{}, &stubVideoAnnotator{job: job}, moderation.PolicyReject)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:       "gs://staging/pending/clip.mp4",
		ContentType: "video/mp4",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !verdict.Clean() {
		t.Fatalf("expected clean verdict, got %+v", verdict)
	}
}

func TestAdapter_VideoSubmitFailure(t *testing.T) {
	videos := &stubVideoAnnotator{submitErr: errors.New("quota exceeded")}
	adapter := newAdapter(t, &stubImageAnnotator{}, videos, moderation.PolicyReject)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:       "gs://staging/pending/clip.mp4",
		ContentType: "video/mp4",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if verdict.Outcome != moderation.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", verdict.Outcome)
	}
}

func TestAdapter_VideoPollFailure(t *testing.T) {
	job := &stubVideoJob{pollErr: errors.New("operation lost")}
	adapter := newAdapter(t, &stubImageAnnotator{}, &stubVideoAnnotator{job: job}, moderation.PolicyReject)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:       "gs://staging/pending/clip.mp4",
		ContentType: "video/mp4",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if verdict.Outcome != moderation.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", verdict.Outcome)
	}
}

// 任务迟迟不完成时按等待预算收束为 TimedOut，而不是永远挂起。
func TestAdapter_VideoBudgetExhausted(t *testing.T) {
	job := &stubVideoJob{pollsUntilDone: 1 << 30}
	adapter := newAdapter(t, &stubImageAnnotator{}, &stubVideoAnnotator{job: job}, moderation.PolicyReject)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:       "gs://staging/pending/clip.mp4",
		ContentType: "video/mp4",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if verdict.Outcome != moderation.OutcomeTimedOut {
		t.Fatalf("expected timed out outcome, got %s", verdict.Outcome)
	}
	if job.polls == 0 {
		t.Fatalf("expected at least one poll before giving up")
	}
}

func TestAdapter_VideoResultError(t *testing.T) {
	job := &stubVideoJob{
		pollsUntilDone: 1,
		resp: &videointelligencepb.AnnotateVideoResponse{
			AnnotationResults: []*videointelligencepb.VideoAnnotationResults{{
				Error: &statuspb.Status{Message: "processing failed"},
			}},
		},
	}
	adapter := newAdapter(t, &stubImageAnnotator{}, &stubVideoAnnotator{job: job}, moderation.PolicyReject)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:       "gs://staging/pending/clip.mp4",
		ContentType: "video/mp4",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if verdict.Outcome != moderation.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", verdict.Outcome)
	}
}

func TestAdapter_UnknownKindPolicyReject(t *testing.T) {
	adapter := newAdapter(t, &stubImageAnnotator{}, &stubVideoAnnotator{}, moderation.PolicyReject)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:    "gs://staging/pending/blob.bin",
		Filename: "blob.bin",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(verdict.Flagged) != 1 || verdict.Flagged[0].Name != "UnsupportedMediaKind" {
		t.Fatalf("expected UnsupportedMediaKind label, got %v", verdict.Flagged)
	}
}

func TestAdapter_UnknownKindPolicyAllow(t *testing.T) {
	adapter := newAdapter(t, &stubImageAnnotator{}, &stubVideoAnnotator{}, moderation.PolicyAllow)

	verdict, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{
		GSURI:    "gs://staging/pending/blob.bin",
		Filename: "blob.bin",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !verdict.Clean() {
		t.Fatalf("expected clean verdict, got %+v", verdict)
	}
}

func TestAdapter_RequiresURI(t *testing.T) {
	adapter := newAdapter(t, &stubImageAnnotator{}, &stubVideoAnnotator{}, moderation.PolicyReject)

	if _, err := adapter.Evaluate(context.Background(), moderation.EvaluateInput{}); err == nil {
		t.Fatal("expected error for missing uri")
	}
}

func TestNewAdapter_Validation(t *testing.T) {
	logger := log.NewStdLogger(io.Discard)
	cfg := &loader.Moderation{
		ConfidenceThreshold: 90,
		PollInterval:        loader.Duration(time.Second),
		WaitBudget:          loader.Duration(time.Minute),
		UnknownMediaPolicy:  moderation.PolicyReject,
	}

	if _, err := moderation.NewAdapter(nil, &stubVideoAnnotator{}, cfg, logger); err == nil {
		t.Fatal("expected error for nil image annotator")
	}
	if _, err := moderation.NewAdapter(&stubImageAnnotator{}, nil, cfg, logger); err == nil {
		t.Fatal("expected error for nil video annotator")
	}
	if _, err := moderation.NewAdapter(&stubImageAnnotator{}, &stubVideoAnnotator{}, nil, logger); err == nil {
		t.Fatal("expected error for nil config")
	}

	bad := *cfg
	bad.UnknownMediaPolicy = "maybe"
	if _, err := moderation.NewAdapter(&stubImageAnnotator{}, &stubVideoAnnotator{}, &bad, logger); err == nil {
		t.Fatal("expected error for invalid policy")
	}
}
