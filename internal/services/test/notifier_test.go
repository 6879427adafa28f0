package services_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"cloud.google.com/go/pubsub/pstest"
	gcppubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/bionicotaku/lingo-services-moderation/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newEmulatorPublisher(t *testing.T, ctx context.Context, topicID string) (*gcppubsub.Publisher, *pstest.Server) {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	projectID := "test-project"
	topicName := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	if _, err := srv.GServer.CreateTopic(ctx, &pubsubpb.Topic{Name: topicName}); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial pstest: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	client, err := gcppubsub.NewClient(ctx, projectID, option.WithGRPCConn(conn))
	if err != nil {
		t.Fatalf("pubsub client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	publisher := client.Publisher(topicID)
	t.Cleanup(publisher.Stop)
	return publisher, srv
}

func TestDecisionNotifier_PublishDecision(t *testing.T) {
	ctx := context.Background()
	publisher, srv := newEmulatorPublisher(t, ctx, "moderation-decisions")
	notifier := services.NewDecisionNotifier(publisher, log.NewStdLogger(io.Discard))

	notifier.Notify(ctx, services.Resolution{
		StagingKey:       stagingKey,
		OriginalFilename: "photo.jpg",
		SubmitterEmail:   "user@example.com",
		Decision:         services.DecisionPublished,
		PublicURL:        "https://storage.googleapis.com/public-bucket/published/2024/06/01/abc_photo.jpg",
	})

	msgs := srv.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.Attributes["stagingKey"] != stagingKey || msg.Attributes["decision"] != "published" {
		t.Fatalf("unexpected attributes: %+v", msg.Attributes)
	}
	if msg.Attributes["submitter"] != "user@example.com" {
		t.Fatalf("expected submitter attribute, got %+v", msg.Attributes)
	}
	body := string(msg.Data)
	if !strings.Contains(body, "approved and published") || !strings.Contains(body, "photo.jpg") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestDecisionNotifier_RejectionCarriesReason(t *testing.T) {
	ctx := context.Background()
	publisher, srv := newEmulatorPublisher(t, ctx, "moderation-decisions")
	notifier := services.NewDecisionNotifier(publisher, log.NewStdLogger(io.Discard))

	notifier.Notify(ctx, services.Resolution{
		StagingKey:       stagingKey,
		OriginalFilename: "photo.jpg",
		Decision:         services.DecisionRejected,
		Reason:           services.ReasonModerationFlagged,
		Detail:           "Violence(95)",
	})

	msgs := srv.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.Attributes["reason"] != services.ReasonModerationFlagged {
		t.Fatalf("expected reason attribute, got %+v", msg.Attributes)
	}
	body := string(msg.Data)
	if !strings.Contains(body, "rejected (MODERATION_FLAGGED)") || !strings.Contains(body, "Violence(95)") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestDecisionNotifier_NilPublisherLogsOnly(t *testing.T) {
	notifier := services.NewDecisionNotifier(nil, log.NewStdLogger(io.Discard))

	// 没有发布端时仅记日志，不得 panic。
	notifier.Notify(context.Background(), services.Resolution{
		StagingKey: stagingKey,
		Decision:   services.DecisionRejected,
		Reason:     services.ReasonDuplicateContent,
	})
}
