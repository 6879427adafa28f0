package gcs_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	gcs "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/gcs"
	"github.com/go-kratos/kratos/v2/log"
)

func TestSignedPutURL(t *testing.T) {
	ctx := context.Background()
	keyPEM, accessID := generateTestKey(t)
	fixed := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	signer, err := gcs.NewUploadSigner(ctx, accessID, log.NewStdLogger(io.Discard),
		gcs.WithServiceAccountKey(accessID, keyPEM),
		gcs.WithClock(func() time.Time { return fixed }),
	)
	if err != nil {
		t.Fatalf("NewUploadSigner: %v", err)
	}

	ttl := 10 * time.Minute
	metadata := map[string]string{
		"email":    "user@example.com",
		"category": "travel",
	}
	signedURL, headers, expires, err := signer.SignedPutURL(ctx, "staging-bucket", "pending/abc_clip.mp4", "video/mp4", metadata, ttl)
	if err != nil {
		t.Fatalf("SignedPutURL: %v", err)
	}
	if !expires.Equal(fixed.Add(ttl)) {
		t.Fatalf("expected expires %v, got %v", fixed.Add(ttl), expires)
	}

	if headers["Content-Type"] != "video/mp4" {
		t.Fatalf("required headers missing content type: %v", headers)
	}
	if headers["x-goog-meta-email"] != "user@example.com" {
		t.Fatalf("required headers missing metadata email: %v", headers)
	}
	if headers["x-goog-meta-category"] != "travel" {
		t.Fatalf("required headers missing metadata category: %v", headers)
	}

	parsed, err := url.Parse(signedURL)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if parsed.Host == "" {
		t.Fatal("expected host in signed url")
	}
	if !strings.Contains(parsed.Path, "pending/abc_clip.mp4") {
		t.Fatalf("expected object path in signed url, got %s", parsed.Path)
	}

	query := parsed.Query()
	if query.Get("X-Goog-Expires") == "" {
		t.Fatalf("missing TTL in signed url")
	}
	signedHeaders := strings.ToLower(query.Get("X-Goog-SignedHeaders"))
	if !strings.Contains(signedHeaders, "content-type") {
		t.Fatalf("signed headers missing content type: %s", signedHeaders)
	}
	if !strings.Contains(signedHeaders, "x-goog-meta-email") {
		t.Fatalf("signed headers missing metadata email: %s", signedHeaders)
	}
	if !strings.Contains(signedHeaders, "x-goog-meta-category") {
		t.Fatalf("signed headers missing metadata category: %s", signedHeaders)
	}
}

// TestSignedPutURL_Deterministic 验证固定时钟下同一输入生成一致的 URL。
func TestSignedPutURL_Deterministic(t *testing.T) {
	ctx := context.Background()
	keyPEM, accessID := generateTestKey(t)
	fixed := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	signer, err := gcs.NewUploadSigner(ctx, accessID, log.NewStdLogger(io.Discard),
		gcs.WithServiceAccountKey(accessID, keyPEM),
		gcs.WithClock(func() time.Time { return fixed }),
	)
	if err != nil {
		t.Fatalf("NewUploadSigner: %v", err)
	}

	metadata := map[string]string{"b": "2", "a": "1", "c": "3"}
	first, _, _, err := signer.SignedPutURL(ctx, "bucket", "pending/key", "image/png", metadata, time.Hour)
	if err != nil {
		t.Fatalf("SignedPutURL: %v", err)
	}
	second, _, _, err := signer.SignedPutURL(ctx, "bucket", "pending/key", "image/png", metadata, time.Hour)
	if err != nil {
		t.Fatalf("SignedPutURL: %v", err)
	}
	if first != second {
		t.Fatal("expected deterministic signed url for identical input")
	}
}

func TestSignedPutURL_Validation(t *testing.T) {
	ctx := context.Background()
	keyPEM, accessID := generateTestKey(t)
	signer, err := gcs.NewUploadSigner(ctx, accessID, log.NewStdLogger(io.Discard),
		gcs.WithServiceAccountKey(accessID, keyPEM),
	)
	if err != nil {
		t.Fatalf("NewUploadSigner: %v", err)
	}

	if _, _, _, err := signer.SignedPutURL(ctx, "", "key", "image/png", nil, time.Hour); err == nil {
		t.Fatal("expected error for empty bucket")
	}
	if _, _, _, err := signer.SignedPutURL(ctx, "bucket", "", "image/png", nil, time.Hour); err == nil {
		t.Fatal("expected error for empty object")
	}
	if _, _, _, err := signer.SignedPutURL(ctx, "bucket", "key", "image/png", nil, 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func generateTestKey(t *testing.T) ([]byte, string) {
	t.Helper()
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(rsaKey)
	if err != nil {
		t.Fatalf("marshal pkcs8: %v", err)
	}
	block := &pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}
	pemBytes := pem.EncodeToMemory(block)
	accessID := "test-signer@unit-test.iam.gserviceaccount.com"
	return pemBytes, accessID
}
