// Package gcs 提供与 Google Cloud Storage 交互的基础设施封装。
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"cloud.google.com/go/storage"
	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/oauth2/google"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
)

// MetadataHeaderPrefix 为投稿元数据写入对象头时使用的前缀。
const MetadataHeaderPrefix = "x-goog-meta-"

// UploadSigner 负责生成限定单个暂存对象的 V4 Signed PUT URL。
type UploadSigner struct {
	googleAccessID string
	privateKey     []byte
	now            func() time.Time
	log            *log.Helper
}

// Option 定义可选配置。
type Option func(*UploadSigner)

// WithClock 覆盖时间获取函数，便于测试。
func WithClock(clock func() time.Time) Option {
	return func(s *UploadSigner) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithServiceAccountKey 允许直接注入访问 ID 与私钥（测试友好）。
func WithServiceAccountKey(accessID string, privateKey []byte) Option {
	return func(s *UploadSigner) {
		if accessID != "" {
			s.googleAccessID = accessID
		}
		if len(privateKey) > 0 {
			s.privateKey = append([]byte(nil), privateKey...)
		}
	}
}

// NewUploadSigner 创建 UploadSigner，要求默认凭据中包含 service account 私钥。
func NewUploadSigner(ctx context.Context, accessID string, logger log.Logger, opts ...Option) (*UploadSigner, error) {
	signer := &UploadSigner{
		googleAccessID: accessID,
		now:            time.Now,
		log:            log.NewHelper(logger),
	}

	for _, opt := range opts {
		opt(signer)
	}

	if len(signer.privateKey) == 0 {
		privKey, detectedAccessID, err := loadServiceAccountKey(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs signer: %w", err)
		}
		signer.privateKey = privKey
		if signer.googleAccessID == "" {
			signer.googleAccessID = detectedAccessID
		} else if detectedAccessID != "" && detectedAccessID != signer.googleAccessID {
			signer.log.WithContext(ctx).Warnf("gcs signer access id mismatch: config=%s credentials=%s", signer.googleAccessID, detectedAccessID)
		}
	}

	if signer.googleAccessID == "" {
		return nil, errors.New("gcs signer: google access id is required")
	}
	if len(signer.privateKey) == 0 {
		return nil, errors.New("gcs signer: private key is required")
	}

	return signer, nil
}

// SignedPutURL 生成直传暂存对象的 Signed URL，并返回客户端必须携带的请求头。
// 元数据以 x-goog-meta-* 头参与签名，客户端缺失或篡改任一头都会导致 403。
func (s *UploadSigner) SignedPutURL(ctx context.Context, bucket, objectName, contentType string, metadata map[string]string, ttl time.Duration) (signedURL string, requiredHeaders map[string]string, expires time.Time, err error) {
	if bucket == "" {
		return "", nil, time.Time{}, errors.New("bucket is required")
	}
	if objectName == "" {
		return "", nil, time.Time{}, errors.New("object name is required")
	}
	if ttl <= 0 {
		return "", nil, time.Time{}, errors.New("ttl must be positive")
	}

	expires = s.now().Add(ttl)

	requiredHeaders = make(map[string]string, len(metadata)+1)
	if contentType != "" {
		requiredHeaders["Content-Type"] = contentType
	}
	metaHeaders := make([]string, 0, len(metadata))
	for key, value := range metadata {
		header := MetadataHeaderPrefix + key
		requiredHeaders[header] = value
		metaHeaders = append(metaHeaders, header+":"+value)
	}
	// 签名头顺序固定，保证同一输入生成可复现的 URL。
	sort.Strings(metaHeaders)

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         http.MethodPut,
		Expires:        expires,
		ContentType:    contentType,
		Headers:        metaHeaders,
		GoogleAccessID: s.googleAccessID,
		PrivateKey:     s.privateKey,
	}

	url, signErr := storage.SignedURL(bucket, objectName, opts)
	if signErr != nil {
		s.log.WithContext(ctx).Errorf("generate signed put url failed: bucket=%s object=%s err=%v", bucket, objectName, signErr)
		return "", nil, time.Time{}, fmt.Errorf("signed url: %w", signErr)
	}
	return url, requiredHeaders, expires, nil
}

type serviceAccountKey struct {
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
}

func loadServiceAccountKey(ctx context.Context) ([]byte, string, error) {
	creds, err := google.FindDefaultCredentials(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("find default credentials: %w", err)
	}
	if len(creds.JSON) == 0 {
		return nil, "", errors.New("service account JSON not found in default credentials")
	}

	var key serviceAccountKey
	if err := json.Unmarshal(creds.JSON, &key); err != nil {
		return nil, "", fmt.Errorf("parse service account json: %w", err)
	}
	if key.PrivateKey == "" {
		return nil, "", errors.New("service account private key is empty; use a service account JSON credential")
	}
	return []byte(key.PrivateKey), key.ClientEmail, nil
}

// ProvideUploadSigner 供 Wire 注入使用。
func ProvideUploadSigner(ctx context.Context, cfg *loader.Storage, logger log.Logger) (*UploadSigner, error) {
	accessID := ""
	if cfg != nil {
		accessID = cfg.SignerServiceAccount
	}
	return NewUploadSigner(ctx, accessID, logger)
}
