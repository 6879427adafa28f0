package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/go-kratos/kratos/v2/log"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
)

// ErrObjectNotFound 表示目标对象不存在（已被移动或从未写入）。
var ErrObjectNotFound = errors.New("gcs: object not found")

// ObjectInfo 为对象元信息的精简视图。
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectStore 封装暂存桶与公开桶上的对象操作。
// 键由调用方给出完整路径（含前缀），本层不做命名决策。
type ObjectStore struct {
	client  *storage.Client
	staging string
	public  string
	log     *log.Helper
}

// NewObjectStore 创建 ObjectStore。
func NewObjectStore(client *storage.Client, cfg *loader.Storage, logger log.Logger) (*ObjectStore, error) {
	switch {
	case client == nil:
		return nil, errors.New("object store: storage client is required")
	case cfg == nil:
		return nil, errors.New("object store: storage config is required")
	case cfg.StagingBucket == "":
		return nil, errors.New("object store: staging bucket is required")
	case cfg.PublicBucket == "":
		return nil, errors.New("object store: public bucket is required")
	}
	return &ObjectStore{
		client:  client,
		staging: cfg.StagingBucket,
		public:  cfg.PublicBucket,
		log:     log.NewHelper(logger),
	}, nil
}

// StatStaging 查询暂存对象的元信息；对象缺失返回 ErrObjectNotFound。
func (s *ObjectStore) StatStaging(ctx context.Context, key string) (*ObjectInfo, error) {
	attrs, err := s.client.Bucket(s.staging).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("stat staging object %q: %w", key, err)
	}
	return &ObjectInfo{
		Key:         key,
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Metadata:    attrs.Metadata,
	}, nil
}

// OpenStaging 打开暂存对象进行流式读取；对象缺失返回 ErrObjectNotFound。
func (s *ObjectStore) OpenStaging(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.staging).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open staging object %q: %w", key, err)
	}
	return r, nil
}

// WriteStaging 将 r 的内容写入暂存对象，返回写入的字节数。
// 供 webhook 服务端拉取场景使用；直传路径不经过本方法。
func (s *ObjectStore) WriteStaging(ctx context.Context, key, contentType string, metadata map[string]string, r io.Reader) (int64, error) {
	w := s.client.Bucket(s.staging).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if len(metadata) > 0 {
		w.Metadata = metadata
	}

	written, err := io.Copy(w, r)
	if err != nil {
		// Close 负责终止未完成的会话，此处错误以拷贝失败为准。
		_ = w.Close()
		return written, fmt.Errorf("write staging object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return written, fmt.Errorf("finalize staging object %q: %w", key, err)
	}
	return written, nil
}

// CopyToPublic 将暂存对象复制到公开桶，元数据整体替换为 metadata。
// 源对象缺失返回 ErrObjectNotFound。
func (s *ObjectStore) CopyToPublic(ctx context.Context, stagingKey, publicKey, contentType string, metadata map[string]string) error {
	src := s.client.Bucket(s.staging).Object(stagingKey)
	dst := s.client.Bucket(s.public).Object(publicKey)

	copier := dst.CopierFrom(src)
	copier.ContentType = contentType
	copier.Metadata = metadata

	if _, err := copier.Run(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("copy %q to public %q: %w", stagingKey, publicKey, err)
	}
	return nil
}

// DeleteStaging 删除暂存对象；对象已不存在时返回 ErrObjectNotFound。
func (s *ObjectStore) DeleteStaging(ctx context.Context, key string) error {
	err := s.client.Bucket(s.staging).Object(key).Delete(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("delete staging object %q: %w", key, err)
	}
	return nil
}

// StagingBucket 返回暂存桶名，供事件过滤使用。
func (s *ObjectStore) StagingBucket() string {
	return s.staging
}

// GSURI 返回暂存对象的 gs:// 定位符，供审核适配器使用。
func (s *ObjectStore) GSURI(key string) string {
	return fmt.Sprintf("gs://%s/%s", s.staging, key)
}

// PublicURL 返回公开对象的 HTTPS 访问地址。
func (s *ObjectStore) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.public, strings.Join(segments, "/"))
}
