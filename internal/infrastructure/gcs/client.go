package gcs

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/go-kratos/kratos/v2/log"
)

// NewStorageClient 创建共享的 GCS 客户端并返回清理函数。
// 连接复用由 SDK 内部处理；本地调试可通过 STORAGE_EMULATOR_HOST 指向模拟器。
func NewStorageClient(ctx context.Context, logger log.Logger) (*storage.Client, func(), error) {
	helper := log.NewHelper(logger)

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create gcs client: %w", err)
	}

	cleanup := func() {
		helper.Info("closing gcs client")
		if err := client.Close(); err != nil {
			helper.Warnf("close gcs client: %v", err)
		}
	}
	return client, cleanup, nil
}
