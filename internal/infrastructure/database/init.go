package database

import "github.com/google/wire"

// ProviderSet 暴露指纹账本与投稿记账共用的连接池构造器。
var ProviderSet = wire.NewSet(
	NewPgxPool,
)
