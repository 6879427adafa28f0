package server

import "github.com/google/wire"

// ProviderSet 暴露服务器装配的构造函数供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(NewHTTPServer, NewTelemetry)
