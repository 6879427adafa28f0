// Package server 装配对外 HTTP 服务及其中间件栈。
package server

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/bionicotaku/lingo-services-moderation/internal/controllers"
	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/metadata"
	kmetrics "github.com/go-kratos/kratos/v2/middleware/metrics"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer 构造对外 HTTP 服务并挂载上传路由与运维端点。
func NewHTTPServer(
	cfg *loader.Server,
	uploads *controllers.UploadHandler,
	health *controllers.HealthHandler,
	pool *pgxpool.Pool,
	telemetry *Telemetry,
	logger log.Logger,
) *khttp.Server {
	opts := []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
			metadata.Server(
				metadata.WithPropagatedPrefix("x-moderation-"),
			),
			kmetrics.Server(
				kmetrics.WithSeconds(telemetry.SecondsHistogram),
				kmetrics.WithRequests(telemetry.RequestCounter),
			),
			logging.Server(logger),
		),
	}
	if cfg != nil && cfg.HTTP != nil {
		if cfg.HTTP.Network != "" {
			opts = append(opts, khttp.Network(cfg.HTTP.Network))
		}
		if cfg.HTTP.Addr != "" {
			opts = append(opts, khttp.Address(cfg.HTTP.Addr))
		}
		if d := cfg.HTTP.Timeout.AsDuration(); d > 0 {
			opts = append(opts, khttp.Timeout(d))
		}
	}

	srv := khttp.NewServer(opts...)

	srv.Handle("/healthz", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
	}))

	srv.Handle("/readyz", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				w.WriteHeader(stdhttp.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(stdhttp.StatusOK)
	}))

	srv.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))

	r := srv.Route("/v1")
	uploads.Register(r)
	health.Register(r)
	return srv
}
