package controllers_test

import (
	"context"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-moderation/internal/controllers"
)

func deadlineFor(t *testing.T, base *controllers.BaseHandler, kind controllers.HandlerType) time.Duration {
	t.Helper()
	ctx, cancel := base.WithTimeout(context.Background(), kind)
	defer cancel()
	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatalf("expected a deadline for handler type %d", kind)
	}
	return time.Until(deadline)
}

func TestBaseHandlerTimeouts(t *testing.T) {
	base := controllers.NewBaseHandler(controllers.HandlerTimeouts{
		Default: 10 * time.Second,
		Command: 20 * time.Minute,
		Query:   2 * time.Second,
	})

	cases := []struct {
		kind controllers.HandlerType
		want time.Duration
	}{
		{controllers.HandlerTypeDefault, 10 * time.Second},
		{controllers.HandlerTypeCommand, 20 * time.Minute},
		{controllers.HandlerTypeQuery, 2 * time.Second},
	}
	for _, tc := range cases {
		got := deadlineFor(t, base, tc.kind)
		if got <= tc.want-time.Second || got > tc.want {
			t.Fatalf("handler type %d: deadline %v, want about %v", tc.kind, got, tc.want)
		}
	}
}

func TestBaseHandlerFallbacks(t *testing.T) {
	// 未配置任何超时：全部回退到缺省值。
	base := controllers.NewBaseHandler(controllers.HandlerTimeouts{})
	got := deadlineFor(t, base, controllers.HandlerTypeCommand)
	if got <= 9*time.Second || got > 10*time.Second {
		t.Fatalf("command fallback deadline %v, want about 10s", got)
	}

	// 只配置 Command：Default 与 Query 也取其值。
	base = controllers.NewBaseHandler(controllers.HandlerTimeouts{Command: time.Minute})
	for _, kind := range []controllers.HandlerType{
		controllers.HandlerTypeDefault,
		controllers.HandlerTypeCommand,
		controllers.HandlerTypeQuery,
	} {
		got := deadlineFor(t, base, kind)
		if got <= 59*time.Second || got > time.Minute {
			t.Fatalf("handler type %d: deadline %v, want about 1m", kind, got)
		}
	}
}
