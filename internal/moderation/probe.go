package moderation

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"

	"github.com/go-kratos/kratos/v2/log"
)

// DurationProber 通过 ffprobe 读取本地媒体副本的容器时长。
// 二进制缺失或探测失败如何处置由调用方决定（流水线按软闸门放行）。
type DurationProber struct {
	binary string
	log    *log.Helper
}

// NewDurationProber 构造时长探测器。未配置路径时使用 PATH 中的 ffprobe。
func NewDurationProber(cfg *loader.Moderation, logger log.Logger) *DurationProber {
	binary := "ffprobe"
	if cfg != nil && cfg.Duration != nil && cfg.Duration.FfprobePath != "" {
		binary = cfg.Duration.FfprobePath
	}
	return &DurationProber{
		binary: binary,
		log:    log.NewHelper(logger),
	}
}

// Probe 返回本地文件的容器时长。
func (p *DurationProber) Probe(ctx context.Context, path string) (time.Duration, error) {
	if path == "" {
		return 0, errors.New("duration probe: path is required")
	}

	out, err := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("run %s: %w", p.binary, err)
	}

	raw := strings.TrimSpace(string(out))
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe output %q: %w", raw, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
