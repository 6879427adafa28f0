package loader

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/joho/godotenv"
)

const (
	envConfPath           = "CONF_PATH"
	envServiceName        = "SERVICE_NAME"
	envServiceVersion     = "SERVICE_VERSION"
	envAppEnv             = "APP_ENV"
	envDatabaseURL        = "DATABASE_URL"
	envPort               = "PORT"
	envStagingBucket      = "STAGING_BUCKET"
	envPublicBucket       = "PUBLIC_BUCKET"
	envPubSubProject      = "PUBSUB_PROJECT_ID"
	envEventsSubscription = "EVENTS_SUBSCRIPTION"
	envNotifyTopic        = "NOTIFY_TOPIC"
)

var envFileNames = []string{".env.local", ".env"}

// Params 包含构造配置 Bundle 所需的运行时输入参数。
type Params struct {
	ConfPath string // 配置文件路径（可为空，使用默认值）
}

// ServiceMetadata 保存服务标识信息，供日志和可观测性组件使用。
type ServiceMetadata struct {
	Name        string
	Version     string
	Environment string
	InstanceID  string
}

// Bundle 聚合强类型的配置片段，供下游 Wire 注入使用。
type Bundle struct {
	Bootstrap *Bootstrap
	Service   ServiceMetadata
}

// BuildError 捕获配置构建过程中的上下文错误信息。
type BuildError struct {
	Stage string
	Path  string
	Err   error
}

// Error 实现 error 接口，提供包含上下文的错误信息。
func (e BuildError) Error() string {
	if e.Stage == "" {
		return e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("config %s at %q: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Stage, e.Err)
}

// Unwrap 暴露底层错误，支持 errors.Is/As 链式查询。
func (e BuildError) Unwrap() error {
	return e.Err
}

// Build 从 bootstrap 配置文件构建 Bundle，包含配置对象和服务元信息。
//
// 流程：
// 1. 解析配置路径（应用回退规则）并加载 .env 文件
// 2. 加载配置、应用环境变量覆盖与默认值
// 3. 校验取值范围
// 4. 推导服务元信息（来自环境变量/默认值）
func Build(params Params) (*Bundle, error) {
	confPath := ResolveConfPath(params.ConfPath)
	loadEnvFiles(confPath)

	bootstrap, err := loadBootstrap(confPath)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Bootstrap: bootstrap,
		Service:   buildServiceMetadata(),
	}, nil
}

// ResolveConfPath 应用回退规则确定要加载的配置目录/文件路径。
// 优先级：显式传入路径 > CONF_PATH 环境变量 > 默认路径。
func ResolveConfPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(envConfPath); env != "" {
		return env
	}
	return defaultConfPath
}

// loadBootstrap 从指定路径加载并解析 Bootstrap 配置。
//
// 错误阶段：
//   - "load": 文件读取失败（文件不存在、权限不足）
//   - "scan": YAML/JSON 解析失败（格式错误、类型不匹配）
//   - "validate": 配置取值不满足约束
func loadBootstrap(confPath string) (*Bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(confPath)))
	if err := c.Load(); err != nil {
		return nil, BuildError{Stage: "load", Path: confPath, Err: err}
	}
	defer c.Close()

	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, BuildError{Stage: "scan", Path: confPath, Err: err}
	}
	applyEnvOverrides(&bc)
	applyDefaults(&bc)

	if err := validateBootstrap(&bc); err != nil {
		return nil, BuildError{Stage: "validate", Path: confPath, Err: err}
	}
	return &bc, nil
}

// applyEnvOverrides 应用环境变量覆盖配置文件中的特定字段。
//
// 支持的环境变量：
//   - DATABASE_URL: 覆盖 data.postgres.dsn
//   - PORT: 覆盖 server.http.addr 的端口部分（Cloud Run 动态端口）
//   - STAGING_BUCKET / PUBLIC_BUCKET: 覆盖桶名
//   - PUBSUB_PROJECT_ID / EVENTS_SUBSCRIPTION / NOTIFY_TOPIC: 覆盖消息资源
//
// 环境变量为空时不覆盖，保留配置文件原值；仅覆盖已存在的节点。
func applyEnvOverrides(bc *Bootstrap) {
	if bc == nil {
		return
	}
	if dsn := os.Getenv(envDatabaseURL); dsn != "" {
		if bc.Data != nil && bc.Data.Postgres != nil {
			bc.Data.Postgres.DSN = dsn
		}
	}
	if port := os.Getenv(envPort); port != "" {
		if bc.Server != nil && bc.Server.HTTP != nil {
			bc.Server.HTTP.Addr = replacePort(bc.Server.HTTP.Addr, port)
		}
	}
	if bc.Storage != nil {
		if v := os.Getenv(envStagingBucket); v != "" {
			bc.Storage.StagingBucket = v
		}
		if v := os.Getenv(envPublicBucket); v != "" {
			bc.Storage.PublicBucket = v
		}
	}
	if bc.Messaging != nil {
		if v := os.Getenv(envPubSubProject); v != "" {
			bc.Messaging.ProjectID = v
		}
		if v := os.Getenv(envEventsSubscription); v != "" {
			bc.Messaging.EventsSubscription = v
		}
		if v := os.Getenv(envNotifyTopic); v != "" {
			bc.Messaging.NotifyTopic = v
		}
	}
}

// validateBootstrap 校验关键字段的取值范围；默认值已填充，这里只做约束检查。
func validateBootstrap(bc *Bootstrap) error {
	if bc == nil {
		return errors.New("bootstrap is nil")
	}
	if bc.Storage.StagingBucket == "" {
		return errors.New("storage.staging_bucket is required")
	}
	if bc.Storage.PublicBucket == "" {
		return errors.New("storage.public_bucket is required")
	}
	if bc.Storage.StagingBucket == bc.Storage.PublicBucket && bc.Storage.StagingPrefix == bc.Storage.PublicPrefix {
		return errors.New("storage: staging and public areas must not overlap")
	}
	if m := bc.Moderation; m != nil {
		if m.ConfidenceThreshold < minConfidenceThreshold || m.ConfidenceThreshold > maxConfidenceThreshold {
			return fmt.Errorf("moderation.confidence_threshold %v outside [%d, %d]",
				m.ConfidenceThreshold, minConfidenceThreshold, maxConfidenceThreshold)
		}
		if budget := m.WaitBudget.AsDuration(); budget < minWaitBudget || budget > maxWaitBudget {
			return fmt.Errorf("moderation.wait_budget %v outside [%v, %v]", budget, minWaitBudget, maxWaitBudget)
		}
		if m.PollInterval.AsDuration() <= 0 {
			return errors.New("moderation.poll_interval must be positive")
		}
		switch m.UnknownMediaPolicy {
		case "allow", "reject":
		default:
			return fmt.Errorf("moderation.unknown_media_policy %q must be allow or reject", m.UnknownMediaPolicy)
		}
		if m.Duration.Enabled && m.Duration.Min.AsDuration() >= m.Duration.Max.AsDuration() {
			return errors.New("moderation.duration: min must be below max")
		}
	}
	switch bc.Intake.ConfirmMode {
	case "async", "sync":
	default:
		return fmt.Errorf("intake.confirm_mode %q must be async or sync", bc.Intake.ConfirmMode)
	}
	return nil
}

// buildServiceMetadata 构建服务元信息，用于日志、追踪和指标标签。
//
// 数据来源优先级：
// 1. 环境变量（SERVICE_NAME、SERVICE_VERSION、APP_ENV）
// 2. 默认值
func buildServiceMetadata() ServiceMetadata {
	name := resolveServiceName(os.Getenv(envServiceName))
	version := resolveServiceVersion(os.Getenv(envServiceVersion))
	env := resolveEnvironment(os.Getenv(envAppEnv))
	host, _ := os.Hostname()
	host = resolveInstanceID(host)

	return ServiceMetadata{
		Name:        name,
		Version:     version,
		Environment: env,
		InstanceID:  host,
	}
}

// loadEnvFiles best-effort 加载配置相关的 .env 文件，失败时忽略以保持幂等。
func loadEnvFiles(confPath string) {
	files := envFileCandidates(confPath)
	if len(files) == 0 {
		return
	}
	_ = godotenv.Load(files...)
}

// envFileCandidates 搜索并返回所有可用的 .env 文件路径。
//
// 搜索策略：
// 1. 按优先级遍历目录：confPath 目录 -> 当前工作目录
// 2. 在每个目录中查找：.env.local（高优先级）、.env（低优先级）
// 3. 去重：同一文件路径仅保留第一次出现的位置
func envFileCandidates(confPath string) []string {
	dirs := orderedDirs(confPath)
	seen := make(map[string]struct{})
	var files []string
	for _, dir := range dirs {
		for _, name := range envFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			files = append(files, candidate)
			seen[candidate] = struct{}{}
		}
	}
	return files
}

// orderedDirs 按优先级返回用于搜索 .env 文件的目录列表。
// 目录不存在时跳过，路径统一经 filepath.Clean 去重。
func orderedDirs(confPath string) []string {
	var dirs []string
	appendUnique := func(path string) {
		if path == "" {
			return
		}
		clean := filepath.Clean(path)
		for _, existing := range dirs {
			if existing == clean {
				return
			}
		}
		dirs = append(dirs, clean)
	}

	if confPath != "" {
		if info, err := os.Stat(confPath); err == nil {
			if info.IsDir() {
				appendUnique(confPath)
			} else {
				appendUnique(filepath.Dir(confPath))
			}
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		appendUnique(cwd)
	}

	return dirs
}

// replacePort 替换地址中的端口部分，保留 host。
// 支持格式：
//   - "0.0.0.0:9090" -> "0.0.0.0:8080"
//   - ":9090" -> ":8080"
//   - "[::1]:9090" -> "[::1]:8080"
func replacePort(addr, newPort string) string {
	if addr == "" {
		return "0.0.0.0:" + newPort
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		// 解析失败（缺少端口或格式异常）时回退到全通配 host。
		return "0.0.0.0:" + newPort
	}

	return net.JoinHostPort(host, newPort)
}
