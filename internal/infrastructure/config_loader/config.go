package loader

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration 支持 "5s" / "1m30s" 字符串形式的时长配置字段。
// kratos config 的 Scan 走 JSON 解码，这里补齐 time.Duration 的解析能力。
type Duration time.Duration

// UnmarshalJSON 同时接受字符串时长与纳秒整数两种形式。
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("parse duration %q: %w", s, perr)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(time.Duration(n))
	return nil
}

// MarshalJSON 输出字符串形式，便于配置回显。
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// AsDuration 转换为 time.Duration，零值返回 0。
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Bootstrap 为服务的全量启动配置。
type Bootstrap struct {
	Server     *Server     `json:"server"`
	Data       *Data       `json:"data"`
	Storage    *Storage    `json:"storage"`
	Moderation *Moderation `json:"moderation"`
	Messaging  *Messaging  `json:"messaging"`
	Intake     *Intake     `json:"intake"`
}

// Server 聚合对外服务监听配置。
type Server struct {
	HTTP *ServerHTTP `json:"http"`
}

// ServerHTTP 描述 HTTP 服务监听参数。
type ServerHTTP struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

// Data 聚合持久化依赖配置。
type Data struct {
	Postgres *Postgres `json:"postgres"`
}

// Postgres 描述 pgx 连接池参数。
type Postgres struct {
	DSN               string   `json:"dsn"`
	Schema            string   `json:"schema"`
	MaxConns          int32    `json:"max_conns"`
	MinConns          int32    `json:"min_conns"`
	MaxConnLifetime   Duration `json:"max_conn_lifetime"`
	MaxConnIdleTime   Duration `json:"max_conn_idle_time"`
	HealthCheckPeriod Duration `json:"health_check_period"`
	ConnectTimeout    Duration `json:"connect_timeout"`
}

// Storage 描述暂存区与公开区两个桶的布局及签名 URL 参数。
type Storage struct {
	StagingBucket string   `json:"staging_bucket"`
	PublicBucket  string   `json:"public_bucket"`
	StagingPrefix string   `json:"staging_prefix"`
	PublicPrefix  string   `json:"public_prefix"`
	SignedURLTTL  Duration `json:"signed_url_ttl"`
	// SignerServiceAccount 为空时，从默认凭据 JSON 推导签名身份。
	SignerServiceAccount string `json:"signer_service_account"`
}

// Moderation 描述内容审核适配器的行为参数。
type Moderation struct {
	// ConfidenceThreshold 为标签命中阈值（0-100），低于阈值的标签被丢弃。
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	// PollInterval 为视频审核任务的轮询间隔。
	PollInterval Duration `json:"poll_interval"`
	// WaitBudget 为视频审核任务的最长等待时间，超出按 TimedOut 处理。
	WaitBudget Duration `json:"wait_budget"`
	// UnknownMediaPolicy 决定无法识别的媒体类型如何处置：allow 或 reject。
	UnknownMediaPolicy string        `json:"unknown_media_policy"`
	Duration           *DurationGate `json:"duration"`
}

// DurationGate 描述可选的视频时长闸门。探测失败时放行（软策略）。
type DurationGate struct {
	Enabled     bool     `json:"enabled"`
	Min         Duration `json:"min"`
	Max         Duration `json:"max"`
	FfprobePath string   `json:"ffprobe_path"`
}

// Messaging 描述 Pub/Sub 资源与消费端参数。
type Messaging struct {
	ProjectID          string   `json:"project_id"`
	EventsSubscription string   `json:"events_subscription"`
	NotifyTopic        string   `json:"notify_topic"`
	Receive            *Receive `json:"receive"`
}

// Receive 为订阅端的有界并发参数，也是整条流水线的背压旋钮。
type Receive struct {
	NumGoroutines          int `json:"num_goroutines"`
	MaxOutstandingMessages int `json:"max_outstanding_messages"`
}

// Intake 描述上传入口的行为参数。
type Intake struct {
	// ConfirmMode 决定 confirm 接口的契约：async（立即返回）或 sync（等待终态）。
	ConfirmMode         string   `json:"confirm_mode"`
	AllowedContentTypes []string `json:"allowed_content_types"`
	MetadataKeyMaxLen   int      `json:"metadata_key_max_len"`
	MetadataValueMaxLen int      `json:"metadata_value_max_len"`
	// MaxRemoteFetchBytes 限制 webhook 拉取远端文件的最大字节数。
	MaxRemoteFetchBytes int64 `json:"max_remote_fetch_bytes"`
	// PipelineTimeout 为脱离请求上下文后单次流水线运行的总时限。
	PipelineTimeout Duration `json:"pipeline_timeout"`
}
