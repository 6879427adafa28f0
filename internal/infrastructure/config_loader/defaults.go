package loader

import "time"

const (
	// defaultConfPath is the fallback configuration directory when no overrides are provided.
	defaultConfPath = "configs"
	// defaultEnvironment is used when APP_ENV is missing.
	defaultEnvironment = "development"
	// defaultServiceName is used when SERVICE_NAME is missing.
	defaultServiceName = "lingo-services-moderation"
	// defaultServiceVersion is used when SERVICE_VERSION is missing.
	defaultServiceVersion = "dev"
)

// 审核与入口参数的缺省值；范围约束见 validateBootstrap。
const (
	defaultHTTPAddr            = "0.0.0.0:8000"
	defaultHTTPTimeout         = 30 * time.Second
	defaultStagingPrefix       = "pending/"
	defaultPublicPrefix        = "published/"
	defaultSignedURLTTL        = time.Hour
	defaultConfidenceThreshold = 90
	defaultPollInterval        = 5 * time.Second
	defaultWaitBudget          = 600 * time.Second
	defaultUnknownMediaPolicy  = "reject"
	defaultDurationMin         = 15 * time.Second
	defaultDurationMax         = 240 * time.Second
	defaultConfirmMode         = "async"
	defaultMetadataKeyMaxLen   = 64
	defaultMetadataValueMaxLen = 256
	defaultMaxRemoteFetchBytes = int64(512 << 20)
	defaultPipelineTimeout     = 15 * time.Minute
	defaultNumGoroutines       = 1
	defaultMaxOutstanding      = 5
)

// minWaitBudget/maxWaitBudget 界定视频审核等待预算的合法区间。
const (
	minWaitBudget          = 300 * time.Second
	maxWaitBudget          = 900 * time.Second
	minConfidenceThreshold = 80
	maxConfidenceThreshold = 100
)

func resolveServiceName(v string) string {
	if v == "" {
		return defaultServiceName
	}
	return v
}

func resolveServiceVersion(v string) string {
	if v == "" {
		return defaultServiceVersion
	}
	return v
}

func resolveEnvironment(v string) string {
	if v == "" {
		return defaultEnvironment
	}
	return v
}

func resolveInstanceID(host string) string {
	if host == "" {
		return "unknown"
	}
	return host
}

// applyDefaults 填充缺失的配置节点与字段，保证下游拿到完整结构。
func applyDefaults(bc *Bootstrap) {
	if bc == nil {
		return
	}
	if bc.Server == nil {
		bc.Server = &Server{}
	}
	if bc.Server.HTTP == nil {
		bc.Server.HTTP = &ServerHTTP{}
	}
	if bc.Server.HTTP.Addr == "" {
		bc.Server.HTTP.Addr = defaultHTTPAddr
	}
	if bc.Server.HTTP.Timeout == 0 {
		bc.Server.HTTP.Timeout = Duration(defaultHTTPTimeout)
	}

	if bc.Storage == nil {
		bc.Storage = &Storage{}
	}
	if bc.Storage.StagingPrefix == "" {
		bc.Storage.StagingPrefix = defaultStagingPrefix
	}
	if bc.Storage.PublicPrefix == "" {
		bc.Storage.PublicPrefix = defaultPublicPrefix
	}
	if bc.Storage.SignedURLTTL == 0 {
		bc.Storage.SignedURLTTL = Duration(defaultSignedURLTTL)
	}

	if bc.Moderation == nil {
		bc.Moderation = &Moderation{}
	}
	if bc.Moderation.ConfidenceThreshold == 0 {
		bc.Moderation.ConfidenceThreshold = defaultConfidenceThreshold
	}
	if bc.Moderation.PollInterval == 0 {
		bc.Moderation.PollInterval = Duration(defaultPollInterval)
	}
	if bc.Moderation.WaitBudget == 0 {
		bc.Moderation.WaitBudget = Duration(defaultWaitBudget)
	}
	if bc.Moderation.UnknownMediaPolicy == "" {
		bc.Moderation.UnknownMediaPolicy = defaultUnknownMediaPolicy
	}
	if bc.Moderation.Duration == nil {
		bc.Moderation.Duration = &DurationGate{}
	}
	if bc.Moderation.Duration.Min == 0 {
		bc.Moderation.Duration.Min = Duration(defaultDurationMin)
	}
	if bc.Moderation.Duration.Max == 0 {
		bc.Moderation.Duration.Max = Duration(defaultDurationMax)
	}

	if bc.Messaging == nil {
		bc.Messaging = &Messaging{}
	}
	if bc.Messaging.Receive == nil {
		bc.Messaging.Receive = &Receive{}
	}
	if bc.Messaging.Receive.NumGoroutines == 0 {
		bc.Messaging.Receive.NumGoroutines = defaultNumGoroutines
	}
	if bc.Messaging.Receive.MaxOutstandingMessages == 0 {
		bc.Messaging.Receive.MaxOutstandingMessages = defaultMaxOutstanding
	}

	if bc.Intake == nil {
		bc.Intake = &Intake{}
	}
	if bc.Intake.ConfirmMode == "" {
		bc.Intake.ConfirmMode = defaultConfirmMode
	}
	if bc.Intake.MetadataKeyMaxLen == 0 {
		bc.Intake.MetadataKeyMaxLen = defaultMetadataKeyMaxLen
	}
	if bc.Intake.MetadataValueMaxLen == 0 {
		bc.Intake.MetadataValueMaxLen = defaultMetadataValueMaxLen
	}
	if bc.Intake.MaxRemoteFetchBytes == 0 {
		bc.Intake.MaxRemoteFetchBytes = defaultMaxRemoteFetchBytes
	}
	if bc.Intake.PipelineTimeout == 0 {
		bc.Intake.PipelineTimeout = Duration(defaultPipelineTimeout)
	}
}
