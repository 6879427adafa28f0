package services

import (
	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/wire"

	"github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/gcs"
	"github.com/bionicotaku/lingo-services-moderation/internal/moderation"
	"github.com/bionicotaku/lingo-services-moderation/internal/repositories"
)

// ProviderSet 暴露 Service 层的构造函数供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	NewPipelineService,
	NewIntakeService,
	NewDecisionNotifier,
	ProvideStagingStore,
	ProvideIntakeStore,
	ProvideSlotSigner,
	ProvideFingerprintLedger,
	ProvideSubmissionRecorder,
	ProvideSubmissionLog,
	ProvideContentModerator,
	ProvideMediaProber,
	ProvideDecisionSink,
	ProvideDecisionPublisher,
	ProvidePipelineRunner,
)

// ProvideStagingStore 将对象存储封装适配为流水线端口。
func ProvideStagingStore(store *gcs.ObjectStore) StagingStore { return store }

// ProvideIntakeStore 将对象存储封装适配为入口端口。
func ProvideIntakeStore(store *gcs.ObjectStore) IntakeStore { return store }

// ProvideSlotSigner 将签名器适配为入口端口。
func ProvideSlotSigner(signer *gcs.UploadSigner) SlotSigner { return signer }

// ProvideFingerprintLedger 将指纹仓储适配为流水线端口。
func ProvideFingerprintLedger(repo *repositories.FingerprintRepository) FingerprintLedger {
	return repo
}

// ProvideSubmissionRecorder 将投稿仓储适配为流水线记账端口。
func ProvideSubmissionRecorder(repo *repositories.SubmissionRepository) SubmissionRecorder {
	return repo
}

// ProvideSubmissionLog 将投稿仓储适配为入口查询端口。
func ProvideSubmissionLog(repo *repositories.SubmissionRepository) SubmissionLog { return repo }

// ProvideContentModerator 将审核适配器适配为流水线端口。
func ProvideContentModerator(adapter *moderation.Adapter) ContentModerator { return adapter }

// ProvideMediaProber 将时长探测器适配为流水线端口。
func ProvideMediaProber(prober *moderation.DurationProber) MediaProber { return prober }

// ProvideDecisionSink 将通知器适配为流水线端口。
func ProvideDecisionSink(notifier *DecisionNotifier) DecisionSink { return notifier }

// ProvideDecisionPublisher 将 Pub/Sub 发布端适配为通知器端口；nil 表示仅记日志。
func ProvideDecisionPublisher(publisher *gcppubsub.Publisher) DecisionPublisher {
	if publisher == nil {
		return nil
	}
	return publisher
}

// ProvidePipelineRunner 将流水线服务适配为入口端口。
func ProvidePipelineRunner(svc *PipelineService) PipelineRunner { return svc }
