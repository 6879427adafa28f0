package loader

import (
	"github.com/google/wire"
)

// ProviderSet exposes configuration-derived dependencies for Wire graphs.
var ProviderSet = wire.NewSet(
	ProvideServiceMetadata,
	ProvideBootstrap,
	ProvideServerConfig,
	ProvideDataConfig,
	ProvideStorageConfig,
	ProvideModerationConfig,
	ProvideMessagingConfig,
	ProvideIntakeConfig,
)

// ProvideServiceMetadata returns the resolved ServiceMetadata from the bundle.
func ProvideServiceMetadata(b *Bundle) ServiceMetadata {
	if b == nil {
		return ServiceMetadata{}
	}
	return b.Service
}

// ProvideBootstrap exposes the strongly typed bootstrap configuration.
func ProvideBootstrap(b *Bundle) *Bootstrap {
	if b == nil {
		return nil
	}
	return b.Bootstrap
}

// ProvideServerConfig returns the server section of the bootstrap configuration.
func ProvideServerConfig(bc *Bootstrap) *Server {
	if bc == nil {
		return nil
	}
	return bc.Server
}

// ProvideDataConfig returns the data section of the bootstrap configuration.
func ProvideDataConfig(bc *Bootstrap) *Data {
	if bc == nil {
		return nil
	}
	return bc.Data
}

// ProvideStorageConfig returns the storage section of the bootstrap configuration.
func ProvideStorageConfig(bc *Bootstrap) *Storage {
	if bc == nil {
		return nil
	}
	return bc.Storage
}

// ProvideModerationConfig returns the moderation section of the bootstrap configuration.
func ProvideModerationConfig(bc *Bootstrap) *Moderation {
	if bc == nil {
		return nil
	}
	return bc.Moderation
}

// ProvideMessagingConfig returns the messaging section of the bootstrap configuration.
func ProvideMessagingConfig(bc *Bootstrap) *Messaging {
	if bc == nil {
		return nil
	}
	return bc.Messaging
}

// ProvideIntakeConfig returns the intake section of the bootstrap configuration.
func ProvideIntakeConfig(bc *Bootstrap) *Intake {
	if bc == nil {
		return nil
	}
	return bc.Intake
}
