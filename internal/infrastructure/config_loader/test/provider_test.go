// Package loader_test 提供 config_loader 包 provider 函数的黑盒测试。
package loader_test

import (
	"testing"

	loader "github.com/bionicotaku/lingo-services-moderation/internal/infrastructure/config_loader"
)

// TestProviders_NilSafety 验证 Provider 函数对 nil 输入的容错。
func TestProviders_NilSafety(t *testing.T) {
	if got := loader.ProvideBootstrap(nil); got != nil {
		t.Errorf("ProvideBootstrap(nil) = %v, want nil", got)
	}
	if got := loader.ProvideServerConfig(nil); got != nil {
		t.Errorf("ProvideServerConfig(nil) = %v, want nil", got)
	}
	if got := loader.ProvideStorageConfig(nil); got != nil {
		t.Errorf("ProvideStorageConfig(nil) = %v, want nil", got)
	}
	meta := loader.ProvideServiceMetadata(nil)
	if meta.Name != "" {
		t.Errorf("ProvideServiceMetadata(nil) = %+v, want zero", meta)
	}
}

// TestProviders_SectionExtraction 验证各配置分片的抽取。
func TestProviders_SectionExtraction(t *testing.T) {
	bc := &loader.Bootstrap{
		Server:     &loader.Server{HTTP: &loader.ServerHTTP{Addr: ":8000"}},
		Storage:    &loader.Storage{StagingBucket: "staging"},
		Moderation: &loader.Moderation{ConfidenceThreshold: 85},
		Messaging:  &loader.Messaging{NotifyTopic: "decisions"},
		Intake:     &loader.Intake{ConfirmMode: "sync"},
	}
	bundle := &loader.Bundle{Bootstrap: bc, Service: loader.ServiceMetadata{Name: "svc"}}

	if got := loader.ProvideBootstrap(bundle); got != bc {
		t.Error("ProvideBootstrap did not return bootstrap")
	}
	if got := loader.ProvideServerConfig(bc); got.HTTP.Addr != ":8000" {
		t.Errorf("ProvideServerConfig addr = %s", got.HTTP.Addr)
	}
	if got := loader.ProvideStorageConfig(bc); got.StagingBucket != "staging" {
		t.Errorf("ProvideStorageConfig bucket = %s", got.StagingBucket)
	}
	if got := loader.ProvideModerationConfig(bc); got.ConfidenceThreshold != 85 {
		t.Errorf("ProvideModerationConfig threshold = %v", got.ConfidenceThreshold)
	}
	if got := loader.ProvideMessagingConfig(bc); got.NotifyTopic != "decisions" {
		t.Errorf("ProvideMessagingConfig topic = %s", got.NotifyTopic)
	}
	if got := loader.ProvideIntakeConfig(bc); got.ConfirmMode != "sync" {
		t.Errorf("ProvideIntakeConfig mode = %s", got.ConfirmMode)
	}
	if got := loader.ProvideServiceMetadata(bundle); got.Name != "svc" {
		t.Errorf("ProvideServiceMetadata name = %s", got.Name)
	}
}
