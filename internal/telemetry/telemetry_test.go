package telemetry_test

import (
	"context"
	"testing"

	"github.com/forgo/lfg/internal/config"
	"github.com/forgo/lfg/internal/telemetry"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), config.TelemetryConfig{Enabled: true, ServiceName: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenDisabled(t *testing.T) {
	cfg := config.TelemetryConfig{Enabled: false, Endpoint: "http://localhost:4318", ServiceName: "test"}

	shutdown, err := telemetry.Setup(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	cfg := config.TelemetryConfig{Enabled: true, Endpoint: "http://192.0.2.1:4318", ServiceName: "lfg-test"}

	shutdown, err := telemetry.Setup(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
