package config

import (
	"os"
	"testing"
	"time"
)

func TestConfigLoad_Defaults(t *testing.T) {
	_ = os.Unsetenv("PULSEDECK_TIMEZONE")
	_ = os.Unsetenv("PULSEDECK_MERGE_POLICY")
	_ = os.Unsetenv("PULSEDECK_GENERATION_RETRIES")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.Timezone != "America/Los_Angeles" || cfg.MergePolicy != "sum" || cfg.GenerationRetries != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.StaleBuffer != time.Hour {
		t.Fatalf("unexpected default stale buffer: %v", cfg.StaleBuffer)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	_ = os.Setenv("PULSEDECK_MERGE_POLICY", "max")
	defer func() { _ = os.Unsetenv("PULSEDECK_MERGE_POLICY") }()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.MergePolicy != "max" {
		t.Fatalf("merge policy env override failed, got %s", cfg.MergePolicy)
	}
}

func TestConfigLoad_RejectsBadTimezone(t *testing.T) {
	_ = os.Setenv("PULSEDECK_TIMEZONE", "Mars/Olympus_Mons")
	defer func() { _ = os.Unsetenv("PULSEDECK_TIMEZONE") }()

	if _, err := New(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestConfigLoad_RejectsBadMergePolicy(t *testing.T) {
	_ = os.Setenv("PULSEDECK_MERGE_POLICY", "average")
	defer func() { _ = os.Unsetenv("PULSEDECK_MERGE_POLICY") }()

	if _, err := New(); err == nil {
		t.Fatal("expected error for unknown merge policy")
	}
}

func TestLocationResolves(t *testing.T) {
	cfg := NewForTesting()
	if cfg.Location() != time.UTC {
		t.Fatalf("testing config should resolve UTC, got %v", cfg.Location())
	}
}
