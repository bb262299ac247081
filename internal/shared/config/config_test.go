package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "")
	cfg := Load()

	if cfg.HTTPPort != "5000" || cfg.MetricsPort != "9095" {
		t.Errorf("ports = %s/%s", cfg.HTTPPort, cfg.MetricsPort)
	}
	if cfg.StoreDriver != DriverMongo {
		t.Errorf("driver = %q", cfg.StoreDriver)
	}
	if cfg.JWTTTL != 7*24*time.Hour {
		t.Errorf("jwt ttl = %s", cfg.JWTTTL)
	}
	if cfg.StartingPoints != 1000 {
		t.Errorf("starting points = %d", cfg.StartingPoints)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("FEED_INTERVAL", "3")
	t.Setenv("SETTLE_SWEEP_INTERVAL", "250ms")
	t.Setenv("SEED_DEMO_USERS", "false")
	t.Setenv("CORS_ORIGINS", "http://a.io, http://b.io,")
	t.Setenv("SERVICE_NAME", "provider-simulator")

	cfg := Load()
	if cfg.StoreDriver != DriverPostgres {
		t.Errorf("driver = %q", cfg.StoreDriver)
	}
	if cfg.FeedInterval != 3*time.Second {
		t.Errorf("feed interval = %s", cfg.FeedInterval)
	}
	if cfg.SettleSweepInterval != 250*time.Millisecond {
		t.Errorf("sweep interval = %s", cfg.SettleSweepInterval)
	}
	if cfg.SeedDemoUsers {
		t.Error("seed demo users should be off")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.io" {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.HTTPPort != "8081" {
		t.Errorf("provider port = %s", cfg.HTTPPort)
	}
}

func TestGetEnvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("X_DUR", "soon")
	if got := getEnvDuration("X_DUR", time.Minute); got != time.Minute {
		t.Fatalf("got %s", got)
	}
	t.Setenv("X_DUR", "-5s")
	if got := getEnvDuration("X_DUR", time.Minute); got != time.Minute {
		t.Fatalf("negative accepted: %s", got)
	}
}
