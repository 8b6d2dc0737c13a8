package config

import "testing"

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_SERVICE_HOST", "10.0.0.5")
	t.Setenv("REDIS_SERVICE_PORT", "")
	t.Setenv("SLIP_SIGNING_SECRET", "s3cret")
	t.Setenv("STORAGE_ACCESS_KEY", "ak")

	var cfg Config
	cfg.Database.Port = 5432
	applyEnvOverrides(&cfg)

	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 6543 {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.Redis.Addr != "10.0.0.5:6379" {
		t.Fatalf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Slips.SigningSecret != "s3cret" || cfg.Storage.AccessKey != "ak" {
		t.Fatalf("secrets not applied: %+v %+v", cfg.Slips, cfg.Storage)
	}
}

func TestInvalidPortIgnored(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")
	var cfg Config
	cfg.Database.Port = 5432
	applyEnvOverrides(&cfg)
	if cfg.Database.Port != 5432 {
		t.Fatalf("port = %d", cfg.Database.Port)
	}
}
