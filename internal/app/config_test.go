package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"HTTP_ADDR", "DB_DSN", "REDIS_ADDR", "REDIS_DB", "ASSESSMENT_CACHE_TTL_SECONDS",
		"RATE_LIMIT_PER_MINUTE", "DB_AUTO_MIGRATE", "ADMIN_TOKEN", "CSRF_ENFORCED",
		"SESSION_IDLE_TTL_MINUTES",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.CacheEnabled() {
		t.Fatalf("cache must be disabled without REDIS_ADDR")
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.SessionIdleTTL != 30*time.Minute {
		t.Fatalf("SessionIdleTTL = %v", cfg.SessionIdleTTL)
	}
	if cfg.RateLimitPerMin != 120 || !cfg.DBAutoMigrate || cfg.CSRFEnforced {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", " localhost:6379 ")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("ASSESSMENT_CACHE_TTL_SECONDS", "30")
	t.Setenv("DB_AUTO_MIGRATE", "off")
	t.Setenv("ADMIN_TOKEN", " s3cret ")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-4")
	t.Setenv("SESSION_IDLE_TTL_MINUTES", "5")

	cfg := LoadConfig()
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
		t.Fatalf("redis config = %q/%d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.DBAutoMigrate {
		t.Fatalf("DB_AUTO_MIGRATE=off must disable migrations")
	}
	if cfg.AdminToken != "s3cret" {
		t.Fatalf("AdminToken = %q", cfg.AdminToken)
	}
	if cfg.SessionIdleTTL != 5*time.Minute {
		t.Fatalf("SessionIdleTTL = %v", cfg.SessionIdleTTL)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("non-positive limit must fall back, got %d", cfg.RateLimitPerMin)
	}
}

func TestBoolOrDefault(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{value: "", fallback: true, want: true},
		{value: "YES", fallback: false, want: true},
		{value: "0", fallback: true, want: false},
		{value: "maybe", fallback: true, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("JOBASSESS_TEST_BOOL", tc.value)
			if got := boolOrDefault("JOBASSESS_TEST_BOOL", tc.fallback); got != tc.want {
				t.Fatalf("boolOrDefault(%q, %v) = %v", tc.value, tc.fallback, got)
			}
		})
	}
}
