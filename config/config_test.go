package config

import (
	"os"
	"testing"
	"time"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "bot-token")
	t.Setenv("MAPS_TOKEN", "maps-token")
}

func TestLoad(t *testing.T) {
	setSecrets(t)
	t.Setenv("ACTIVITY_LOG", "/tmp/activity.log")
	t.Setenv("SEARCH_ATTEMPTS", "5")
	t.Setenv("SEARCH_BACKOFF", "1s")
	t.Setenv("RATE_LIMIT", "3/sec")
	t.Setenv("PICK_POLICY", "last")
	t.Setenv("HTTP_ADDR", ":9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BotToken != "bot-token" || cfg.MapsToken != "maps-token" {
		t.Fatalf("unexpected secrets: %+v", cfg)
	}
	if cfg.ActivityLogPath != "/tmp/activity.log" || cfg.PickPolicy != "last" || cfg.HTTPAddr != ":9000" {
		t.Fatalf("unexpected config values: %+v", cfg)
	}
	if cfg.SearchAttempts != 5 || cfg.SearchBackoff != time.Second {
		t.Fatalf("unexpected search settings: %+v", cfg)
	}
	if cfg.RateLimit.Requests != 3 || cfg.RateLimit.Interval != time.Second {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
}

func TestLoadDefaults(t *testing.T) {
	setSecrets(t)
	for _, k := range []string{"ACTIVITY_LOG", "REGION", "LANGUAGE", "BOUNDS", "SEARCH_RADIUS", "SEARCH_ATTEMPTS", "RATE_LIMIT", "PICK_POLICY"} {
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ActivityLogPath != "activity.log" || cfg.Region != "ar" || cfg.Language != "es" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SearchRadius != 1000 || cfg.SearchAttempts != 3 || cfg.PickPolicy != "random" {
		t.Fatalf("unexpected search defaults: %+v", cfg)
	}
	if cfg.Bounds != defaultBounds {
		t.Fatalf("unexpected bounds: %+v", cfg.Bounds)
	}
	if !cfg.RateLimit.Enabled() {
		t.Fatalf("expected rate limit enabled by default")
	}
}

func TestLoadSecretFallbacks(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("MAPS_TOKEN", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg")
	t.Setenv("GOOGLE_MAPS_API_KEY", "gm")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BotToken != "tg" || cfg.MapsToken != "gm" {
		t.Fatalf("fallback secrets not used: %+v", cfg)
	}
}

func TestLoadMissingSecrets(t *testing.T) {
	for _, k := range []string{"BOT_TOKEN", "TELEGRAM_BOT_TOKEN", "MAPS_TOKEN", "GOOGLE_MAPS_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without bot token")
	}

	t.Setenv("BOT_TOKEN", "bot")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without maps token")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	setSecrets(t)

	t.Setenv("RATE_LIMIT", "xyz")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid rate limit")
	}
	t.Setenv("RATE_LIMIT", "off")

	t.Setenv("SEARCH_ATTEMPTS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero attempts")
	}
	t.Setenv("SEARCH_ATTEMPTS", "2")

	t.Setenv("BOUNDS", "1,2,3")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed bounds")
	}
}

func TestParseRateLimit(t *testing.T) {
	cfg, err := parseRateLimit("5/sec")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Requests != 5 || cfg.Interval != time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	off, err := parseRateLimit("off")
	if err != nil || off.Enabled() {
		t.Fatalf("expected disabled limit, got %+v (%v)", off, err)
	}

	if _, err := parseRateLimit("bad-format"); err == nil {
		t.Fatalf("expected error for malformed value")
	}
	if _, err := parseRateLimit("0/min"); err == nil {
		t.Fatalf("expected error for zero requests")
	}
	if _, err := parseRateLimit("5/day"); err == nil {
		t.Fatalf("expected error for unsupported unit")
	}
}

func TestParseBounds(t *testing.T) {
	b, err := parseBounds("-34.55,-34.65,-58.364,-58.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != defaultBounds {
		t.Fatalf("expected normalised bounds %+v, got %+v", defaultBounds, b)
	}

	if _, err := parseBounds("a,b,c,d"); err == nil {
		t.Fatalf("expected error for non numeric bounds")
	}
	if _, err := parseBounds("-95,0,0,1"); err == nil {
		t.Fatalf("expected error for out of range latitude")
	}
}

func TestParseDuration(t *testing.T) {
	if parseDuration("3h", time.Second) != 3*time.Hour {
		t.Fatalf("expected 3h duration")
	}
	if parseDuration("invalid", time.Second) != time.Second {
		t.Fatalf("expected fallback duration")
	}
}
