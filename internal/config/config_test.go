package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("persistence should be off by default, got %q", cfg.DatabaseURL)
	}
	if cfg.Game.WinScore != 5 || cfg.Game.TickInterval != 16*time.Millisecond || cfg.Game.CourtWidth != 800 {
		t.Errorf("unexpected game defaults %+v", cfg.Game)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != cfg.FrontendURL {
		t.Errorf("allowed origins should default to the frontend URL, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadGameOverrides(t *testing.T) {
	t.Setenv("PONG_WIN_SCORE", "11")
	t.Setenv("PONG_TICK_INTERVAL", "20ms")
	t.Setenv("PONG_COUNTDOWN_SECONDS", "0")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MIGRATE_ON_START", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Game.WinScore != 11 || cfg.Game.TickInterval != 20*time.Millisecond || cfg.Game.CountdownSeconds != 0 {
		t.Errorf("overrides not applied: %+v", cfg.Game)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.MigrateOnStart {
		t.Error("MIGRATE_ON_START=false ignored")
	}
}

func TestLoadRejectsInvalidGameSettings(t *testing.T) {
	t.Setenv("PONG_WIN_SCORE", "0")
	if _, err := Load(); err == nil {
		t.Error("expected an error for a zero win score")
	}

	t.Setenv("PONG_WIN_SCORE", "five")
	if _, err := Load(); err == nil {
		t.Error("expected a parse error")
	}
}
