package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(env.Options{Environment: map[string]string{}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.LogLevel != slog.LevelInfo || cfg.SnapshotDebounce != 2*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}

	s := cfg.Settings()
	if s.Quick.Duration != 420 || s.Quick.InitialLives != 1 || len(s.Quick.BallAdditions) != 0 {
		t.Errorf("quick = %+v", s.Quick)
	}
	want := []dodgeball.BallAddition{{MinutesBefore: 5}, {MinutesBefore: 2}}
	if s.Detailed.Duration != 600 || !slices.Equal(s.Detailed.BallAdditions, want) {
		t.Errorf("detailed = %+v", s.Detailed)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(env.Options{Environment: map[string]string{
		"HTTP_ADDR":               ":9000",
		"REDIS_URL":               "redis://localhost:6379/0",
		"LOG_LEVEL":               "DEBUG",
		"QUICK_DURATION":          "5m",
		"DETAILED_BALL_ADDITIONS": "8,4,1",
	}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" || cfg.RedisURL == "" || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("cfg = %+v", cfg)
	}
	s := cfg.Settings()
	if s.Quick.Duration != 300 {
		t.Errorf("quick duration = %d", s.Quick.Duration)
	}
	if len(s.Detailed.BallAdditions) != 3 || s.Detailed.BallAdditions[2].MinutesBefore != 1 {
		t.Errorf("detailed additions = %+v", s.Detailed.BallAdditions)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	if _, err := load(env.Options{Environment: map[string]string{"SNAPSHOT_DEBOUNCE": "soon"}}); err == nil {
		t.Error("expected error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("WEB_DIR=public\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	os.Unsetenv("WEB_DIR")
	t.Cleanup(func() { os.Unsetenv("WEB_DIR") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WebDir != "public" {
		t.Errorf("WebDir = %q, want public", cfg.WebDir)
	}
}
