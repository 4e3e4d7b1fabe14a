package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	for _, env := range []string{"BRAINBRIDGE_DB", "BRAINBRIDGE_AI_ENABLED", "GEMINI_API_KEY_FILE", "GEMINI_MODEL"} {
		t.Setenv(env, "")
	}
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		t.Fatalf("bind env: %v", err)
	}
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JM_THRESHOLD", "")

	cfg, err := loadConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Driver != "sqlite" || cfg.Store.Path != "brainbridge.db" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Match.Threshold != 0 || cfg.Match.Workers != 4 || cfg.Match.AssistTimeout != 20*time.Second {
		t.Fatalf("unexpected match config: %+v", cfg.Match)
	}
	if cfg.AI.Enabled || cfg.AI.Gemini.Model != "gemini-2.5-flash" || cfg.AI.Gemini.Timeout != 20*time.Second {
		t.Fatalf("unexpected ai config: %+v / %+v", cfg.AI, cfg.AI.Gemini)
	}
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brainbridge.yaml")
	content := `
store:
  driver: memory
match:
  threshold: 40
  workers: 2
ai:
  enabled: true
  gemini:
    model: gemini-2.5-pro
    requests-per-second: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("JM_THRESHOLD", "65")

	v := newTestViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Match.Threshold != 65 {
		t.Fatalf("expected JM_THRESHOLD to win, got %v", cfg.Match.Threshold)
	}
	if cfg.Store.Driver != "memory" || cfg.Match.Workers != 2 {
		t.Fatalf("unexpected config: %+v %+v", cfg.Store, cfg.Match)
	}
	if !cfg.AI.Enabled || cfg.AI.Gemini.Model != "gemini-2.5-pro" || cfg.AI.Gemini.RequestsPerSecond != 0.5 {
		t.Fatalf("unexpected ai config: %+v", cfg.AI.Gemini)
	}
	if cfg.AI.Gemini.MaxRetries != 3 {
		t.Fatalf("defaults should fill unset keys, got %d retries", cfg.AI.Gemini.MaxRetries)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		field string
	}{
		{name: "threshold above range", key: "match.threshold", value: 101, field: "Threshold"},
		{name: "negative threshold", key: "match.threshold", value: -1, field: "Threshold"},
		{name: "unknown driver", key: "store.driver", value: "postgres", field: "Driver"},
		{name: "sqlite without path", key: "store.path", value: "", field: "Path"},
		{name: "unknown provider", key: "ai.provider", value: "openai", field: "Provider"},
		{name: "negative workers", key: "match.workers", value: -3, field: "Workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JM_THRESHOLD", "")

			v := newTestViper(t)
			v.Set(tt.key, tt.value)

			_, err := loadConfig(v)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("expected error about %s, got %v", tt.field, err)
			}
		})
	}
}

func TestNewReasoner(t *testing.T) {
	ctx := context.Background()

	r, err := newReasoner(ctx, &AIConfig{Enabled: false}, zap.NewNop())
	if err != nil || r != nil {
		t.Fatalf("disabled ai should yield no reasoner, got %v, %v", r, err)
	}

	if _, err := newReasoner(ctx, &AIConfig{Enabled: true, Provider: "openai", Gemini: &GeminiConfig{}}, zap.NewNop()); err == nil {
		t.Fatalf("expected unsupported provider error")
	}

	t.Setenv("GEMINI_API_KEY", "")
	_, err = newReasoner(ctx, &AIConfig{Enabled: true, Gemini: &GeminiConfig{}}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected missing key error with a hint, got %v", err)
	}
}

func TestNewStore(t *testing.T) {
	store, err := newStore(&StoreConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.Close()

	store, err = newStore(&StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "bb.db")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SetWorkSetup(context.Background(), "cand", "remote"); err != nil {
		t.Fatalf("set work setup: %v", err)
	}
	store.Close()

	if _, err := newStore(&StoreConfig{Driver: "redis"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestReadMap(t *testing.T) {
	if m, err := readMap(""); err != nil || m != nil {
		t.Fatalf("empty path should yield nil, got %v, %v", m, err)
	}

	path := filepath.Join(t.TempDir(), "quiz.yaml")
	if err := os.WriteFile(path, []byte("quiz_1:\n  workspace_pref: quiet\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := readMap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inner, ok := m["quiz_1"].(map[string]any)
	if !ok || inner["workspace_pref"] != "quiet" {
		t.Fatalf("unexpected map: %v", m)
	}
}

func TestJoinNonEmpty(t *testing.T) {
	if got := joinNonEmpty("; ", "Remote", "", "Full-time "); got != "Remote; Full-time" {
		t.Fatalf("unexpected join: %q", got)
	}
}

func TestReadPosting(t *testing.T) {
	dir := t.TempDir()

	single := filepath.Join(dir, "job.yaml")
	if err := os.WriteFile(single, []byte("id: j1\ntitle: Data Analyst\nlocation: Remote\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := readPosting(single, "")
	if err != nil || p.ID != "j1" || p.Title != "Data Analyst" {
		t.Fatalf("unexpected posting: %+v, %v", p, err)
	}

	list := filepath.Join(dir, "jobs.yaml")
	content := "jobs:\n  - id: a\n    title: UX Designer\n  - id: b\n    title: Data Engineer\n"
	if err := os.WriteFile(list, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err = readPosting(list, "b")
	if err != nil || p.Title != "Data Engineer" {
		t.Fatalf("unexpected posting: %+v, %v", p, err)
	}

	if _, err := readPosting(list, "missing"); err == nil {
		t.Fatalf("expected not found error")
	}
}
