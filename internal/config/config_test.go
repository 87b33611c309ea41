package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"CHESSPAL_CONFIG", "HTTP_ADDR", "PUBLIC_URL", "STORE_BACKEND", "REDIS_URL", "BADGER_DIR",
	"DATABASE_URL", "SESSION_TTL", "DEFAULT_DIFFICULTY", "AUTO_AI_REPLY", "AI_SEED",
	"HISTORY_LIMIT", "MESSAGES_DIR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.StoreBackend != BackendMemory {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.SessionTTL != 24*time.Hour || cfg.HistoryLimit != 10 || cfg.DefaultDifficulty != "medium" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "chesspal.yaml")
	body := "http_addr: \":9090\"\nstore_backend: redis\nredis_url: redis://localhost:6379/2\nsession_ttl: 30m\nauto_ai_reply: true\npublic_url: https://chess.example/\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHESSPAL_CONFIG", path)
	t.Setenv("SESSION_TTL", "120")
	t.Setenv("AI_SEED", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.StoreBackend != BackendRedis || !cfg.AutoAIReply {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.SessionTTL != 2*time.Minute {
		t.Errorf("SessionTTL = %s; want env override 2m", cfg.SessionTTL)
	}
	if cfg.AISeed != 42 {
		t.Errorf("AISeed = %d; want 42", cfg.AISeed)
	}
	if cfg.PublicURL != "https://chess.example" {
		t.Errorf("PublicURL = %q; trailing slash not trimmed", cfg.PublicURL)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"STORE_BACKEND": "etcd"}},
		{"redis without url", map[string]string{"STORE_BACKEND": "redis"}},
		{"bad ttl", map[string]string{"SESSION_TTL": "soon"}},
		{"bad bool", map[string]string{"AUTO_AI_REPLY": "maybe"}},
		{"bad seed", map[string]string{"AI_SEED": "x"}},
		{"negative history", map[string]string{"HISTORY_LIMIT": "-1"}},
		{"missing file", map[string]string{"CHESSPAL_CONFIG": "/nonexistent/chesspal.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
