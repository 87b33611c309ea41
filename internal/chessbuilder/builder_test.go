package chessbuilder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	corechess "github.com/park285/chesspal/internal/chess"
	"github.com/park285/chesspal/internal/config"
	svcchess "github.com/park285/chesspal/internal/service/chess"
)

func baseConfig() *config.AppConfig {
	return &config.AppConfig{
		HTTPAddr:          ":0",
		StoreBackend:      config.BackendMemory,
		SessionTTL:        time.Hour,
		DefaultDifficulty: "hard",
		AISeed:            11,
	}
}

func TestNewMemory(t *testing.T) {
	deps, err := New(context.Background(), baseConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer deps.Close()

	v, err := deps.Service.CreateGame(context.Background(), corechess.GameOptions{Type: corechess.GameAI})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if v.State.Options.Difficulty != corechess.DifficultyHard {
		t.Errorf("difficulty = %q; want configured default hard", v.State.Options.Difficulty)
	}
	if deps.Server == nil || deps.Catalog == nil {
		t.Fatal("server or catalog not wired")
	}
}

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	cfg := baseConfig()
	cfg.StoreBackend = config.BackendRedis
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	deps, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer deps.Close()

	if _, ok := deps.Store.(*svcchess.RedisStore); !ok {
		t.Fatalf("store = %T; want *RedisStore", deps.Store)
	}
	v, err := deps.Service.CreateGame(context.Background(), corechess.GameOptions{Type: corechess.GameLocal})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if !mr.Exists("chesspal:game:" + v.ID) {
		t.Error("game not persisted in redis")
	}
}

func TestNewBadger(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreBackend = config.BackendBadger
	cfg.BadgerDir = filepath.Join(t.TempDir(), "sessions")
	deps, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer deps.Close()
	if _, ok := deps.Store.(*svcchess.BadgerStore); !ok {
		t.Fatalf("store = %T; want *BadgerStore", deps.Store)
	}
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreBackend = config.BackendRedis
	cfg.RedisURL = "redis://127.0.0.1:1/0"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if deps, err := New(ctx, cfg, nil); err == nil {
		deps.Close()
		t.Fatal("expected error for unreachable redis")
	}
}

func TestCloseNil(t *testing.T) {
	var d *Deps
	if err := d.Close(); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
}
