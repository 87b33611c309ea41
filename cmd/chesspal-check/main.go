package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/chesspal/internal/apiclient"
	"github.com/park285/chesspal/internal/obslog"
	svcchess "github.com/park285/chesspal/internal/service/chess"
	"github.com/park285/chesspal/pkg/chessdto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// chesspal-check checks the dependencies of a chesspal deployment: Redis
// (REDIS_URL), Postgres (DATABASE_URL) and the HTTP API (CHESSPAL_URL).
// CHECK_SMOKE=true also plays one move in a throwaway local game.
func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	failed := false
	run := func(name string, check func(context.Context) error) {
		start := time.Now()
		if err := check(ctx); err != nil {
			failed = true
			logger.Error("check_failed", zap.String("check", name), zap.Error(err))
			return
		}
		logger.Info("check_ok", zap.String("check", name), zap.Duration("elapsed", time.Since(start)))
	}

	if raw := strings.TrimSpace(os.Getenv("REDIS_URL")); raw != "" {
		run("redis", func(ctx context.Context) error { return pingRedis(ctx, raw) })
	} else {
		logger.Info("check_skipped", zap.String("check", "redis"), zap.String("reason", "REDIS_URL not set"))
	}

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		run("postgres", func(ctx context.Context) error { return pingPostgres(ctx, dsn) })
	} else {
		logger.Info("check_skipped", zap.String("check", "postgres"), zap.String("reason", "DATABASE_URL not set"))
	}

	baseURL := strings.TrimSpace(os.Getenv("CHESSPAL_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	client := apiclient.NewClient(baseURL, apiclient.WithTimeout(5*time.Second), apiclient.WithPlayerID("chesspal-check"))
	run("http", client.Health)
	if strings.EqualFold(strings.TrimSpace(os.Getenv("CHECK_SMOKE")), "true") {
		run("smoke", func(ctx context.Context) error { return smoke(ctx, client) })
	}

	if failed {
		_ = logger.Sync()
		os.Exit(1)
	}
}

func pingRedis(ctx context.Context, raw string) error {
	opts, err := svcchess.ParseRedisURL(raw)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()
	return rdb.Ping(ctx).Err()
}

func pingPostgres(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PingContext(ctx)
}

func smoke(ctx context.Context, client *apiclient.Client) error {
	game, err := client.CreateGame(ctx, chessdto.CreateGameRequest{Type: "local"})
	if err != nil {
		return err
	}
	defer func() { _ = client.DeleteGame(context.WithoutCancel(ctx), game.ID) }()

	moved, err := client.Move(ctx, game.ID, "e2", "e4")
	if err != nil {
		return err
	}
	if moved.State == nil || len(moved.State.Moves) != 1 {
		return errors.New("move not recorded")
	}
	return nil
}
