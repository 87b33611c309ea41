package chessbuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	_ "github.com/lib/pq"
	corechess "github.com/park285/chesspal/internal/chess"
	"github.com/park285/chesspal/internal/config"
	"github.com/park285/chesspal/internal/httpapi"
	"github.com/park285/chesspal/internal/msgcat"
	svcchess "github.com/park285/chesspal/internal/service/chess"
	"go.uber.org/zap"
)

type Deps struct {
	Service *svcchess.Service
	Store   svcchess.SessionStore
	Repo    svcchess.ProfileRepository
	Catalog *msgcat.Catalog
	Server  *httpapi.Server

	db *sql.DB
}

// New wires the session store, profile repository, selector and HTTP server
// from cfg. Callers must Close the returned Deps.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (_ *Deps, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := &Deps{}
	defer func() {
		if err != nil {
			_ = deps.Close()
		}
	}()
	checks := map[string]httpapi.HealthCheck{}

	switch cfg.StoreBackend {
	case config.BackendRedis:
		rs, err := svcchess.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL, logger)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		deps.Store = rs
		checks["redis"] = rs.Ping
	case config.BackendBadger:
		bs, err := svcchess.OpenBadgerStore(cfg.BadgerDir, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("init badger store: %w", err)
		}
		deps.Store = bs
	default:
		deps.Store = svcchess.NewMemoryStore()
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		deps.db = db
		if err := svcchess.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate profiles: %w", err)
		}
		deps.Repo = svcchess.NewRepository(db)
		checks["postgres"] = db.PingContext
	} else {
		logger.Warn("profile_repository_memory", zap.String("reason", "DATABASE_URL not set"))
		deps.Repo = svcchess.NewMemoryRepository()
	}

	var src corechess.RandSource
	if cfg.AISeed != 0 {
		src = rand.New(rand.NewSource(cfg.AISeed))
	}

	deps.Service, err = svcchess.NewService(deps.Store, deps.Repo, corechess.NewSelector(src), svcchess.Config{
		DefaultDifficulty: corechess.Difficulty(cfg.DefaultDifficulty),
		AutoAIReply:       cfg.AutoAIReply,
		HistoryLimit:      cfg.HistoryLimit,
	}, logger)
	if err != nil {
		return nil, err
	}

	deps.Catalog, err = msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	deps.Server = httpapi.NewServer(deps.Service, deps.Catalog, logger, httpapi.Options{
		PublicURL: cfg.PublicURL,
		Checks:    checks,
	})
	logger.Info("chess_deps_ready",
		zap.String("store", cfg.StoreBackend),
		zap.Bool("postgres", deps.db != nil),
		zap.Bool("auto_ai_reply", cfg.AutoAIReply),
	)
	return deps, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Close releases the store and database handles. Safe on partial Deps.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.Store != nil {
		errs = append(errs, d.Store.Close())
	}
	if d.db != nil {
		errs = append(errs, d.db.Close())
	}
	return errors.Join(errs...)
}
