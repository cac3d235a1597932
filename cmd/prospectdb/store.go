package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leadforge/prospectdb/internal/config"
	"github.com/leadforge/prospectdb/internal/db"
	dbmemory "github.com/leadforge/prospectdb/internal/db/memory"
	dbredis "github.com/leadforge/prospectdb/internal/db/redis"
	dbsqlite "github.com/leadforge/prospectdb/internal/db/sqlite"
	logpkg "github.com/leadforge/prospectdb/internal/logger"
)

// setup is the shared bootstrap for every command: config, logger, store.
type setup struct {
	cfg    config.Config
	logger *zap.Logger
	store  db.Store
}

func newSetup(ctx context.Context) (*setup, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	return &setup{cfg: cfg, logger: logger, store: store}, nil
}

func (s *setup) close() {
	s.store.Close()
	_ = s.logger.Sync()
}

func openStore(cfg config.Config) (db.Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		return dbmemory.NewStore(), nil
	case "redis":
		store, err := dbredis.NewStore(dbredis.Config{
			Addrs:     cfg.Database.Addrs,
			Password:  cfg.Database.Password,
			KeyPrefix: cfg.Database.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		return store, nil
	case "sqlite":
		store, err := dbsqlite.NewStore(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("create sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
