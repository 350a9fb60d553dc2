package config

import (
	"context"
	"fmt"

	"github.com/marmos91/depot/internal/logger"
	"github.com/marmos91/depot/pkg/db"
	dbBadger "github.com/marmos91/depot/pkg/db/badger"
	dbMemory "github.com/marmos91/depot/pkg/db/memory"
	"github.com/marmos91/depot/pkg/engine"
	"github.com/mitchellh/mapstructure"
)

// CreateDatabase creates a database backend based on configuration.
//
// The Type field selects the implementation; the matching options map
// is decoded into the backend's configuration struct.
//
// Supported types:
//   - "badger": persistent BadgerDB store (production)
//   - "memory": in-memory store, discarded with the process
func CreateDatabase(ctx context.Context, cfg *DatabaseConfig) (db.Store, error) {
	switch cfg.Type {
	case "badger":
		return createBadgerDatabase(ctx, cfg.Badger)
	case "memory":
		return dbMemory.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database type: %q", cfg.Type)
	}
}

// createBadgerDatabase creates a BadgerDB-backed database.
func createBadgerDatabase(ctx context.Context, options map[string]any) (db.Store, error) {
	var storeCfg dbBadger.BadgerStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger database config: %w", err)
	}

	if storeCfg.DBPath == "" {
		return nil, fmt.Errorf("badger database: db_path is required")
	}

	store, err := dbBadger.NewBadgerStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger database: %w", err)
	}

	return store, nil
}

// CreateEngine builds a ready engine from the configuration, opening
// the configured database backend.
func CreateEngine(ctx context.Context, cfg *Config) (*engine.Engine, error) {
	logger.Debug("initializing %s database", cfg.Database.Type)

	database, err := CreateDatabase(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(ctx, engine.Options{
		System:        cfg.Build.System,
		StoreRoot:     cfg.Store.Root,
		LogDir:        cfg.Store.LogDir,
		TmpRoot:       cfg.Store.TmpDir,
		VerifyOutputs: cfg.Build.VerifyOutputs,
		DB:            database,
	})
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return eng, nil
}
