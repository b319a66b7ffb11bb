package commands

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/cdfgraph/cdfgraph/backend"
	"github.com/cdfgraph/cdfgraph/backend/jsonstore"
	"github.com/cdfgraph/cdfgraph/backend/sqlstore"
	"github.com/cdfgraph/cdfgraph/internal/cli/config"
)

// openStore builds the configured Store. The returned closer releases the
// underlying database handle; for the JSON backend it is a no-op.
func openStore(cfg config.StoreConfig, log *zap.Logger) (backend.Store, func() error, error) {
	switch cfg.Backend {
	case "json":
		return jsonstore.New(cfg.Path, jsonstore.WithLogger(log)), func() error { return nil }, nil
	case "sqlite":
		db, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return sqlstore.NewStore(db, sqlstore.WithLogger(log)), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// newLogger builds the diagnostic logger from config.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}
