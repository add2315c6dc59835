package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/de-tools/approval-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/approval-atlas/pkg/services/config"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb"
	"github.com/rs/zerolog"
)

const commandTimeout = 5 * time.Minute

// Runtime carries the state shared by every command: global flags, the
// reporter and lazily opened resources.
type Runtime struct {
	ConfigPath  string
	DBPath      string
	SourcesPath string
	Logger      zerolog.Logger
	Reporter    *export.Reporter

	settings *config.Settings
	db       *sql.DB
}

func DefaultSourcesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".atlas-sources.ini"
	}
	return filepath.Join(home, ".atlas", "sources.ini")
}

func (r *Runtime) Context(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, commandTimeout)
	return r.Logger.WithContext(ctx), cancel
}

func (r *Runtime) Settings() (*config.Settings, error) {
	if r.settings != nil {
		return r.settings, nil
	}
	settings, err := config.LoadSettings(r.ConfigPath)
	if err != nil {
		return nil, err
	}
	if r.DBPath != "" {
		settings.Store.DBPath = r.DBPath
	}
	r.settings = settings
	return settings, nil
}

// DB opens the local DuckDB store once per invocation.
func (r *Runtime) DB() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	settings, err := r.Settings()
	if err != nil {
		return nil, err
	}
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: settings.Store.DBPath})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	r.db = db
	return db, nil
}

func (r *Runtime) Registry() (config.Registry, error) {
	registry, err := config.NewRegistry(r.SourcesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create source registry: %w", err)
	}
	return registry, nil
}

func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}
