package store

import (
	"fmt"
	"strings"

	"github.com/bdia-labs/gaia-bench/internal/config"
)

// DefaultSQLitePath is where the sqlite database lands when the
// config names no path.
const DefaultSQLitePath = "data/gaia-bench.db"

// Open builds the Store selected by cfg.Storage.Type: "sqlite" (the
// default), "memory" for a throwaway in-process database, or "mysql".
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store: missing config")
	}

	switch t := strings.ToLower(strings.TrimSpace(cfg.Storage.Type)); t {
	case "", "sqlite":
		return NewSQLiteStore(sqlitePath(cfg.Storage.Path))
	case "memory":
		return NewSQLiteStore(":memory:")
	case "mysql":
		return NewMySQLStore(cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("store: unsupported type %q", t)
	}
}

func sqlitePath(p string) string {
	if p = strings.TrimSpace(p); p == "" {
		return DefaultSQLitePath
	}
	return p
}
