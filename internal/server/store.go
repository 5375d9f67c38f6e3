package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/snipstash/internal/config"
	"github.com/sakif/snipstash/internal/repository"
	"github.com/sakif/snipstash/internal/repository/postgres"
	sqliteRepo "github.com/sakif/snipstash/internal/repository/sqlite"
)

// OpenStore opens the backend named by cfg.StoreURL and runs its migrations.
// One store, and so one connection pool, serves the whole process.
func OpenStore(cfg *config.Config) (repository.Store, error) {
	kind, dsn, err := cfg.Store()
	if err != nil {
		return nil, err
	}

	switch kind {
	case config.StorePostgres:
		db, err := postgres.New(dsn)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return db, nil

	default:
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			// like `mkdir -p` for data/snipstash.db
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(dsn)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return db, nil
	}
}
