// Package docstore provides read-only access to collections of schemaless
// documents held in Firestore, Postgres, SQLite or a local YAML file.
package docstore

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/violation-portal/internal/config"
	"github.com/sells-group/violation-portal/internal/model"
)

// Store reads whole collections. It exposes no write operations.
type Store interface {
	// List returns every document in the collection, unfiltered and unpaginated.
	List(ctx context.Context, collection string) ([]model.Document, error)
	Close() error
}

// Migrator is implemented by backends that own their schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Open constructs the backend selected by cfg.Driver. The caller owns the
// returned store and must Close it.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "firestore":
		s, err := NewFirestore(ctx, cfg.ProjectID, cfg.CredentialsFile, cfg.EmulatorHost)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgres(ctx, cfg.DatabaseURL, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "file":
		return NewFile(cfg.Path), nil
	default:
		return nil, eris.Errorf("docstore: unknown driver %q", cfg.Driver)
	}
}
