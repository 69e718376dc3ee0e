package docstore

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/violation-portal/internal/db"
	"github.com/sells-group/violation-portal/internal/model"
)

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL DEFAULT gen_random_uuid()::text,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);`

const postgresList = `SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at, id`

// PostgresStore keeps documents as JSONB rows in a single table.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to Postgres and returns a store over the pool.
func NewPostgres(ctx context.Context, connString string, maxConns int32) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, maxConns)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return NewPostgresWithPool(pool), nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the documents table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, collection string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx, postgresList, collection)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s", collection)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		fields, err := decodeFields(data)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: decode document %s", id)
		}
		docs = append(docs, model.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: iterate %s", collection)
	}
	return docs, nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
