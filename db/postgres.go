package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Istiyak4099/Airdrop/models"
)

// SchemaSQL creates the documents table. Every document lives in one row keyed
// by its full path; parent is the containing collection path.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
    path       TEXT PRIMARY KEY,
    parent     TEXT NOT NULL,
    data       JSONB NOT NULL,
    seq        BIGSERIAL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS documents_parent_idx ON documents (parent);
`

const (
	upsertMergeSQL = `
        INSERT INTO documents (path, parent, data)
        VALUES ($1, $2, $3::jsonb)
        ON CONFLICT (path) DO UPDATE
        SET data = documents.data || EXCLUDED.data,
            updated_at = NOW()`

	upsertReplaceSQL = `
        INSERT INTO documents (path, parent, data)
        VALUES ($1, $2, $3::jsonb)
        ON CONFLICT (path) DO UPDATE
        SET data = EXCLUDED.data,
            updated_at = NOW()`

	listAscSQL = `
        SELECT path, data FROM documents
        WHERE parent = $1
        ORDER BY data ->> $2::text ASC NULLS FIRST, seq ASC
        LIMIT $3`

	listDescSQL = `
        SELECT path, data FROM documents
        WHERE parent = $1
        ORDER BY data ->> $2::text DESC NULLS LAST, seq DESC
        LIMIT $3`
)

// PostgresStore keeps documents as JSONB rows. Merge writes use the jsonb ||
// operator, which replaces top-level keys only.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore connects with a few retries, configures the pool and applies the schema.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	logger.Info("database URL configured", "length", len(databaseURL))

	var (
		conn *sql.DB
		err  error
	)
	for i := 0; i < 3; i++ {
		logger.Info("database connection attempt", "attempt", i+1, "max", 3)
		if conn, err = connectPostgres(ctx, databaseURL); err == nil {
			break
		}
		logger.Warn("database connection attempt failed", "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect postgres after 3 attempts: %w", err)
	}

	if _, err := conn.ExecContext(ctx, SchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.Info("connected to postgres")
	return &PostgresStore{db: conn, logger: logger}, nil
}

func connectPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return conn, nil
}

func (s *PostgresStore) GetDoc(ctx context.Context, ref Ref, dst any) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = $1`, string(ref)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", ref, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return malformed(ref, err)
	}
	return nil
}

func (s *PostgresStore) SetDoc(ctx context.Context, ref Ref, data map[string]any, opts ...SetOption) error {
	if err := ref.validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(normalize(data))
	if err != nil {
		return fmt.Errorf("encode %s: %w", ref, err)
	}

	query := upsertReplaceSQL
	if applySetOptions(opts).merge {
		query = upsertMergeSQL
	}
	if _, err := s.db.ExecContext(ctx, query, string(ref), ref.Parent(), string(raw)); err != nil {
		return fmt.Errorf("set %s: %w", ref, err)
	}
	return nil
}

func (s *PostgresStore) AddDoc(ctx context.Context, collection string, data map[string]any) (Ref, error) {
	ref, withID := newDocument(collection, data)
	if err := s.SetDoc(ctx, ref, withID); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *PostgresStore) ListDocs(ctx context.Context, collection, orderField string, order Order, limit int) ([]Document, error) {
	query := listAscSQL
	if order == Descending {
		query = listDescSQL
	}
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.db.QueryContext(ctx, query, collection, orderField, lim)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			p   string
			raw []byte
		)
		if err := rows.Scan(&p, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		docs = append(docs, jsonDocument{ref: Ref(p), raw: raw})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

func (s *PostgresStore) QueryMessages(ctx context.Context, conversation Ref, limit int, order Order) ([]models.Message, error) {
	return queryMessages(ctx, s, conversation, limit, order)
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}
