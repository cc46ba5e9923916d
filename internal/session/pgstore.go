package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the table PGStore expects. Applied by the operator, not by
// the server.
const Schema = `
CREATE TABLE IF NOT EXISTS ig_sessions (
    username     TEXT PRIMARY KEY,
    session_data JSONB NOT NULL,
    proxy        TEXT NOT NULL DEFAULT ''
);
`

// PGStore persists session records in Postgres so multiple bridge replicas
// can share them. Same contract as FileStore; the upsert gives whole-record
// replacement transactionally.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Close() {
	s.pool.Close()
}

func (s *PGStore) Save(ctx context.Context, identity string, state json.RawMessage, proxy string) error {
	if identity == "" {
		return ErrInvalidIdentity
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(state, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO ig_sessions (username, session_data, proxy)
VALUES ($1, $2, $3)
ON CONFLICT (username) DO UPDATE
SET session_data = EXCLUDED.session_data, proxy = EXCLUDED.proxy
`, identity, state, proxy)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PGStore) Load(ctx context.Context, identity string) (Record, error) {
	if identity == "" {
		return Record{}, ErrInvalidIdentity
	}
	var rec Record
	var raw []byte
	err := s.pool.QueryRow(ctx, `
SELECT session_data, proxy FROM ig_sessions WHERE username = $1
`, identity).Scan(&raw, &rec.Proxy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	if !json.Valid(raw) {
		return Record{}, fmt.Errorf("%w: stored payload is not JSON", ErrCorrupt)
	}
	rec.State = raw
	return rec, nil
}

func (s *PGStore) Delete(ctx context.Context, identity string) (bool, error) {
	if identity == "" {
		return false, ErrInvalidIdentity
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM ig_sessions WHERE username = $1`, identity)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) Exists(ctx context.Context, identity string) (bool, error) {
	if identity == "" {
		return false, ErrInvalidIdentity
	}
	var exists bool
	err := s.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM ig_sessions WHERE username = $1)
`, identity).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return exists, nil
}
