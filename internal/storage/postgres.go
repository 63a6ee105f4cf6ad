package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Gabrielpanashe/Face-Access-System/internal/config"
	"github.com/Gabrielpanashe/Face-Access-System/internal/models"
)

// ErrIdentityNotFound is returned by deletes targeting an unknown name.
var ErrIdentityNotFound = errors.New("identity not found")

// PgxPool is the subset of pgxpool.Pool the store needs. It is satisfied by
// pgxmock in tests.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type PostgresStore struct {
	pool PgxPool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool wraps an existing pool (used by tests).
func NewPostgresStoreWithPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS identities (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	embedding  VECTOR(512) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS access_records (
	id               UUID PRIMARY KEY,
	identity_id      UUID REFERENCES identities(id) ON DELETE SET NULL,
	status           TEXT NOT NULL,
	liveness_score   INT,
	match_confidence INT NOT NULL,
	timestamp        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_access_records_timestamp ON access_records (timestamp DESC);
`

// InitSchema creates the tables if they do not exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// ListIdentities returns every enrolled identity with its embedding, in
// enrollment order. This is the point-in-time snapshot matching runs over.
func (s *PostgresStore) ListIdentities(ctx context.Context) ([]models.Identity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, embedding, created_at, updated_at FROM identities ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var identities []models.Identity
	for rows.Next() {
		var ident models.Identity
		var vec pgvector.Vector
		if err := rows.Scan(&ident.ID, &ident.Name, &vec, &ident.CreatedAt, &ident.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		ident.Embedding = vec.Slice()
		identities = append(identities, ident)
	}
	return identities, rows.Err()
}

// ListIdentitySummaries returns identities without their embeddings, newest first.
func (s *PostgresStore) ListIdentitySummaries(ctx context.Context) ([]models.Identity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM identities ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var identities []models.Identity
	for rows.Next() {
		var ident models.Identity
		if err := rows.Scan(&ident.ID, &ident.Name, &ident.CreatedAt, &ident.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, ident)
	}
	return identities, rows.Err()
}

func (s *PostgresStore) FindIdentityByName(ctx context.Context, name string) (*models.Identity, error) {
	ident := &models.Identity{}
	var vec pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, embedding, created_at, updated_at FROM identities WHERE name = $1`, name,
	).Scan(&ident.ID, &ident.Name, &vec, &ident.CreatedAt, &ident.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	ident.Embedding = vec.Slice()
	return ident, nil
}

// UpsertIdentity creates the identity on first enrollment and replaces its
// embedding on re-enrollment. The write runs in a transaction: it either
// fully commits or rolls back.
func (s *PostgresStore) UpsertIdentity(ctx context.Context, name string, embedding []float32) (*models.Identity, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	ident := &models.Identity{Name: name, Embedding: embedding}
	err = tx.QueryRow(ctx,
		`INSERT INTO identities (id, name, embedding) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = now()
		 RETURNING id, created_at, updated_at`,
		uuid.New(), name, pgvector.NewVector(embedding),
	).Scan(&ident.ID, &ident.CreatedAt, &ident.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert identity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return ident, nil
}

// DeleteIdentity removes an enrolled identity by name.
func (s *PostgresStore) DeleteIdentity(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM identities WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

// AppendAccessRecord writes one audit row. Records are append-only; nothing
// in the service mutates or deletes them.
func (s *PostgresStore) AppendAccessRecord(ctx context.Context, identityID *uuid.UUID, status models.AccessStatus, matchConfidence int, livenessScore *int) (*models.AccessRecord, error) {
	rec := &models.AccessRecord{
		ID:              uuid.New(),
		IdentityID:      identityID,
		Status:          status,
		LivenessScore:   livenessScore,
		MatchConfidence: matchConfidence,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO access_records (id, identity_id, status, liveness_score, match_confidence)
		 VALUES ($1, $2, $3, $4, $5) RETURNING timestamp`,
		rec.ID, rec.IdentityID, rec.Status, rec.LivenessScore, rec.MatchConfidence,
	).Scan(&rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("append access record: %w", err)
	}
	return rec, nil
}

// AccessLogEntry is an access record joined with the identity name for
// display. Unmatched records report "Unknown".
type AccessLogEntry struct {
	models.AccessRecord
	IdentityName string `json:"identity_name"`
}

// ListAccessRecords returns the most recent access records, newest first.
func (s *PostgresStore) ListAccessRecords(ctx context.Context, limit int) ([]AccessLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.identity_id, r.status, r.liveness_score, r.match_confidence, r.timestamp,
		        COALESCE(i.name, 'Unknown')
		 FROM access_records r
		 LEFT JOIN identities i ON i.id = r.identity_id
		 ORDER BY r.timestamp DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list access records: %w", err)
	}
	defer rows.Close()

	var entries []AccessLogEntry
	for rows.Next() {
		var e AccessLogEntry
		if err := rows.Scan(&e.ID, &e.IdentityID, &e.Status, &e.LivenessScore,
			&e.MatchConfidence, &e.Timestamp, &e.IdentityName); err != nil {
			return nil, fmt.Errorf("scan access record: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
