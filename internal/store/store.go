// Package store persists connected-account credentials with bun on SQLite or Postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brizzai/social-connect/internal/config"
	"github.com/brizzai/social-connect/internal/logger"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
)

// ErrNotFound means no credential exists for the owner, i.e. not connected
var ErrNotFound = errors.New("store: credential not found")

const ownerIndexName = "social_credentials_provider_owner_idx"

// SQLStore is the bun backed credential store
type SQLStore struct {
	db  *bun.DB
	now func() time.Time
}

// Open connects to the configured database. Call Migrate before first use.
func Open(cfg config.DatabaseConfig) (*SQLStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("store: database dsn is required")
	}

	var db *bun.DB
	switch cfg.Driver {
	case config.DatabaseDriverSQLite, "":
		sqlDB, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("store: open sqlite: %w", err)
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	case config.DatabaseDriverPostgres:
		sqlDB, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("store: open postgres: %w", err)
		}
		db = bun.NewDB(sqlDB, pgdialect.New())
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}

	if cfg.Debug {
		db.AddQueryHook(queryLogger{})
	}

	return NewSQLStore(db), nil
}

// NewSQLStore wraps an existing bun database
func NewSQLStore(db *bun.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Close releases the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate creates the credential table and its (provider, owner_identity) unique index
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*credentialRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("store: create table: %w", err)
	}

	if _, err := s.db.NewCreateIndex().
		Model((*credentialRecord)(nil)).
		Index(ownerIndexName).
		Unique().
		IfNotExists().
		Column("provider", "owner_identity").
		Exec(ctx); err != nil {
		return fmt.Errorf("store: create index: %w", err)
	}
	return nil
}

// Upsert inserts the credential or overwrites remote id, token and display name of the
// existing one for the same provider and owner in a single statement.
func (s *SQLStore) Upsert(ctx context.Context, in Credential) (Credential, error) {
	if strings.TrimSpace(in.OwnerIdentity) == "" {
		return Credential{}, fmt.Errorf("store: owner identity is required")
	}
	if in.Provider == "" {
		return Credential{}, fmt.Errorf("store: provider is required")
	}

	record := newCredentialRecord(in, uuid.NewString(), s.now())
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (provider, owner_identity) DO UPDATE").
		Set("provider_user_id = EXCLUDED.provider_user_id").
		Set("access_token = EXCLUDED.access_token").
		Set("display_name = EXCLUDED.display_name").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("store: upsert credential: %w", err)
	}

	return s.Get(ctx, in.Provider, in.OwnerIdentity)
}

// Get returns the credential for owner, or ErrNotFound
func (s *SQLStore) Get(ctx context.Context, provider Provider, owner string) (Credential, error) {
	record := new(credentialRecord)
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.provider = ?", string(provider)).
		Where("?TableAlias.owner_identity = ?", owner).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, ErrNotFound
	}
	if err != nil {
		return Credential{}, fmt.Errorf("store: get credential: %w", err)
	}
	return record.toDomain(), nil
}

// Delete removes the credential for owner, or returns ErrNotFound if there is none
func (s *SQLStore) Delete(ctx context.Context, provider Provider, owner string) error {
	res, err := s.db.NewDelete().
		Model((*credentialRecord)(nil)).
		Where("provider = ?", string(provider)).
		Where("owner_identity = ?", owner).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: delete credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete credential: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns how many credentials exist for owner
func (s *SQLStore) Count(ctx context.Context, provider Provider, owner string) (int, error) {
	n, err := s.db.NewSelect().
		Model((*credentialRecord)(nil)).
		Where("provider = ?", string(provider)).
		Where("owner_identity = ?", owner).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: count credentials: %w", err)
	}
	return n, nil
}

type queryLogger struct{}

func (queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	fields := []zap.Field{
		zap.String("operation", event.Operation()),
		zap.Duration("duration", time.Since(event.StartTime)),
	}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		logger.Warn("query failed", append(fields, zap.Error(event.Err))...)
		return
	}
	logger.Debug("query", fields...)
}
