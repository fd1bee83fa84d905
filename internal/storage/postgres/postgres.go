package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/pkg/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	getSlotSQL = `SELECT value FROM storefront_slots WHERE key = $1`
	setSlotSQL = `INSERT INTO storefront_slots (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
)

// Migrate creates the slot table.
func Migrate(ctx context.Context, db database.DBTX, logger *slog.Logger) error {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open slot migrations: %w", err)
	}
	return database.RunMigrations(ctx, db, sub, logger)
}

// KV implements storage.KV on a single PostgreSQL table.
type KV struct {
	db database.DBTX
}

// New creates a PostgreSQL-backed store. Run Migrate first.
func New(db database.DBTX) *KV {
	return &KV{db: db}
}

// Get reads the slot value.
func (s *KV) Get(ctx context.Context, key string) (_ []byte, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "GetSlot", getSlotSQL)
	defer func() { end(err) }()

	var value []byte
	if err := s.db.QueryRow(ctx, getSlotSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.NotFound(key)
		}
		return nil, fmt.Errorf("query slot: %w", err)
	}
	return value, nil
}

// Set upserts the slot value.
func (s *KV) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "SetSlot", setSlotSQL)
	defer func() { end(err) }()

	if _, err := s.db.Exec(ctx, setSlotSQL, key, value); err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *KV) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
