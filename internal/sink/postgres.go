package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver

	"github.com/manifest-network/tracker/db"
	"github.com/manifest-network/tracker/internal/models"
)

const (
	insertSettlementSQL = `INSERT INTO settlements (tx_hash, block_hash) VALUES ($1, $2) ON CONFLICT (tx_hash) DO NOTHING`
	insertCompletionSQL = `INSERT INTO completions (tx_hash, block_hash, successful) VALUES ($1, $2, $3) ON CONFLICT (tx_hash) DO NOTHING`
)

// Postgres persists notifications in two append-only tables. Inserts are
// conflict-free so host-level event redelivery stays idempotent at the
// storage layer.
type Postgres struct {
	conn *sql.DB
}

// OpenPostgres connects to the database, runs the embedded migrations, and
// returns a ready sink.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrateUp(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return NewPostgres(conn), nil
}

// NewPostgres wraps an existing connection without running migrations.
func NewPostgres(conn *sql.DB) *Postgres {
	return &Postgres{conn: conn}
}

func migrateUp(conn *sql.DB) error {
	src, err := iofs.New(db.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := migratepgx.WithInstance(conn, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Postgres) TxSettled(ctx context.Context, tx string, st models.Settlement) error {
	if _, err := s.conn.ExecContext(ctx, insertSettlementSQL, tx, st.Block); err != nil {
		return fmt.Errorf("failed to record settlement of tx %s: %w", tx, err)
	}
	return nil
}

func (s *Postgres) TxDone(ctx context.Context, tx string, d models.Done) error {
	if _, err := s.conn.ExecContext(ctx, insertCompletionSQL, tx, d.Block, d.Successful); err != nil {
		return fmt.Errorf("failed to record completion of tx %s: %w", tx, err)
	}
	return nil
}

func (s *Postgres) Close() error {
	return s.conn.Close()
}
