package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/leozw/vitals-guardian/internal/storage"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed migrations
var migrations embed.FS

// Backend stores blobs in a single SQL table, on PostgreSQL or SQLite.
type Backend struct {
	db     *sqlx.DB
	driver string
}

// Open connects, configures the pool and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (*Backend, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// single writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	b := &Backend{db: db, driver: driver}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return b, nil
}

func (b *Backend) migrate() error {
	src, err := iofs.New(migrations, "migrations/"+b.driver)
	if err != nil {
		return err
	}

	var m *migrate.Migrate
	switch b.driver {
	case DriverPostgres:
		driver, err := migratepg.WithInstance(b.db.DB, &migratepg.Config{})
		if err != nil {
			return err
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", driver)
		if err != nil {
			return err
		}
	case DriverSQLite:
		driver, err := migratesqlite.WithInstance(b.db.DB, &migratesqlite.Config{})
		if err != nil {
			return err
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite3", driver)
		if err != nil {
			return err
		}
	}

	// m.Close would close the shared *sql.DB; the pool outlives the migrator.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	query := b.db.Rebind(`SELECT data FROM blobs WHERE name = ?`)
	err := b.db.GetContext(ctx, &data, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}
	return data, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	query := b.db.Rebind(`
        INSERT INTO blobs (name, data, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT (name) DO UPDATE SET
            data = excluded.data,
            updated_at = excluded.updated_at`)

	if _, err := b.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set blob: %w", err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	query := b.db.Rebind(`DELETE FROM blobs WHERE name = ?`)
	if _, err := b.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *Backend) Close() error {
	return b.db.Close()
}
