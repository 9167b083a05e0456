package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

const dbTimeLayout = "2006-01-02 15:04:05"

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type baseProvider struct {
	DB
}

type nonTxProvider struct {
	baseProvider
}

type txProvider struct {
	baseProvider
	tx *sql.Tx
}

func (c *txProvider) Rollback() error {
	return c.tx.Rollback()
}

func (c *txProvider) Commit() error {
	return c.tx.Commit()
}

// ProviderFactory provides SQLite-backed access to the sanction tables.
type ProviderFactory struct {
	DB *sql.DB
}

func (sf ProviderFactory) NonTx() DataStore {
	return &nonTxProvider{
		baseProvider: baseProvider{
			DB: sf.DB,
		},
	}
}

func (sf ProviderFactory) Tx(ctx context.Context) (DataStoreTx, error) {
	tx, err := sf.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("datastore: begin tx: %w", err)
	}

	return &txProvider{
		baseProvider: baseProvider{
			DB: tx,
		},
		tx: tx,
	}, nil
}

// NewProviderFactory opens (or creates) a SQLite database and runs migrations.
func NewProviderFactory(dbPath string) (*ProviderFactory, error) {
	DB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("datastore: open DB: %w", err)
	}

	ctx := context.Background()

	// Enable WAL mode for better concurrent read performance
	if _, err := DB.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = DB.Close()
		return nil, fmt.Errorf("datastore: set WAL: %w", err)
	}
	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := DB.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = DB.Close()
		return nil, fmt.Errorf("datastore: set busy_timeout: %w", err)
	}

	s := &ProviderFactory{DB: DB}
	if err := s.migrate(ctx); err != nil {
		_ = DB.Close()
		return nil, fmt.Errorf("datastore: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *ProviderFactory) Close() error {
	return s.DB.Close()
}

func (s *ProviderFactory) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS bans (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		issued_by   INTEGER NOT NULL DEFAULT 0,
		player_name TEXT    NOT NULL DEFAULT '',
		created_at  TEXT,
		severity    TEXT    NOT NULL DEFAULT '',
		reason      TEXT    NOT NULL DEFAULT '',
		identifier  TEXT    NOT NULL DEFAULT '',
		ip          TEXT    NOT NULL DEFAULT '',
		duration    INTEGER NOT NULL DEFAULT 0,
		servers     TEXT    NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS warnings (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		issued_by   INTEGER NOT NULL DEFAULT 0,
		player_name TEXT    NOT NULL DEFAULT '',
		created_at  TEXT,
		severity    TEXT    NOT NULL DEFAULT '',
		reason      TEXT    NOT NULL DEFAULT '',
		identifier  TEXT    NOT NULL DEFAULT '',
		ip          TEXT    NOT NULL DEFAULT '',
		servers     TEXT    NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS age_checks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		issued_by   INTEGER NOT NULL DEFAULT 0,
		player_name TEXT    NOT NULL DEFAULT '',
		created_at  TEXT,
		severity    TEXT    NOT NULL DEFAULT '',
		identifier  TEXT    NOT NULL DEFAULT '',
		birth_date  TEXT    NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS wanted_individuals (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		issued_by   INTEGER NOT NULL DEFAULT 0,
		player_name TEXT    NOT NULL DEFAULT '',
		created_at  TEXT,
		severity    TEXT    NOT NULL DEFAULT '',
		reason      TEXT    NOT NULL DEFAULT '',
		servers     TEXT    NOT NULL DEFAULT '[]'
	);
	`
	if err := s.ensureSchemaMigrations(ctx); err != nil {
		return err
	}
	currentVersion, err := s.getSchemaVersion(ctx)
	if err != nil {
		return err
	}

	migrations := []struct {
		version      int
		statements   []string
		ignoreErrors bool
	}{
		{
			version:    1,
			statements: []string{schema},
		},
		{
			version: 2,
			statements: []string{
				"CREATE INDEX IF NOT EXISTS idx_bans_identifier ON bans (identifier)",
				"CREATE INDEX IF NOT EXISTS idx_warnings_identifier ON warnings (identifier)",
				"CREATE INDEX IF NOT EXISTS idx_age_checks_identifier ON age_checks (identifier)",
			},
		},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		for _, stmt := range m.statements {
			if err := s.execMigration(ctx, stmt, m.ignoreErrors); err != nil {
				return err
			}
		}
		if err := s.setSchemaVersion(ctx, m.version); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProviderFactory) ensureSchemaMigrations(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("datastore: create schema_migrations: %w", err)
	}
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return fmt.Errorf("datastore: check schema_migrations: %w", err)
	}
	if count == 0 {
		if _, err := s.DB.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (0)"); err != nil {
			return fmt.Errorf("datastore: init schema_migrations: %w", err)
		}
	}
	return nil
}

func (s *ProviderFactory) getSchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.DB.QueryRowContext(ctx, "SELECT version FROM schema_migrations LIMIT 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("datastore: read schema version: %w", err)
	}
	return version, nil
}

func (s *ProviderFactory) setSchemaVersion(ctx context.Context, version int) error {
	if _, err := s.DB.ExecContext(ctx, "UPDATE schema_migrations SET version = ?", version); err != nil {
		return fmt.Errorf("datastore: update schema version: %w", err)
	}
	return nil
}

func (s *ProviderFactory) execMigration(ctx context.Context, stmt string, ignoreErrors bool) error {
	if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
		if ignoreErrors {
			return nil
		}
		return fmt.Errorf("datastore: migrate: %w", err)
	}
	return nil
}

func formatDBTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(dbTimeLayout)
}

func parseDBTime(value string) (time.Time, error) {
	return time.ParseInLocation(dbTimeLayout, value, time.UTC)
}

// ---- Sanctions ----

func lookupTable(k model.Kind) (*table, error) {
	t, ok := tables[k]
	if !ok {
		return nil, fmt.Errorf("datastore: %w: %d", model.ErrUnknownKind, int(k))
	}
	return t, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Create inserts s and returns the assigned id.
func (s *baseProvider) Create(ctx context.Context, sanction model.Sanction) (int64, error) {
	t, err := lookupTable(sanction.Kind())
	if err != nil {
		return 0, err
	}
	cols := t.allColumns()
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(cols, ", "), placeholders(len(cols)))
	res, err := s.ExecContext(ctx, query, t.values(sanction)...)
	if err != nil {
		return 0, fmt.Errorf("datastore: create %s: %w", sanction.Kind(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("datastore: create %s: %w", sanction.Kind(), err)
	}
	return id, nil
}

// Update overwrites every column of the row with id sanction.Common().ID.
func (s *baseProvider) Update(ctx context.Context, sanction model.Sanction) error {
	t, err := lookupTable(sanction.Kind())
	if err != nil {
		return err
	}
	cols := t.allColumns()
	assignments := make([]string, len(cols))
	for i, c := range cols {
		assignments[i] = c + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.name, strings.Join(assignments, ", "))
	args := append(t.values(sanction), sanction.Common().ID)
	res, err := s.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("datastore: update %s: %w", sanction.Kind(), err)
	}
	return requireAffected(res, "update", sanction.Kind(), sanction.Common().ID)
}

// Delete removes one row.
func (s *baseProvider) Delete(ctx context.Context, k model.Kind, id int64) error {
	t, err := lookupTable(k)
	if err != nil {
		return err
	}
	res, err := s.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("datastore: delete %s: %w", k, err)
	}
	return requireAffected(res, "delete", k, id)
}

func requireAffected(res sql.Result, op string, k model.Kind, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("datastore: %s %s: %w", op, k, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", ErrNotFound, k, id)
	}
	return nil
}

// Get retrieves one sanction by id.
func (s *baseProvider) Get(ctx context.Context, k model.Kind, id int64) (model.Sanction, error) {
	t, err := lookupTable(k)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT id, %s FROM %s WHERE id = ?", strings.Join(t.allColumns(), ", "), t.name)
	sanction := model.New(k)
	err = s.QueryRowContext(ctx, query, id).Scan(t.dest(sanction)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, k, id)
	}
	if err != nil {
		return nil, fmt.Errorf("datastore: get %s: %w", k, err)
	}
	return sanction, nil
}

// ListAll returns every sanction of kind k ordered by id.
func (s *baseProvider) ListAll(ctx context.Context, k model.Kind) ([]model.Sanction, error) {
	t, err := lookupTable(k)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT id, %s FROM %s ORDER BY id", strings.Join(t.allColumns(), ", "), t.name)
	rows, err := s.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("datastore: list %s: %w", k, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Sanction
	for rows.Next() {
		sanction := model.New(k)
		if err := rows.Scan(t.dest(sanction)...); err != nil {
			return nil, fmt.Errorf("datastore: scan %s: %w", k, err)
		}
		out = append(out, sanction)
	}
	return out, rows.Err()
}

// ---- Restore ----

// Truncate deletes every row of kind k.
func (s *txProvider) Truncate(ctx context.Context, k model.Kind) error {
	t, err := lookupTable(k)
	if err != nil {
		return err
	}
	if _, err := s.ExecContext(ctx, "DELETE FROM "+t.name); err != nil {
		return fmt.Errorf("datastore: truncate %s: %w", k, err)
	}
	return nil
}

// Insert stores sanction under its own id.
func (s *txProvider) Insert(ctx context.Context, sanction model.Sanction) error {
	t, err := lookupTable(sanction.Kind())
	if err != nil {
		return err
	}
	cols := append([]string{"id"}, t.allColumns()...)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(cols, ", "), placeholders(len(cols)))
	args := append([]any{sanction.Common().ID}, t.values(sanction)...)
	if _, err := s.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("datastore: insert %s %d: %w", sanction.Kind(), sanction.Common().ID, err)
	}
	return nil
}
