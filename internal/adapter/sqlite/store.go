package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/wafd/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// querier is the subset of *sql.DB and *sql.Tx the repositories need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements domain.Store using SQLite. A Store returned by New or
// NewFromDB runs each query on its own; the Store handed to a WithinTx
// callback routes every query through that transaction.
type Store struct {
	db *sql.DB
	q  querier
	tx *sql.Tx
}

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := Configure(db); err != nil {
		db.Close()
		return nil, err
	}

	return NewFromDB(db)
}

// Configure applies the connection settings every wafd database needs,
// whichever driver wrapper opened it. One connection keeps :memory:
// databases and PRAGMAs consistent and serializes writers, so allocation
// transactions never interleave.
func Configure(db *sql.DB) error {
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite). Bed cascades and
	// booking detachment depend on them.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("setting busy timeout: %w", err)
	}

	return nil
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready store.
// The *sql.DB must already have gone through Configure.
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return newStore(db), nil
}

func newStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Tents() domain.TentRepository       { return tentRepository{q: s.q} }
func (s *Store) Beds() domain.BedRepository         { return bedRepository{q: s.q} }
func (s *Store) Bookings() domain.BookingRepository { return bookingRepository{q: s.q} }
func (s *Store) Pilgrims() domain.PilgrimRepository { return pilgrimRepository{q: s.q} }
func (s *Store) Agencies() domain.AgencyRepository  { return agencyRepository{q: s.q} }

// WithinTx runs fn in a transaction. Nested calls join the outer
// transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(ctx, &Store{db: s.db, q: tx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func notFound(resource string, key any) error {
	return &domain.NotFoundError{Resource: resource, Key: fmt.Sprint(key)}
}

// paginate appends LIMIT/OFFSET. SQLite requires a LIMIT before OFFSET,
// so an offset alone is paired with LIMIT -1.
func paginate(query string, args []any, limit, offset int) (string, []any) {
	switch {
	case limit > 0:
		query += ` LIMIT ?`
		args = append(args, limit)
	case offset > 0:
		query += ` LIMIT -1`
	}
	if offset > 0 {
		query += ` OFFSET ?`
		args = append(args, offset)
	}
	return query, args
}

// where joins conditions into a WHERE clause, or returns "" for none.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return ` WHERE ` + strings.Join(conds, ` AND `)
}

// uniqueViolation reports the column named by a SQLite UNIQUE constraint
// error, e.g. "pilgrims.national_id" yields "national_id".
func uniqueViolation(err error) (column string, ok bool) {
	msg := err.Error()
	const marker = "UNIQUE constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return "", false
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexAny(rest, " ,)"); j >= 0 {
		rest = rest[:j]
	}
	if k := strings.LastIndexByte(rest, '.'); k >= 0 {
		rest = rest[k+1:]
	}
	return rest, true
}
