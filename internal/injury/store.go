package injury

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"

	"github.com/Faultbox/bodyview/internal/focus"
	"github.com/Faultbox/bodyview/internal/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store persists records in SQLite.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// OpenSQLite opens the database at dbPath, creating its directory.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Open opens the store at dbPath and applies migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return s, nil
}

// New wraps an open database.
func New(db *sql.DB) *Store {
	return &Store{
		db:  db,
		log: logger.Named("injury"),
		now: time.Now,
	}
}

// Migrate applies every embedded migration in name order. Migrations are
// written to be idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		s.log.Debug("migration applied", zap.String("name", name))
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores a new record and returns it with its id.
func (s *Store) Create(ctx context.Context, in Input) (Record, error) {
	if err := in.Validate(); err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        uuid.New(),
		BodyPart:  strings.TrimSpace(in.BodyPart),
		Status:    focus.ParseStatus(in.Status),
		Severity:  in.Severity,
		Notes:     in.Notes,
		CreatedAt: s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO injuries (id, body_part, status, severity, notes, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, rec.ID.String(), rec.BodyPart, rec.Status.String(), rec.Severity, rec.Notes,
		rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Record{}, fmt.Errorf("insert injury: %w", err)
	}

	s.log.Info("injury recorded",
		zap.Stringer("id", rec.ID),
		zap.String("body_part", rec.BodyPart),
		zap.Stringer("status", rec.Status))
	return rec, nil
}

// List returns every record, oldest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, body_part, status, severity, notes, created_at
        FROM injuries
        ORDER BY created_at, rowid
    `)
	if err != nil {
		return nil, fmt.Errorf("query injuries: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, body_part, status, severity, notes, created_at
        FROM injuries
        WHERE id = ?
    `, id.String())

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM injuries WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete injury: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete injury: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec     Record
		id      string
		status  string
		created string
	)
	if err := row.Scan(&id, &rec.BodyPart, &status, &rec.Severity, &rec.Notes, &created); err != nil {
		return Record{}, err
	}

	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("parse id %q: %w", id, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Record{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	rec.Status = focus.ParseStatus(status)
	return rec, nil
}
