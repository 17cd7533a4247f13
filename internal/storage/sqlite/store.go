// Package sqlite provides a SQLite implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/oklog/ulid/v2"

	"github.com/jwulff/meterimport/internal/bloodsugar"
	"github.com/jwulff/meterimport/internal/storage"

	_ "modernc.org/sqlite"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db  *sql.DB
	now func() time.Time

	mu      sync.Mutex // guards entropy
	entropy *ulid.MonotonicEntropy
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for import times and record ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an in-memory SQLite store.
func NewMemoryStore(opts ...Option) (*Store, error) {
	return newStore(":memory:", true, opts)
}

// NewFileStore creates a file-based SQLite store.
func NewFileStore(path string, opts ...Option) (*Store, error) {
	return newStore(path, false, opts)
}

func newStore(dsn string, memory bool, opts []Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{
		db:      db,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}

	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// Upload stores a single reading.
func (s *Store) Upload(ctx context.Context, reading bloodsugar.Reading) (string, error) {
	ids, err := s.UploadBatch(ctx, []bloodsugar.Reading{reading})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// UploadBatch stores readings in one transaction.
func (s *Store) UploadBatch(ctx context.Context, readings []bloodsugar.Reading) ([]string, error) {
	if len(readings) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin upload")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO readings (id, timestamp_ms, timestamp, value, meal, imported_at_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare upload")
	}
	defer stmt.Close()

	importedAt := s.now()
	ids := make([]string, 0, len(readings))
	for i, r := range readings {
		if !bloodsugar.IsPlausible(r.Value) || r.Timestamp.IsZero() {
			return nil, errors.Newf("reading %d is not valid: %.1f mg/dL at %s", i, r.Value, r.Timestamp)
		}
		meal := r.Meal
		if meal == "" {
			meal = bloodsugar.MealUnknown
		}
		id := s.newID(importedAt)
		if _, err := stmt.ExecContext(ctx,
			id,
			r.Timestamp.UnixMilli(),
			r.Timestamp.Format(time.RFC3339Nano),
			r.Value,
			string(meal),
			importedAt.UnixMilli(),
		); err != nil {
			return nil, errors.Wrapf(err, "insert reading %d", i)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit upload")
	}
	return ids, nil
}

const selectRecord = `SELECT seq, id, timestamp, value, meal, imported_at_ms FROM readings`

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (*storage.Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id)
	rec, _, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound{Resource: "reading", ID: id}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get reading %s", id)
	}
	return &rec, nil
}

// Read returns readings between start and end inclusive, oldest first.
func (s *Store) Read(ctx context.Context, start, end time.Time) ([]storage.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+`
		WHERE timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, seq ASC
	`, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, errors.Wrap(err, "read readings")
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		rec, _, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Changes returns records stored after token.
func (s *Store) Changes(ctx context.Context, token storage.SyncToken) ([]storage.Record, storage.SyncToken, error) {
	after, err := token.Seq()
	if err != nil {
		return nil, token, err
	}

	rows, err := s.db.QueryContext(ctx, selectRecord+` WHERE seq > ? ORDER BY seq ASC`, after)
	if err != nil {
		return nil, token, errors.Wrap(err, "read changes")
	}
	defer rows.Close()

	var records []storage.Record
	last := after
	for rows.Next() {
		rec, seq, err := scanRecord(rows)
		if err != nil {
			return nil, token, err
		}
		records = append(records, rec)
		last = seq
	}
	if err := rows.Err(); err != nil {
		return nil, token, err
	}
	return records, storage.NewSyncToken(last), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (storage.Record, int64, error) {
	var (
		rec        storage.Record
		seq        int64
		ts         string
		meal       string
		importedMs int64
	)
	if err := sc.Scan(&seq, &rec.ID, &ts, &rec.Value, &meal, &importedMs); err != nil {
		return storage.Record{}, 0, err
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return storage.Record{}, 0, errors.Wrapf(err, "reading %s has a bad timestamp", rec.ID)
	}
	rec.Timestamp = t
	rec.Meal = bloodsugar.MealRelation(meal)
	rec.ImportedAt = time.UnixMilli(importedMs)
	return rec, seq, nil
}

// Verify interface compliance
var _ storage.Store = (*Store)(nil)
