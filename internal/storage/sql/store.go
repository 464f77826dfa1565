package sql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bcnelson/cidr-group-central/internal/domain"
	"github.com/bcnelson/cidr-group-central/internal/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DefaultPageSize is the number of keys fetched per ListKeys round trip.
const DefaultPageSize = 500

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Store implements storage.ObjectStore on a single SQL table.
type Store struct {
	db       *sqlx.DB
	driver   string
	timeout  time.Duration
	pageSize int
}

var (
	_ storage.ObjectStore       = (*Store)(nil)
	_ storage.ConditionalPutter = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds every statement issued by the store.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) { s.timeout = timeout }
}

// WithPageSize sets how many keys ListKeys fetches per query.
func WithPageSize(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// New connects to the database and runs migrations.
func New(driver, dsn string, opts ...Option) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Run migrations
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s := &Store{db: db, driver: driver, pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put upserts the object.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO objects (object_key, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (object_key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		key, string(value), now, now)
	if err != nil {
		return fmt.Errorf("putting object %q: %w", key, err)
	}
	return nil
}

// PutIfAbsent inserts the object, relying on the primary key to reject
// a concurrent or earlier writer.
func (s *Store) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO objects (object_key, body, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		key, string(value), now, now)
	if err != nil {
		if err := wrapUniqueError(err); errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		return fmt.Errorf("inserting object %q: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	var body string
	err := s.db.GetContext(ctx, &body, `SELECT body FROM objects WHERE object_key = $1`, key)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting object %q: %w", key, err)
	}
	return []byte(body), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE object_key = $1`, key)
	if err != nil {
		return fmt.Errorf("deleting object %q: %w", key, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting object %q: %w", key, err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListKeys pages through matching keys with keyset pagination until a short
// page is returned.
func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	pattern := escapeLike(prefix) + "%"
	keys := make([]string, 0)
	after := ""
	for {
		var page []string
		err := s.db.SelectContext(ctx, &page,
			`SELECT object_key FROM objects
			 WHERE object_key LIKE $1 ESCAPE '\' AND object_key > $2
			 ORDER BY object_key LIMIT $3`,
			pattern, after, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, key := range page {
			// LIKE is case-insensitive on SQLite.
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		if len(page) < s.pageSize {
			break
		}
		after = page[len(page)-1]
	}
	sort.Strings(keys)
	return keys, nil
}

// escapeLike escapes LIKE wildcards so prefix matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
