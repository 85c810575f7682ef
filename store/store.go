// Package store loads assembled volumes into a SQLite database and queries
// them back.
//
// A Store owns a single database connection. Writers take Mu exclusively and
// every load runs in one transaction, so a failed load leaves no rows behind.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/arloliu/dataless/compress"
	"github.com/arloliu/dataless/format"
	"github.com/arloliu/dataless/internal/options"
)

const (
	// InmemPath opens a private in-memory database.
	InmemPath = ":memory:"

	// DefaultFilename is the database file name used by the command line tools.
	DefaultFilename = "dataless.sqlite"
)

// Store is a SQLite database of loaded volumes.
type Store struct {
	Mu   sync.RWMutex
	DB   *sqlx.DB
	log  *zap.Logger
	path string

	codec compress.Codec // archive codec
}

// Option configures a Store.
type Option = options.Option[*Store]

// WithArchiveCompression selects the codec used to archive raw sources.
// CompressionNone stores sources uncompressed.
func WithArchiveCompression(t format.CompressionType) Option {
	return options.New(func(s *Store) error {
		codec, err := compress.CreateCodec(t, "archive")
		if err != nil {
			return err
		}
		s.codec = codec

		return nil
	})
}

// New opens (creating when needed) the database at path. Use InmemPath for a
// throw-away database. Call Migrate before loading.
func New(path string, log *zap.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Store{
		log:   log,
		path:  path,
		codec: compress.NewZstdCompressor(),
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// one connection: sqlite has a single writer, and an in-memory database
	// exists only on the connection that created it
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s.DB = db

	log.Debug("Opened store", zap.String("path", path), zap.Stringer("archive", s.codec.Type()))

	return s, nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}

	return s.DB.Close()
}

func (s *Store) userVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.DB.GetContext(ctx, &v, `PRAGMA user_version`); err != nil {
		return 0, err
	}

	return v, nil
}

// execTrans runs stmt, which may hold several statements, in one transaction.
func (s *Store) execTrans(ctx context.Context, stmt string) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// tableNames lists the user tables, sorted by name.
func (s *Store) tableNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.DB.SelectContext(ctx, &names,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)

	return names, err
}

// dsn appends the driver options to path.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}
