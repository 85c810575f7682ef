package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the schema up to date with the embedded migrations.
func (s *Store) Migrate(ctx context.Context) error {
	source, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	return s.up(ctx, source)
}

// up applies every script of source, named like "0002_migration_name.sql",
// whose version is above the database user_version.
func (s *Store) up(ctx context.Context, source fs.FS) error {
	list, err := fs.ReadDir(source, ".")
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})

	current, err := s.userVersion(ctx)
	if err != nil {
		return err
	}

	final, err := scriptVersion(list[len(list)-1].Name())
	if err != nil {
		return err
	}
	if final > current {
		s.log.Info("Bringing up store migrations", zap.Int("migration_count", final-current))
	}

	for _, f := range list {
		n := f.Name()
		v, err := scriptVersion(n)
		if err != nil {
			return err
		}

		// re-read in the loop so out-of-order scripts are never applied twice
		c, err := s.userVersion(ctx)
		if err != nil {
			return err
		}
		if v <= c {
			continue
		}

		s.log.Debug("Executing store migration", zap.String("migration_name", n))
		script, err := fs.ReadFile(source, n)
		if err != nil {
			return err
		}

		stmt := fmt.Sprintf("%s\nPRAGMA user_version = %d;", script, v)
		if err := s.execTrans(ctx, stmt); err != nil {
			return fmt.Errorf("migration %s: %w", n, err)
		}
	}

	return nil
}

// scriptVersion extracts the version number from a file named like "0002_migration_name.sql".
func scriptVersion(filename string) (int, error) {
	vString, _, _ := strings.Cut(filename, "_")

	return strconv.Atoi(vString)
}
