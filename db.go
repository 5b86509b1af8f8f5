package access

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenDB opens a bun handle over the embedded sqlite driver. Use
// ":memory:" style DSNs for tests and a file path for installations.
func OpenDB(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to open database")
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// RunMigrations applies the embedded schema files in lexical order.
// Statements are idempotent, so re-running on an existing database is
// safe.
func RunMigrations(ctx context.Context, db *bun.DB) error {
	entries, err := fs.Glob(migrationsFS, "data/sql/migrations/*.sql")
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to list migrations")
	}
	sort.Strings(entries)

	for _, name := range entries {
		raw, err := migrationsFS.ReadFile(name)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "unable to read migration").
				WithMetadata(map[string]any{"file": name})
		}

		for _, stmt := range strings.Split(string(raw), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return errors.Wrap(err, errors.CategoryInternal, "migration failed").
					WithMetadata(map[string]any{"file": name})
			}
		}
	}

	return nil
}
