package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// The SQL files use postgres types (uuid[], jsonb, partial indexes); sqlite
// runs go through db.EnsureSQLiteSchema instead.
const dialect = "postgres"

//go:embed migrations/*.sql
var embedded embed.FS

// goose keeps its base FS in a package global
var gooseMu sync.Mutex

// Source is a set of goose migrations, either compiled in or on disk.
type Source struct {
	fsys fs.FS
	dir  string
}

// Embedded returns the migrations compiled into the binary, usable from
// any working directory.
func Embedded() Source {
	return Source{fsys: embedded, dir: "migrations"}
}

// Disk reads migrations from dir at call time.
func Disk(dir string) Source {
	return Source{dir: dir}
}

func (s Source) String() string {
	if s.fsys != nil {
		return "embedded:" + s.dir
	}
	return s.dir
}

// files exposes the migration directory itself as an fs.FS.
func (s Source) files() (fs.FS, error) {
	if s.dir == "" {
		return nil, errors.New("migration dir is required")
	}
	if s.fsys == nil {
		return os.DirFS(s.dir), nil
	}
	return fs.Sub(s.fsys, s.dir)
}

func (s Source) withGoose(fn func() error) error {
	if s.dir == "" {
		return errors.New("migration dir is required")
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(s.fsys)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return fn()
}

// Run executes a goose command such as up, down or status.
func (s Source) Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if db == nil {
		return errors.New("db is required")
	}
	return s.withGoose(func() error {
		if err := goose.RunContext(ctx, command, db, s.dir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// MigrateTo moves the schema up or down until it sits at target.
func (s Source) MigrateTo(ctx context.Context, db *sql.DB, target int64) error {
	if db == nil {
		return errors.New("db is required")
	}
	if target < 0 {
		return fmt.Errorf("invalid target version %d", target)
	}
	return s.withGoose(func() error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		switch {
		case current < target:
			err = goose.UpToContext(ctx, db, s.dir, target)
		case current > target:
			err = goose.DownToContext(ctx, db, s.dir, target)
		}
		if err != nil {
			return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
		}
		return nil
	})
}
