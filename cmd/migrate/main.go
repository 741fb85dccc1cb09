package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/db"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
	"github.com/wholesaledesk/ordering-backend/pkg/migrate"
)

const usage = `usage: migrate [flags] <command>

commands:
  up | down | status   run the goose command
  to <version>         migrate up or down to an exact version
  create <name>        scaffold a new migration in -dir
  check                validate migration files without a database
`

func main() {
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() { fmt.Fprint(out, usage); flags.PrintDefaults() }
	dir := flags.String("dir", migrate.DefaultDir, "migrations directory on disk")
	useEmbedded := flags.Bool("embedded", false, "use the migrations compiled into this binary")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return errors.New("command required")
	}
	command, rest := flags.Arg(0), flags.Args()[1:]

	source := migrate.Disk(*dir)
	if *useEmbedded {
		source = migrate.Embedded()
	}

	switch command {
	case "create":
		if len(rest) != 1 {
			return errors.New("create takes exactly one name")
		}
		path, err := migrate.Scaffold(*dir, rest[0], time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "created", path)
		return nil
	case "check":
		if err := source.Check(); err != nil {
			return err
		}
		fmt.Fprintln(out, "migrations ok:", source)
		return nil
	case "up", "down", "status", "to":
	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", command)
	}

	var target int64
	if command == "to" {
		if len(rest) != 1 {
			return errors.New("to takes exactly one version")
		}
		v, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("version %q: want YYYYMMDDHHMMSS", rest[0])
		}
		target = v
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"command": command,
		"source":  source.String(),
	})

	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer client.Close()

	if cfg.FeatureFlags.UseSQLite {
		if command != "up" {
			return errors.New("sqlite databases only support up")
		}
		if err := db.EnsureSQLiteSchema(ctx, client.DB()); err != nil {
			return err
		}
		logg.Info(ctx, "migrate.sqlite_schema_applied")
		return nil
	}

	if err := source.Check(); err != nil {
		return err
	}
	sqlDB, err := client.SQL()
	if err != nil {
		return err
	}

	start := time.Now()
	if command == "to" {
		err = source.MigrateTo(ctx, sqlDB, target)
	} else {
		err = source.Run(ctx, sqlDB, command)
	}
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "duration_ms", time.Since(start).Milliseconds()), "migrate.done")
	return nil
}
