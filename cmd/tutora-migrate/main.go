package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"tutora/backend/internal/config"
	"tutora/backend/internal/store/postgres"
	"tutora/backend/migrations"
)

const usage = `usage:
  tutora-migrate [up]                      apply all pending migrations
  tutora-migrate down                      roll back one migration
  tutora-migrate force <version>           mark a version as applied
  tutora-migrate version                   print the applied version
  tutora-migrate create-user <email> <name>
      reads the password from TUTORA_NEW_USER_PASSWORD`

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("service", "tutora-migrate"))
	slog.SetDefault(log)

	if err := run(context.Background(), log, os.Args[1:]); err != nil {
		log.Error("command failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, args []string) error {
	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Println(usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.Options{MaxOpenConns: 2})
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = postgres.Close(db) }()

	if cmd == "create-user" {
		if len(args) != 3 {
			return fmt.Errorf("create-user takes <email> <name>\n%s", usage)
		}
		return createUser(ctx, cfg, db, log, args[1], args[2])
	}

	dbDriver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("db driver: %w", err)
	}
	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("source driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down: %w", err)
		}
	case "force":
		if len(args) != 2 {
			return fmt.Errorf("force takes <version>\n%s", usage)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
	case "version":
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read version: %w", err)
	}
	log.Info("migrations done", slog.String("command", cmd), slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}
