package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

const maxLoggedQuery = 512

// Options tunes the connection pool and query logging. Zero pool values keep
// the database/sql defaults.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Logger receives failed queries and, when SlowQuery is set, queries that
	// ran at least that long. Nil disables query logging.
	Logger    *slog.Logger
	SlowQuery time.Duration
}

// Open connects to databaseURL through the pgx driver and checks the
// connection before returning.
func Open(ctx context.Context, databaseURL string, opts Options) (*bun.DB, error) {
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}
	applyPool(sqlDB, opts)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	db := NewDB(sqlDB)
	if opts.Logger != nil {
		db.AddQueryHook(newQueryLogger(opts.Logger, opts.SlowQuery))
	}
	return db, nil
}

func applyPool(sqlDB *sql.DB, opts Options) {
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

// NewDB wraps an already opened database handle.
func NewDB(sqlDB *sql.DB) *bun.DB {
	return bun.NewDB(sqlDB, pgdialect.New())
}

func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// queryLogger is a bun query hook. sql.ErrNoRows is a lookup outcome, not a
// failure, and is never logged.
type queryLogger struct {
	log  *slog.Logger
	slow time.Duration
	now  func() time.Time
}

func newQueryLogger(log *slog.Logger, slow time.Duration) *queryLogger {
	return &queryLogger{
		log:  log.With(slog.String("component", "postgres")),
		slow: slow,
		now:  time.Now,
	}
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	elapsed := h.now().Sub(event.StartTime)

	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows):
		h.log.WarnContext(ctx, "query failed",
			slog.String("query", truncateQuery(event.Query)),
			slog.Duration("elapsed", elapsed),
			slog.Any("err", event.Err),
		)
	case h.slow > 0 && elapsed >= h.slow:
		h.log.WarnContext(ctx, "slow query",
			slog.String("query", truncateQuery(event.Query)),
			slog.Duration("elapsed", elapsed),
		)
	}
}

func truncateQuery(q string) string {
	if len(q) <= maxLoggedQuery {
		return q
	}
	return q[:maxLoggedQuery] + "..."
}

var _ bun.QueryHook = (*queryLogger)(nil)
