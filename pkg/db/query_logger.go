package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wholesaledesk/ordering-backend/pkg/logger"
)

// queryLogger sends GORM's statement trace to the service logger. Failed
// statements log at error, slow ones at warn, and the rest at debug when
// verbose is set.
type queryLogger struct {
	logg    *logger.Logger
	level   gormlogger.LogLevel
	slow    time.Duration
	verbose bool
}

func newQueryLogger(logg *logger.Logger, slow time.Duration, verbose bool) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	return &queryLogger{logg: logg, level: level, slow: slow, verbose: verbose}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *q
	clone.level = level
	return &clone
}

func (q *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Info {
		q.logg.Debug(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Warn {
		q.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Error {
		q.logg.Error(ctx, "db.error", fmt.Errorf(msg, args...))
	}
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := q.slow > 0 && elapsed > q.slow

	switch {
	case failed && q.level >= gormlogger.Error:
	case slow && q.level >= gormlogger.Warn:
	case q.verbose && q.level >= gormlogger.Info:
	default:
		return
	}

	sql, rows := fc()
	logCtx := q.logg.WithFields(ctx, map[string]any{
		"sql":         sql,
		"rows":        rows,
		"duration_ms": elapsed.Milliseconds(),
	})
	switch {
	case failed:
		q.logg.Error(logCtx, "db.query_failed", err)
	case slow:
		q.logg.Warn(logCtx, "db.query_slow")
	default:
		q.logg.Debug(logCtx, "db.query")
	}
}
