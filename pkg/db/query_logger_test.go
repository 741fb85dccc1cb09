package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wholesaledesk/ordering-backend/pkg/logger"
)

func newCapturingQueryLogger(slow time.Duration, verbose bool) (gormlogger.Interface, *bytes.Buffer) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Format: logger.FormatJSON, Output: &buf})
	return newQueryLogger(logg, slow, verbose), &buf
}

func statement() (string, int64) {
	return "SELECT * FROM carts", 1
}

func TestQueryLoggerReportsSlowAndFailedStatements(t *testing.T) {
	ql, buf := newCapturingQueryLogger(100*time.Millisecond, false)
	ctx := context.Background()

	ql.Trace(ctx, time.Now(), statement, nil)
	ql.Trace(ctx, time.Now(), statement, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	ql.Trace(ctx, time.Now().Add(-time.Second), statement, nil)
	assert.Contains(t, buf.String(), `"message":"db.query_slow"`)
	assert.Contains(t, buf.String(), `"sql":"SELECT * FROM carts"`)

	buf.Reset()
	ql.Trace(ctx, time.Now(), statement, errors.New("relation does not exist"))
	assert.Contains(t, buf.String(), `"message":"db.query_failed"`)
}

func TestQueryLoggerVerboseAndSilent(t *testing.T) {
	ql, buf := newCapturingQueryLogger(0, true)
	ql.Trace(context.Background(), time.Now(), statement, nil)
	assert.Contains(t, buf.String(), `"message":"db.query"`)

	buf.Reset()
	ql.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), statement, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestQueryLoggerWithoutServiceLoggerDiscards(t *testing.T) {
	assert.Equal(t, gormlogger.Discard, newQueryLogger(nil, time.Second, true))
}

func TestZeroClientReportsNoConnection(t *testing.T) {
	var client *Client
	assert.ErrorIs(t, client.Ping(context.Background()), errNoConnection)
	assert.ErrorIs(t, (&Client{}).WithTx(context.Background(), func(*gorm.DB) error { return nil }), errNoConnection)
}
