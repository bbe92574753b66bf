package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiHandler(t *testing.T) {
	var debug, errs bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h).With("request_id", "abc")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	log.Info("Event created", "event_id", "e1")
	assert.Contains(t, debug.String(), "event_id=e1")
	assert.Contains(t, debug.String(), "request_id=abc")
	assert.Empty(t, errs.String())

	log.WithGroup("db").Error("Query failed", "table", "events")
	assert.Contains(t, errs.String(), "db.table=events")
	assert.Contains(t, debug.String(), "Query failed")
}
