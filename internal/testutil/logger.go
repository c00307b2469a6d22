// Package testutil holds fixtures shared by the engine, warehouse and state tests.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger routes debug-level slog output through t.Logf so it only
// shows up for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	h := slog.NewTextHandler(tbWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h)
}

type tbWriter struct{ tb testing.TB }

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Logf("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
