package core

import (
	"context"
	"log/slog"
)

// LevelTrace is the per-cycle pipeline trace level. It sits below Debug so
// traces stay silent unless a handler explicitly opts in.
const LevelTrace slog.Level = slog.LevelDebug - 4

// Trace emits one per-cycle pipeline trace record.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
