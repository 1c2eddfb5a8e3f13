package logger

import (
	"log/slog"
	"time"
)

// LogJob logs one periodic-job sub-step outcome.
func LogJob(job, step string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "job"),
		slog.String("job", job),
		slog.String("step", step),
		slog.Duration("took", duration),
	}
	if err != nil {
		slog.Error("Job step failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Info("Job step completed", attrs...)
	}
}

// LogSystem logs system events.
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events.
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
