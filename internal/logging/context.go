package logging

import (
	"context"
	"log/slog"

	"photojobs/internal/jobs"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for run identifiers.
	FieldRunID = "run_id"
	// FieldCommand is the standardized structured logging key for the CLI command name.
	FieldCommand = "command"
	// FieldRow is the standardized structured logging key for 1-based CSV row numbers.
	FieldRow = "row"
	// FieldBatch is the standardized structured logging key for batch labels.
	FieldBatch = "batch"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := jobs.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if name, ok := jobs.CommandFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCommand, name))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
