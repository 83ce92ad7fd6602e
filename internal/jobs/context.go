package jobs

import "context"

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	commandKey contextKey = "command"
)

// WithRunID attaches the run identifier to the context so loggers and the
// history journal can correlate output from a single invocation.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext extracts the run identifier, if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithCommand attaches the command name being executed.
func WithCommand(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, commandKey, name)
}

// CommandFromContext extracts the command name, if present.
func CommandFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(commandKey).(string)
	return name, ok && name != ""
}
