package renameplan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"photojobs/internal/fileutil"
	"photojobs/internal/logging"
)

// Mode selects how validated actions are applied.
type Mode string

const (
	ModeCopy Mode = "copy"
	ModeMove Mode = "move"
)

// Outcome tallies one execution run.
type Outcome struct {
	Planned    int
	Succeeded  int
	Skipped    int // destination already existed
	Failed     int
	OutputRoot string
	Failures   []string
}

// Executor applies validated rename actions.
type Executor struct {
	mode   Mode
	logger *slog.Logger
}

// NewExecutor constructs an executor for the given mode.
func NewExecutor(mode Mode, logger *slog.Logger) (*Executor, error) {
	switch mode {
	case ModeCopy, ModeMove:
	default:
		return nil, fmt.Errorf("unknown rename mode %q", mode)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		mode:   mode,
		logger: logger.With(logging.String(logging.FieldComponent, "rename")),
	}, nil
}

// OutputRoot returns the default destination for a source root.
func OutputRoot(root string) string {
	return filepath.Clean(root) + "_renamed"
}

// Execute applies actions in plan order into outputRoot. Destinations that
// already exist are skipped, never overwritten. Per-action failures are
// recorded and the run continues; the returned error is non-nil only when the
// run could not start or the context was cancelled.
func (e *Executor) Execute(ctx context.Context, actions []Action, outputRoot string) (*Outcome, error) {
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	outcome := &Outcome{Planned: len(actions), OutputRoot: outputRoot}
	for _, action := range actions {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		dest := filepath.Join(outputRoot, action.DestRel)

		var err error
		if e.mode == ModeMove {
			err = fileutil.MoveFileNoClobber(action.SourcePath, dest)
		} else {
			err = fileutil.CopyFileNoClobber(action.SourcePath, dest)
		}
		switch {
		case err == nil:
			outcome.Succeeded++
			e.logger.Debug("applied rename",
				logging.String("source", action.SourceRel),
				logging.String("dest", action.DestRel))
		case errors.Is(err, fileutil.ErrDestinationExists):
			outcome.Skipped++
			e.logger.Warn("destination exists, skipping",
				logging.String("source", action.SourceRel),
				logging.String("dest", action.DestRel))
		default:
			outcome.Failed++
			outcome.Failures = append(outcome.Failures,
				fmt.Sprintf("line %d: %s -> %s: %v", action.Line, action.SourceRel, action.DestRel, err))
		}
	}
	sort.Strings(outcome.Failures)

	e.logger.Info("rename finished",
		logging.String("mode", string(e.mode)),
		logging.Int("succeeded", outcome.Succeeded),
		logging.Int("skipped", outcome.Skipped),
		logging.Int("failed", outcome.Failed))
	return outcome, nil
}
