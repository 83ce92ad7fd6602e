// Package keywords computes and applies per-subject keyword metadata.
// Writes are delegated to an external exiftool-compatible command and always
// land on a copy in the sibling <root>_keywords tree; originals are never
// mutated. Success is defined as the keyword actually being readable from the
// output file.
package keywords

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"photojobs/internal/fileutil"
	"photojobs/internal/jobs"
	"photojobs/internal/logging"
	"photojobs/internal/match"
	"photojobs/internal/roster"
)

// FailuresLogName is written into the output root with per-entry failure
// details for the launcher to surface.
const FailuresLogName = "_keyword_failures.txt"

// OutputRoot returns the tagging destination beside root. Callers deriving
// lock paths must use this so a trailing separator on root cannot produce a
// second location.
func OutputRoot(root string) string {
	return filepath.Clean(root) + "_keywords"
}

// Tagger applies keyword metadata to matched files.
type Tagger struct {
	binary  string
	timeout time.Duration
	workers int
	exec    Executor
	logger  *slog.Logger
}

// Option configures the tagger.
type Option func(*Tagger)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(t *Tagger) {
		if exec != nil {
			t.exec = exec
		}
	}
}

// New constructs a tagger. workers <= 0 means one worker per CPU.
func New(binary string, timeout time.Duration, workers int, logger *slog.Logger, opts ...Option) (*Tagger, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("exiftool binary required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	t := &Tagger{
		binary:  binary,
		timeout: timeout,
		workers: workers,
		exec:    commandExecutor{},
		logger:  logger.With(logging.String(logging.FieldComponent, "keywords")),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// KeywordsFor computes the ordered, de-duplicated keyword list for one
// subject: the identity first, then the manual keyword when non-empty.
func KeywordsFor(identity, manual string) []string {
	var out []string
	seen := make(map[string]struct{}, 2)
	for _, kw := range []string{strings.TrimSpace(identity), strings.TrimSpace(manual)} {
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// Outcome tallies one tagging run.
type Outcome struct {
	TotalRows      int
	RowsTagged     int
	FilesAttempted int
	FilesTagged    int
	MissingFiles   int
	SkippedNoName  int
	Errors         int
	OutputRoot     string
	FailuresLog    string
	Failures       []string
}

type task struct {
	row      int
	identity string
	file     match.File
	keywords []string
}

// Run tags every matched file from results, placing output copies under
// <root>_keywords. Per-file failures are recorded and the run continues; the
// returned error is non-nil only when the run could not start at all.
func (t *Tagger) Run(ctx context.Context, results []match.Result, root, manual string) (*Outcome, error) {
	outputRoot := OutputRoot(root)
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	workDir, err := os.MkdirTemp("", "photojobs-keywords-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	outcome := &Outcome{TotalRows: len(results), OutputRoot: outputRoot}
	var mu sync.Mutex
	rowTagged := make(map[int]bool)

	var tasks []task
	for _, res := range results {
		if res.Record.Identity == roster.UnknownIdentity {
			outcome.SkippedNoName++
			outcome.Failures = append(outcome.Failures,
				fmt.Sprintf("[Row %d] no name available, skipping", res.Record.Row))
			continue
		}
		for _, token := range res.Unresolved {
			outcome.MissingFiles++
			outcome.Failures = append(outcome.Failures,
				fmt.Sprintf("[Row %d] could not find any files for filename %q", res.Record.Row, token))
		}
		kws := KeywordsFor(res.Record.Identity, manual)
		for _, file := range res.Files {
			tasks = append(tasks, task{
				row:      res.Record.Row,
				identity: res.Record.Identity,
				file:     file,
				keywords: kws,
			})
		}
	}
	outcome.FilesAttempted = len(tasks)

	workers := t.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers < 1 {
		workers = 1
	}

	taskCh := make(chan task)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tk := range taskCh {
				err := t.tagOne(ctx, tk, workDir, outputRoot)
				mu.Lock()
				if err != nil {
					outcome.Errors++
					outcome.Failures = append(outcome.Failures,
						fmt.Sprintf("[Row %d] ERROR processing %s: %v", tk.row, tk.file.Path, err))
				} else {
					outcome.FilesTagged++
					rowTagged[tk.row] = true
				}
				mu.Unlock()
			}
		}()
	}

	for _, tk := range tasks {
		select {
		case <-ctx.Done():
			close(taskCh)
			wg.Wait()
			return outcome, ctx.Err()
		case taskCh <- tk:
		}
	}
	close(taskCh)
	wg.Wait()

	outcome.RowsTagged = len(rowTagged)
	sort.Strings(outcome.Failures)

	if err := t.writeFailuresLog(outcome); err != nil {
		t.logger.Warn("could not write failures log", logging.Error(err))
	}

	t.logger.Info("tagging finished",
		logging.Int("files_tagged", outcome.FilesTagged),
		logging.Int("missing", outcome.MissingFiles),
		logging.Int("errors", outcome.Errors))
	return outcome, nil
}

// tagOne copies the file into the work dir, writes and verifies keywords via
// the external tool, then places the tagged copy at the output path.
func (t *Tagger) tagOne(ctx context.Context, tk task, workDir, outputRoot string) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tempPath := filepath.Join(workDir, uuid.NewString()+tk.file.Ext)
	if err := fileutil.CopyFile(tk.file.Path, tempPath); err != nil {
		return fmt.Errorf("copy to work dir: %w", err)
	}
	defer os.Remove(tempPath)

	if _, err := t.exec.Run(ctx, t.binary, writeArgs(tk.keywords, tempPath)); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: metadata write timed out after %s: %v", jobs.ErrTimeout, t.timeout, err)
		}
		return fmt.Errorf("write keywords: %w", err)
	}

	out, err := t.exec.Run(ctx, t.binary, ReadArgs(tempPath))
	if err != nil {
		return fmt.Errorf("verify keywords: %w", err)
	}
	if !strings.Contains(strings.ToLower(out), strings.ToLower(tk.identity)) {
		return fmt.Errorf("keyword verification failed: %q not present after write", tk.identity)
	}

	destPath := filepath.Join(outputRoot, tk.file.RelPath)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	if err := fileutil.CopyFileVerified(tempPath, destPath); err != nil {
		return fmt.Errorf("place output: %w", err)
	}

	t.logger.Debug("tagged file",
		logging.String("path", destPath),
		logging.String("identity", tk.identity))
	return nil
}

func (t *Tagger) writeFailuresLog(outcome *Outcome) error {
	path := filepath.Join(outcome.OutputRoot, FailuresLogName)
	var b strings.Builder
	fmt.Fprintf(&b, "Summary:\n")
	fmt.Fprintf(&b, "  Total CSV rows:                  %d\n", outcome.TotalRows)
	fmt.Fprintf(&b, "  Rows with at least 1 file tagged:%d\n", outcome.RowsTagged)
	fmt.Fprintf(&b, "  Files attempted:                 %d\n", outcome.FilesAttempted)
	fmt.Fprintf(&b, "  Files successfully keyworded:    %d\n", outcome.FilesTagged)
	fmt.Fprintf(&b, "  Total failed entries:            %d\n\n", len(outcome.Failures))
	if len(outcome.Failures) > 0 {
		b.WriteString("Details of rows/files that did NOT get a keyword successfully:\n")
		for _, entry := range outcome.Failures {
			b.WriteString(entry)
			b.WriteByte('\n')
		}
	} else {
		b.WriteString("All rows that were processed either added a keyword or were skipped intentionally.\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return err
	}
	outcome.FailuresLog = path
	return nil
}
