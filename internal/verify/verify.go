// Package verify audits a keyword-tagging output tree against its source
// root: every source image must have a counterpart in the output tree, and
// tagged files must actually carry keyword metadata.
package verify

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"photojobs/internal/keywords"
	"photojobs/internal/logging"
	"photojobs/internal/match"
)

// DefaultSampleSize bounds how many files are keyword-checked unless the
// caller asks for all of them.
const DefaultSampleSize = 10

// Params configures one verification run.
type Params struct {
	SourceRoot string
	OutputRoot string // empty means SourceRoot + "_keywords"
	Keyword    string // expected keyword; empty means any non-empty keyword passes
	CheckAll   bool
	SampleSize int // <= 0 means DefaultSampleSize
	Binary     string
	Timeout    time.Duration
}

// Report is the structured result of one verification run.
type Report struct {
	SourceRoot      string
	OutputRoot      string
	SourceFiles     int
	OutputFiles     int
	Missing         []string // in source but not in output
	Extra           []string // in output but not in source
	KeywordChecked  int
	MissingKeyword  []string
	KeywordFailures []string // files that could not be read
}

// Clean reports whether the audit found nothing wrong.
func (r *Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.MissingKeyword) == 0 && len(r.KeywordFailures) == 0
}

// Verifier audits tagging output trees.
type Verifier struct {
	exec   keywords.Executor
	logger *slog.Logger
}

// Option configures the verifier.
type Option func(*Verifier)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec keywords.Executor) Option {
	return func(v *Verifier) {
		if exec != nil {
			v.exec = exec
		}
	}
}

// New constructs a verifier.
func New(logger *slog.Logger, opts ...Option) *Verifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	v := &Verifier{
		exec:   keywords.CommandExecutor(),
		logger: logger.With(logging.String(logging.FieldComponent, "verify")),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Run compares the source and output trees and spot-checks keywords. The
// returned error is non-nil only when the audit itself could not run;
// verification findings live in the report.
func (v *Verifier) Run(ctx context.Context, p Params) (*Report, error) {
	outputRoot := p.OutputRoot
	if outputRoot == "" {
		outputRoot = keywords.OutputRoot(p.SourceRoot)
	}

	sourceSet, err := imageSet(p.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("scan source root: %w", err)
	}
	outputSet, err := imageSet(outputRoot)
	if err != nil {
		return nil, fmt.Errorf("scan output root: %w", err)
	}

	report := &Report{
		SourceRoot:  p.SourceRoot,
		OutputRoot:  outputRoot,
		SourceFiles: len(sourceSet),
		OutputFiles: len(outputSet),
	}
	for rel := range sourceSet {
		if _, ok := outputSet[rel]; !ok {
			report.Missing = append(report.Missing, rel)
		}
	}
	for rel := range outputSet {
		if _, ok := sourceSet[rel]; !ok {
			report.Extra = append(report.Extra, rel)
		}
	}
	sort.Strings(report.Missing)
	sort.Strings(report.Extra)

	v.checkKeywords(ctx, p, outputRoot, outputSet, report)

	v.logger.Info("verification finished",
		logging.Int("source_files", report.SourceFiles),
		logging.Int("output_files", report.OutputFiles),
		logging.Int("missing", len(report.Missing)),
		logging.Int("missing_keyword", len(report.MissingKeyword)))
	return report, nil
}

// checkKeywords reads keyword metadata from a deterministic sample of the
// output files. The sample is the first N relative paths in sorted order so
// repeated audits check the same files. Without an expected keyword the check
// still demands that each file reads back some keyword at all.
func (v *Verifier) checkKeywords(ctx context.Context, p Params, outputRoot string, outputSet map[string]struct{}, report *Report) {
	rels := make([]string, 0, len(outputSet))
	for rel := range outputSet {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	if !p.CheckAll {
		size := p.SampleSize
		if size <= 0 {
			size = DefaultSampleSize
		}
		if len(rels) > size {
			rels = rels[:size]
		}
	}

	want := strings.ToLower(strings.TrimSpace(p.Keyword))
	for _, rel := range rels {
		if ctx.Err() != nil {
			return
		}
		out, err := v.readKeywords(ctx, p, filepath.Join(outputRoot, rel))
		report.KeywordChecked++
		switch {
		case err != nil:
			report.KeywordFailures = append(report.KeywordFailures,
				fmt.Sprintf("%s: %v", rel, err))
		case want == "":
			if strings.TrimSpace(out) == "" {
				report.MissingKeyword = append(report.MissingKeyword, rel)
			}
		case !strings.Contains(strings.ToLower(out), want):
			report.MissingKeyword = append(report.MissingKeyword, rel)
		}
	}
	sort.Strings(report.MissingKeyword)
	sort.Strings(report.KeywordFailures)
}

func (v *Verifier) readKeywords(ctx context.Context, p Params, path string) (string, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	return v.exec.Run(ctx, p.Binary, keywords.ReadArgs(path))
}

// imageSet collects the slash-normalized relative paths of image files under
// root.
// A missing root yields an empty set rather than an error so a never-run
// tagging job reports every source file as missing.
func imageSet(root string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == keywords.FailuresLogName {
			return nil
		}
		if !match.IsImage(d.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		set[filepath.ToSlash(rel)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}
