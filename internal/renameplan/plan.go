// Package renameplan loads, validates, and executes batch rename plans. A
// plan is validated as a whole before anything is copied or moved: if any
// entry is invalid the run touches zero files.
package renameplan

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"photojobs/internal/jobs"
)

// Entry is one plan line: a source file reference and its new name.
type Entry struct {
	Source string
	Target string
	Line   int
}

// Plan is an ordered rename plan loaded from disk.
type Plan struct {
	Path    string
	Entries []Entry
}

// Action is a validated entry resolved to a concrete file on disk. The
// destination always keeps the source file's extension: plans are hand-edited
// and a typoed target extension must not silently change the file type.
type Action struct {
	SourcePath string
	SourceRel  string
	DestRel    string
	Line       int
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// Load reads a plan file. Files ending in .csv are parsed as job CSVs using
// the PHOTO and NEWFILENAME columns; anything else is parsed as two
// tab-separated columns per line.
func Load(path string) (*Plan, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer file.Close()

	plan := &Plan{Path: path}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		err = loadCSV(file, plan)
	} else {
		err = loadTabSeparated(file, plan)
	}
	if err != nil {
		return nil, err
	}
	if len(plan.Entries) == 0 {
		return nil, jobs.Wrap(jobs.ErrCSVFormat, "rename", "load plan",
			fmt.Sprintf("%s contains no rename entries", path), nil)
	}
	return plan, nil
}

func loadCSV(file *os.File, plan *Plan) error {
	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return jobs.Wrap(jobs.ErrCSVFormat, "rename", "parse plan", "malformed CSV", err)
	}
	if len(rows) == 0 {
		return jobs.Wrap(jobs.ErrCSVFormat, "rename", "parse plan", "empty CSV", nil)
	}

	photoCol, targetCol := -1, -1
	for i, name := range rows[0] {
		switch strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "PHOTO":
			photoCol = i
		case "NEWFILENAME":
			targetCol = i
		}
	}
	if photoCol < 0 || targetCol < 0 {
		return jobs.Wrap(jobs.ErrCSVFormat, "rename", "parse plan",
			"plan CSV must carry PHOTO and NEWFILENAME columns", nil)
	}

	for i, row := range rows[1:] {
		line := i + 2
		if photoCol >= len(row) || targetCol >= len(row) {
			continue
		}
		source := strings.TrimSpace(row[photoCol])
		target := strings.TrimSpace(row[targetCol])
		if source == "" && target == "" {
			continue
		}
		plan.Entries = append(plan.Entries, Entry{Source: source, Target: target, Line: line})
	}
	return nil
}

func loadTabSeparated(file *os.File, plan *Plan) error {
	r := csv.NewReader(file)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return jobs.Wrap(jobs.ErrCSVFormat, "rename", "parse plan", "malformed plan file", err)
	}
	for i, row := range rows {
		line := i + 1
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) != 2 {
			return jobs.Wrap(jobs.ErrCSVFormat, "rename", "parse plan",
				fmt.Sprintf("line %d: want exactly 2 tab-separated columns, got %d", line, len(row)), nil)
		}
		plan.Entries = append(plan.Entries, Entry{
			Source: strings.TrimSpace(row[0]),
			Target: strings.TrimSpace(row[1]),
			Line:   line,
		})
	}
	return nil
}

// sourceIndex maps the files under a root for plan resolution, keyed by
// case-folded relative path and base name.
type sourceIndex struct {
	byRel  map[string]string // folded relpath -> relpath
	byBase map[string][]string
}

func indexSources(root string) (*sourceIndex, error) {
	ix := &sourceIndex{
		byRel:  make(map[string]string),
		byBase: make(map[string][]string),
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		ix.byRel[fold(filepath.ToSlash(rel))] = rel
		base := fold(d.Name())
		ix.byBase[base] = append(ix.byBase[base], rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan source root: %w", err)
	}
	return ix, nil
}

func (ix *sourceIndex) resolve(source string) (string, bool) {
	key := fold(filepath.ToSlash(source))
	if rel, ok := ix.byRel[key]; ok {
		return rel, true
	}
	candidates := ix.byBase[fold(filepath.Base(source))]
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return "", false
}

// Validate resolves every entry against the files under root and checks the
// plan as a whole. All violations are collected before reporting so one pass
// over the error output is enough to repair the plan.
func (p *Plan) Validate(root string) ([]Action, error) {
	ix, err := indexSources(root)
	if err != nil {
		return nil, err
	}

	var violations []string
	seenDest := make(map[string]int) // folded dest -> first line
	actions := make([]Action, 0, len(p.Entries))

	for _, entry := range p.Entries {
		if entry.Source == "" {
			violations = append(violations, fmt.Sprintf("line %d: empty source", entry.Line))
			continue
		}
		if entry.Target == "" {
			violations = append(violations, fmt.Sprintf("line %d: empty target for %q", entry.Line, entry.Source))
			continue
		}
		rel, ok := ix.resolve(entry.Source)
		if !ok {
			violations = append(violations, fmt.Sprintf("line %d: source %q not found under %s", entry.Line, entry.Source, root))
			continue
		}

		destRel := withSourceExt(entry.Target, filepath.Ext(rel))
		destKey := fold(filepath.ToSlash(destRel))
		if first, dup := seenDest[destKey]; dup {
			violations = append(violations, fmt.Sprintf("line %d: destination %q already used on line %d", entry.Line, destRel, first))
			continue
		}
		seenDest[destKey] = entry.Line

		actions = append(actions, Action{
			SourcePath: filepath.Join(root, rel),
			SourceRel:  rel,
			DestRel:    destRel,
			Line:       entry.Line,
		})
	}

	if len(violations) > 0 {
		return nil, jobs.Wrap(jobs.ErrPlanValidation, "rename", "validate plan",
			strings.Join(violations, "; "), nil)
	}
	return actions, nil
}

// withSourceExt rewrites target to carry ext, replacing any extension the
// hand-edited target already has.
func withSourceExt(target, ext string) string {
	if old := filepath.Ext(target); old != "" {
		target = strings.TrimSuffix(target, old)
	}
	return target + ext
}
