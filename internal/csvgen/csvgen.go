// Package csvgen derives the per-file-type job CSVs and the rename plan from
// a reconciled roster. Its output is consumed verbatim by the rename and
// teams commands, so generation is byte-for-byte deterministic: identical
// roster + match inputs always produce identical files.
package csvgen

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"photojobs/internal/jobs"
	"photojobs/internal/logging"
	"photojobs/internal/match"
	"photojobs/internal/roster"
)

// Derived column names shared with the rename and teams commands.
const (
	ColumnSPA         = "SPA"
	ColumnName        = "NAME"
	ColumnTeam        = "TEAMNAME"
	ColumnTeamFile    = "Team File"
	ColumnBatch       = "BATCH"
	ColumnFileNumber  = "FILENUMBER"
	ColumnPhoto       = "PHOTO"
	ColumnNewFilename = "NEWFILENAME"
)

// Params configures one generation run.
type Params struct {
	JobName       string
	TeamField     string            // roster column holding the team value
	BatchSuffixes map[string]string // batch label -> rename suffix
	OutDir        string
}

// Output reports what was generated.
type Output struct {
	Files   []string
	Rows    int
	ByType  map[string]int
	Batches []string
}

type row struct {
	spa      string
	identity string
	team     string
	batch    string
	fileNum  string
	photo    string
	newName  string
	fields   map[string]string
	fileType string
}

// ParseBatchSuffixes parses a "BATCH1:_suffix1,BATCH2:_suffix2" flag value.
func ParseBatchSuffixes(value string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		batch, suffix, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(batch) == "" {
			return nil, fmt.Errorf("invalid batch suffix mapping %q (want BATCH:suffix)", part)
		}
		out[strings.TrimSpace(batch)] = strings.TrimSpace(suffix)
	}
	return out, nil
}

// Generate writes the derived CSVs and rename plan into p.OutDir.
func Generate(r *roster.Roster, results []match.Result, p Params, logger *slog.Logger) (*Output, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "csvgen"))

	if strings.TrimSpace(p.JobName) == "" {
		return nil, jobs.Wrap(jobs.ErrConfiguration, "csvgen", "validate", "job name must not be empty", nil)
	}
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	rows := buildRows(results, p)

	byType := make(map[string][]row)
	batches := make(map[string]struct{})
	for _, rw := range rows {
		byType[rw.fileType] = append(byType[rw.fileType], rw)
		batches[rw.batch] = struct{}{}
	}

	passthrough := passthroughColumns(r)
	header := append([]string{
		ColumnSPA, ColumnName, ColumnTeam, ColumnTeamFile,
		ColumnBatch, ColumnFileNumber, ColumnPhoto, ColumnNewFilename,
	}, passthrough...)

	out := &Output{Rows: len(rows), ByType: make(map[string]int)}

	fileTypes := make([]string, 0, len(byType))
	for ft := range byType {
		fileTypes = append(fileTypes, ft)
	}
	sort.Strings(fileTypes)

	for _, ft := range fileTypes {
		typed := byType[ft]
		sortRows(typed)
		path := filepath.Join(p.OutDir, fmt.Sprintf("%s DATA-%s.csv", p.JobName, ft))
		if err := writeCSV(path, header, passthrough, typed); err != nil {
			return nil, err
		}
		out.Files = append(out.Files, path)
		out.ByType[ft] = len(typed)
	}

	all := append([]row(nil), rows...)
	sortRows(all)
	allPath := filepath.Join(p.OutDir, fmt.Sprintf("%s DATA-ALL.csv", p.JobName))
	if err := writeCSV(allPath, header, passthrough, all); err != nil {
		return nil, err
	}
	out.Files = append(out.Files, allPath)

	renamePath := filepath.Join(p.OutDir, fmt.Sprintf("%s DATA-RENAME.txt", p.JobName))
	if err := writeRenamePlan(renamePath, all); err != nil {
		return nil, err
	}
	out.Files = append(out.Files, renamePath)

	for batch := range batches {
		out.Batches = append(out.Batches, batch)
	}
	sort.Strings(out.Batches)

	logger.Info("generated job CSVs",
		logging.String("job", p.JobName),
		logging.Int("rows", out.Rows),
		logging.Int("files", len(out.Files)))
	return out, nil
}

// buildRows expands matched files into output rows. The rename target is
// numbered sequentially per batch in input row order; a JPG+PNG pair from the
// same capture shares one sequence number so the pair keeps a common stem.
func buildRows(results []match.Result, p Params) []row {
	// First pass: count captures per batch so the sequence width is stable.
	batchCaptures := make(map[string]int)
	seenCapture := make(map[string]struct{})
	forEachFile(results, func(rec roster.Record, f match.File) {
		key := captureKey(rec.Row, f)
		if _, dup := seenCapture[key]; dup {
			return
		}
		seenCapture[key] = struct{}{}
		batchCaptures[f.Batch]++
	})

	widths := make(map[string]int, len(batchCaptures))
	for batch, count := range batchCaptures {
		widths[batch] = sequenceWidth(count)
	}

	counters := make(map[string]int)
	captureSeq := make(map[string]string)
	var rows []row
	forEachFile(results, func(rec roster.Record, f match.File) {
		key := captureKey(rec.Row, f)
		fileNum, ok := captureSeq[key]
		if !ok {
			counters[f.Batch]++
			fileNum = fmt.Sprintf("%0*d", widths[f.Batch], counters[f.Batch])
			captureSeq[key] = fileNum
		}

		suffix := p.BatchSuffixes[f.Batch]
		ext := normalizeExt(f.Ext)
		newName := p.JobName + "_" + fileNum + suffix + ext

		team := rec.Team
		if p.TeamField != "" {
			if v, ok := rec.Fields[p.TeamField]; ok {
				team = strings.TrimSpace(v)
			}
		}
		rows = append(rows, row{
			spa:      newName,
			identity: rec.Identity,
			team:     team,
			batch:    f.Batch,
			fileNum:  fileNum,
			photo:    f.RelPath,
			newName:  newName,
			fields:   rec.Fields,
			fileType: fileTypeOf(ext),
		})
	})
	return rows
}

func forEachFile(results []match.Result, fn func(roster.Record, match.File)) {
	for _, res := range results {
		for _, f := range res.Files {
			fn(res.Record, f)
		}
	}
}

func captureKey(rowNum int, f match.File) string {
	return fmt.Sprintf("%d|%s|%s", rowNum, f.Batch, strings.ToLower(f.Stem))
}

// sequenceWidth pads to at least three digits, widening for larger batches.
func sequenceWidth(count int) int {
	width := len(fmt.Sprintf("%d", count))
	if width < 3 {
		width = 3
	}
	return width
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	return ext
}

func fileTypeOf(ext string) string {
	return strings.ToUpper(strings.TrimPrefix(ext, "."))
}

func passthroughColumns(r *roster.Roster) []string {
	derived := map[string]struct{}{
		ColumnSPA: {}, ColumnName: {}, ColumnTeam: {}, ColumnTeamFile: {},
		ColumnBatch: {}, ColumnFileNumber: {}, ColumnPhoto: {}, ColumnNewFilename: {},
	}
	var out []string
	for _, name := range r.Header {
		if _, clash := derived[name]; clash {
			continue
		}
		out = append(out, name)
	}
	return out
}

func writeCSV(path string, header, passthrough []string, rows []row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, rw := range rows {
		record := []string{
			rw.spa, rw.identity, rw.team, teamFileOf(rw.team),
			rw.batch, rw.fileNum, rw.photo, rw.newName,
		}
		for _, col := range passthrough {
			record = append(record, rw.fields[col])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func teamFileOf(team string) string {
	if team == "" {
		return ""
	}
	return team + ".psb"
}

func writeRenamePlan(path string, rows []row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = '\t'
	for _, rw := range rows {
		if err := w.Write([]string{rw.photo, rw.newName}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func sortRows(rows []row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].spa != rows[j].spa {
			return rows[i].spa < rows[j].spa
		}
		return rows[i].photo < rows[j].photo
	})
}
