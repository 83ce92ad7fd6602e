// Package teams builds per-team folders of individual photos from a
// generated job CSV: one image per person, chosen by the lowest capture
// sequence, copied into a folder named after the person's team.
package teams

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"photojobs/internal/csvgen"
	"photojobs/internal/fileutil"
	"photojobs/internal/jobs"
	"photojobs/internal/logging"
	"photojobs/internal/match"
)

// DefaultFallbackTeam is assigned to rows whose team cell is blank.
const DefaultFallbackTeam = "NoTeam"

// OutputDirSuffix names the default destination next to the image root.
const OutputDirSuffix = "_TeamIndSorted"

// OutputRoot returns the default destination folder beside root. Callers
// deriving lock paths must use this so a trailing separator on root cannot
// produce a second location.
func OutputRoot(root string) string {
	return filepath.Clean(root) + OutputDirSuffix
}

// Params configures one sorting run.
type Params struct {
	CSVPath      string
	Root         string // folder holding the renamed images
	OutDir       string // empty means Root + OutputDirSuffix
	Batch        string // optional batch filter
	TeamField    string // CSV column holding the team; empty means TEAMNAME
	FallbackTeam string // empty means DefaultFallbackTeam
}

// Outcome tallies one sorting run.
type Outcome struct {
	RowsRead     int
	People       int
	Copied       int
	Skipped      int
	MissingFiles int
	Teams        []string
	OutputRoot   string
	Failures     []string
}

type personRow struct {
	name     string
	team     string
	filename string
	sequence int
	line     int
}

var trailingDigits = regexp.MustCompile(`(\d+)\D*$`)

func fold(s string) string {
	return cases.Fold().String(s)
}

// sequenceOf extracts the capture sequence from a filename: the last run of
// digits in the stem. Filenames without digits sort after numbered ones.
func sequenceOf(filename string) int {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	m := trailingDigits.FindStringSubmatch(stem)
	if m == nil {
		return 1<<31 - 1
	}
	var n int
	fmt.Sscanf(m[1], "%d", &n)
	return n
}

// Sort reads the job CSV, picks one image per person, and copies it into a
// per-team folder under the output root.
func Sort(ctx context.Context, p Params, logger *slog.Logger) (*Outcome, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "teams"))
	if p.Batch != "" {
		logger = logger.With(logging.String(logging.FieldBatch, p.Batch))
	}

	if p.FallbackTeam == "" {
		p.FallbackTeam = DefaultFallbackTeam
	}
	outputRoot := p.OutDir
	if outputRoot == "" {
		outputRoot = OutputRoot(p.Root)
	}

	rows, err := loadRows(p)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{RowsRead: len(rows), OutputRoot: outputRoot}

	// One row per person: lowest sequence wins, lexicographic filename on ties.
	chosen := make(map[string]personRow)
	var order []string
	for _, row := range rows {
		if row.name == "" {
			outcome.Failures = append(outcome.Failures,
				fmt.Sprintf("line %d: no name for %q, skipping", row.line, row.filename))
			continue
		}
		key := fold(row.name)
		cur, ok := chosen[key]
		if !ok {
			chosen[key] = row
			order = append(order, key)
			continue
		}
		if row.sequence < cur.sequence ||
			(row.sequence == cur.sequence && row.filename < cur.filename) {
			chosen[key] = row
		}
	}
	outcome.People = len(chosen)

	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	teams := make(map[string]struct{})
	for _, key := range order {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		row := chosen[key]
		team := sanitizeTeam(row.team)
		teams[team] = struct{}{}

		source := filepath.Join(p.Root, row.filename)
		dest := filepath.Join(outputRoot, team, row.filename)
		switch err := fileutil.CopyFileNoClobber(source, dest); {
		case err == nil:
			outcome.Copied++
		case errors.Is(err, fileutil.ErrDestinationExists):
			outcome.Skipped++
		case errors.Is(err, os.ErrNotExist):
			outcome.MissingFiles++
			outcome.Failures = append(outcome.Failures,
				fmt.Sprintf("line %d: %s: file not found under %s", row.line, row.filename, p.Root))
		default:
			outcome.Failures = append(outcome.Failures,
				fmt.Sprintf("line %d: %s: %v", row.line, row.filename, err))
		}
	}

	for team := range teams {
		outcome.Teams = append(outcome.Teams, team)
	}
	sort.Strings(outcome.Teams)
	sort.Strings(outcome.Failures)

	logger.Info("team sort finished",
		logging.Int("people", outcome.People),
		logging.Int("copied", outcome.Copied),
		logging.Int("teams", len(outcome.Teams)))
	return outcome, nil
}

func loadRows(p Params) ([]personRow, error) {
	file, err := os.Open(p.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, jobs.Wrap(jobs.ErrCSVFormat, "teams", "parse CSV", "malformed CSV", err)
	}
	if len(records) == 0 {
		return nil, jobs.Wrap(jobs.ErrCSVFormat, "teams", "parse CSV", "empty CSV", nil)
	}

	teamField := p.TeamField
	if teamField == "" {
		teamField = csvgen.ColumnTeam
	}
	nameCol, fileCol, teamCol, batchCol := -1, -1, -1, -1
	for i, name := range records[0] {
		header := strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if fold(header) == fold(teamField) {
			teamCol = i
		}
		switch strings.ToUpper(header) {
		case csvgen.ColumnName:
			nameCol = i
		case csvgen.ColumnSPA:
			fileCol = i
		case csvgen.ColumnBatch:
			batchCol = i
		}
	}
	if nameCol < 0 || fileCol < 0 {
		return nil, jobs.Wrap(jobs.ErrCSVFormat, "teams", "parse CSV",
			fmt.Sprintf("CSV must carry %s and %s columns", csvgen.ColumnName, csvgen.ColumnSPA), nil)
	}

	var rows []personRow
	for i, record := range records[1:] {
		line := i + 2
		if fileCol >= len(record) {
			continue
		}
		filename := strings.TrimSpace(record[fileCol])
		if filename == "" {
			continue
		}
		if p.Batch != "" && !batchMatches(p.Batch, record, batchCol, filename) {
			continue
		}
		row := personRow{
			filename: filename,
			sequence: sequenceOf(filename),
			team:     p.FallbackTeam,
			line:     line,
		}
		if nameCol < len(record) {
			row.name = strings.TrimSpace(record[nameCol])
		}
		if teamCol >= 0 && teamCol < len(record) {
			if team := strings.TrimSpace(record[teamCol]); team != "" {
				row.team = team
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// batchMatches checks the BATCH column when present, falling back to the
// batch prefix derived from the filename itself.
func batchMatches(filter string, record []string, batchCol int, filename string) bool {
	if batchCol >= 0 && batchCol < len(record) {
		return fold(strings.TrimSpace(record[batchCol])) == fold(filter)
	}
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	return fold(match.BatchOf(stem)) == fold(filter)
}

// sanitizeTeam makes a team value safe to use as a directory name.
func sanitizeTeam(team string) string {
	team = strings.TrimSpace(team)
	if team == "" {
		return DefaultFallbackTeam
	}
	team = strings.ReplaceAll(team, "/", "-")
	team = strings.ReplaceAll(team, string(os.PathSeparator), "-")
	return team
}
