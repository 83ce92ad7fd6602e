// Package roster parses the job roster CSV into normalized records under a
// resolved preset. Rosters are hand-edited spreadsheets: parsing is lenient
// about row shape and strict only about the presence of the declared
// filenames column.
package roster

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"photojobs/internal/jobs"
	"photojobs/internal/logging"
	"photojobs/internal/preset"
)

// Record is one roster row with its identity resolved and filename tokens
// split out. Fields preserves every original column for downstream CSV
// generation.
type Record struct {
	Row          int // 1-based data row number
	Identity     string
	FirstName    string
	LastName     string
	Team         string
	RawFilenames []string
	Fields       map[string]string
}

// Roster is the parsed CSV: header order plus records in input row order.
type Roster struct {
	Header  []string
	Records []Record
}

// UnknownIdentity is the synthetic placeholder for rows where no name could
// be resolved.
const UnknownIdentity = "Unknown"

var filenameSeparators = regexp.MustCompile(`[\r\n;|,]+`)

// Load parses the roster at path using the column mapping from p. A missing
// filenames column is fatal; rows with unresolvable names or no filename
// tokens are kept and reported by downstream matching.
func Load(path string, p preset.Preset, logger *slog.Logger) (*Roster, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "roster"))

	file, err := os.Open(path)
	if err != nil {
		return nil, jobs.Wrap(jobs.ErrNotFound, "roster", "open", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, jobs.Wrap(jobs.ErrCSVFormat, "roster", "parse", path, err)
	}
	if len(rows) == 0 {
		return nil, jobs.Wrap(jobs.ErrCSVFormat, "roster", "parse", "empty CSV: "+path, nil)
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	if _, ok := columns[p.FilenamesColumn]; !ok {
		return nil, jobs.Wrap(jobs.ErrCSVFormat, "roster", "validate header",
			fmt.Sprintf("filenames column %q not found; available columns: %s",
				p.FilenamesColumn, strings.Join(header, ", ")), nil)
	}

	cell := func(row []string, column string) string {
		idx, ok := columns[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec := Record{
			Row:       i + 1,
			FirstName: cell(row, p.FirstNameColumn),
			LastName:  cell(row, p.LastNameColumn),
			Team:      cell(row, p.TeamColumn),
			Fields:    make(map[string]string, len(header)),
		}
		for j, name := range header {
			if j < len(row) {
				rec.Fields[name] = row[j]
			} else {
				rec.Fields[name] = ""
			}
		}

		rec.Identity = strings.TrimSpace(rec.FirstName + " " + rec.LastName)
		if rec.Identity == "" {
			rec.Identity = cell(row, p.FallbackNameColumn)
		}
		if rec.Identity == "" {
			rec.Identity = UnknownIdentity
			logger.Warn("row has no resolvable name",
				logging.Int(logging.FieldRow, rec.Row))
		}

		rec.RawFilenames = SplitFilenames(cell(row, p.FilenamesColumn))
		records = append(records, rec)
	}

	logger.Info("roster loaded",
		logging.String("path", path),
		logging.Int("rows", len(records)))

	return &Roster{Header: header, Records: records}, nil
}

// SplitFilenames splits a roster filenames cell into tokens. Cells may list
// several files separated by whitespace, commas, semicolons, pipes, or
// newlines.
func SplitFilenames(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	cleaned := filenameSeparators.ReplaceAllString(value, " ")
	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	tokens = append(tokens, fields...)
	return tokens
}
