package csvgen_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"photojobs/internal/csvgen"
	"photojobs/internal/match"
	"photojobs/internal/roster"
)

func seedTree(t *testing.T, names ...string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "job")
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func reconcile(t *testing.T, root string, records []roster.Record) []match.Result {
	t.Helper()
	ix, err := match.BuildIndex(root, nil)
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	return match.Reconcile(records, ix, nil)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return rows
}

func column(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func TestParseBatchSuffixes(t *testing.T) {
	got, err := csvgen.ParseBatchSuffixes("AB12:_day1, CD34:_day2")
	if err != nil {
		t.Fatalf("ParseBatchSuffixes failed: %v", err)
	}
	want := map[string]string{"AB12": "_day1", "CD34": "_day2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, err := csvgen.ParseBatchSuffixes(":nope"); err == nil {
		t.Fatal("expected error for missing batch label")
	}
}

func TestGenerateEmitsPerTypeAndAllFiles(t *testing.T) {
	root := seedTree(t, "AB12_001.jpg", "AB12_001.png", "AB12_002.jpg")
	rst := &roster.Roster{
		Header: []string{"First Name", "Last Name", "Team", "Photo Filenames"},
		Records: []roster.Record{
			{Row: 1, Identity: "Ana Lee", Team: "Tigers", RawFilenames: []string{"AB12_001.jpg"},
				Fields: map[string]string{"First Name": "Ana", "Last Name": "Lee", "Team": "Tigers"}},
			{Row: 2, Identity: "Ben Ohr", Team: "Lions", RawFilenames: []string{"AB12_002.jpg"},
				Fields: map[string]string{"First Name": "Ben", "Last Name": "Ohr", "Team": "Lions"}},
		},
	}
	results := reconcile(t, root, rst.Records)

	outDir := t.TempDir()
	out, err := csvgen.Generate(rst, results, csvgen.Params{JobName: "Spring", OutDir: outDir}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// AB12_001 resolves both the jpg and the png.
	if out.ByType["JPG"] != 2 || out.ByType["PNG"] != 1 {
		t.Fatalf("unexpected per-type counts: %v", out.ByType)
	}
	if !reflect.DeepEqual(out.Batches, []string{"AB12"}) {
		t.Fatalf("unexpected batches: %v", out.Batches)
	}

	wantFiles := []string{
		"Spring DATA-JPG.csv",
		"Spring DATA-PNG.csv",
		"Spring DATA-ALL.csv",
		"Spring DATA-RENAME.txt",
	}
	for _, name := range wantFiles {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected output %s: %v", name, err)
		}
	}

	rows := readCSV(t, filepath.Join(outDir, "Spring DATA-ALL.csv"))
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	header := rows[0]
	photoCol := column(header, csvgen.ColumnPhoto)
	newCol := column(header, csvgen.ColumnNewFilename)
	nameCol := column(header, csvgen.ColumnName)
	if photoCol < 0 || newCol < 0 || nameCol < 0 {
		t.Fatalf("missing derived columns in header %v", header)
	}

	targets := make(map[string]string)
	for _, rw := range rows[1:] {
		targets[rw[photoCol]] = rw[newCol]
	}
	want := map[string]string{
		"AB12_001.jpg": "Spring_001.jpg",
		"AB12_001.png": "Spring_001.png",
		"AB12_002.jpg": "Spring_002.jpg",
	}
	if !reflect.DeepEqual(targets, want) {
		t.Fatalf("rename targets = %v, want %v", targets, want)
	}
}

func TestGeneratePairsShareSequence(t *testing.T) {
	root := seedTree(t, "AB12_007.jpg", "AB12_007.png")
	rst := &roster.Roster{
		Header: []string{"Name", "Photo Filenames"},
		Records: []roster.Record{
			{Row: 1, Identity: "Ana Lee", RawFilenames: []string{"AB12_007.jpg"},
				Fields: map[string]string{"Name": "Ana Lee"}},
		},
	}
	results := reconcile(t, root, rst.Records)

	outDir := t.TempDir()
	if _, err := csvgen.Generate(rst, results, csvgen.Params{JobName: "Job", OutDir: outDir}, nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	rows := readCSV(t, filepath.Join(outDir, "Job DATA-ALL.csv"))
	numCol := column(rows[0], csvgen.ColumnFileNumber)
	if rows[1][numCol] != rows[2][numCol] {
		t.Fatalf("jpg/png pair got different sequence numbers: %q vs %q",
			rows[1][numCol], rows[2][numCol])
	}
}

func TestGenerateBatchSuffixAndPerBatchNumbering(t *testing.T) {
	root := seedTree(t, "AB12_001.jpg", "CD34_001.jpg", "CD34_002.jpg")
	rst := &roster.Roster{
		Header: []string{"Name", "Photo Filenames"},
		Records: []roster.Record{
			{Row: 1, Identity: "Ana", RawFilenames: []string{"AB12_001.jpg"}, Fields: map[string]string{"Name": "Ana"}},
			{Row: 2, Identity: "Ben", RawFilenames: []string{"CD34_001.jpg"}, Fields: map[string]string{"Name": "Ben"}},
			{Row: 3, Identity: "Cy", RawFilenames: []string{"CD34_002.jpg"}, Fields: map[string]string{"Name": "Cy"}},
		},
	}
	results := reconcile(t, root, rst.Records)

	outDir := t.TempDir()
	params := csvgen.Params{
		JobName:       "Fall",
		OutDir:        outDir,
		BatchSuffixes: map[string]string{"CD34": "_indoor"},
	}
	if _, err := csvgen.Generate(rst, results, params, nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	rows := readCSV(t, filepath.Join(outDir, "Fall DATA-ALL.csv"))
	photoCol := column(rows[0], csvgen.ColumnPhoto)
	newCol := column(rows[0], csvgen.ColumnNewFilename)
	targets := make(map[string]string)
	for _, rw := range rows[1:] {
		targets[rw[photoCol]] = rw[newCol]
	}
	want := map[string]string{
		"AB12_001.jpg": "Fall_001.jpg",
		"CD34_001.jpg": "Fall_001_indoor.jpg",
		"CD34_002.jpg": "Fall_002_indoor.jpg",
	}
	if !reflect.DeepEqual(targets, want) {
		t.Fatalf("rename targets = %v, want %v", targets, want)
	}
}

func TestGenerateRenamePlanIsTabSeparated(t *testing.T) {
	root := seedTree(t, "AB12_001.jpg")
	rst := &roster.Roster{
		Header: []string{"Name", "Photo Filenames"},
		Records: []roster.Record{
			{Row: 1, Identity: "Ana", RawFilenames: []string{"AB12_001.jpg"}, Fields: map[string]string{"Name": "Ana"}},
		},
	}
	results := reconcile(t, root, rst.Records)

	outDir := t.TempDir()
	if _, err := csvgen.Generate(rst, results, csvgen.Params{JobName: "Job", OutDir: outDir}, nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "Job DATA-RENAME.txt"))
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(string(data))
	if line != "AB12_001.jpg\tJob_001.jpg" {
		t.Fatalf("unexpected rename plan line: %q", line)
	}
}

func TestGenerateIsByteDeterministic(t *testing.T) {
	root := seedTree(t, "AB12_002.jpg", "AB12_001.jpg", "AB12_001.png")
	rst := &roster.Roster{
		Header: []string{"Name", "Team", "Photo Filenames"},
		Records: []roster.Record{
			{Row: 1, Identity: "Ana", Team: "Tigers", RawFilenames: []string{"AB12_001.jpg", "AB12_002.jpg"},
				Fields: map[string]string{"Name": "Ana", "Team": "Tigers"}},
		},
	}
	results := reconcile(t, root, rst.Records)

	dirA, dirB := t.TempDir(), t.TempDir()
	for _, dir := range []string{dirA, dirB} {
		if _, err := csvgen.Generate(rst, results, csvgen.Params{JobName: "Job", OutDir: dir}, nil); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
	}
	for _, name := range []string{"Job DATA-ALL.csv", "Job DATA-JPG.csv", "Job DATA-RENAME.txt"} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(filepath.Join(dirB, name))
		if err != nil {
			t.Fatal(err)
		}
		if string(a) != string(b) {
			t.Fatalf("%s differs across identical runs", name)
		}
	}
}

func TestGenerateRejectsEmptyJobName(t *testing.T) {
	rst := &roster.Roster{Header: []string{"Name"}}
	if _, err := csvgen.Generate(rst, nil, csvgen.Params{JobName: "  ", OutDir: t.TempDir()}, nil); err == nil {
		t.Fatal("expected error for empty job name")
	}
}
