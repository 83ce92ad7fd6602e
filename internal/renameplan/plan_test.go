package renameplan_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photojobs/internal/jobs"
	"photojobs/internal/renameplan"
)

func writePlan(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func seedRoot(t *testing.T, names ...string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "job")
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("img-"+name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestLoadTabSeparated(t *testing.T) {
	path := writePlan(t, "plan.txt", "AB12_001.jpg\tJob_001.jpg\nAB12_002.jpg\tJob_002.jpg\n")
	plan, err := renameplan.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(plan.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(plan.Entries))
	}
	if plan.Entries[0].Source != "AB12_001.jpg" || plan.Entries[0].Target != "Job_001.jpg" {
		t.Fatalf("unexpected first entry: %+v", plan.Entries[0])
	}
}

func TestLoadTabSeparatedRejectsBadColumnCount(t *testing.T) {
	path := writePlan(t, "plan.txt", "only-one-column\n")
	_, err := renameplan.Load(path)
	if !errors.Is(err, jobs.ErrCSVFormat) {
		t.Fatalf("expected CSV format error, got %v", err)
	}
}

func TestLoadCSVUsesPhotoAndNewFilenameColumns(t *testing.T) {
	path := writePlan(t, "plan.csv",
		"SPA,NAME,PHOTO,NEWFILENAME\nJob_001.jpg,Ana,AB12_001.jpg,Job_001.jpg\n")
	plan, err := renameplan.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(plan.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(plan.Entries))
	}
	if plan.Entries[0].Source != "AB12_001.jpg" {
		t.Fatalf("unexpected source: %q", plan.Entries[0].Source)
	}
}

func TestLoadCSVRejectsMissingColumns(t *testing.T) {
	path := writePlan(t, "plan.csv", "A,B\n1,2\n")
	_, err := renameplan.Load(path)
	if !errors.Is(err, jobs.ErrCSVFormat) {
		t.Fatalf("expected CSV format error, got %v", err)
	}
}

func TestValidateResolvesCaseInsensitively(t *testing.T) {
	root := seedRoot(t, "AB12_001.JPG")
	plan := &renameplan.Plan{Entries: []renameplan.Entry{
		{Source: "ab12_001.jpg", Target: "Job_001", Line: 1},
	}}
	actions, err := plan.Validate(root)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	// Target had no extension: the source's is carried over.
	if actions[0].DestRel != "Job_001.JPG" {
		t.Fatalf("unexpected destination: %q", actions[0].DestRel)
	}
}

func TestValidatePreservesSourceExtension(t *testing.T) {
	root := seedRoot(t, "AB12_001.png")
	plan := &renameplan.Plan{Entries: []renameplan.Entry{
		{Source: "AB12_001.png", Target: "Job_001.jpg", Line: 1},
	}}
	actions, err := plan.Validate(root)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if actions[0].DestRel != "Job_001.png" {
		t.Fatalf("expected source extension preserved, got %q", actions[0].DestRel)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	root := seedRoot(t, "AB12_001.jpg", "AB12_002.jpg")
	plan := &renameplan.Plan{Entries: []renameplan.Entry{
		{Source: "AB12_001.jpg", Target: "Job_001", Line: 1},
		{Source: "AB12_002.jpg", Target: "Job_001", Line: 2}, // duplicate destination
		{Source: "missing.jpg", Target: "Job_002", Line: 3},  // missing source
	}}
	_, err := plan.Validate(root)
	if !errors.Is(err, jobs.ErrPlanValidation) {
		t.Fatalf("expected plan validation error, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"line 2", "line 3", "already used", "not found"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("violation report missing %q: %s", want, msg)
		}
	}
	if jobs.ExitCode(err) != jobs.ExitPlanValidation {
		t.Fatalf("unexpected exit code %d", jobs.ExitCode(err))
	}
}

func TestExecuteCopyKeepsSources(t *testing.T) {
	root := seedRoot(t, "AB12_001.jpg")
	plan := &renameplan.Plan{Entries: []renameplan.Entry{
		{Source: "AB12_001.jpg", Target: "Job_001", Line: 1},
	}}
	actions, err := plan.Validate(root)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	exec, err := renameplan.NewExecutor(renameplan.ModeCopy, nil)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}
	outRoot := renameplan.OutputRoot(root)
	outcome, err := exec.Execute(context.Background(), actions, outRoot)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if outcome.Succeeded != 1 || outcome.Failed != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	data, err := os.ReadFile(filepath.Join(outRoot, "Job_001.jpg"))
	if err != nil || string(data) != "img-AB12_001.jpg" {
		t.Fatalf("destination content wrong: %q %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(root, "AB12_001.jpg")); err != nil {
		t.Fatalf("copy mode must keep source: %v", err)
	}
}

func TestExecuteMoveRemovesSources(t *testing.T) {
	root := seedRoot(t, "AB12_001.jpg")
	plan := &renameplan.Plan{Entries: []renameplan.Entry{
		{Source: "AB12_001.jpg", Target: "Job_001", Line: 1},
	}}
	actions, err := plan.Validate(root)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	exec, err := renameplan.NewExecutor(renameplan.ModeMove, nil)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}
	outcome, err := exec.Execute(context.Background(), actions, renameplan.OutputRoot(root))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if outcome.Succeeded != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if _, err := os.Stat(filepath.Join(root, "AB12_001.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("move mode must remove source: %v", err)
	}
}

func TestExecuteSkipsExistingDestinations(t *testing.T) {
	root := seedRoot(t, "AB12_001.jpg")
	plan := &renameplan.Plan{Entries: []renameplan.Entry{
		{Source: "AB12_001.jpg", Target: "Job_001", Line: 1},
	}}
	actions, err := plan.Validate(root)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	outRoot := renameplan.OutputRoot(root)
	if err := os.MkdirAll(outRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outRoot, "Job_001.jpg"), []byte("pre-existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	exec, err := renameplan.NewExecutor(renameplan.ModeCopy, nil)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}
	outcome, err := exec.Execute(context.Background(), actions, outRoot)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if outcome.Skipped != 1 || outcome.Succeeded != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	data, err := os.ReadFile(filepath.Join(outRoot, "Job_001.jpg"))
	if err != nil || string(data) != "pre-existing" {
		t.Fatalf("existing destination must not be overwritten: %q %v", data, err)
	}
}

func TestOneSourceManyTargets(t *testing.T) {
	root := seedRoot(t, "AB12_001.jpg")
	plan := &renameplan.Plan{Entries: []renameplan.Entry{
		{Source: "AB12_001.jpg", Target: "Job_001", Line: 1},
		{Source: "AB12_001.jpg", Target: "Job_002", Line: 2},
	}}
	actions, err := plan.Validate(root)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	exec, err := renameplan.NewExecutor(renameplan.ModeCopy, nil)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}
	outcome, err := exec.Execute(context.Background(), actions, renameplan.OutputRoot(root))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if outcome.Succeeded != 2 {
		t.Fatalf("expected both copies, got %+v", outcome)
	}
}
