package sessionlog

import (
	"path/filepath"
	"testing"
)

func TestFindLastPlanningUpdateKeepsLastMatchInSource(t *testing.T) {
	dir := t.TempDir()
	src := writeSession(t, dir, "s1.jsonl", 1,
		sessionHeader,
		planningWriteLine(t, "write", "/p/task_plan.md"),
		userLine(t, "keep going"),
		planningWriteLine(t, "edit", "/p/progress.md"),
		assistantLine(t, "done"),
	)

	cp, ok := FindLastPlanningUpdate([]Source{src}, DefaultOptions())
	if !ok {
		t.Fatalf("expected a checkpoint")
	}
	if cp.Offset != 3 || cp.PlanningFile != "progress.md" || cp.Rank != 0 {
		t.Fatalf("checkpoint = %+v, want offset 3 progress.md rank 0", cp)
	}
}

func TestFindLastPlanningUpdateStopsAtNewestSourceWithMatch(t *testing.T) {
	dir := t.TempDir()
	newer := writeSession(t, dir, "newer.jsonl", 20,
		userLine(t, "no planning here"),
		assistantLine(t, "nothing"),
	)
	middle := writeSession(t, dir, "middle.jsonl", 10,
		planningWriteLine(t, "edit", "/p/findings.md"),
		userLine(t, "after"),
	)
	older := writeSession(t, dir, "older.jsonl", 1,
		userLine(t, "before"),
		planningWriteLine(t, "write", "/p/task_plan.md"),
		planningWriteLine(t, "write", "/p/task_plan.md"),
	)

	cp, ok := FindLastPlanningUpdate([]Source{newer, middle, older}, DefaultOptions())
	if !ok {
		t.Fatalf("expected a checkpoint")
	}
	if cp.Source.Name != "middle.jsonl" || cp.Offset != 0 || cp.Rank != 1 || cp.PlanningFile != "findings.md" {
		t.Fatalf("checkpoint = %+v", cp)
	}
}

func TestFindLastPlanningUpdateNone(t *testing.T) {
	dir := t.TempDir()
	src := writeSession(t, dir, "s.jsonl", 1,
		userLine(t, "hi"),
		planningWriteLine(t, "read", "/p/task_plan.md"),
		planningWriteLine(t, "write", "/p/main.go"),
	)
	if cp, ok := FindLastPlanningUpdate([]Source{src}, DefaultOptions()); ok {
		t.Fatalf("unexpected checkpoint %+v", cp)
	}
	if _, ok := FindLastPlanningUpdate(nil, DefaultOptions()); ok {
		t.Fatalf("unexpected checkpoint for no sources")
	}
}

func TestFindLastPlanningUpdateSkipsUnreadableSource(t *testing.T) {
	dir := t.TempDir()
	missing := Source{Path: filepath.Join(dir, "gone.jsonl"), Name: "gone.jsonl"}
	good := writeSession(t, dir, "good.jsonl", 1, planningWriteLine(t, "write", "progress.md"))

	cp, ok := FindLastPlanningUpdate([]Source{missing, good}, DefaultOptions())
	if !ok || cp.Source.Name != "good.jsonl" || cp.Rank != 1 {
		t.Fatalf("checkpoint = %+v ok=%v", cp, ok)
	}
}

func TestFindLastPlanningUpdateMalformedLineResilience(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		userLine(t, "start"),
		planningWriteLine(t, "write", "/p/task_plan.md"),
		assistantLine(t, "middle"),
		planningWriteLine(t, "edit", "/p/progress.md"),
		userLine(t, "end"),
	}
	clean := writeSession(t, filepath.Join(dir, "clean"), "s.jsonl", 1, lines...)

	corrupt := append([]string{}, lines[:2]...)
	corrupt = append(corrupt, `{"type":"message","message":{"role":"assistant","content":[{"type":"toolCall","name":"write","argu`)
	corrupt = append(corrupt, lines[2:]...)
	dirty := writeSession(t, filepath.Join(dir, "dirty"), "s.jsonl", 1, corrupt...)

	cpClean, ok := FindLastPlanningUpdate([]Source{clean}, DefaultOptions())
	if !ok {
		t.Fatalf("expected clean checkpoint")
	}
	cpDirty, ok := FindLastPlanningUpdate([]Source{dirty}, DefaultOptions())
	if !ok {
		t.Fatalf("expected dirty checkpoint")
	}
	if cpClean.PlanningFile != cpDirty.PlanningFile {
		t.Fatalf("planning file differs: %q vs %q", cpClean.PlanningFile, cpDirty.PlanningFile)
	}
	// The corrupt line shifts later offsets by one.
	if cpDirty.Offset != cpClean.Offset+1 {
		t.Fatalf("offsets clean=%d dirty=%d", cpClean.Offset, cpDirty.Offset)
	}
}

func TestFindLastPlanningUpdateCustomPlanningFiles(t *testing.T) {
	dir := t.TempDir()
	src := writeSession(t, dir, "s.jsonl", 1,
		planningWriteLine(t, "write", "/p/task_plan.md"),
		planningWriteLine(t, "write", "/p/ROADMAP.md"),
	)
	opts := DefaultOptions()
	opts.PlanningFiles = []string{"ROADMAP.md"}
	cp, ok := FindLastPlanningUpdate([]Source{src}, opts)
	if !ok || cp.Offset != 1 || cp.PlanningFile != "ROADMAP.md" {
		t.Fatalf("checkpoint = %+v ok=%v", cp, ok)
	}
}
