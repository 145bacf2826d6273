package manifest

import (
	"context"
	"path/filepath"
	"testing"

	"crates/internal/batch"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.LatestSession(ctx); err != nil || ok {
		t.Fatalf("expected no session yet, ok=%v err=%v", ok, err)
	}

	sess := Session{RunID: "run-1", Mode: "sync", SourceDir: "/music", DestDir: "/usb"}
	if err := store.BeginSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if err := store.BeginSession(ctx, Session{RunID: "run-2", Mode: "recovery", SourceDir: "/music", DestDir: "/usb"}); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.LatestSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got.RunID != "run-2" || got.Mode != "recovery" {
		t.Fatalf("latest session mismatch: %+v ok=%v", got, ok)
	}
	if got.CreatedAt == "" {
		t.Fatal("created_at should be populated")
	}
}

func TestPlanAndAppliedSurviveReplan(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	plan := batch.Compute([]string{"Air", "Beck", "Coldplay"}, 2, 100)
	if err := store.RecordPlan(ctx, plan); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkApplied(ctx, "Air", "Air - Beck"); err != nil {
		t.Fatal(err)
	}

	// A recovery run re-plans; applied entries must survive.
	if err := store.RecordPlan(ctx, batch.Compute([]string{"Air", "Beck", "Coldplay", "Devo"}, 2, 100)); err != nil {
		t.Fatal(err)
	}

	applied, err := store.Applied(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if applied["Air"] != "Air - Beck" {
		t.Fatalf("applied lost across replan: %v", applied)
	}

	planned, appliedCount, err := store.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if planned != 4 || appliedCount != 1 {
		t.Fatalf("counts mismatch: planned=%d applied=%d", planned, appliedCount)
	}
}

func TestBatchFoldersAccumulate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordPlan(ctx, batch.Compute([]string{"a", "b"}, 1, 100)); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordPlan(ctx, batch.Compute([]string{"b", "c"}, 1, 100)); err != nil {
		t.Fatal(err)
	}

	folders, err := store.BatchFolders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := 3 // a - a, b - b, c - c
	if len(folders) != want {
		t.Fatalf("expected %d folders, got %v", want, folders)
	}
}

func TestReopenExistingManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.MarkApplied(context.Background(), "Air", "Air - Beck"); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	applied, err := reopened.Applied(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if applied["Air"] != "Air - Beck" {
		t.Fatalf("applied entry lost on reopen: %v", applied)
	}
}
