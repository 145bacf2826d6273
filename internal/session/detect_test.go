package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectModeFreshEmptyDestination(t *testing.T) {
	dest := t.TempDir()
	mode, err := DetectMode(dest, filepath.Join(dest, ".artists_flat_temp"))
	if err != nil {
		t.Fatal(err)
	}
	if mode != ModeFresh {
		t.Fatalf("got %s, want fresh", mode)
	}
}

func TestDetectModeFreshMissingDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "not-created-yet")
	mode, err := DetectMode(dest, filepath.Join(dest, ".artists_flat_temp"))
	if err != nil {
		t.Fatal(err)
	}
	if mode != ModeFresh {
		t.Fatalf("got %s, want fresh", mode)
	}
}

func TestDetectModeFreshUnrelatedContent(t *testing.T) {
	dest := t.TempDir()
	if err := os.Mkdir(filepath.Join(dest, "DCIM"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, ".hidden"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	mode, err := DetectMode(dest, filepath.Join(dest, ".artists_flat_temp"))
	if err != nil {
		t.Fatal(err)
	}
	if mode != ModeFresh {
		t.Fatalf("unrelated content should stay fresh, got %s", mode)
	}
}

func TestDetectModeSyncBatchFolders(t *testing.T) {
	dest := t.TempDir()
	if err := os.Mkdir(filepath.Join(dest, "Air - Coldplay"), 0o755); err != nil {
		t.Fatal(err)
	}

	mode, err := DetectMode(dest, filepath.Join(dest, ".artists_flat_temp"))
	if err != nil {
		t.Fatal(err)
	}
	if mode != ModeSync {
		t.Fatalf("got %s, want sync", mode)
	}
}

func TestDetectModeRecoveryWinsOverSync(t *testing.T) {
	dest := t.TempDir()
	staging := filepath.Join(dest, ".artists_flat_temp")
	if err := os.Mkdir(staging, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dest, "Air - Coldplay"), 0o755); err != nil {
		t.Fatal(err)
	}

	mode, err := DetectMode(dest, staging)
	if err != nil {
		t.Fatal(err)
	}
	if mode != ModeRecovery {
		t.Fatalf("got %s, want recovery", mode)
	}
}

func TestDetectModeIdempotent(t *testing.T) {
	dest := t.TempDir()
	if err := os.Mkdir(filepath.Join(dest, "Air - Coldplay"), 0o755); err != nil {
		t.Fatal(err)
	}
	staging := filepath.Join(dest, ".artists_flat_temp")

	first, err := DetectMode(dest, staging)
	if err != nil {
		t.Fatal(err)
	}
	second, err := DetectMode(dest, staging)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("detection not idempotent: %s then %s", first, second)
	}
}
