package preflight

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := CheckDirectoryAccess("Destination", dir)
	if !result.Passed {
		t.Fatalf("temp dir should pass: %+v", result)
	}

	result = CheckDirectoryAccess("Destination", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatalf("missing dir should fail: %+v", result)
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result = CheckDirectoryAccess("Destination", file)
	if result.Passed {
		t.Fatalf("file should fail: %+v", result)
	}
}

func TestCheckFreeSpaceDisabled(t *testing.T) {
	result := CheckFreeSpace(t.TempDir(), t.TempDir(), 0)
	if !result.Passed {
		t.Fatalf("margin 0 should disable the check: %+v", result)
	}
}

func TestCheckFreeSpaceSmallSource(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "x"), []byte("tiny"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A 1 MiB margin against a temp filesystem should always fit.
	result := CheckFreeSpace(src, t.TempDir(), 1)
	if !result.Passed {
		t.Fatalf("tiny source should fit: %+v", result)
	}
}
