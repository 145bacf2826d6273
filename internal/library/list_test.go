package library

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestListSortsCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"beatles", "ABBA", "Coldplay"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	got, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"ABBA", "beatles", "Coldplay"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestListSkipsHiddenAndFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "Air"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, ".artists_flat_temp"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "playlist.m3u"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Air"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestListEmptyDirectory(t *testing.T) {
	got, err := List(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty working set, got %v", got)
	}
}

func TestListMissingDirectory(t *testing.T) {
	if _, err := List(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestSortStableAcrossCaseTies(t *testing.T) {
	a := []string{"ZZ Top", "zz top", "Air"}
	b := []string{"zz top", "Air", "ZZ Top"}
	Sort(a)
	Sort(b)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("order depends on input order: %v vs %v", a, b)
	}
	if a[0] != "Air" {
		t.Fatalf("expected Air first, got %v", a)
	}
}
