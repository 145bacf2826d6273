package batch

import (
	"fmt"
	"reflect"
	"testing"
)

func TestComputeNaming(t *testing.T) {
	plan := Compute([]string{"Air", "Beck", "Coldplay"}, 100, 100)
	if len(plan.Batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(plan.Batches))
	}
	if plan.Batches[0].Name != "Air - Coldplay" {
		t.Fatalf("batch name: got %q, want %q", plan.Batches[0].Name, "Air - Coldplay")
	}
}

func TestComputeSingleMemberBatch(t *testing.T) {
	plan := Compute([]string{"Zorn"}, 100, 100)
	if len(plan.Batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(plan.Batches))
	}
	if plan.Batches[0].Name != "Zorn - Zorn" {
		t.Fatalf("batch name: got %q, want %q", plan.Batches[0].Name, "Zorn - Zorn")
	}
}

func TestComputeBoundaries(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e"}
	plan := Compute(names, 2, 100)
	want := []Batch{
		{Name: "a - b", Artists: []string{"a", "b"}},
		{Name: "c - d", Artists: []string{"c", "d"}},
		{Name: "e - e", Artists: []string{"e"}},
	}
	if !reflect.DeepEqual(plan.Batches, want) {
		t.Fatalf("got %+v, want %+v", plan.Batches, want)
	}
	if len(plan.Excluded) != 0 {
		t.Fatalf("unexpected exclusions: %v", plan.Excluded)
	}
}

func TestComputeCapacityCap(t *testing.T) {
	names := make([]string, 10050)
	for i := range names {
		names[i] = fmt.Sprintf("artist-%05d", i)
	}

	plan := Compute(names, 100, 100)

	if len(plan.Batches) != 100 {
		t.Fatalf("expected 100 batches, got %d", len(plan.Batches))
	}
	if got := plan.ArtistCount(); got != 10000 {
		t.Fatalf("expected 10000 artists planned, got %d", got)
	}
	if len(plan.Excluded) != 50 {
		t.Fatalf("expected 50 excluded, got %d", len(plan.Excluded))
	}
	if plan.Excluded[0] != "artist-10000" {
		t.Fatalf("first excluded: got %q", plan.Excluded[0])
	}
}

func TestComputeEmptyInput(t *testing.T) {
	plan := Compute(nil, 100, 100)
	if len(plan.Batches) != 0 || len(plan.Excluded) != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}

func TestIsBatchFolderName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"Air - Coldplay", true},
		{"Zorn - Zorn", true},
		{"Air-Coldplay", false},
		{"lost+found", false},
		{".artists_flat_temp", false},
		{". - hidden", false},
	}
	for _, tc := range cases {
		if got := IsBatchFolderName(tc.name); got != tc.want {
			t.Errorf("IsBatchFolderName(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
