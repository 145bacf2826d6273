// Package batch computes the partition of a sorted working set into named
// batch folders.
package batch

import (
	"strings"
)

// Separator joins the first and last artist of a batch into its folder name.
// Destination folders containing it are treated as batch folders, which is
// ambiguous for artists whose own name contains the token; recovery runs use
// the manifest instead of this pattern wherever one exists.
const Separator = " - "

// A Batch is a contiguous slice of the working set assigned to one folder.
type Batch struct {
	// Name is "<first artist> - <last artist>" of the members.
	Name    string
	Artists []string
}

// A Plan is the complete batch assignment for one run.
type Plan struct {
	Batches []Batch
	// Excluded holds working-set entries beyond the size * maxBatches
	// capacity, in sorted order. They are not processed this run.
	Excluded []string
}

// Compute partitions sortedNames into contiguous batches of up to size
// members, capped at maxBatches batches. Entries beyond the cap land in
// Excluded. An empty input produces an empty plan.
func Compute(sortedNames []string, size, maxBatches int) Plan {
	var plan Plan
	if len(sortedNames) == 0 || size <= 0 || maxBatches <= 0 {
		return plan
	}

	capacity := size * maxBatches
	included := sortedNames
	if len(included) > capacity {
		plan.Excluded = append([]string{}, included[capacity:]...)
		included = included[:capacity]
	}

	for start := 0; start < len(included); start += size {
		end := start + size
		if end > len(included) {
			end = len(included)
		}
		members := included[start:end]
		plan.Batches = append(plan.Batches, Batch{
			Name:    FolderName(members[0], members[len(members)-1]),
			Artists: append([]string{}, members...),
		})
	}
	return plan
}

// FolderName builds the batch folder name for the given boundary artists.
// A single-member batch yields "X - X".
func FolderName(first, last string) string {
	return first + Separator + last
}

// IsBatchFolderName reports whether a destination entry looks like a batch
// folder: non-hidden and containing the separator token.
func IsBatchFolderName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.Contains(name, Separator)
}

// ArtistCount returns the number of artists covered by the plan's batches.
func (p Plan) ArtistCount() int {
	total := 0
	for _, b := range p.Batches {
		total += len(b.Artists)
	}
	return total
}
