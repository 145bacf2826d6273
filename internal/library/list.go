// Package library lists the artist directories that make up a working set.
package library

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// List returns the names of the immediate subdirectories of path, hidden
// entries excluded, sorted case-insensitively ascending with exact duplicates
// collapsed. An empty directory yields an empty slice, not an error.
//
// The order is a stable total order independent of filesystem enumeration:
// names that differ only in case are tie-broken bytewise, so repeated runs
// over the same tree always produce the same working set.
func List(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}

	Sort(names)

	deduped := names[:0]
	for i, name := range names {
		if i > 0 && name == names[i-1] {
			continue
		}
		deduped = append(deduped, name)
	}
	return deduped, nil
}

// Sort orders names case-insensitively ascending, in place, with a bytewise
// tie-break for names equal under the collation.
func Sort(names []string) {
	collator := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(names, func(i, j int) bool {
		if cmp := collator.CompareString(names[i], names[j]); cmp != 0 {
			return cmp < 0
		}
		return names[i] < names[j]
	})
}
