package session

import (
	"time"

	"crates/internal/flatten"
	"crates/internal/mirror"
)

// Summary reports what a run did.
type Summary struct {
	RunID   string
	Mode    Mode
	Elapsed time.Duration

	// WorkingSet is the number of artists listed in the working directory.
	WorkingSet int
	// Batches is the number of batch folders in the plan.
	Batches int

	Placed        int
	Skipped       []string
	AlreadyPlaced []string
	// Excluded lists artists beyond the capacity cap, not processed this run.
	Excluded []string

	Collisions []flatten.Collision
	Mirror     mirror.Stats

	// Leftovers are staging entries remaining after apply; the staging area
	// is kept on disk when this is non-empty.
	Leftovers      []string
	StagingRemoved bool
}
