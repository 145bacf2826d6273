package session

import (
	"fmt"
	"os"

	"crates/internal/batch"
)

// Mode is the protocol a run follows, decided once per invocation.
type Mode string

const (
	// ModeFresh copies artists straight from the source; the destination has
	// no batch folders to reconcile.
	ModeFresh Mode = "fresh"
	// ModeSync flattens existing batch folders into the staging area, folds
	// in the updated source, and rebatches.
	ModeSync Mode = "sync"
	// ModeRecovery resumes an interrupted sync or fresh run from the staging
	// area left on disk.
	ModeRecovery Mode = "recovery"
)

// DetectMode classifies the destination state. The staging area's existence
// always wins: it is the recovery checkpoint. Otherwise an empty destination
// (hidden entries included) is fresh, a destination holding batch-folder
// names is sync, and anything else is fresh alongside unrelated content.
// Read-only and deterministic for a given destination state.
func DetectMode(destRoot, stagingPath string) (Mode, error) {
	if _, err := os.Stat(stagingPath); err == nil {
		return ModeRecovery, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat staging area: %w", err)
	}

	entries, err := os.ReadDir(destRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return ModeFresh, nil
		}
		return "", fmt.Errorf("read destination: %w", err)
	}
	if len(entries) == 0 {
		return ModeFresh, nil
	}

	for _, entry := range entries {
		if entry.IsDir() && batch.IsBatchFolderName(entry.Name()) {
			return ModeSync, nil
		}
	}
	return ModeFresh, nil
}
