// Package flatten merges existing batch folders at the destination back into
// the flat staging area, leaving the destination free of batch folders.
package flatten

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"crates/internal/batch"
	"crates/internal/fsutil"
	"crates/internal/library"
	"crates/internal/logging"
)

// Collision records an artist present in more than one batch folder.
type Collision struct {
	Artist   string
	Previous string
	Current  string
}

// Result summarizes a flatten pass.
type Result struct {
	MovedArtists   int
	FoldersRemoved int
	Collisions     []Collision
}

// Flattener drains batch folders into the staging area.
type Flattener struct {
	logger *slog.Logger
}

// New constructs a Flattener.
func New(logger *slog.Logger) *Flattener {
	return &Flattener{logger: logging.NewComponentLogger(logger, "flatten")}
}

// Flatten moves every artist directory found inside a destination batch
// folder into stagingDir, then removes the emptied batch folders.
//
// Batch folders are the union of knownFolders (the manifest's record of what
// an interrupted run created) and non-hidden destination entries matching the
// "X - Y" name pattern. They are processed in case-insensitive sorted order
// so collision resolution is deterministic: when the same artist appears in
// two batch folders the later one wins and the earlier copy is discarded,
// with a warning naming both folders.
//
// Any individual move failure aborts the pass; partially flattened state is
// picked up by the next run's recovery mode.
func (f *Flattener) Flatten(ctx context.Context, destRoot, stagingDir string, knownFolders []string) (Result, error) {
	var result Result

	folders, err := f.selectBatchFolders(destRoot, knownFolders)
	if err != nil {
		return result, err
	}

	origin := make(map[string]string)
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		folderPath := filepath.Join(destRoot, folder)
		entries, err := os.ReadDir(folderPath)
		if err != nil {
			return result, fmt.Errorf("read batch folder %q: %w", folder, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			artist := entry.Name()
			target := filepath.Join(stagingDir, artist)

			if prev, seen := origin[artist]; seen {
				result.Collisions = append(result.Collisions, Collision{Artist: artist, Previous: prev, Current: folder})
				logging.WarnWithContext(f.logger, "duplicate artist across batch folders", "flatten_collision",
					logging.String("artist", artist),
					logging.String("previous_folder", prev),
					logging.String("current_folder", folder),
					logging.String(logging.FieldImpact, "earlier copy discarded, later batch folder wins"),
				)
			}
			if _, err := os.Stat(target); err == nil {
				if err := os.RemoveAll(target); err != nil {
					return result, fmt.Errorf("replace staged artist %q: %w", artist, err)
				}
			}
			if err := fsutil.MoveDir(filepath.Join(folderPath, artist), target); err != nil {
				return result, fmt.Errorf("flatten artist %q from %q: %w", artist, folder, err)
			}
			origin[artist] = folder
			result.MovedArtists++
		}

		// Plain remove first; a batch folder holding stray files (not artist
		// directories) is removed with its contents.
		if err := os.Remove(folderPath); err != nil {
			if err := os.RemoveAll(folderPath); err != nil {
				return result, fmt.Errorf("remove batch folder %q: %w", folder, err)
			}
			f.logger.Info("removed batch folder with unexpected entries", logging.String("folder", folder))
		}
		result.FoldersRemoved++
	}

	return result, nil
}

// selectBatchFolders returns the sorted list of destination entries to drain.
func (f *Flattener) selectBatchFolders(destRoot string, knownFolders []string) ([]string, error) {
	entries, err := os.ReadDir(destRoot)
	if err != nil {
		return nil, fmt.Errorf("read destination: %w", err)
	}

	known := make(map[string]struct{}, len(knownFolders))
	for _, name := range knownFolders {
		known[name] = struct{}{}
	}

	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		_, recorded := known[name]
		if !recorded && !batch.IsBatchFolderName(name) {
			continue
		}
		folders = append(folders, name)
	}
	library.Sort(folders)
	return folders, nil
}
