// Package apply places each planned artist directory into its assigned batch
// folder at the destination.
package apply

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"crates/internal/batch"
	"crates/internal/fsutil"
	"crates/internal/logging"
)

// Ledger records apply progress so an interrupted run can resume exactly.
// *manifest.Store satisfies it; a nil Ledger disables recording.
type Ledger interface {
	MarkApplied(ctx context.Context, artist, batchName string) error
	Applied(ctx context.Context) (map[string]string, error)
}

// Result summarizes an apply pass.
type Result struct {
	Placed int
	// Skipped lists planned artists absent from the working directory when
	// their turn came (already moved by an interrupted run, or lost to a
	// flatten collision).
	Skipped []string
	// AlreadyPlaced lists artists found complete at their target, either via
	// the ledger or an existing target directory. Their sources are left
	// untouched for the leftover check.
	AlreadyPlaced []string
}

// Applier moves or copies artists into batch folders.
type Applier struct {
	logger        *slog.Logger
	ledger        Ledger
	preserveTimes bool
}

// New constructs an Applier. ledger may be nil.
func New(logger *slog.Logger, ledger Ledger, preserveTimes bool) *Applier {
	return &Applier{
		logger:        logging.NewComponentLogger(logger, "apply"),
		ledger:        ledger,
		preserveTimes: preserveTimes,
	}
}

// Apply walks the plan in order and places every artist still present in
// workDir into its batch folder under destRoot. move selects relocation
// (sync/recovery) over copying (fresh). Missing sources and already-placed
// artists are reported, not fatal; any filesystem failure aborts the pass.
func (a *Applier) Apply(ctx context.Context, plan batch.Plan, workDir, destRoot string, move bool) (Result, error) {
	var result Result

	var applied map[string]string
	if a.ledger != nil {
		var err error
		applied, err = a.ledger.Applied(ctx)
		if err != nil {
			return result, fmt.Errorf("read apply ledger: %w", err)
		}
	}

	for _, b := range plan.Batches {
		folderPath := filepath.Join(destRoot, b.Name)
		folderReady := false

		for _, artist := range b.Artists {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			source := filepath.Join(workDir, artist)
			target := filepath.Join(folderPath, artist)

			if _, done := applied[artist]; done {
				if _, err := os.Stat(source); os.IsNotExist(err) {
					result.AlreadyPlaced = append(result.AlreadyPlaced, artist)
					continue
				}
				// Ledger says done but the source re-appeared (updated
				// content mirrored after interruption); fall through and
				// place it again if the target slot is free.
			}

			if _, err := os.Stat(target); err == nil {
				result.AlreadyPlaced = append(result.AlreadyPlaced, artist)
				continue
			}

			if _, err := os.Stat(source); os.IsNotExist(err) {
				result.Skipped = append(result.Skipped, artist)
				logging.WarnWithContext(a.logger, "planned artist missing from working directory", "apply_skip",
					logging.String("artist", artist),
					logging.String("batch", b.Name),
					logging.String(logging.FieldImpact, "entry not placed this run"),
				)
				continue
			}

			if !folderReady {
				if err := os.MkdirAll(folderPath, 0o755); err != nil {
					return result, fmt.Errorf("create batch folder %q: %w", b.Name, err)
				}
				folderReady = true
			}

			if move {
				if err := fsutil.MoveDir(source, target); err != nil {
					return result, fmt.Errorf("move artist %q into %q: %w", artist, b.Name, err)
				}
			} else {
				if err := fsutil.CopyDir(source, target, a.preserveTimes); err != nil {
					return result, fmt.Errorf("copy artist %q into %q: %w", artist, b.Name, err)
				}
			}
			result.Placed++

			if a.ledger != nil {
				if err := a.ledger.MarkApplied(ctx, artist, b.Name); err != nil {
					return result, fmt.Errorf("record applied artist %q: %w", artist, err)
				}
			}
			a.logger.Debug("artist placed",
				logging.String("artist", artist),
				logging.String("batch", b.Name),
				logging.Bool("moved", move),
			)
		}
	}

	return result, nil
}
