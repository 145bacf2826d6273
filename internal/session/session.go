// Package session orchestrates a batch reorganization run: mode detection,
// the flatten-mirror-rebatch protocol, staging lifecycle, and the final
// summary.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"crates/internal/apply"
	"crates/internal/batch"
	"crates/internal/config"
	"crates/internal/flatten"
	"crates/internal/library"
	"crates/internal/logging"
	"crates/internal/manifest"
	"crates/internal/mirror"
	"crates/internal/preflight"
)

// RunContext carries the resolved state of one invocation. It is built once
// after mode detection and threaded through the components instead of living
// in process-wide globals.
type RunContext struct {
	RunID       string
	Mode        Mode
	SourceDir   string
	DestDir     string
	StagingPath string
	// WorkDir is where the working set is listed from: the source for fresh
	// runs, the staging area otherwise.
	WorkDir string
	// Move selects relocation over copying in the apply phase.
	Move bool
}

// Orchestrator sequences a run end to end.
type Orchestrator struct {
	cfg    *config.Config
	logger *slog.Logger
	mirror mirror.Service
}

// New constructs an Orchestrator.
func New(cfg *config.Config, logger *slog.Logger, mirrorSvc mirror.Service) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{cfg: cfg, logger: logger, mirror: mirrorSvc}
}

// Run executes one full pass: detect mode, reconcile, list, plan, apply,
// clean up, summarize. Fatal failures abort immediately; the staging area
// left on disk turns the next invocation into a recovery run.
func (o *Orchestrator) Run(ctx context.Context, sourceDir, destDir string) (*Summary, error) {
	started := time.Now()

	rc, release, err := o.prepare(destDir, sourceDir)
	if err != nil {
		return nil, err
	}
	defer release()

	logger := o.logger.With(
		logging.String(logging.FieldRunID, rc.RunID),
		logging.String(logging.FieldMode, string(rc.Mode)),
	)
	logger.Info("run starting",
		logging.String("source", rc.SourceDir),
		logging.String("destination", rc.DestDir),
	)

	if err := o.runPreflight(rc); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(rc.StagingPath, 0o755); err != nil {
		return nil, Wrap(ErrOperation, "prepare", "create staging area", "", err)
	}
	store, err := manifest.Open(filepath.Join(rc.StagingPath, manifest.FileName))
	if err != nil {
		return nil, Wrap(ErrOperation, "prepare", "open manifest", "", err)
	}
	defer store.Close()

	if err := store.BeginSession(ctx, manifest.Session{
		RunID:     rc.RunID,
		Mode:      string(rc.Mode),
		SourceDir: rc.SourceDir,
		DestDir:   rc.DestDir,
	}); err != nil {
		return nil, Wrap(ErrOperation, "prepare", "record session", "", err)
	}

	summary := &Summary{RunID: rc.RunID, Mode: rc.Mode}

	if rc.Mode == ModeSync || rc.Mode == ModeRecovery {
		known, err := store.BatchFolders(ctx)
		if err != nil {
			return nil, Wrap(ErrOperation, "flatten", "read manifest batch folders", "", err)
		}
		flatResult, err := flatten.New(logger).Flatten(ctx, rc.DestDir, rc.StagingPath, known)
		if err != nil {
			return nil, Wrap(ErrOperation, "flatten", "merge batch folders", "", err)
		}
		summary.Collisions = flatResult.Collisions
		logger.Info("destination flattened",
			logging.Int("artists_staged", flatResult.MovedArtists),
			logging.Int("folders_removed", flatResult.FoldersRemoved),
		)

		summary.Mirror, err = o.mirror.Mirror(ctx, rc.SourceDir, rc.StagingPath)
		if err != nil {
			return nil, Wrap(ErrOperation, "mirror", "fold source into staging", "", err)
		}
	}

	names, err := library.List(rc.WorkDir)
	if err != nil {
		return nil, Wrap(ErrOperation, "list", "enumerate working set", "", err)
	}
	summary.WorkingSet = len(names)

	if len(names) == 0 {
		_ = store.Close()
		o.removeStagingIfDrained(rc.StagingPath, logger)
		return nil, Wrap(ErrEmptyInput, "list", "enumerate working set",
			fmt.Sprintf("no artist directories found in %s", rc.WorkDir), nil)
	}

	plan := batch.Compute(names, o.cfg.Batch.Size, o.cfg.Batch.MaxBatches)
	summary.Batches = len(plan.Batches)
	summary.Excluded = plan.Excluded
	if len(plan.Excluded) > 0 {
		if o.cfg.Batch.StrictCapacity {
			return nil, Wrap(ErrConfiguration, "plan", "capacity check",
				fmt.Sprintf("%d artists exceed the %d batch capacity and strict_capacity is set",
					len(plan.Excluded), o.cfg.Batch.Size*o.cfg.Batch.MaxBatches), nil)
		}
		logging.WarnWithContext(logger, "working set exceeds batch capacity", "capacity_overflow",
			logging.Int("excluded", len(plan.Excluded)),
			logging.String("first_excluded", plan.Excluded[0]),
			logging.String(logging.FieldImpact, "excluded artists are not processed this run"),
			logging.String(logging.FieldErrorHint, "raise batch.size or batch.max_batches, or set strict_capacity"),
		)
	}

	if err := store.RecordPlan(ctx, plan); err != nil {
		return nil, Wrap(ErrOperation, "plan", "record plan", "", err)
	}
	logger.Info("plan computed",
		logging.Int("artists", plan.ArtistCount()),
		logging.Int("batches", len(plan.Batches)),
	)

	applier := apply.New(logger, store, o.cfg.Mirror.PreserveTimes)
	applyResult, err := applier.Apply(ctx, plan, rc.WorkDir, rc.DestDir, rc.Move)
	if err != nil {
		return nil, Wrap(ErrOperation, "apply", "place artists", "", err)
	}
	summary.Placed = applyResult.Placed
	summary.Skipped = applyResult.Skipped
	summary.AlreadyPlaced = applyResult.AlreadyPlaced

	summary.Leftovers, err = stagingArtists(rc.StagingPath)
	if err != nil {
		return nil, Wrap(ErrOperation, "cleanup", "inspect staging area", "", err)
	}
	if len(summary.Leftovers) == 0 {
		_ = store.Close()
		summary.StagingRemoved = o.removeStagingIfDrained(rc.StagingPath, logger)
	} else {
		logging.WarnWithContext(logger, "staging area kept with leftover entries", "staging_leftovers",
			logging.Int("leftovers", len(summary.Leftovers)),
			logging.String("staging", rc.StagingPath),
			logging.String(logging.FieldImpact, "possible duplicates or pathological names need manual review"),
			logging.String(logging.FieldErrorHint, "inspect the staging area and re-run"),
		)
	}

	summary.Elapsed = time.Since(started)
	logger.Info("run completed",
		logging.Int("placed", summary.Placed),
		logging.Int("skipped", len(summary.Skipped)),
		logging.Int("batches", summary.Batches),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// PlanOnly computes the batch assignment a run would apply, without mutating
// anything. The listing always comes from the source: for sync and recovery
// destinations the real working set only exists after flattening, so the
// preview is an approximation of the post-mirror state.
func (o *Orchestrator) PlanOnly(sourceDir, destDir string) (Mode, batch.Plan, error) {
	src, dst, err := resolveDirs(sourceDir, destDir)
	if err != nil {
		return "", batch.Plan{}, err
	}

	mode, err := DetectMode(dst, filepath.Join(dst, o.cfg.Paths.StagingDirName))
	if err != nil {
		return "", batch.Plan{}, Wrap(ErrOperation, "detect", "classify destination", "", err)
	}

	names, err := library.List(src)
	if err != nil {
		return mode, batch.Plan{}, Wrap(ErrOperation, "list", "enumerate source", "", err)
	}
	return mode, batch.Compute(names, o.cfg.Batch.Size, o.cfg.Batch.MaxBatches), nil
}

// prepare resolves paths, takes the destination lock, and detects the mode.
// The returned release function drops the lock.
func (o *Orchestrator) prepare(destDir, sourceDir string) (RunContext, func(), error) {
	noop := func() {}

	src, dst, err := resolveDirs(sourceDir, destDir)
	if err != nil {
		return RunContext{}, noop, err
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return RunContext{}, noop, Wrap(ErrOperation, "prepare", "create destination", "", err)
	}

	lock := flock.New(filepath.Join(dst, o.cfg.Safety.LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return RunContext{}, noop, Wrap(ErrOperation, "prepare", "acquire destination lock", "", err)
	}
	if !locked {
		return RunContext{}, noop, Wrap(ErrConfiguration, "prepare", "acquire destination lock",
			"another crates run is working on this destination", nil)
	}
	release := func() { _ = lock.Unlock() }

	stagingPath := filepath.Join(dst, o.cfg.Paths.StagingDirName)
	mode, err := DetectMode(dst, stagingPath)
	if err != nil {
		release()
		return RunContext{}, noop, Wrap(ErrOperation, "detect", "classify destination", "", err)
	}

	rc := RunContext{
		RunID:       uuid.NewString(),
		Mode:        mode,
		SourceDir:   src,
		DestDir:     dst,
		StagingPath: stagingPath,
		WorkDir:     src,
		Move:        false,
	}
	if mode == ModeSync || mode == ModeRecovery {
		rc.WorkDir = stagingPath
		rc.Move = true
	}
	return rc, release, nil
}

func (o *Orchestrator) runPreflight(rc RunContext) error {
	checks := []preflight.Result{
		preflight.CheckDirectoryAccess("Source", rc.SourceDir),
		preflight.CheckDirectoryAccess("Destination", rc.DestDir),
	}
	if rc.Mode == ModeFresh {
		checks = append(checks, preflight.CheckFreeSpace(rc.SourceDir, rc.DestDir, o.cfg.Safety.FreeSpaceMarginMiB))
	}
	for _, check := range checks {
		if !check.Passed {
			return Wrap(ErrConfiguration, "preflight", check.Name, check.Detail, nil)
		}
	}
	return nil
}

// removeStagingIfDrained deletes the staging area when it holds no artist
// directories. The manifest and its sqlite side files do not count: they are
// run bookkeeping, not artist data.
func (o *Orchestrator) removeStagingIfDrained(stagingPath string, logger *slog.Logger) bool {
	leftovers, err := stagingArtists(stagingPath)
	if err != nil || len(leftovers) > 0 {
		return false
	}
	if err := os.RemoveAll(stagingPath); err != nil {
		logger.Warn("failed to remove drained staging area",
			logging.String("staging", stagingPath),
			logging.Error(err),
		)
		return false
	}
	logger.Info("staging area removed", logging.String("staging", stagingPath))
	return true
}

// stagingArtists lists the artist directories still inside the staging area.
func stagingArtists(stagingPath string) ([]string, error) {
	entries, err := os.ReadDir(stagingPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	library.Sort(names)
	return names, nil
}

func resolveDirs(sourceDir, destDir string) (string, string, error) {
	src, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", "", Wrap(ErrConfiguration, "prepare", "resolve source path", "", err)
	}
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", Wrap(ErrConfiguration, "prepare", "check source",
				fmt.Sprintf("source directory %s does not exist", src), nil)
		}
		return "", "", Wrap(ErrConfiguration, "prepare", "check source", "", err)
	}
	if !info.IsDir() {
		return "", "", Wrap(ErrConfiguration, "prepare", "check source",
			fmt.Sprintf("%s is not a directory", src), nil)
	}

	dst, err := filepath.Abs(destDir)
	if err != nil {
		return "", "", Wrap(ErrConfiguration, "prepare", "resolve destination path", "", err)
	}
	return src, dst, nil
}
