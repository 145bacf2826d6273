package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"crates/internal/batch"
	"crates/internal/library"
	"crates/internal/manifest"
	"crates/internal/session"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status <destination>",
		Short: "Inspect a destination's batch folders and staging state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return session.Wrap(session.ErrConfiguration, "cli", "load config", "", err)
			}

			dest, err := filepath.Abs(args[0])
			if err != nil {
				return session.Wrap(session.ErrConfiguration, "cli", "resolve destination", "", err)
			}
			stagingPath := filepath.Join(dest, cfg.Paths.StagingDirName)

			report, err := inspectDestination(dest, stagingPath)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, report)
			}
			renderStatus(cmd, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the status as JSON")
	return cmd
}

type statusReport struct {
	Destination  string        `json:"destination"`
	Mode         string        `json:"mode"`
	BatchFolders []batchStatus `json:"batch_folders"`
	TotalArtists int           `json:"total_artists"`
	// StagedArtists counts artist directories inside the staging area when an
	// interrupted run left one behind.
	StagedArtists int             `json:"staged_artists"`
	Manifest      *manifestDigest `json:"manifest,omitempty"`
}

type manifestDigest struct {
	RunID     string `json:"run_id"`
	Mode      string `json:"mode"`
	SourceDir string `json:"source_dir"`
	CreatedAt string `json:"created_at"`
	Planned   int    `json:"planned"`
	Applied   int    `json:"applied"`
}

type batchStatus struct {
	Name    string `json:"name"`
	Artists int    `json:"artists"`
}

// inspectDestination reads the destination without locking or mutating it.
func inspectDestination(dest, stagingPath string) (statusReport, error) {
	report := statusReport{Destination: dest}

	mode, err := session.DetectMode(dest, stagingPath)
	if err != nil {
		return report, session.Wrap(session.ErrOperation, "status", "classify destination", "", err)
	}
	report.Mode = string(mode)

	entries, err := os.ReadDir(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return report, session.Wrap(session.ErrOperation, "status", "read destination", "", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && batch.IsBatchFolderName(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	library.Sort(names)
	for _, name := range names {
		count, err := countArtistDirs(filepath.Join(dest, name))
		if err != nil {
			return report, session.Wrap(session.ErrOperation, "status", "read batch folder", name, err)
		}
		report.BatchFolders = append(report.BatchFolders, batchStatus{Name: name, Artists: count})
		report.TotalArtists += count
	}

	if mode == session.ModeRecovery {
		report.StagedArtists, err = countArtistDirs(stagingPath)
		if err != nil {
			return report, session.Wrap(session.ErrOperation, "status", "read staging area", "", err)
		}
		report.Manifest = readManifestDigest(context.Background(), stagingPath)
	}

	return report, nil
}

// readManifestDigest summarizes the interrupted run's manifest. Any failure
// (no manifest, incompatible schema) degrades to nil rather than failing the
// status report.
func readManifestDigest(ctx context.Context, stagingPath string) *manifestDigest {
	path := filepath.Join(stagingPath, manifest.FileName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	store, err := manifest.Open(path)
	if err != nil {
		return nil
	}
	defer store.Close()

	sess, ok, err := store.LatestSession(ctx)
	if err != nil || !ok {
		return nil
	}
	digest := &manifestDigest{
		RunID:     sess.RunID,
		Mode:      sess.Mode,
		SourceDir: sess.SourceDir,
		CreatedAt: sess.CreatedAt,
	}
	if planned, applied, err := store.Counts(ctx); err == nil {
		digest.Planned = planned
		digest.Applied = applied
	}
	return digest
}

func countArtistDirs(path string) (int, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			count++
		}
	}
	return count, nil
}

func renderStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Destination: %s\n", report.Destination)
	fmt.Fprintf(out, "Mode on next run: %s\n", report.Mode)

	if len(report.BatchFolders) > 0 {
		rows := make([][]string, 0, len(report.BatchFolders))
		for _, b := range report.BatchFolders {
			rows = append(rows, []string{b.Name, fmt.Sprintf("%d", b.Artists)})
		}
		fmt.Fprintln(out, renderTable([]string{"Batch Folder", "Artists"}, rows, []columnAlignment{alignLeft, alignRight}))
		fmt.Fprintf(out, "%d artists across %d batch folders\n", report.TotalArtists, len(report.BatchFolders))
	} else {
		fmt.Fprintln(out, "No batch folders present")
	}

	if report.Mode == string(session.ModeRecovery) {
		fmt.Fprintf(out, "Interrupted run detected: %d artists staged, manifest present: %s\n",
			report.StagedArtists, yesNo(report.Manifest != nil))
		if m := report.Manifest; m != nil {
			fmt.Fprintf(out, "Last session: %s run %s started %s, %d of %d entries applied\n",
				m.Mode, m.RunID, m.CreatedAt, m.Applied, m.Planned)
		}
		fmt.Fprintln(out, "The next run will resume it automatically.")
	}
}
