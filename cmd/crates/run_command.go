package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"crates/internal/flatten"
	"crates/internal/logging"
	"crates/internal/mirror"
	"crates/internal/session"
)

func (c *commandContext) runOrganize(cmd *cobra.Command, sourceDir, destDir string) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return session.Wrap(session.ErrConfiguration, "cli", "load config", "", err)
	}

	if c.dryRunFlag {
		return c.printPlan(cmd, cfg, sourceDir, destDir)
	}

	logger, err := c.newLogger(cfg)
	if err != nil {
		return session.Wrap(session.ErrConfiguration, "cli", "init logger", "", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mirrorSvc := mirror.NewLocal(mirror.Options{
		PreserveTimes:    cfg.Mirror.PreserveTimes,
		ProgressInterval: cfg.Mirror.ProgressInterval,
	}, logger)

	orchestrator := session.New(cfg, logging.NewComponentLogger(logger, "session"), mirrorSvc)
	summary, err := orchestrator.Run(signalCtx, sourceDir, destDir)
	if err != nil {
		return err
	}

	if c.jsonFlag {
		return writeJSON(cmd, summaryPayload(summary))
	}
	renderSummary(cmd, summary)
	return nil
}

type runPayload struct {
	RunID          string   `json:"run_id"`
	Mode           string   `json:"mode"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	WorkingSet     int      `json:"working_set"`
	Batches        int      `json:"batches"`
	Placed         int      `json:"placed"`
	AlreadyPlaced  []string `json:"already_placed,omitempty"`
	Skipped        []string `json:"skipped,omitempty"`
	Excluded       []string `json:"excluded,omitempty"`
	Collisions     []string `json:"collisions,omitempty"`
	FilesCopied    int      `json:"files_copied"`
	FilesSkipped   int      `json:"files_skipped"`
	BytesCopied    int64    `json:"bytes_copied"`
	Leftovers      []string `json:"leftovers,omitempty"`
	StagingRemoved bool     `json:"staging_removed"`
}

func summaryPayload(summary *session.Summary) runPayload {
	return runPayload{
		RunID:          summary.RunID,
		Mode:           string(summary.Mode),
		ElapsedSeconds: summary.Elapsed.Seconds(),
		WorkingSet:     summary.WorkingSet,
		Batches:        summary.Batches,
		Placed:         summary.Placed,
		AlreadyPlaced:  summary.AlreadyPlaced,
		Skipped:        summary.Skipped,
		Excluded:       summary.Excluded,
		Collisions:     collisionLines(summary.Collisions),
		FilesCopied:    summary.Mirror.FilesCopied,
		FilesSkipped:   summary.Mirror.FilesSkipped,
		BytesCopied:    summary.Mirror.BytesCopied,
		Leftovers:      summary.Leftovers,
		StagingRemoved: summary.StagingRemoved,
	}
}

func renderSummary(cmd *cobra.Command, summary *session.Summary) {
	out := cmd.OutOrStdout()

	rows := [][]string{
		{"Mode", string(summary.Mode)},
		{"Run ID", summary.RunID},
		{"Artists listed", fmt.Sprintf("%d", summary.WorkingSet)},
		{"Batch folders", fmt.Sprintf("%d", summary.Batches)},
		{"Placed", fmt.Sprintf("%d", summary.Placed)},
	}
	if n := len(summary.AlreadyPlaced); n > 0 {
		rows = append(rows, []string{"Already placed", fmt.Sprintf("%d", n)})
	}
	if n := len(summary.Skipped); n > 0 {
		rows = append(rows, []string{"Skipped", fmt.Sprintf("%d", n)})
	}
	if n := len(summary.Excluded); n > 0 {
		rows = append(rows, []string{"Excluded over capacity", fmt.Sprintf("%d", n)})
	}
	if summary.Mode != session.ModeFresh {
		rows = append(rows,
			[]string{"Files copied", fmt.Sprintf("%d", summary.Mirror.FilesCopied)},
			[]string{"Files unchanged", fmt.Sprintf("%d", summary.Mirror.FilesSkipped)},
			[]string{"Bytes copied", fmt.Sprintf("%d", summary.Mirror.BytesCopied)},
		)
	}
	rows = append(rows,
		[]string{"Staging removed", yesNo(summary.StagingRemoved)},
		[]string{"Elapsed", summary.Elapsed.Round(time.Millisecond).String()},
	)

	fmt.Fprintln(out, renderTable([]string{"Run Summary", ""}, rows, nil))

	for _, line := range collisionLines(summary.Collisions) {
		fmt.Fprintf(out, "collision: %s\n", line)
	}
	if len(summary.Excluded) > 0 {
		fmt.Fprintf(out, "excluded (raise batch limits to include): %s\n", strings.Join(summary.Excluded, ", "))
	}
	if len(summary.Skipped) > 0 {
		fmt.Fprintf(out, "skipped (missing at apply time): %s\n", strings.Join(summary.Skipped, ", "))
	}
	if len(summary.Leftovers) > 0 {
		fmt.Fprintf(out, "staging area kept; leftover entries: %s\n", strings.Join(summary.Leftovers, ", "))
	}
}

func collisionLines(collisions []flatten.Collision) []string {
	lines := make([]string, 0, len(collisions))
	for _, c := range collisions {
		lines = append(lines, fmt.Sprintf("%s (copy from %s discarded, %s won)", c.Artist, c.Previous, c.Current))
	}
	return lines
}
