package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crates/internal/config"
	"crates/internal/logging"
	"crates/internal/mirror"
	"crates/internal/session"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <source> <destination>",
		Short: "Preview the batch assignment without changing anything",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return session.Wrap(session.ErrConfiguration, "cli", "load config", "", err)
			}
			return ctx.printPlan(cmd, cfg, args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&ctx.jsonFlag, "json", false, "Emit the plan as JSON")
	cmd.Flags().IntVar(&ctx.batchSizeFlag, "batch-size", 0, "Artists per batch folder (overrides config)")
	cmd.Flags().IntVar(&ctx.maxBatchesFlag, "max-batches", 0, "Maximum batch folders (overrides config)")
	return cmd
}

type planPayload struct {
	Mode     string        `json:"mode"`
	Batches  []batchDigest `json:"batches"`
	Excluded []string      `json:"excluded,omitempty"`
}

type batchDigest struct {
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

func (c *commandContext) printPlan(cmd *cobra.Command, cfg *config.Config, sourceDir, destDir string) error {
	orchestrator := session.New(cfg, logging.NewNop(), mirror.NewLocal(mirror.Options{}, nil))
	mode, plan, err := orchestrator.PlanOnly(sourceDir, destDir)
	if err != nil {
		return err
	}

	if c.jsonFlag {
		payload := planPayload{Mode: string(mode), Excluded: plan.Excluded}
		for _, b := range plan.Batches {
			payload.Batches = append(payload.Batches, batchDigest{Name: b.Name, Artists: b.Artists})
		}
		return writeJSON(cmd, payload)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mode: %s\n", mode)
	if mode != session.ModeFresh {
		fmt.Fprintln(out, "Preview lists the source only; the live run rebatches the flattened destination as well.")
	}

	rows := make([][]string, 0, len(plan.Batches))
	for _, b := range plan.Batches {
		rows = append(rows, []string{b.Name, fmt.Sprintf("%d", len(b.Artists))})
	}
	fmt.Fprintln(out, renderTable([]string{"Batch Folder", "Artists"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintf(out, "%d artists across %d batch folders\n", plan.ArtistCount(), len(plan.Batches))
	if len(plan.Excluded) > 0 {
		fmt.Fprintf(out, "%d artists exceed capacity and would be excluded, starting with %q\n",
			len(plan.Excluded), plan.Excluded[0])
	}
	return nil
}
