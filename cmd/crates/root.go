package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crates/internal/session"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "crates <source> <destination>",
		Short: "Partition a music library into batch folders",
		Long: `Crates copies or reorganizes a flat library of artist directories into
numbered-capacity batch folders named "<first artist> - <last artist>".
An existing batched destination is reconciled in place, and an interrupted
run resumes from its staging area on the next invocation.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				if len(args) == 0 {
					_ = cmd.Help()
				} else {
					_ = cmd.Usage()
				}
				return session.Wrap(session.ErrUsage, "cli", "parse arguments",
					fmt.Sprintf("expected <source> <destination>, got %d arguments", len(args)), nil)
			}
			return ctx.runOrganize(cmd, args[0], args[1])
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().IntVar(&ctx.batchSizeFlag, "batch-size", 0, "Artists per batch folder (overrides config)")
	rootCmd.Flags().IntVar(&ctx.maxBatchesFlag, "max-batches", 0, "Maximum batch folders (overrides config)")
	rootCmd.Flags().BoolVar(&ctx.dryRunFlag, "dry-run", false, "Compute and print the plan without touching the destination")
	rootCmd.Flags().BoolVar(&ctx.jsonFlag, "json", false, "Emit the run summary as JSON")
	rootCmd.Flags().StringVar(&ctx.logFileFlag, "log-file", "", "Append log records to this file as well as stderr")

	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
