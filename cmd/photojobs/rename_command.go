package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photojobs/internal/jobs"
	"photojobs/internal/renameplan"
)

func newRenameCommand(cctx *commandContext) *cobra.Command {
	var (
		root     string
		planPath string
		mode     string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Apply a rename plan by copying or moving files",
		Long: "Loads a rename plan (job CSV or tab-separated file), validates it as a\n" +
			"whole, then applies it. Validation failures abort before any file is touched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := cctx.ensureConfig(); err != nil {
				return err
			}
			ctx := cctx.commandCtx(cmd)
			logger := cctx.commandLogger(ctx)
			started := time.Now()

			plan, err := renameplan.Load(planPath)
			if err != nil {
				return err
			}
			actions, err := plan.Validate(root)
			if err != nil {
				return err
			}

			target := outDir
			if target == "" {
				target = renameplan.OutputRoot(root)
			}
			release, err := acquireRunLock(target)
			if err != nil {
				return err
			}
			defer release()

			exec, err := renameplan.NewExecutor(renameplan.Mode(mode), logger)
			if err != nil {
				return jobs.Wrap(jobs.ErrConfiguration, "rename", "init", "", err)
			}
			outcome, err := exec.Execute(ctx, actions, target)
			if err != nil {
				return err
			}

			cctx.recordRun(ctx, cmd.Name(), root, started,
				outcome.Succeeded, outcome.Skipped, outcome.Failed)

			out := cmd.OutOrStdout()
			for _, entry := range outcome.Failures {
				fmt.Fprintf(out, "failed: %s\n", entry)
			}
			printSummary(out, []summaryLine{
				count("Plan entries", outcome.Planned),
				count("Succeeded", outcome.Succeeded),
				count("Skipped (exists)", outcome.Skipped),
				count("Failed", outcome.Failed),
				textLine("Mode", mode),
				textLine("Output root", outcome.OutputRoot),
			})

			if outcome.Failed > 0 {
				return jobs.Wrap(jobs.ErrPartialFailure, "rename", "execute",
					fmt.Sprintf("%d of %d entries failed", outcome.Failed, outcome.Planned), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Folder holding the source files")
	cmd.Flags().StringVar(&planPath, "plan", "", "Rename plan path (CSV or tab-separated)")
	cmd.Flags().StringVar(&mode, "mode", string(renameplan.ModeCopy), "copy or move")
	cmd.Flags().StringVar(&outDir, "out", "", "Destination folder (default <root>_renamed)")
	_ = cmd.MarkFlagRequired("root")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}
