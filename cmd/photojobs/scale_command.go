package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photojobs/internal/jobs"
	"photojobs/internal/scale"
)

func newScaleCommand(cctx *commandContext) *cobra.Command {
	var (
		root   string
		size   int
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "scale",
		Short: "Resize job images so the longest side matches a pixel size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			ctx := cctx.commandCtx(cmd)
			logger := cctx.commandLogger(ctx)
			started := time.Now()

			target := outDir
			if target == "" {
				target = scale.OutputRoot(root, size)
			}
			release, err := acquireRunLock(target)
			if err != nil {
				return err
			}
			defer release()

			outcome, err := scale.New(logger).Run(ctx, scale.Params{
				Root:        root,
				Size:        size,
				OutDir:      outDir,
				JPEGQuality: cfg.Scale.JPEGQuality,
			})
			if err != nil {
				return err
			}

			cctx.recordRun(ctx, cmd.Name(), root, started,
				outcome.Scaled, outcome.Skipped, outcome.Failed)

			out := cmd.OutOrStdout()
			for _, entry := range outcome.Failures {
				fmt.Fprintf(out, "failed: %s\n", entry)
			}
			printSummary(out, []summaryLine{
				count("Images found", outcome.Found),
				count("Scaled", outcome.Scaled),
				count("Skipped", outcome.Skipped),
				count("Failed", outcome.Failed),
				textLine("Output root", outcome.OutputRoot),
			})

			if outcome.Failed > 0 {
				return jobs.Wrap(jobs.ErrPartialFailure, "scale", "run",
					fmt.Sprintf("%d of %d images failed", outcome.Failed, outcome.Found), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Folder holding the images")
	cmd.Flags().IntVar(&size, "size", 0, "Target longest side in pixels")
	cmd.Flags().StringVar(&outDir, "out", "", "Destination folder (default <root>_<size>)")
	_ = cmd.MarkFlagRequired("root")
	_ = cmd.MarkFlagRequired("size")
	return cmd
}
