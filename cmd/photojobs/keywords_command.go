package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photojobs/internal/jobs"
	"photojobs/internal/keywords"
	"photojobs/internal/match"
	"photojobs/internal/preset"
	"photojobs/internal/roster"
)

func newKeywordsCommand(cctx *commandContext) *cobra.Command {
	var (
		csvPath    string
		root       string
		manual     string
		presetName string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Embed per-subject keywords into matched image files",
		Long: "Reads the roster CSV, matches each row's filenames against the image root,\n" +
			"and writes keyword metadata to copies placed under <root>_keywords.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			ctx := cctx.commandCtx(cmd)
			logger := cctx.commandLogger(ctx)
			started := time.Now()

			ps, err := preset.Resolve(cfg.Paths.PresetsDir, presetName)
			if err != nil {
				return err
			}
			rst, err := roster.Load(csvPath, ps, logger)
			if err != nil {
				return err
			}
			ix, err := match.BuildIndex(root, logger)
			if err != nil {
				return err
			}
			results := match.Reconcile(rst.Records, ix, logger)

			release, err := acquireRunLock(keywords.OutputRoot(root))
			if err != nil {
				return err
			}
			defer release()

			if workers <= 0 {
				workers = cfg.Workflow.Workers
			}
			tagger, err := keywords.New(
				cfg.ExifTool.Binary,
				time.Duration(cfg.ExifTool.TimeoutSeconds)*time.Second,
				workers, logger)
			if err != nil {
				return jobs.Wrap(jobs.ErrConfiguration, "keywords", "init", "", err)
			}

			outcome, err := tagger.Run(ctx, results, root, manual)
			if err != nil {
				return err
			}

			matched, partial, unmatched := match.Tally(results)
			cctx.recordRun(ctx, cmd.Name(), root, started,
				outcome.FilesTagged, outcome.SkippedNoName, outcome.Errors+outcome.MissingFiles)

			out := cmd.OutOrStdout()
			printSummary(out, []summaryLine{
				count("Rows in roster", outcome.TotalRows),
				count("Rows matched", matched),
				count("Rows partially matched", partial),
				count("Rows unmatched", unmatched),
				count("Files attempted", outcome.FilesAttempted),
				count("Files keyworded", outcome.FilesTagged),
				count("Missing files", outcome.MissingFiles),
				count("Rows skipped (no name)", outcome.SkippedNoName),
				count("Errors", outcome.Errors),
				textLine("Output root", outcome.OutputRoot),
				textLine("Failures log", outcome.FailuresLog),
			})

			if failed := outcome.Errors + outcome.MissingFiles; failed > 0 {
				return jobs.Wrap(jobs.ErrPartialFailure, "keywords", "run",
					fmt.Sprintf("%d of %d files not keyworded", failed, outcome.FilesAttempted+outcome.MissingFiles), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Roster CSV path")
	cmd.Flags().StringVar(&root, "root", "", "Image root folder")
	cmd.Flags().StringVar(&manual, "manual", "", "Extra keyword applied to every file")
	cmd.Flags().StringVar(&presetName, "preset", "photoday", "CSV column preset name")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (0 uses config, then CPU count)")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}
