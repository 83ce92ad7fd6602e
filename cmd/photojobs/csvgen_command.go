package main

import (
	"time"

	"github.com/spf13/cobra"

	"photojobs/internal/csvgen"
	"photojobs/internal/jobs"
	"photojobs/internal/match"
	"photojobs/internal/preset"
	"photojobs/internal/roster"
)

func newCsvgenCommand(cctx *commandContext) *cobra.Command {
	var (
		csvPath       string
		root          string
		jobName       string
		teamField     string
		outDir        string
		presetName    string
		batchSuffixes string
	)

	cmd := &cobra.Command{
		Use:   "csvgen",
		Short: "Generate per-file-type job CSVs and a rename plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			ctx := cctx.commandCtx(cmd)
			logger := cctx.commandLogger(ctx)
			started := time.Now()

			suffixes, err := csvgen.ParseBatchSuffixes(batchSuffixes)
			if err != nil {
				return jobs.Wrap(jobs.ErrConfiguration, "csvgen", "parse flags", "", err)
			}

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

			target := outDir
			if target == "" {
				target = root
			}
			output, err := csvgen.Generate(rst, results, csvgen.Params{
				JobName:       jobName,
				TeamField:     teamField,
				BatchSuffixes: suffixes,
				OutDir:        target,
			}, logger)
			if err != nil {
				return err
			}

			matched, partial, unmatched := match.Tally(results)
			cctx.recordRun(ctx, cmd.Name(), root, started, output.Rows, 0, unmatched)

			lines := []summaryLine{
				count("Rows in roster", len(rst.Records)),
				count("Rows matched", matched),
				count("Rows partially matched", partial),
				count("Rows unmatched", unmatched),
				count("Output rows", output.Rows),
			}
			for _, ft := range sortedKeys(output.ByType) {
				lines = append(lines, count("Rows ("+ft+")", output.ByType[ft]))
			}
			lines = append(lines,
				count("Batches", len(output.Batches)),
				count("Files written", len(output.Files)),
				textLine("Output dir", target),
			)
			printSummary(cmd.OutOrStdout(), lines)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Roster CSV path")
	cmd.Flags().StringVar(&root, "root", "", "Image root folder")
	cmd.Flags().StringVar(&jobName, "jobname", "", "Job name used in output filenames and rename targets")
	cmd.Flags().StringVar(&teamField, "team-field", "", "Roster column holding the team value")
	cmd.Flags().StringVar(&outDir, "outdir", "", "Directory for generated files (default the image root)")
	cmd.Flags().StringVar(&presetName, "preset", "photoday", "CSV column preset name")
	cmd.Flags().StringVar(&batchSuffixes, "batch-suffixes", "", "Per-batch rename suffixes, e.g. AB12:_day1,CD34:_day2")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("root")
	_ = cmd.MarkFlagRequired("jobname")
	return cmd
}
