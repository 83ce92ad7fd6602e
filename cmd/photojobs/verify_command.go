package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photojobs/internal/jobs"
	"photojobs/internal/verify"
)

func newVerifyCommand(cctx *commandContext) *cobra.Command {
	var (
		root       string
		outDir     string
		keyword    string
		checkAll   bool
		sampleSize int
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Audit a keyword output tree against its source root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			ctx := cctx.commandCtx(cmd)
			logger := cctx.commandLogger(ctx)
			started := time.Now()

			v := verify.New(logger)
			report, err := v.Run(ctx, verify.Params{
				SourceRoot: root,
				OutputRoot: outDir,
				Keyword:    keyword,
				CheckAll:   checkAll,
				SampleSize: sampleSize,
				Binary:     cfg.ExifTool.Binary,
				Timeout:    time.Duration(cfg.ExifTool.TimeoutSeconds) * time.Second,
			})
			if err != nil {
				return err
			}

			failed := len(report.Missing) + len(report.MissingKeyword) + len(report.KeywordFailures)
			// Missing entries are source files with no output counterpart;
			// only keyword findings subtract from the output-file count.
			succeeded := report.OutputFiles - len(report.MissingKeyword) - len(report.KeywordFailures)
			cctx.recordRun(ctx, cmd.Name(), root, started, succeeded, 0, failed)

			out := cmd.OutOrStdout()
			for _, rel := range report.Missing {
				fmt.Fprintf(out, "missing output: %s\n", rel)
			}
			for _, rel := range report.Extra {
				fmt.Fprintf(out, "extra output: %s\n", rel)
			}
			for _, rel := range report.MissingKeyword {
				fmt.Fprintf(out, "keyword absent: %s\n", rel)
			}
			for _, entry := range report.KeywordFailures {
				fmt.Fprintf(out, "unreadable: %s\n", entry)
			}

			printSummary(out, []summaryLine{
				count("Source files", report.SourceFiles),
				count("Output files", report.OutputFiles),
				count("Missing outputs", len(report.Missing)),
				count("Extra outputs", len(report.Extra)),
				count("Keyword checked", report.KeywordChecked),
				count("Keyword absent", len(report.MissingKeyword)),
				count("Unreadable files", len(report.KeywordFailures)),
				textLine("Output root", report.OutputRoot),
			})

			if !report.Clean() {
				return jobs.Wrap(jobs.ErrPartialFailure, "verify", "audit",
					fmt.Sprintf("%d findings", failed), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Source image root")
	cmd.Flags().StringVar(&outDir, "out", "", "Output tree to audit (default <root>_keywords)")
	cmd.Flags().StringVar(&keyword, "keyword", "", "Expected keyword (default: any keyword at all must be present)")
	cmd.Flags().BoolVar(&checkAll, "all", false, "Keyword-check every output file instead of a sample")
	cmd.Flags().IntVar(&sampleSize, "sample", 0, "Sample size for the keyword check")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}
