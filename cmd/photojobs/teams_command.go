package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"photojobs/internal/jobs"
	"photojobs/internal/teams"
)

func newTeamsCommand(cctx *commandContext) *cobra.Command {
	var (
		csvPath      string
		root         string
		teamField    string
		outDir       string
		batch        string
		fallbackTeam string
	)

	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Sort one image per person into per-team folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := cctx.ensureConfig(); err != nil {
				return err
			}
			ctx := cctx.commandCtx(cmd)
			logger := cctx.commandLogger(ctx)
			started := time.Now()

			params := teams.Params{
				CSVPath:      csvPath,
				Root:         root,
				OutDir:       outDir,
				Batch:        batch,
				TeamField:    teamField,
				FallbackTeam: fallbackTeam,
			}
			target := params.OutDir
			if target == "" {
				target = teams.OutputRoot(root)
			}
			release, err := acquireRunLock(target)
			if err != nil {
				return err
			}
			defer release()

			outcome, err := teams.Sort(ctx, params, logger)
			if err != nil {
				return err
			}

			cctx.recordRun(ctx, cmd.Name(), root, started,
				outcome.Copied, outcome.Skipped, len(outcome.Failures))

			out := cmd.OutOrStdout()
			for _, entry := range outcome.Failures {
				fmt.Fprintf(out, "failed: %s\n", entry)
			}
			printSummary(out, []summaryLine{
				count("Rows read", outcome.RowsRead),
				count("People", outcome.People),
				count("Copied", outcome.Copied),
				count("Skipped (exists)", outcome.Skipped),
				count("Missing files", outcome.MissingFiles),
				count("Teams", len(outcome.Teams)),
				textLine("Team folders", strings.Join(outcome.Teams, ", ")),
				textLine("Output root", outcome.OutputRoot),
			})

			if len(outcome.Failures) > 0 {
				return jobs.Wrap(jobs.ErrPartialFailure, "teams", "sort",
					fmt.Sprintf("%d rows failed", len(outcome.Failures)), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Generated job CSV path")
	cmd.Flags().StringVar(&root, "root", "", "Folder holding the renamed images")
	cmd.Flags().StringVar(&teamField, "team-field", "", "CSV column holding the team (default TEAMNAME)")
	cmd.Flags().StringVar(&outDir, "out", "", "Destination folder (default <root>_TeamIndSorted)")
	cmd.Flags().StringVar(&batch, "batch", "", "Only sort rows from this batch")
	cmd.Flags().StringVar(&fallbackTeam, "fallback-team", "", "Team for rows with a blank team cell (default NoTeam)")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}
