package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photojobs/internal/history"
)

func newHistoryCommand(cctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent photojobs runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history database: %w", err)
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Command,
					run.Root,
					fmt.Sprintf("%d", run.Succeeded),
					fmt.Sprintf("%d", run.Skipped),
					fmt.Sprintf("%d", run.Failed),
					run.Status,
					run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Command", "Root", "OK", "Skip", "Fail", "Status", "Took"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}
