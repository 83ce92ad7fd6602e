package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"photojobs/internal/preset"
)

func newPresetCommand(cctx *commandContext) *cobra.Command {
	presetCmd := &cobra.Command{
		Use:   "preset",
		Short: "CSV column preset utilities",
	}

	presetCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			names, err := preset.List(cfg.Paths.PresetsDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No presets installed. Run `photojobs preset init`.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	})

	presetCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Install the built-in presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			installed, err := preset.InstallBuiltins(cfg.Paths.PresetsDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(installed) == 0 {
				fmt.Fprintln(out, "All built-in presets already installed.")
				return nil
			}
			fmt.Fprintf(out, "Installed: %s\n", strings.Join(installed, ", "))
			return nil
		},
	})

	return presetCmd
}
