package cli

import (
	"fmt"
	"strings"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long:  `Loads the configuration file, checks it for errors and lists its presets in the order they apply.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration file %q is valid.\n\n", cfgFile)

		tbl := table.New("Preset", "Languages", "Command", "Input", "Output", "Timeout").WithWriter(out)
		for _, p := range cfg.Presets {
			timeout := "-"
			if p.Timeout > 0 {
				timeout = p.Timeout.String()
			}
			tbl.AddRow(p.Name, strings.Join(p.Languages, ","), strings.Join(p.Command, " "), p.InputMode, p.OutputMode, timeout)
		}
		tbl.Print()

		if len(cfg.BlockedPatterns) > 0 {
			fmt.Fprintf(out, "\nBlocked patterns: %s\n", strings.Join(cfg.BlockedPatterns, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
