package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fjglira/mdcr/internal/config"
	tmpl "github.com/fjglira/mdcr/internal/template"
)

var (
	initFormat string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long:  `Writes a starter configuration to the --config path. Existing files are kept unless --force is given.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := tmpl.NewBuiltinEngine()
		if err != nil {
			return err
		}

		rendered, err := engine.Render(initFormat, tmpl.DefaultConfigData())
		if err != nil {
			return err
		}

		path := cfgFile
		if path == "" {
			path = config.DefaultFileFor(initFormat)
		}

		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists, use --force to overwrite it", path)
		}

		if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initFormat, "format", "toml", "config format (toml, yaml)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}
