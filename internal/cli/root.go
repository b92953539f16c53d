package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fjglira/mdcr/internal/config"
	"github.com/fjglira/mdcr/internal/executor"
	"github.com/fjglira/mdcr/internal/parser"
	"github.com/fjglira/mdcr/internal/runner"
	"github.com/fjglira/mdcr/internal/scanner"
)

var (
	cfgFile  string
	logLevel string
	verbose  bool
	log      = logrus.New()
)

// runFlags holds the flags of the root command.
type runFlags struct {
	check   bool
	dryRun  bool
	jobs    int
	include []string
	exclude []string
	summary bool
}

var flags runFlags

// rootCmd is the base command for mdcr.
var rootCmd = &cobra.Command{
	Use:   "mdcr [flags] <path>...",
	Short: "Run the code blocks of Markdown files through configured commands",
	Long: `mdcr finds fenced code blocks in Markdown files and runs each one through
the presets configured for its language. In replace mode a block whose
content differs from the command output is rewritten; with --check nothing
is written and any difference fails the run.

Presets are read from a TOML, YAML or JSON file (mdcr.toml by default).`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runTargets(cmd.Context(), cfg, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path, TOML, YAML or JSON (default: first of mdcr.toml, mdcr.yaml, mdcr.yml, mdcr.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "log level (error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set the log level to trace")

	rootCmd.Flags().BoolVar(&flags.check, "check", false, "do not modify files; fail on any mismatch or command failure")
	rootCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "do not modify files; report problems as warnings and never fail")
	rootCmd.Flags().IntVarP(&flags.jobs, "jobs", "j", runtime.NumCPU(), "number of files processed in parallel")
	rootCmd.Flags().StringSliceVar(&flags.include, "include", config.DefaultInclude, "glob patterns selecting files inside directory targets")
	rootCmd.Flags().StringSliceVar(&flags.exclude, "exclude", config.DefaultExclude, "glob patterns excluded inside directory targets")
	rootCmd.Flags().BoolVar(&flags.summary, "summary", false, "print a per-file summary table")

	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
}

func setupLogger() error {
	level := logLevel
	if verbose {
		level = "trace"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log value %q: %w", level, err)
	}
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !verbose})
	return nil
}

// loadConfig reads --config, or the first of mdcr.toml, mdcr.yaml, mdcr.yml
// and mdcr.json found in the working directory when the flag is not set.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		cfgFile = config.Locate(".")
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	log.Debugf("Loaded %d preset(s) from %s", len(cfg.Presets), cfgFile)
	return cfg, nil
}

// runTargets wires all components and runs them over targets.
func runTargets(ctx context.Context, cfg *config.Config, targets []string) error {
	if flags.check && flags.dryRun {
		log.Warn("--dry-run takes precedence over --check")
	}

	exec := executor.NewCommandExecutor(log)
	exec.BlockedPatterns = cfg.BlockedPatterns

	r := runner.NewRunner(
		cfg,
		scanner.NewScanner(true),
		parser.NewDefaultRegistry(),
		exec,
		log,
	)

	summary, err := r.Run(ctx, runner.Options{
		Targets:   targets,
		Include:   flags.include,
		Exclude:   flags.exclude,
		CheckOnly: flags.check,
		DryRun:    flags.dryRun,
		Jobs:      flags.jobs,
	})
	if err != nil {
		return err
	}

	if flags.summary {
		printSummary(os.Stdout, summary)
	}

	if summary.Failed() {
		return runner.ErrRunFailed
	}
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, runner.ErrRunFailed) {
			log.Error(err)
		}
		return 1
	}
	return 0
}
