package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/hannajonsd/unsafe-census/analyzer"
	"github.com/hannajonsd/unsafe-census/config"
	"github.com/hannajonsd/unsafe-census/logger"
)

var version = "dev"

// errUnsafeFound makes the process exit 1 under --fail-on-unsafe
var errUnsafeFound = errors.New("unsafe code found")

type scanOptions struct {
	configPath   string
	format       string
	workers      int
	advisories   bool
	failOnUnsafe bool
	verbose      bool
	output       string
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "unsafe-census",
		Short:         "Census of unsafe code in Rust repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newScanCmd(), newVersionCmd())
	return rootCmd
}

func newScanCmd() *cobra.Command {
	opts := &scanOptions{}

	scanCmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Classify unsafe functions, traits, trait impls and blocks",
		Long: `The scan command walks every Rust source file under path (default: the
current directory), attributes it to its crate and reports unsafe functions,
unsafe traits, unsafe trait impls and the number of unsafe and safe blocks.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return runScan(cmd, root, opts)
		},
	}

	flags := scanCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (default <path>/"+config.DefaultFile+")")
	flags.StringVarP(&opts.format, "format", "f", "text", "Output format: text, json, yaml")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Number of files analyzed in parallel (default: number of CPUs)")
	flags.BoolVar(&opts.advisories, "advisories", false, "Look up OSV advisories for every crate")
	flags.BoolVar(&opts.failOnUnsafe, "fail-on-unsafe", false, "Exit with status 1 when unsafe code is found")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the report to a file instead of stdout")

	return scanCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "unsafe-census %s\n", version)
		},
	}
}

func runScan(cmd *cobra.Command, root string, opts *scanOptions) error {
	logger.Init(cmd.ErrOrStderr(), opts.verbose)

	cfg, err := loadConfig(cmd, root, opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Timeout))
	defer cancel()

	ca := analyzer.New(analyzer.Options{
		Workers:     cfg.Workers,
		Exclude:     cfg.Exclude,
		Advisories:  cfg.Advisories,
		OSVEndpoint: cfg.OSVEndpoint,
		Timeout:     time.Duration(cfg.Timeout),
	})
	report, err := ca.AnalyzeRepository(ctx, root)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := analyzer.WriteReport(out, report, cfg.Format); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.FailOnUnsafe && report.HasUnsafe() {
		return errUnsafeFound
	}
	return nil
}

// loadConfig reads the config file and lets explicitly set flags override it
func loadConfig(cmd *cobra.Command, root string, opts *scanOptions) (config.Config, error) {
	path, optional := opts.configPath, false
	if path == "" {
		path, optional = filepath.Join(root, config.DefaultFile), true
	}

	cfg, err := config.Load(path, optional)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		if cfg.Format, err = config.ParseFormat(opts.format); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
		if cfg.Workers == 0 {
			cfg.Workers = runtime.NumCPU()
		}
	}
	if flags.Changed("advisories") {
		cfg.Advisories = opts.advisories
	}
	if flags.Changed("fail-on-unsafe") {
		cfg.FailOnUnsafe = opts.failOnUnsafe
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, errUnsafeFound) {
			logger.Warn("Unsafe code found")
		} else {
			logger.Error(err.Error())
		}
		os.Exit(1)
	}
}
