package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/exo-habitability/pkg/config"
	"github.com/David-Botos/exo-habitability/pkg/pipeline"
)

// flags overrides the environment configuration when set on the command line
type flags struct {
	input     string
	cache     string
	output    string
	policy    string
	logLevel  string
	logFormat string
}

type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for structural failures (unreadable source, cache or output)
// and 1 for everything else
func exitCode(err error) int {
	if pipeline.IsFatal(err) {
		return 2
	}
	return 1
}

func rootCommand() *cobra.Command {
	var f flags
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "exohab",
		Short:         "Exoplanet habitability pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd, &f)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&f.input, "input", "", "Source spreadsheet (.csv or .xlsx)")
	rootCmd.PersistentFlags().StringVar(&f.cache, "cache", "", "Snapshot path")
	rootCmd.PersistentFlags().StringVar(&f.output, "output", "", "Chart output directory")
	rootCmd.PersistentFlags().StringVar(&f.policy, "cache-policy", "", "Cache policy: presence or fingerprint")
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&f.logFormat, "log-format", "", "Log format (json or console)")

	rootCmd.AddCommand(
		setupRunCommand(a),
		setupVerifyCommand(a),
		setupCacheCommand(a),
		setupHistoryCommand(a),
	)
	return rootCmd
}

// initialize loads the configuration, applies flag overrides and builds the logger
func (a *app) initialize(cmd *cobra.Command, f *flags) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	pf := cmd.Flags()
	if pf.Changed("input") {
		cfg.InputPath = f.input
	}
	if pf.Changed("cache") {
		cfg.CachePath = f.cache
	}
	if pf.Changed("output") {
		cfg.OutputDir = f.output
	}
	if pf.Changed("cache-policy") {
		cfg.CachePolicy = config.CachePolicy(f.policy)
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if pf.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) pipeline() (*pipeline.Pipeline, error) {
	return pipeline.NewPipeline(a.cfg, a.logger)
}

func setupRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Clean the source table, render charts and print habitable planets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.Run(cmd.Context(), cmd.OutOrStdout())
			if res != nil && res.Errors != nil {
				printIssues(cmd, res.Errors)
			}
			return err
		},
	}
}

func setupVerifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Compare the snapshot with a fresh build from the source file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			report, err := p.Verify(cmd.Context())
			if err != nil {
				return err
			}
			printVerification(cmd, report)
			if !report.OK() {
				return errors.New("snapshot does not match a fresh build")
			}
			return nil
		},
	}
}

func setupCacheCommand(a *app) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the cleaned snapshot",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the snapshot so the next run rebuilds from source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			removed, err := p.ClearCache()
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", a.cfg.CachePath)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "No snapshot at %s\n", a.cfg.CachePath)
			}
			return nil
		},
	})
	return cacheCmd
}

func setupHistoryCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs recorded in the database store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			runs, err := p.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetAutoFormatHeaders(false)
			table.SetHeader([]string{"Run", "Started", "Duration", "Cache hit", "Rows read", "Rows written", "Habitable", "Status"})
			for _, r := range runs {
				table.Append([]string{
					r.RunID,
					r.StartedAt.Local().Format(time.RFC3339),
					r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
					strconv.FormatBool(r.CacheHit),
					strconv.Itoa(r.RowsRead),
					strconv.Itoa(r.RowsWritten),
					strconv.Itoa(r.Habitable),
					r.Status,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}

// printIssues writes the recoverable data issues of a run to stderr
func printIssues(cmd *cobra.Command, eh *pipeline.ErrorHandler) {
	summary := eh.GetErrorSummary()
	if len(summary) == 0 {
		return
	}
	samples := eh.GetErrorSamples()

	table := tablewriter.NewWriter(cmd.ErrOrStderr())
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Issue", "Count", "Planet", "Column", "Value"})
	for _, category := range []pipeline.ErrorCategory{pipeline.ErrorCategoryRowLevel, pipeline.ErrorCategoryNumericDomain} {
		count := summary[category]
		if count == 0 {
			continue
		}
		for i, op := range samples[category] {
			countCell := ""
			if i == 0 {
				countCell = strconv.Itoa(count)
			}
			table.Append([]string{category.String(), countCell, op.RowIdentifier, op.ColumnName, fmt.Sprint(op.OriginalValue)})
		}
	}
	table.Render()
}

func printVerification(cmd *cobra.Command, r *pipeline.VerificationReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Snapshot:    %s\n", r.CachePath)
	fmt.Fprintf(out, "Source:      %s\n", r.SourcePath)
	fmt.Fprintf(out, "Fingerprint: match=%t\n", r.FingerprintMatches)
	fmt.Fprintf(out, "Rows:        cached=%d fresh=%d\n", r.CachedRows, r.FreshRows)
	if r.StoreChecked {
		fmt.Fprintf(out, "Raw store:   %d rows\n", r.StoredRawRows)
	}

	if len(r.Discrepancies) > 0 {
		fmt.Fprintf(out, "\n%d discrepancies (showing %d)\n", r.TotalDiscrepancies, len(r.Discrepancies))
		table := tablewriter.NewWriter(out)
		table.SetAutoFormatHeaders(false)
		table.SetHeader([]string{"Row", "Planet", "Column", "Snapshot", "Fresh", "Issue"})
		for _, d := range r.Discrepancies {
			table.Append([]string{strconv.Itoa(d.Row), d.RowID, d.ColumnName, d.CachedValue, d.FreshValue, d.Discrepancy})
		}
		table.Render()
	}

	if len(r.IntegrityIssues) > 0 {
		fmt.Fprintf(out, "\n%d integrity issues\n", len(r.IntegrityIssues))
		table := tablewriter.NewWriter(out)
		table.SetAutoFormatHeaders(false)
		table.SetHeader([]string{"Row", "Planet", "Column", "Stored", "Expected"})
		for _, i := range r.IntegrityIssues {
			table.Append([]string{strconv.Itoa(i.Row), i.RowID, i.ColumnName, i.Stored, i.Expected})
		}
		table.Render()
	}
}
