package cli

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	"github.com/mrz1836/go-pranalyzer/internal/config"
	"github.com/mrz1836/go-pranalyzer/internal/store"
)

// createHistoryCmd creates the history command
func createHistoryCmd(flags *Flags) *cobra.Command {
	var (
		limit int
		runID uint
	)

	cmd := &cobra.Command{
		Use:   "history [pr-id]",
		Short: "Show stored analysis runs",
		Long: `Show analysis runs saved by the result store, newest first.
Use --run to print the findings of a single run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			writer := writerFor(cmd)

			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			path := cfg.Store.Path
			if path == "" {
				path = config.DefaultStorePath
			}
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				writer.Info("No stored runs")
				return nil
			}

			s, err := store.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ctx := cmd.Context()
			if runID != 0 {
				run, err := s.GetRun(ctx, runID)
				if err != nil {
					return err
				}
				counts, err := s.CountBySeverity(ctx, run.ID)
				if err != nil {
					return err
				}
				writer.Infof("Run %d for %s (%s, %d ms)", run.ID, run.PRID, run.Status, run.DurationMs)
				for _, sev := range []string{"critical", "error", "warning", "info"} {
					if counts[sev] > 0 {
						writer.Plainf("  %-8s %d", sev, counts[sev])
					}
				}
				for _, f := range run.Findings {
					sev, err := analysis.ParseSeverity(f.Severity)
					if err != nil {
						return err
					}
					writer.Finding(analysis.Result{
						RuleID:   f.RuleID,
						Severity: sev,
						Message:  f.Message,
						FilePath: f.FilePath,
						Line:     f.Line,
						Column:   f.Column,
					})
				}
				return nil
			}

			prID := ""
			if len(args) == 1 {
				prID = args[0]
			}
			runs, err := s.ListRuns(ctx, prID, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				writer.Info("No stored runs")
				return nil
			}
			for _, run := range runs {
				writer.Plainf("%5d  %s  %-12s %-9s %d/%d rules, %d failed, %d findings",
					run.ID, run.CreatedAt.Format(time.RFC3339), run.PRID, run.Status,
					run.CompletedRules, run.TotalRules, run.FailedRules, run.ResultCount)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	cmd.Flags().UintVar(&runID, "run", 0, "Show the findings of this run")

	return cmd
}
