package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	"github.com/mrz1836/go-pranalyzer/internal/analyzer"
	"github.com/mrz1836/go-pranalyzer/internal/config"
	"github.com/mrz1836/go-pranalyzer/internal/diff"
	"github.com/mrz1836/go-pranalyzer/internal/jsonutil"
	"github.com/mrz1836/go-pranalyzer/internal/logging"
	"github.com/mrz1836/go-pranalyzer/internal/output"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
	"github.com/mrz1836/go-pranalyzer/internal/store"
)

// analyzeFlags holds the flags of the analyze command
type analyzeFlags struct {
	FailOn     string
	Category   string
	Rule       string
	BaseDir    string
	HeadDir    string
	Parallel   bool
	MaxWorkers int
	JSON       bool
	Progress   time.Duration
}

// prReport is the JSON shape of one analyzed pull request
type prReport struct {
	PRID     string            `json:"pr_id"`
	Repo     string            `json:"repo,omitempty"`
	Status   analysis.Status   `json:"status"`
	Progress analysis.Progress `json:"progress"`
	Failed   []string          `json:"failed_rules,omitempty"`
	Results  []analysis.Result `json:"results"`
}

// createAnalyzeCmd creates the analyze command
func createAnalyzeCmd(flags *Flags) *cobra.Command {
	af := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze <pr-file>...",
		Short: "Analyze one or more pull requests",
		Long: `Analyze pull requests described by YAML or JSON files.

Each file holds the pull request id, repository and the changed files with
their patches. Findings below the configured min_severity are not shown.`,
		Example: `  # Analyze one pull request
  go-pranalyzer analyze pr.yaml

  # Run only the style rules, in parallel
  go-pranalyzer analyze pr.yaml --category style --parallel

  # Fail the build on any error finding
  go-pranalyzer analyze pr.yaml --fail-on error`,
		Aliases: []string{"a"},
		Args:    cobra.MinimumNArgs(1),
		RunE:    createRunAnalyze(flags, af),
	}

	cmd.Flags().StringVar(&af.FailOn, "fail-on", "", "Exit non-zero when a finding reaches this severity")
	cmd.Flags().StringVar(&af.Category, "category", "", "Run only the rules of this category")
	cmd.Flags().StringVar(&af.Rule, "rule", "", "Run only this rule, ignoring include and exclude lists")
	cmd.Flags().StringVar(&af.BaseDir, "base", "", "Checkout of the base branch; fills missing patches")
	cmd.Flags().StringVar(&af.HeadDir, "head", "", "Checkout of the head branch; fills missing patches")
	cmd.Flags().BoolVar(&af.Parallel, "parallel", false, "Run independent rules concurrently")
	cmd.Flags().IntVar(&af.MaxWorkers, "max-workers", 0, "Maximum concurrent rules (default from config)")
	cmd.Flags().BoolVar(&af.JSON, "json", false, "Print findings as JSON")
	cmd.Flags().DurationVar(&af.Progress, "progress-interval", time.Second, "Minimum time between progress log lines")

	return cmd
}

// createRunAnalyze creates the analyze run function
func createRunAnalyze(flags *Flags, af *analyzeFlags) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := loggerFrom(cmd).WithField(logging.StandardFields.Operation, "analyze")
		writer := writerFor(cmd)

		if af.Rule != "" && af.Category != "" {
			return ErrConflictingSelectors
		}

		cfg, err := loadConfig(cmd, flags)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("parallel") {
			cfg.ParallelExecution = af.Parallel
		}
		if af.MaxWorkers > 0 {
			cfg.MaxWorkers = af.MaxWorkers
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		var failOn analysis.Severity
		if af.FailOn != "" {
			if failOn, err = analysis.ParseSeverity(af.FailOn); err != nil {
				return err
			}
		}

		prs := make([]analysis.PRData, 0, len(args))
		for _, path := range args {
			pr, err := loadPRFile(path)
			if err != nil {
				return err
			}
			if af.BaseDir != "" || af.HeadDir != "" {
				if err := diff.FillPatches(&pr, af.BaseDir, af.HeadDir); err != nil {
					return err
				}
			}
			prs = append(prs, pr)
		}

		opts := []analyzer.Option{
			analyzer.WithLogger(logger),
			analyzer.WithRegistry(rules.NewRegistry(logger)),
		}
		if af.BaseDir != "" || af.HeadDir != "" {
			opts = append(opts, analyzer.WithSnapshotProvider(dirSnapshots{base: af.BaseDir, head: af.HeadDir}))
		}
		a := analyzer.New(cfg, opts...)
		a.AddHook(analyzer.NewProgressHook(logger, af.Progress))

		if cfg.Store.Enabled {
			s, err := store.Open(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			a.AddHook(store.NewHook(s, logger))
		}

		outcomes, err := runAnalyses(cmd, a, prs, af)
		if err != nil {
			return err
		}

		return report(writer, cfg, outcomes, af, failOn)
	}
}

// runAnalyses analyzes the pull requests, concurrently when no single rule
// or category is selected.
func runAnalyses(cmd *cobra.Command, a *analyzer.Analyzer, prs []analysis.PRData, af *analyzeFlags) ([]*analyzer.Outcome, error) {
	ctx := cmd.Context()

	if af.Rule == "" && af.Category == "" {
		return a.AnalyzeBatch(ctx, prs, a.Config().MaxWorkers)
	}

	outcomes := make([]*analyzer.Outcome, 0, len(prs))
	for _, pr := range prs {
		var (
			outcome *analyzer.Outcome
			err     error
		)
		if af.Rule != "" {
			outcome, err = a.AnalyzePRByRule(ctx, pr, af.Rule)
		} else {
			outcome, err = a.AnalyzePRByCategory(ctx, pr, af.Category)
		}
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// report prints the outcomes and applies the --fail-on threshold.
func report(writer *output.ColoredWriter, cfg *config.AnalysisConfig, outcomes []*analyzer.Outcome, af *analyzeFlags, failOn analysis.Severity) error {
	minSeverity := cfg.MinimumSeverity()
	reports := make([]prReport, 0, len(outcomes))
	failed := false

	for _, outcome := range outcomes {
		actx := outcome.Context
		shown := make([]analysis.Result, 0, len(outcome.Results))
		for _, r := range outcome.Results {
			if r.Severity >= minSeverity {
				shown = append(shown, r)
			}
			if af.FailOn != "" && r.Severity >= failOn {
				failed = true
			}
		}
		analysis.SortResults(shown, analysis.BySeverity)

		if af.JSON {
			reports = append(reports, prReport{
				PRID:     actx.PRID(),
				Repo:     actx.Repo(),
				Status:   actx.Status(),
				Progress: actx.Progress(),
				Failed:   actx.FailedRules(),
				Results:  shown,
			})
			continue
		}

		output.Findings(writer, shown)
		output.Summary(writer, actx, shown)
	}

	if af.JSON {
		text, err := jsonutil.PrettyPrint(reports)
		if err != nil {
			return err
		}
		writer.Plain(text)
	}

	if failed {
		return fmt.Errorf("%w (%s)", ErrFindingsAtThreshold, failOn)
	}
	return nil
}
