// Package analyzer is the entry point for analyzing pull requests: it builds
// the analysis context, selects rules from configuration, runs the engine
// and calls the registered hooks.
package analyzer

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	"github.com/mrz1836/go-pranalyzer/internal/config"
	"github.com/mrz1836/go-pranalyzer/internal/engine"
	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
	"github.com/mrz1836/go-pranalyzer/internal/logging"
	"github.com/mrz1836/go-pranalyzer/internal/metrics"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
	"github.com/mrz1836/go-pranalyzer/internal/rules/builtin"
)

// SnapshotProvider materializes the base and head trees of a pull request
// below dir and returns their paths.
type SnapshotProvider interface {
	Prepare(ctx context.Context, pr analysis.PRData, dir string) (base, head string, err error)
}

// Outcome is the result of analyzing one pull request.
type Outcome struct {
	Context *analysis.Context
	Results []analysis.Result
}

// Analyzer wires configuration, the rule registry and the engine together.
type Analyzer struct {
	cfg        *config.AnalysisConfig
	registry   *rules.Registry
	engine     *engine.Engine
	logger     *logrus.Entry
	baseLogger logrus.FieldLogger
	snapshots  SnapshotProvider
	middleware []engine.Middleware

	mu    sync.RWMutex
	hooks []Hook

	rulesMu         sync.Mutex
	rulesReady      bool
	rulesErr        error
	builtinsChecked bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRegistry uses reg instead of the process-wide registry.
func WithRegistry(reg *rules.Registry) Option {
	return func(a *Analyzer) { a.registry = reg }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Analyzer) { a.baseLogger = logger }
}

// WithSnapshotProvider enables base/head snapshots for every analysis.
func WithSnapshotProvider(p SnapshotProvider) Option {
	return func(a *Analyzer) { a.snapshots = p }
}

// WithMiddleware wraps every rule invocation.
func WithMiddleware(mw ...engine.Middleware) Option {
	return func(a *Analyzer) { a.middleware = append(a.middleware, mw...) }
}

// New creates an analyzer. A nil cfg uses the defaults. When cfg has a
// rule timeout, a timeout middleware is installed.
func New(cfg *config.AnalysisConfig, opts ...Option) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &Analyzer{cfg: cfg, baseLogger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = rules.Default()
	}
	if cfg.RuleTimeout > 0 {
		a.middleware = append(a.middleware, engine.TimeoutMiddleware(cfg.RuleTimeout))
	}
	a.logger = logging.Component(a.baseLogger, logging.ComponentNames.Analyzer)
	a.engine = engine.New(a.registry, a.baseLogger)
	return a
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() *config.AnalysisConfig { return a.cfg }

// Registry returns the rule catalogue in use.
func (a *Analyzer) Registry() *rules.Registry { return a.registry }

// Engine returns the rule engine in use.
func (a *Analyzer) Engine() *engine.Engine { return a.engine }

// AddHook registers a hook for subsequent analyses.
func (a *Analyzer) AddHook(h Hook) {
	if h == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, h)
}

func (a *Analyzer) snapshotHooks() []Hook {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Hook(nil), a.hooks...)
}

// EnsureRules registers rules from the configured rules directory, and the
// built-in rules when the registry is still empty. An unreadable rules
// directory is logged and retried on the next call; conflicting rule ids
// are permanent errors.
func (a *Analyzer) EnsureRules() error {
	a.rulesMu.Lock()
	defer a.rulesMu.Unlock()

	if a.rulesReady || a.rulesErr != nil {
		return a.rulesErr
	}

	ready := true
	if dir := a.cfg.RulesDirectory; dir != "" {
		if _, err := a.registry.DiscoverDir(dir); err != nil {
			if errors.Is(err, appErrors.ErrDuplicateRule) {
				a.rulesErr = err
				return err
			}
			ready = false
			a.logger.WithFields(logrus.Fields{
				"directory":                  dir,
				logging.StandardFields.Error: err.Error(),
			}).Warn("Rules directory unavailable, continuing with registered rules")
		}
	}

	if !a.builtinsChecked {
		a.builtinsChecked = true
		if a.registry.Len() == 0 {
			if err := builtin.Register(a.registry); err != nil {
				a.rulesErr = err
				return err
			}
		}
	}

	a.rulesReady = ready
	return nil
}

// AnalyzePR runs every configured rule against the pull request.
func (a *Analyzer) AnalyzePR(ctx context.Context, pr analysis.PRData) (*Outcome, error) {
	return a.analyze(ctx, pr, func(actx *analysis.Context, opts engine.RunOptions) ([]analysis.Result, error) {
		return a.engine.Run(ctx, actx, opts)
	})
}

// AnalyzePRByCategory runs the configured rules of one category.
func (a *Analyzer) AnalyzePRByCategory(ctx context.Context, pr analysis.PRData, category string) (*Outcome, error) {
	return a.analyze(ctx, pr, func(actx *analysis.Context, opts engine.RunOptions) ([]analysis.Result, error) {
		return a.engine.RunByCategory(ctx, actx, category, opts)
	})
}

// AnalyzePRByRule runs one rule regardless of the include and exclude sets.
func (a *Analyzer) AnalyzePRByRule(ctx context.Context, pr analysis.PRData, ruleID string) (*Outcome, error) {
	return a.analyze(ctx, pr, func(actx *analysis.Context, opts engine.RunOptions) ([]analysis.Result, error) {
		return a.engine.RunOne(ctx, ruleID, actx, opts)
	})
}

// AnalyzeBatch analyzes several pull requests concurrently, at most limit at
// a time. Outcomes are returned in input order.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, prs []analysis.PRData, limit int) ([]*Outcome, error) {
	if err := a.EnsureRules(); err != nil {
		return nil, err
	}

	outcomes := make([]*Outcome, len(prs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range prs {
		i := i
		g.Go(func() error {
			outcome, err := a.AnalyzePR(gctx, prs[i])
			if err != nil {
				return appErrors.WrapWithContext(err, "analyze PR "+prs[i].ID)
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

type runFunc func(actx *analysis.Context, opts engine.RunOptions) ([]analysis.Result, error)

func (a *Analyzer) analyze(ctx context.Context, pr analysis.PRData, run runFunc) (outcome *Outcome, err error) {
	actx := analysis.NewContext(pr)
	timer := metrics.StartTimer(a.logger.WithFields(logrus.Fields{
		logging.StandardFields.PRID:     pr.ID,
		logging.StandardFields.RepoName: pr.Repo,
	}), "analyze_pr")
	defer func() {
		if outcome != nil {
			timer.AddField(logging.StandardFields.ResultCount, len(outcome.Results)).
				AddField(logging.StandardFields.FailedCount, len(actx.FailedRules()))
		}
		timer.StopWithError(err)
	}()

	if err := a.EnsureRules(); err != nil {
		return nil, err
	}

	cleanup, err := a.prepareSnapshots(ctx, pr, actx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	hooks := a.snapshotHooks()
	for _, h := range hooks {
		a.runHook(h, "pre_analysis", func() error { return h.PreAnalysis(ctx, actx) })
	}

	results, err := run(actx, engine.RunOptions{
		Filter:     BuildFilter(a.registry, a.cfg),
		Parallel:   a.cfg.ParallelExecution,
		MaxWorkers: a.cfg.MaxWorkers,
		Observer:   ruleObserver{analyzer: a, hooks: hooks},
		Middleware: a.middleware,
	})
	if err != nil {
		return nil, err
	}

	for _, h := range hooks {
		a.runHook(h, "post_analysis", func() error { return h.PostAnalysis(ctx, actx, results) })
	}

	return &Outcome{Context: actx, Results: results}, nil
}

// prepareSnapshots creates a temporary directory for the provider and
// returns the cleanup to run when the analysis ends.
func (a *Analyzer) prepareSnapshots(ctx context.Context, pr analysis.PRData, actx *analysis.Context) (func(), error) {
	if a.snapshots == nil {
		return actx.Close, nil
	}

	dir, err := os.MkdirTemp(a.cfg.SnapshotRoot, "pranalyzer-")
	if err != nil {
		return nil, appErrors.DirectoryCreateError(a.cfg.SnapshotRoot, err)
	}
	cleanup := func() {
		actx.Close()
		if a.cfg.KeepSnapshots {
			a.logger.WithField("snapshot_dir", dir).Debug("Keeping snapshots")
			return
		}
		if err := os.RemoveAll(dir); err != nil {
			a.logger.WithField(logging.StandardFields.Error, err.Error()).Warn("Failed to remove snapshots")
		}
	}

	base, head, err := a.snapshots.Prepare(ctx, pr, dir)
	if err == nil && base != "" {
		err = actx.SetBaseSnapshot(base)
	}
	if err == nil && head != "" {
		err = actx.SetHeadSnapshot(head)
	}
	if err != nil {
		cleanup()
		return nil, appErrors.WrapWithContext(err, "prepare snapshots")
	}
	return cleanup, nil
}
