// Package engine orders rules by dependency and priority and runs them
// against an analysis context with per-rule failure isolation.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
	"github.com/mrz1836/go-pranalyzer/internal/logging"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
)

// ExecutionTimeKey is the result metadata key holding rule run time in seconds.
const ExecutionTimeKey = "execution_time"

// FailurePrefix starts the message of the result synthesized for a failed rule.
const FailurePrefix = "Rule execution failed: "

// Filter selects rule ids for a run.
type Filter func(ruleID string) bool

// RuleObserver is notified around each rule. In parallel runs it is called
// from worker goroutines.
type RuleObserver interface {
	BeforeRule(ctx context.Context, actx *analysis.Context, ruleID string)
	AfterRule(ctx context.Context, actx *analysis.Context, ruleID string, results []analysis.Result)
}

// RunOptions controls one run.
type RunOptions struct {
	Filter     Filter
	Parallel   bool
	MaxWorkers int
	Observer   RuleObserver
	Middleware []Middleware
}

// Engine runs registered rules against analysis contexts.
type Engine struct {
	registry *rules.Registry
	logger   *logrus.Entry
}

// New creates an engine over a registry.
func New(registry *rules.Registry, logger logrus.FieldLogger) *Engine {
	return &Engine{
		registry: registry,
		logger:   logging.Component(logger, logging.ComponentNames.Engine),
	}
}

// Registry returns the engine's rule catalogue.
func (e *Engine) Registry() *rules.Registry {
	return e.registry
}

// Plan resolves the rules selected by filter and returns their execution order
// without running them.
func (e *Engine) Plan(filter Filter) Plan {
	return Order(nodesFor(e.selectDefinitions(e.registry.All(), filter)))
}

// Run executes every registered rule accepted by opts.Filter and returns the
// results produced by this run in completion order. Rule failures are
// recorded as error results; only misuse of the context returns an error.
func (e *Engine) Run(ctx context.Context, actx *analysis.Context, opts RunOptions) ([]analysis.Result, error) {
	return e.run(ctx, actx, e.selectDefinitions(e.registry.All(), opts.Filter), opts)
}

// RunByCategory executes the rules of one category, further narrowed by opts.Filter.
func (e *Engine) RunByCategory(ctx context.Context, actx *analysis.Context, category string, opts RunOptions) ([]analysis.Result, error) {
	return e.run(ctx, actx, e.selectDefinitions(e.registry.ByCategory(category), opts.Filter), opts)
}

// RunOne executes a single rule outside the ordering machinery. The context
// must not be running; it is started and completed around the rule.
func (e *Engine) RunOne(ctx context.Context, ruleID string, actx *analysis.Context, opts RunOptions) ([]analysis.Result, error) {
	def, err := e.registry.Lookup(ruleID)
	if err != nil {
		return nil, err
	}
	rule, err := def.New()
	if err != nil {
		return nil, appErrors.RuleConstructionError(ruleID, err)
	}
	if rule == nil {
		return nil, appErrors.RuleConstructionError(ruleID, appErrors.ErrInvalidRule)
	}

	if err := actx.Start(1); err != nil {
		return nil, err
	}
	results := e.execute(ctx, actx, Job{ID: ruleID, Metadata: def.Metadata, Rule: rule}, opts)
	if err := actx.Complete(); err != nil {
		return results, err
	}
	return results, nil
}

func (e *Engine) selectDefinitions(defs []rules.Definition, filter Filter) []rules.Definition {
	if filter == nil {
		return defs
	}
	selected := defs[:0:0]
	for _, def := range defs {
		if filter(def.Metadata.ID) {
			selected = append(selected, def)
		}
	}
	return selected
}

func nodesFor(defs []rules.Definition) []Node {
	nodes := make([]Node, len(defs))
	for i, def := range defs {
		nodes[i] = Node{ID: def.Metadata.ID, Priority: def.Metadata.Priority, Dependencies: def.Metadata.Dependencies}
	}
	return nodes
}

// instantiate builds one rule per definition. Rules that fail to construct
// are logged and left out of the run.
func (e *Engine) instantiate(defs []rules.Definition) map[string]Job {
	jobs := make(map[string]Job, len(defs))
	for _, def := range defs {
		rule, err := def.New()
		if err == nil && rule == nil {
			err = appErrors.ErrInvalidRule
		}
		if err != nil {
			e.logger.WithFields(logrus.Fields{
				logging.StandardFields.RuleID: def.Metadata.ID,
				logging.StandardFields.Error:  appErrors.RuleConstructionError(def.Metadata.ID, err).Error(),
			}).Warn("Rule failed to construct, excluding it from the run")
			continue
		}
		jobs[def.Metadata.ID] = Job{ID: def.Metadata.ID, Metadata: def.Metadata, Rule: rule}
	}
	return jobs
}

func (e *Engine) run(ctx context.Context, actx *analysis.Context, defs []rules.Definition, opts RunOptions) ([]analysis.Result, error) {
	built := e.instantiate(defs)
	survivors := make([]rules.Definition, 0, len(built))
	for _, def := range defs {
		if _, ok := built[def.Metadata.ID]; ok {
			survivors = append(survivors, def)
		}
	}

	plan := Order(nodesFor(survivors))
	if plan.HasCycle() {
		e.logger.WithField(logging.StandardFields.RuleIDs, plan.Cycle).
			Warn("Circular rule dependency detected, running remaining rules in id order")
	}

	if err := actx.Start(len(plan.Order)); err != nil {
		return nil, err
	}

	log := e.logger.WithFields(logrus.Fields{
		logging.StandardFields.PRID:      actx.PRID(),
		logging.StandardFields.RepoName:  actx.Repo(),
		logging.StandardFields.RuleCount: len(plan.Order),
		logging.StandardFields.Parallel:  opts.Parallel,
	})
	if opts.Parallel {
		log = log.WithField(logging.StandardFields.MaxWorkers, opts.MaxWorkers)
	}
	log.Info("Starting rule run")
	start := time.Now()

	jobs := make([]Job, len(plan.Order))
	for i, id := range plan.Order {
		jobs[i] = built[id]
	}

	var (
		mu      sync.Mutex
		results []analysis.Result
	)
	collect := func(ctx context.Context, job Job) {
		produced := e.execute(ctx, actx, job, opts)
		mu.Lock()
		results = append(results, produced...)
		mu.Unlock()
	}

	e.executor(opts).Execute(ctx, jobs, collect)

	if err := actx.Complete(); err != nil {
		return results, err
	}

	log.WithFields(logrus.Fields{
		logging.StandardFields.ResultCount: len(results),
		logging.StandardFields.FailedCount: len(actx.FailedRules()),
		logging.StandardFields.DurationMs:  time.Since(start).Milliseconds(),
	}).Info("Rule run completed")

	return results, nil
}

func (e *Engine) executor(opts RunOptions) Executor {
	if opts.Parallel {
		return ParallelExecutor{MaxWorkers: opts.MaxWorkers, Logger: e.logger}
	}
	return SequentialExecutor{}
}

// execute runs one rule and records its outcome on the context.
func (e *Engine) execute(ctx context.Context, actx *analysis.Context, job Job, opts RunOptions) []analysis.Result {
	actx.MarkRuleStarted(job.ID)
	if opts.Observer != nil {
		opts.Observer.BeforeRule(ctx, actx, job.ID)
	}

	start := time.Now()
	results, err := safeAnalyze(ctx, actx, job, chain(job.Metadata, analyzeFunc(job.Rule), opts.Middleware))
	elapsed := time.Since(start)

	if err != nil {
		e.logger.WithFields(logrus.Fields{
			logging.StandardFields.RuleID:     job.ID,
			logging.StandardFields.Category:   job.Metadata.Category,
			logging.StandardFields.DurationMs: elapsed.Milliseconds(),
			logging.StandardFields.Error:      appErrors.RuleExecutionError(job.ID, err).Error(),
		}).Error("Rule failed")

		results = []analysis.Result{{
			RuleID:   job.ID,
			Severity: analysis.SeverityError,
			Message:  FailurePrefix + err.Error(),
			Metadata: map[string]interface{}{
				"error":          err.Error(),
				ExecutionTimeKey: elapsed.Seconds(),
			},
		}}
		actx.AddResults(results...)
		actx.MarkRuleFailed(job.ID)
	} else {
		stampExecutionTime(results, elapsed)
		actx.AddResults(results...)
		actx.MarkRuleCompleted(job.ID)
		e.logger.WithFields(logrus.Fields{
			logging.StandardFields.RuleID:      job.ID,
			logging.StandardFields.ResultCount: len(results),
			logging.StandardFields.DurationMs:  elapsed.Milliseconds(),
		}).Debug("Rule completed")
	}

	if opts.Observer != nil {
		opts.Observer.AfterRule(ctx, actx, job.ID, results)
	}
	return results
}

// safeAnalyze converts panics, including panics in ShouldRun, into errors.
func safeAnalyze(ctx context.Context, actx *analysis.Context, job Job, analyze AnalyzeFunc) (results []analysis.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("%w: %v", appErrors.ErrRulePanicked, r)
		}
	}()

	if applicable, ok := job.Rule.(rules.Applicable); ok && !applicable.ShouldRun(actx) {
		return nil, nil
	}
	return analyze(ctx, actx)
}

func stampExecutionTime(results []analysis.Result, elapsed time.Duration) {
	seconds := elapsed.Seconds()
	for i := range results {
		if _, set := results[i].Metadata[ExecutionTimeKey]; set {
			continue
		}
		metadata := make(map[string]interface{}, len(results[i].Metadata)+1)
		for k, v := range results[i].Metadata {
			metadata[k] = v
		}
		metadata[ExecutionTimeKey] = seconds
		results[i].Metadata = metadata
	}
}
