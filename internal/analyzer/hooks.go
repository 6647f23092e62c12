package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	"github.com/mrz1836/go-pranalyzer/internal/logging"
)

// Hook observes an analysis. Errors and panics raised by hooks are logged
// and never fail the analysis. Rule callbacks may run concurrently when
// parallel execution is enabled. Hooks are not called when rule
// registration fails; PostAnalysis is skipped when the run itself returns
// an error, such as an unknown rule id.
type Hook interface {
	PreAnalysis(ctx context.Context, actx *analysis.Context) error
	PostAnalysis(ctx context.Context, actx *analysis.Context, results []analysis.Result) error
	PreRule(ctx context.Context, actx *analysis.Context, ruleID string) error
	PostRule(ctx context.Context, actx *analysis.Context, ruleID string, results []analysis.Result) error
}

// NopHook implements every callback as a no-op. Embed it to implement
// only the callbacks you need.
type NopHook struct{}

// PreAnalysis implements Hook.
func (NopHook) PreAnalysis(context.Context, *analysis.Context) error { return nil }

// PostAnalysis implements Hook.
func (NopHook) PostAnalysis(context.Context, *analysis.Context, []analysis.Result) error {
	return nil
}

// PreRule implements Hook.
func (NopHook) PreRule(context.Context, *analysis.Context, string) error { return nil }

// PostRule implements Hook.
func (NopHook) PostRule(context.Context, *analysis.Context, string, []analysis.Result) error {
	return nil
}

// runHook calls one hook callback, converting panics into logged errors.
func (a *Analyzer) runHook(hook Hook, stage string, call func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("hook panicked: %v", r) //nolint:err113 // recovered value has no sentinel
			}
		}()
		return call()
	}()

	if err != nil {
		a.logger.WithFields(logrus.Fields{
			logging.StandardFields.Hook:      fmt.Sprintf("%T", hook),
			logging.StandardFields.Operation: stage,
			logging.StandardFields.Error:     err.Error(),
		}).Warn("Hook failed")
	}
}

// ruleObserver forwards engine rule callbacks to the analyzer's hooks.
type ruleObserver struct {
	analyzer *Analyzer
	hooks    []Hook
}

func (o ruleObserver) BeforeRule(ctx context.Context, actx *analysis.Context, ruleID string) {
	for _, h := range o.hooks {
		o.analyzer.runHook(h, "pre_rule", func() error { return h.PreRule(ctx, actx, ruleID) })
	}
}

func (o ruleObserver) AfterRule(ctx context.Context, actx *analysis.Context, ruleID string, results []analysis.Result) {
	for _, h := range o.hooks {
		o.analyzer.runHook(h, "post_rule", func() error { return h.PostRule(ctx, actx, ruleID, results) })
	}
}

// ProgressHook logs run progress, at most once per interval,
// plus a final summary.
type ProgressHook struct {
	NopHook

	logger   *logrus.Entry
	limiter  *rate.Limiter
	interval time.Duration
}

// NewProgressHook creates a progress hook logging at most once per interval.
func NewProgressHook(logger logrus.FieldLogger, interval time.Duration) *ProgressHook {
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressHook{
		logger:   logging.Component(logger, logging.ComponentNames.Analyzer),
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// PostRule implements Hook.
func (p *ProgressHook) PostRule(_ context.Context, actx *analysis.Context, ruleID string, _ []analysis.Result) error {
	if !p.limiter.Allow() {
		return nil
	}
	progress := actx.Progress()
	p.logger.WithFields(logrus.Fields{
		logging.StandardFields.PRID:     actx.PRID(),
		logging.StandardFields.RuleID:   ruleID,
		logging.StandardFields.Progress: fmt.Sprintf("%d/%d", progress.CompletedRules, progress.TotalRules),
	}).Infof("Analysis %.0f%% complete", progress.Percentage)
	return nil
}

// PostAnalysis implements Hook.
func (p *ProgressHook) PostAnalysis(_ context.Context, actx *analysis.Context, results []analysis.Result) error {
	fields := logrus.Fields{
		logging.StandardFields.PRID:        actx.PRID(),
		logging.StandardFields.Status:      actx.Status(),
		logging.StandardFields.ResultCount: len(results),
		logging.StandardFields.FailedCount: len(actx.FailedRules()),
		logging.StandardFields.DurationMs:  actx.Duration().Milliseconds(),
	}
	if stats := actx.SnapshotCacheStats(); stats.Hits+stats.Misses > 0 {
		fields["snapshot_reads"] = stats.Hits + stats.Misses
		fields["snapshot_cache_hit_rate"] = stats.HitRate
	}
	p.logger.WithFields(fields).Info("Analysis finished")
	return nil
}
