package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
)

// AnalyzeFunc is the call signature of Rule.Analyze.
type AnalyzeFunc func(ctx context.Context, actx *analysis.Context) ([]analysis.Result, error)

// Middleware wraps a rule's analyze call. The first middleware is outermost.
type Middleware func(meta rules.Metadata, next AnalyzeFunc) AnalyzeFunc

func analyzeFunc(rule rules.Rule) AnalyzeFunc {
	return rule.Analyze
}

func chain(meta rules.Metadata, analyze AnalyzeFunc, middleware []Middleware) AnalyzeFunc {
	for i := len(middleware) - 1; i >= 0; i-- {
		if middleware[i] != nil {
			analyze = middleware[i](meta, analyze)
		}
	}
	return analyze
}

// TimeoutMiddleware fails a rule that has not returned within d. The rule's
// context is canceled at the deadline; a rule that ignores its context keeps
// running in the background but its results are discarded.
func TimeoutMiddleware(d time.Duration) Middleware {
	return func(meta rules.Metadata, next AnalyzeFunc) AnalyzeFunc {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, actx *analysis.Context) ([]analysis.Result, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			type outcome struct {
				results []analysis.Result
				err     error
			}
			done := make(chan outcome, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- outcome{err: fmt.Errorf("%w: %v", appErrors.ErrRulePanicked, r)}
					}
				}()
				results, err := next(ctx, actx)
				done <- outcome{results: results, err: err}
			}()

			timedOut := func() bool { return errors.Is(ctx.Err(), context.DeadlineExceeded) }
			select {
			case out := <-done:
				// a rule returning because its deadline passed still timed out
				if timedOut() {
					return nil, fmt.Errorf("%w: %s after %s", appErrors.ErrRuleTimeout, meta.ID, d)
				}
				return out.results, out.err
			case <-ctx.Done():
				if !timedOut() {
					return nil, ctx.Err()
				}
				return nil, fmt.Errorf("%w: %s after %s", appErrors.ErrRuleTimeout, meta.ID, d)
			}
		}
	}
}
