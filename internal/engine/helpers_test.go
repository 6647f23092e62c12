package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
)

var errBoom = errors.New("boom")

type analyzeFn func(ctx context.Context, actx *analysis.Context) ([]analysis.Result, error)

type stubRule struct {
	meta    rules.Metadata
	analyze analyzeFn
}

func (r *stubRule) Metadata() rules.Metadata { return r.meta }

func (r *stubRule) Analyze(ctx context.Context, actx *analysis.Context) ([]analysis.Result, error) {
	if r.analyze == nil {
		return nil, nil
	}
	return r.analyze(ctx, actx)
}

type decliningRule struct{ stubRule }

func (r *decliningRule) ShouldRun(*analysis.Context) bool { return false }

func stub(meta rules.Metadata, fn analyzeFn) rules.Factory {
	return func() (rules.Rule, error) { return &stubRule{meta: meta, analyze: fn}, nil }
}

// recorder tracks execution order across goroutines.
type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) record(id string) analyzeFn {
	return func(context.Context, *analysis.Context) ([]analysis.Result, error) {
		r.mu.Lock()
		r.ids = append(r.ids, id)
		r.mu.Unlock()
		return nil, nil
	}
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = nil
}

func (r *recorder) order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func newEngine(t *testing.T, factories ...rules.Factory) (*Engine, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	reg := rules.NewRegistry(logger)
	for _, f := range factories {
		require.NoError(t, reg.Register(f))
	}
	return New(reg, logger), hook
}

func newContext() *analysis.Context {
	return analysis.NewContext(analysis.PRData{ID: "7", Repo: "mrz1836/example"})
}

func ruleIDs(results []analysis.Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.RuleID
	}
	return ids
}

func hasWarning(hook *test.Hook, message string) bool {
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == message {
			return true
		}
	}
	return false
}

// doneSet is a concurrent set of finished rule ids.
type doneSet struct {
	mu sync.Mutex
	m  map[string]struct{}
}

func newDoneSet() *doneSet {
	return &doneSet{m: make(map[string]struct{})}
}

func (s *doneSet) add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = struct{}{}
}

func (s *doneSet) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[id]
	return ok
}
