package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	"github.com/mrz1836/go-pranalyzer/internal/config"
	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
)

// writingProvider materializes one file per side.
type writingProvider struct {
	dirs []string
	err  error
}

func (p *writingProvider) Prepare(_ context.Context, pr analysis.PRData, dir string) (string, string, error) {
	p.dirs = append(p.dirs, dir)
	if p.err != nil {
		return "", "", p.err
	}
	base := filepath.Join(dir, "base")
	head := filepath.Join(dir, "head")
	for side, content := range map[string]string{base: "old " + pr.ID, head: "new " + pr.ID} {
		if err := os.MkdirAll(side, 0o750); err != nil {
			return "", "", err
		}
		if err := os.WriteFile(filepath.Join(side, "main.go"), []byte(content), 0o600); err != nil {
			return "", "", err
		}
	}
	return base, head, nil
}

// headReader reports the head content of main.go.
type headReader struct{}

func (headReader) Metadata() rules.Metadata { return rules.Metadata{ID: "head-reader"} }

func (headReader) Analyze(_ context.Context, actx *analysis.Context) ([]analysis.Result, error) {
	content, found, err := actx.FileContentHead("main.go")
	if err != nil || !found {
		return nil, err
	}
	return []analysis.Result{{RuleID: "head-reader", Message: content}}, nil
}

func TestSnapshotsPreparedAndRemoved(t *testing.T) {
	root := t.TempDir()
	provider := &writingProvider{}
	a, logs := newAnalyzer(t, &config.AnalysisConfig{SnapshotRoot: root, MaxWorkers: 1},
		func() (rules.Rule, error) { return headReader{}, nil })
	a.snapshots = provider
	a.AddHook(NewProgressHook(a.baseLogger, time.Hour))

	outcome, err := a.AnalyzePR(context.Background(), analysis.PRData{ID: "9"})
	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "new 9", outcome.Results[0].Message)
	assert.Equal(t, 1, outcome.Context.SnapshotCacheStats().Entries)

	var finished *logrus.Entry
	for _, entry := range logs.AllEntries() {
		if entry.Message == "Analysis finished" {
			finished = entry
		}
	}
	require.NotNil(t, finished)
	assert.Contains(t, finished.Data, "snapshot_reads")
	assert.Contains(t, finished.Data, "snapshot_cache_hit_rate")

	require.Len(t, provider.dirs, 1)
	_, err = os.Stat(provider.dirs[0])
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotsKept(t *testing.T) {
	root := t.TempDir()
	provider := &writingProvider{}
	a, _ := newAnalyzer(t, &config.AnalysisConfig{SnapshotRoot: root, KeepSnapshots: true, MaxWorkers: 1},
		func() (rules.Rule, error) { return headReader{}, nil })
	a.snapshots = provider

	outcome, err := a.AnalyzePR(context.Background(), analysis.PRData{ID: "9"})
	require.NoError(t, err)

	require.Len(t, provider.dirs, 1)
	_, err = os.Stat(provider.dirs[0])
	require.NoError(t, err)

	content, found, err := outcome.Context.FileContentBase("main.go")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "old 9", content)
}

func TestSnapshotProviderFailure(t *testing.T) {
	root := t.TempDir()
	provider := &writingProvider{err: appErrors.ErrTest}
	a, _ := newAnalyzer(t, &config.AnalysisConfig{SnapshotRoot: root, MaxWorkers: 1})
	a.snapshots = provider

	_, err := a.AnalyzePR(context.Background(), analysis.PRData{ID: "9"})
	require.ErrorIs(t, err, appErrors.ErrTest)

	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestWithSnapshotProviderOption(t *testing.T) {
	provider := &writingProvider{}
	a := New(nil, WithSnapshotProvider(provider), WithRegistry(rules.NewRegistry(nil)))
	assert.Same(t, provider, a.snapshots)
	assert.NotNil(t, a.Config())
	assert.NotNil(t, a.Engine())
}
