package analysis

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

func samplePR() PRData {
	return PRData{
		ID:   "42",
		Repo: "mrz1836/example",
		Files: []FileChange{
			{Filename: "b.go", Status: FileModified, Patch: "@@", ChangedLines: []int{1}},
			{Filename: "README.md", Status: FileAdded},
			{Filename: "a.py", Status: FileAdded, ChangedLines: []int{5}},
			{Filename: "b.go", Status: FileModified, Patch: "@@ last", ChangedLines: []int{2}},
		},
	}
}

func TestNewContext(t *testing.T) {
	c := NewContext(samplePR())

	assert.Equal(t, "42", c.PRID())
	assert.Equal(t, "mrz1836/example", c.Repo())
	assert.Empty(t, c.PR().Files)
	assert.Equal(t, StatusPending, c.Status())

	files := c.FileChanges()
	require.Len(t, files, 3)
	assert.Equal(t, "README.md", files[0].Filename)
	assert.Equal(t, "a.py", files[1].Filename)
	assert.Equal(t, "b.go", files[2].Filename)

	last, ok := c.FileChange("b.go")
	require.True(t, ok)
	assert.Equal(t, "@@ last", last.Patch)
	assert.Equal(t, []int{2}, last.ChangedLines)

	noPatch, ok := c.FileChange("a.py")
	require.True(t, ok)
	assert.Empty(t, noPatch.ChangedLines)

	code := c.CodeFiles()
	require.Len(t, code, 2)
	assert.Equal(t, "a.py", code[0].Filename)
}

func TestContextLifecycle(t *testing.T) {
	c := NewContext(PRData{ID: "1"})

	p := c.Progress()
	assert.Equal(t, StatusPending, p.Status)
	assert.InDelta(t, 0.0, p.Percentage, 0.001)
	assert.Zero(t, c.Duration())

	require.NoError(t, c.Start(4))
	c.MarkRuleStarted("r1")
	assert.Equal(t, "r1", c.Progress().CurrentRule)

	c.MarkRuleCompleted("r1")
	c.MarkRuleFailed("r2")

	p = c.Progress()
	assert.Equal(t, 2, p.CompletedRules)
	assert.Equal(t, 4, p.TotalRules)
	assert.Empty(t, p.CurrentRule)
	assert.InDelta(t, 50.0, p.Percentage, 0.001)
	assert.Equal(t, []string{"r1", "r2"}, c.ProcessedRules())
	assert.Equal(t, []string{"r2"}, c.FailedRules())
	assert.True(t, c.IsProcessed("r2"))
	assert.True(t, c.IsFailed("r2"))
	assert.False(t, c.IsFailed("r1"))
	assert.True(t, c.EndTime().IsZero())
	assert.Positive(t, c.Duration())

	require.NoError(t, c.Complete())
	p = c.Progress()
	assert.Equal(t, StatusCompleted, p.Status)
	assert.InDelta(t, 100.0, p.Percentage, 0.001)
	assert.False(t, c.EndTime().Before(c.StartTime()))
}

func TestContextStartWhileRunning(t *testing.T) {
	c := NewContext(PRData{})
	require.NoError(t, c.Start(1))

	err := c.Start(1)
	require.ErrorIs(t, err, appErrors.ErrInvalidState)
	assert.Contains(t, err.Error(), "cannot start while running")
}

func TestContextRestartAfterTerminal(t *testing.T) {
	c := NewContext(PRData{})
	require.NoError(t, c.Start(1))
	c.AddResult(Result{RuleID: "r1"})
	c.MarkRuleFailed("r1")
	require.NoError(t, c.Fail())
	assert.Equal(t, StatusFailed, c.Status())

	require.NoError(t, c.Start(2))
	p := c.Progress()
	assert.Equal(t, StatusRunning, p.Status)
	assert.Zero(t, p.CompletedRules)
	assert.Empty(t, c.FailedRules())
	assert.Len(t, c.Results(), 1)
}

func TestContextFinishRequiresRunning(t *testing.T) {
	c := NewContext(PRData{})
	require.ErrorIs(t, c.Complete(), appErrors.ErrInvalidState)
	require.ErrorIs(t, c.Fail(), appErrors.ErrInvalidState)

	require.NoError(t, c.Start(0))
	require.NoError(t, c.Complete())
	require.ErrorIs(t, c.Complete(), appErrors.ErrInvalidState)
}

func TestContextCompletedNeverExceedsTotal(t *testing.T) {
	c := NewContext(PRData{})
	require.NoError(t, c.Start(2))

	c.MarkRuleCompleted("r1")
	c.MarkRuleCompleted("r1")
	c.MarkRuleFailed("r1")
	c.MarkRuleCompleted("r2")
	c.MarkRuleCompleted("r3")

	p := c.Progress()
	assert.Equal(t, 2, p.CompletedRules)
	assert.LessOrEqual(t, p.CompletedRules, p.TotalRules)
	for _, id := range c.FailedRules() {
		assert.True(t, c.IsProcessed(id))
	}
}

func TestContextConcurrentMutation(t *testing.T) {
	const rules = 100
	c := NewContext(PRData{})
	require.NoError(t, c.Start(rules))

	var wg sync.WaitGroup
	wg.Add(rules * 2)
	for i := 0; i < rules; i++ {
		id := fmt.Sprintf("rule-%03d", i)
		go func(n int) {
			defer wg.Done()
			c.MarkRuleStarted(id)
			c.AddResults(Result{RuleID: id, Severity: Severity(n % 4)})
			if n%5 == 0 {
				c.MarkRuleFailed(id)
				return
			}
			c.MarkRuleCompleted(id)
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Progress()
			_ = c.ResultsAtLeast(SeverityError)
			_ = c.Summary()
		}()
	}
	wg.Wait()

	require.NoError(t, c.Complete())
	p := c.Progress()
	assert.Equal(t, rules, p.CompletedRules)
	assert.Len(t, c.Results(), rules)
	assert.Len(t, c.FailedRules(), rules/5)
}

func TestContextDurationWhileRunning(t *testing.T) {
	c := NewContext(PRData{})
	require.NoError(t, c.Start(1))
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, c.Duration(), 5*time.Millisecond)
}
