package analysis

import (
	"sort"
	"sync"
	"time"

	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

// Context is the state of one pull request analysis.
//
// PR identity and file changes are fixed at construction. Progress and
// results are guarded by a single mutex; only the engine mutates them,
// rules and reporters use the query methods.
type Context struct {
	pr          PRData
	fileChanges map[string]FileChange
	filenames   []string

	mu        sync.RWMutex
	results   []Result
	total     int
	completed int
	current   string
	status    Status
	processed map[string]struct{}
	failed    map[string]struct{}
	startTime time.Time
	endTime   time.Time

	snapshots snapshotState
	closed    bool
}

// NewContext builds a context from PR data. Repeated filenames keep the last entry.
func NewContext(pr PRData) *Context {
	c := &Context{
		pr:          pr,
		fileChanges: make(map[string]FileChange, len(pr.Files)),
		status:      StatusPending,
		processed:   make(map[string]struct{}),
		failed:      make(map[string]struct{}),
	}

	for _, fc := range pr.Files {
		c.fileChanges[fc.Filename] = NewFileChange(fc.Filename, fc.Status, fc.Patch, fc.ChangedLines)
	}
	c.filenames = make([]string, 0, len(c.fileChanges))
	for name := range c.fileChanges {
		c.filenames = append(c.filenames, name)
	}
	sort.Strings(c.filenames)
	c.pr.Files = nil

	return c
}

// PR returns the pull request identity. The Files field is always empty;
// use FileChanges.
func (c *Context) PR() PRData {
	return c.pr
}

// PRID returns the pull request id.
func (c *Context) PRID() string { return c.pr.ID }

// Repo returns the repository name.
func (c *Context) Repo() string { return c.pr.Repo }

// FileChange looks up a file change by filename.
func (c *Context) FileChange(filename string) (FileChange, bool) {
	fc, ok := c.fileChanges[filename]
	return fc, ok
}

// FileChanges returns all file changes sorted by filename.
func (c *Context) FileChanges() []FileChange {
	out := make([]FileChange, 0, len(c.filenames))
	for _, name := range c.filenames {
		out = append(out, c.fileChanges[name])
	}
	return out
}

// CodeFiles returns the file changes that look like source code.
func (c *Context) CodeFiles() []FileChange {
	var out []FileChange
	for _, name := range c.filenames {
		if fc := c.fileChanges[name]; fc.IsCodeFile() {
			out = append(out, fc)
		}
	}
	return out
}

// Start begins a run over total rules. Starting a context that finished an
// earlier run resets its counters and keeps its results.
func (c *Context) Start(total int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusRunning {
		return appErrors.InvalidStateError("start", string(c.status))
	}
	if total < 0 {
		total = 0
	}

	c.status = StatusRunning
	c.total = total
	c.completed = 0
	c.current = ""
	c.processed = make(map[string]struct{})
	c.failed = make(map[string]struct{})
	c.startTime = time.Now()
	c.endTime = time.Time{}
	return nil
}

// MarkRuleStarted records the rule currently executing.
func (c *Context) MarkRuleStarted(ruleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = ruleID
}

// MarkRuleCompleted records a rule that finished. Repeated calls are ignored.
func (c *Context) MarkRuleCompleted(ruleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markProcessedLocked(ruleID)
}

// MarkRuleFailed records a rule that failed; a failed rule is also processed.
func (c *Context) MarkRuleFailed(ruleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed[ruleID] = struct{}{}
	c.markProcessedLocked(ruleID)
}

func (c *Context) markProcessedLocked(ruleID string) {
	if _, done := c.processed[ruleID]; done {
		return
	}
	c.processed[ruleID] = struct{}{}
	if c.completed < c.total {
		c.completed++
	}
	if c.current == ruleID {
		c.current = ""
	}
}

// AddResult appends one finding.
func (c *Context) AddResult(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

// AddResults appends findings in order.
func (c *Context) AddResults(rs ...Result) {
	if len(rs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, rs...)
}

// Complete ends the running run successfully.
func (c *Context) Complete() error {
	return c.finish(StatusCompleted, "complete")
}

// Fail ends the running run as failed.
func (c *Context) Fail() error {
	return c.finish(StatusFailed, "fail")
}

func (c *Context) finish(status Status, operation string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusRunning {
		return appErrors.InvalidStateError(operation, string(c.status))
	}
	c.status = status
	c.current = ""
	c.endTime = time.Now()
	return nil
}

// Status returns the current run status.
func (c *Context) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Progress returns a snapshot of the run's progress.
func (c *Context) Progress() Progress {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := Progress{
		TotalRules:     c.total,
		CompletedRules: c.completed,
		CurrentRule:    c.current,
		Status:         c.status,
	}
	switch {
	case c.status.Terminal():
		p.Percentage = 100
	case c.status == StatusRunning && c.total > 0:
		p.Percentage = float64(c.completed) / float64(c.total) * 100
	}
	return p
}

// StartTime returns when the latest run started.
func (c *Context) StartTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startTime
}

// EndTime returns when the latest run ended, zero while running.
func (c *Context) EndTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endTime
}

// Duration returns the run's elapsed time, measured to now while running.
func (c *Context) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.startTime.IsZero():
		return 0
	case c.endTime.IsZero():
		return time.Since(c.startTime)
	default:
		return c.endTime.Sub(c.startTime)
	}
}

// IsProcessed reports whether the rule finished in the current run.
func (c *Context) IsProcessed(ruleID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.processed[ruleID]
	return ok
}

// IsFailed reports whether the rule failed in the current run.
func (c *Context) IsFailed(ruleID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.failed[ruleID]
	return ok
}

// ProcessedRules returns processed rule ids sorted.
func (c *Context) ProcessedRules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.processed)
}

// FailedRules returns failed rule ids sorted.
func (c *Context) FailedRules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.failed)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
