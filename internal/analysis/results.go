package analysis

import "sort"

// Results returns a copy of all findings in completion order.
func (c *Context) Results() []Result {
	return c.filterResults(func(Result) bool { return true })
}

// ResultsBySeverity returns findings with exactly the given severity.
func (c *Context) ResultsBySeverity(sev Severity) []Result {
	return c.filterResults(func(r Result) bool { return r.Severity == sev })
}

// ResultsAtLeast returns findings at or above the given severity.
func (c *Context) ResultsAtLeast(minSeverity Severity) []Result {
	return c.filterResults(func(r Result) bool { return r.Severity >= minSeverity })
}

// ResultsByRule returns findings produced by one rule.
func (c *Context) ResultsByRule(ruleID string) []Result {
	return c.filterResults(func(r Result) bool { return r.RuleID == ruleID })
}

// ResultsByFile returns findings located in one file.
func (c *Context) ResultsByFile(filePath string) []Result {
	return c.filterResults(func(r Result) bool { return r.FilePath == filePath })
}

// Summary counts findings per severity.
func (c *Context) Summary() map[Severity]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := make(map[Severity]int, len(severityNames))
	for _, r := range c.results {
		summary[r.Severity]++
	}
	return summary
}

func (c *Context) filterResults(keep func(Result) bool) []Result {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Result, 0, len(c.results))
	for _, r := range c.results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortKey selects the ordering used by SortResults.
type SortKey int

// Sort keys
const (
	// BySeverity orders most severe first, then by location and rule id.
	BySeverity SortKey = iota
	// ByLocation orders by file, line and column, then rule id.
	ByLocation
)

// SortResults sorts findings in place and returns them. Completion order is
// not stable under parallel execution, so reports sort explicitly.
func SortResults(results []Result, key SortKey) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if key == BySeverity && a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.RuleID < b.RuleID
	})
	return results
}
