package analyzer

import (
	"github.com/mrz1836/go-pranalyzer/internal/config"
	"github.com/mrz1836/go-pranalyzer/internal/engine"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
)

// BuildFilter combines the include and exclude sets of cfg. A rule passes
// when it is included (or nothing is included), not excluded, its category
// is included (or no category is included) and its category is not excluded.
func BuildFilter(reg *rules.Registry, cfg *config.AnalysisConfig) engine.Filter {
	if cfg == nil {
		return nil
	}
	includeRules := toSet(cfg.IncludeRules)
	excludeRules := toSet(cfg.ExcludeRules)
	includeCategories := toSet(cfg.IncludeCategories)
	excludeCategories := toSet(cfg.ExcludeCategories)

	return func(ruleID string) bool {
		var category string
		if def, ok := reg.Get(ruleID); ok {
			category = def.Metadata.Category
		}

		if len(includeRules) > 0 && !has(includeRules, ruleID) {
			return false
		}
		if has(excludeRules, ruleID) {
			return false
		}
		if len(includeCategories) > 0 && !has(includeCategories, category) {
			return false
		}
		return !has(excludeCategories, category)
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func has(set map[string]struct{}, v string) bool {
	_, ok := set[v]
	return ok
}
