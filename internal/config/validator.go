package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

// Validate checks the configuration and reports every problem found.
func (c *AnalysisConfig) Validate() error {
	var errs []error

	if err := validateVersion(c.Version); err != nil {
		errs = append(errs, err)
	}
	if c.MaxWorkers < 1 || c.MaxWorkers > MaxWorkersLimit {
		errs = append(errs, appErrors.ValidationError("max_workers", fmt.Sprintf("must be between 1 and %d, got %d", MaxWorkersLimit, c.MaxWorkers)))
	}
	if c.RuleTimeout < 0 {
		errs = append(errs, appErrors.ValidationError("rule_timeout", "must not be negative"))
	}
	if c.MinSeverity != "" {
		if _, err := analysis.ParseSeverity(c.MinSeverity); err != nil {
			errs = append(errs, err)
		}
	}
	if overlap := intersect(c.IncludeRules, c.ExcludeRules); len(overlap) > 0 {
		errs = append(errs, appErrors.ValidationError("include_rules", fmt.Sprintf("also excluded: %v", overlap)))
	}
	if overlap := intersect(c.IncludeCategories, c.ExcludeCategories); len(overlap) > 0 {
		errs = append(errs, appErrors.ValidationError("include_categories", fmt.Sprintf("also excluded: %v", overlap)))
	}
	if c.Store.Enabled && c.Store.Path == "" {
		errs = append(errs, appErrors.RequiredFieldError("store.path"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", appErrors.ErrInvalidConfig, errors.Join(errs...))
}

// MinimumSeverity returns the parsed min_severity, defaulting to info.
func (c *AnalysisConfig) MinimumSeverity() analysis.Severity {
	sev, err := analysis.ParseSeverity(c.MinSeverity)
	if err != nil {
		return analysis.SeverityInfo
	}
	return sev
}

func validateVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return appErrors.FormatError("version", version, "semantic version")
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return appErrors.WrapWithContext(err, "parse version constraint")
	}
	if !constraint.Check(v) {
		return appErrors.ValidationError("version", fmt.Sprintf("%s does not satisfy %s", version, SupportedVersions))
	}
	return nil
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	var out []string
	for _, v := range b {
		if _, ok := set[v]; ok {
			out = append(out, v)
			delete(set, v)
		}
	}
	sort.Strings(out)
	return out
}
