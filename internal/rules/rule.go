// Package rules defines the rule plugin contract and the registry that
// catalogues rule types by id and category.
package rules

import (
	"context"
	"reflect"
	"sort"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
)

// DefaultCategory is assigned to rules that declare no category.
const DefaultCategory = "general"

// Metadata is the static description of a rule type.
type Metadata struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name,omitempty" yaml:"name,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Category     string            `json:"category" yaml:"category"`
	Severity     analysis.Severity `json:"severity" yaml:"severity"`
	Priority     int               `json:"priority" yaml:"priority"`
	Dependencies []string          `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Version      string            `json:"version,omitempty" yaml:"version,omitempty"`
}

// DisplayName returns Name, or the id when no name is set.
func (m Metadata) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// Rule is a unit of analysis. Rules read the context through its query
// methods and return findings; they never mutate run state.
type Rule interface {
	Metadata() Metadata
	Analyze(ctx context.Context, actx *analysis.Context) ([]analysis.Result, error)
}

// Applicable is implemented by rules that can decline to run for a context.
type Applicable interface {
	ShouldRun(actx *analysis.Context) bool
}

// Typed is implemented by rules whose Go type is shared by several rule
// definitions, so that registration can tell two definitions apart.
type Typed interface {
	RuleType() string
}

// Factory builds a fresh rule instance.
type Factory func() (Rule, error)

// Definition is a registered rule type.
type Definition struct {
	Metadata Metadata
	Factory  Factory

	typeName string
}

// New instantiates the rule.
func (d Definition) New() (Rule, error) {
	return d.Factory()
}

// TypeName returns the identity used to detect conflicting registrations.
func (d Definition) TypeName() string {
	return d.typeName
}

func ruleTypeName(r Rule) string {
	if t, ok := r.(Typed); ok {
		return t.RuleType()
	}
	return reflect.TypeOf(r).String()
}

func sortDefinitions(defs []Definition) []Definition {
	sort.Slice(defs, func(i, j int) bool { return defs[i].Metadata.ID < defs[j].Metadata.ID })
	return defs
}
