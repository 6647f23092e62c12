package rules

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
	"github.com/mrz1836/go-pranalyzer/internal/logging"
)

// Registry is a catalogue of rule types keyed by rule id.
// It holds no ordering or execution logic.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]Definition
	byCategory map[string]map[string]struct{}
	logger     *logrus.Entry
}

// Stats summarizes the catalogue.
type Stats struct {
	Total            int            `json:"total"`
	ByCategory       map[string]int `json:"by_category"`
	WithDependencies int            `json:"with_dependencies"`
}

// NewRegistry creates an empty registry.
func NewRegistry(logger logrus.FieldLogger) *Registry {
	return &Registry{
		entries:    make(map[string]Definition),
		byCategory: make(map[string]map[string]struct{}),
		logger:     logging.Component(logger, logging.ComponentNames.Registry),
	}
}

//nolint:gochecknoglobals // process-wide catalogue
var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(logrus.StandardLogger())
	})
	return defaultRegistry
}

// Register records a rule type. Registering the same type again is a no-op;
// a different type claiming a registered id fails with ErrDuplicateRule.
// A factory that cannot build a valid rule fails with ErrRuleConstruction.
func (r *Registry) Register(factory Factory) error {
	if factory == nil {
		return appErrors.RuleConstructionError("", appErrors.RequiredFieldError("factory"))
	}

	probe, err := factory()
	if err != nil {
		return appErrors.RuleConstructionError("", err)
	}
	if probe == nil {
		return appErrors.RuleConstructionError("", appErrors.ErrInvalidRule)
	}

	meta := probe.Metadata()
	if err := validateMetadata(&meta); err != nil {
		return appErrors.RuleConstructionError(meta.ID, err)
	}

	def := Definition{Metadata: meta, Factory: factory, typeName: ruleTypeName(probe)}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[meta.ID]; ok {
		if existing.typeName == def.typeName {
			return nil
		}
		return appErrors.DuplicateRuleError(meta.ID, existing.typeName, def.typeName)
	}

	r.entries[meta.ID] = def
	if r.byCategory[meta.Category] == nil {
		r.byCategory[meta.Category] = make(map[string]struct{})
	}
	r.byCategory[meta.Category][meta.ID] = struct{}{}

	r.logger.WithFields(logrus.Fields{
		logging.StandardFields.RuleID:   meta.ID,
		logging.StandardFields.Category: meta.Category,
		logging.StandardFields.Priority: meta.Priority,
	}).Debug("Registered rule")

	return nil
}

// MustRegister registers a rule type and panics on failure.
func (r *Registry) MustRegister(factory Factory) {
	if err := r.Register(factory); err != nil {
		panic(err)
	}
}

func validateMetadata(meta *Metadata) error {
	if meta.ID == "" {
		return fmt.Errorf("%w: %w", appErrors.ErrInvalidRule, appErrors.EmptyFieldError("id"))
	}
	if meta.Category == "" {
		meta.Category = DefaultCategory
	}
	for _, dep := range meta.Dependencies {
		if dep == meta.ID {
			return fmt.Errorf("%w: %w", appErrors.ErrInvalidRule, appErrors.ValidationError(meta.ID, "rule depends on itself"))
		}
	}
	if meta.Version != "" {
		if _, err := semver.NewVersion(meta.Version); err != nil {
			return fmt.Errorf("%w: %w", appErrors.ErrInvalidRule, appErrors.FormatError("version", meta.Version, "semantic version"))
		}
	}
	meta.Dependencies = append([]string(nil), meta.Dependencies...)
	return nil
}

// Get looks up a rule type by id.
func (r *Registry) Get(ruleID string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.entries[ruleID]
	return def, ok
}

// Lookup is Get returning ErrRuleNotFound for unknown ids.
func (r *Registry) Lookup(ruleID string) (Definition, error) {
	def, ok := r.Get(ruleID)
	if !ok {
		return Definition{}, appErrors.RuleNotFoundError(ruleID)
	}
	return def, nil
}

// All returns every registered rule type sorted by id.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.entries))
	for _, def := range r.entries {
		defs = append(defs, def)
	}
	return sortDefinitions(defs)
}

// ByCategory returns the rule types in one category sorted by id.
func (r *Registry) ByCategory(category string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byCategory[category]
	defs := make([]Definition, 0, len(ids))
	for id := range ids {
		defs = append(defs, r.entries[id])
	}
	return sortDefinitions(defs)
}

// IDs returns every registered rule id sorted.
func (r *Registry) IDs() []string {
	defs := r.All()
	ids := make([]string, len(defs))
	for i, def := range defs {
		ids[i] = def.Metadata.ID
	}
	return ids
}

// Len returns the number of registered rule types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Categories maps each category to its sorted rule ids.
func (r *Registry) Categories() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.byCategory))
	for category, ids := range r.byCategory {
		list := make([]string, 0, len(ids))
		for id := range ids {
			list = append(list, id)
		}
		sort.Strings(list)
		out[category] = list
	}
	return out
}

// Stats summarizes the catalogue.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		Total:      len(r.entries),
		ByCategory: make(map[string]int, len(r.byCategory)),
	}
	for category, ids := range r.byCategory {
		stats.ByCategory[category] = len(ids)
	}
	for _, def := range r.entries {
		if len(def.Metadata.Dependencies) > 0 {
			stats.WithDependencies++
		}
	}
	return stats
}

// Discover registers every factory in the list. Factories that fail to
// construct a valid rule are logged and skipped; conflicting ids are
// returned as errors after the whole list is processed.
func (r *Registry) Discover(factories ...Factory) (int, error) {
	var (
		registered int
		conflicts  []error
	)

	for i, factory := range factories {
		before := r.Len()
		err := r.Register(factory)
		switch {
		case err == nil:
			if r.Len() > before {
				registered++
			}
		case errors.Is(err, appErrors.ErrDuplicateRule):
			conflicts = append(conflicts, err)
		default:
			r.logger.WithFields(logrus.Fields{
				logging.StandardFields.Operation: "discover",
				logging.StandardFields.Error:     err.Error(),
				"index":                          i,
			}).Warn("Skipping rule that failed to construct")
		}
	}

	return registered, errors.Join(conflicts...)
}
