package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/go-pranalyzer/internal/analyzer"
	"github.com/mrz1836/go-pranalyzer/internal/jsonutil"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
)

// ruleListing is the JSON shape of the rules command
type ruleListing struct {
	Order []rules.Metadata `json:"order"`
	Cycle []string         `json:"cycle,omitempty"`
	Stats rules.Stats      `json:"stats"`
}

// createRulesCmd creates the rules command
func createRulesCmd(flags *Flags) *cobra.Command {
	var (
		category string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List registered rules in execution order",
		Long: `List the rules a run would execute, in the order the engine would run them.
Include and exclude lists from the configuration are applied.`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := loggerFrom(cmd)
			writer := writerFor(cmd)

			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			a := analyzer.New(cfg, analyzer.WithLogger(logger), analyzer.WithRegistry(rules.NewRegistry(logger)))
			if err := a.EnsureRules(); err != nil {
				return err
			}

			configFilter := analyzer.BuildFilter(a.Registry(), cfg)
			filter := func(id string) bool {
				if configFilter != nil && !configFilter(id) {
					return false
				}
				if category == "" {
					return true
				}
				def, ok := a.Registry().Get(id)
				return ok && def.Metadata.Category == category
			}
			plan := a.Engine().Plan(filter)

			listing := ruleListing{Cycle: plan.Cycle, Stats: a.Registry().Stats()}
			for _, id := range plan.Order {
				if def, ok := a.Registry().Get(id); ok {
					listing.Order = append(listing.Order, def.Metadata)
				}
			}

			if jsonOut {
				text, err := jsonutil.PrettyPrint(listing)
				if err != nil {
					return err
				}
				writer.Plain(text)
				return nil
			}

			for i, meta := range listing.Order {
				line := fmt.Sprintf("%-32s %-12s %-9s %s", meta.ID, meta.Category, meta.Severity, meta.DisplayName())
				if len(meta.Dependencies) > 0 {
					line += " (after " + strings.Join(meta.Dependencies, ", ") + ")"
				}
				writer.Plainf("%3d. %s", i+1, line)
			}
			if plan.HasCycle() {
				writer.Warnf("Circular dependencies, run in id order: %s", strings.Join(plan.Cycle, ", "))
			}

			categories := make([]string, 0, len(listing.Stats.ByCategory))
			for c := range listing.Stats.ByCategory {
				categories = append(categories, c)
			}
			sort.Strings(categories)
			parts := make([]string, 0, len(categories))
			for _, c := range categories {
				parts = append(parts, c+"="+strconv.Itoa(listing.Stats.ByCategory[c]))
			}
			writer.Infof("%d rules registered (%s), %d with dependencies",
				listing.Stats.Total, strings.Join(parts, " "), listing.Stats.WithDependencies)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list rules of this category")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the listing as JSON")

	return cmd
}
