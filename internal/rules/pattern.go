package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
	"github.com/mrz1836/go-pranalyzer/internal/logging"
)

// MatchPlaceholder in a pattern rule message is replaced by the matched text.
const MatchPlaceholder = "{match}"

// PatternSpec is one declarative rule in a rule pack file.
type PatternSpec struct {
	Metadata `yaml:",inline"`

	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
	Files   string `yaml:"files,omitempty"`
}

// Pack is the document format of a rule pack file.
type Pack struct {
	Rules []PatternSpec `yaml:"rules"`
}

// PatternRule reports every added patch line matching a regular expression.
type PatternRule struct {
	meta    Metadata
	re      *regexp.Regexp
	message string
	files   string
	source  string
}

// NewPatternRule compiles a pattern rule from its declaration.
func NewPatternRule(spec PatternSpec, source string) (*PatternRule, error) {
	if spec.Pattern == "" {
		return nil, appErrors.RequiredFieldError("pattern")
	}
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return nil, appErrors.FormatError("pattern", spec.Pattern, "regular expression")
	}
	if spec.Files != "" {
		if _, err := filepath.Match(spec.Files, ""); err != nil {
			return nil, appErrors.FormatError("files", spec.Files, "glob")
		}
	}
	message := spec.Message
	if message == "" {
		message = fmt.Sprintf("Line matches %s", MatchPlaceholder)
	}

	return &PatternRule{
		meta:    spec.Metadata,
		re:      re,
		message: message,
		files:   spec.Files,
		source:  source,
	}, nil
}

// Metadata implements Rule.
func (p *PatternRule) Metadata() Metadata {
	return p.meta
}

// RuleType distinguishes pattern rules loaded from different packs.
func (p *PatternRule) RuleType() string {
	return "pattern:" + p.source
}

// ShouldRun skips contexts where no file matches the files glob.
func (p *PatternRule) ShouldRun(actx *analysis.Context) bool {
	for _, fc := range actx.FileChanges() {
		if p.matchesFile(fc.Filename) {
			return true
		}
	}
	return false
}

// Analyze implements Rule.
func (p *PatternRule) Analyze(ctx context.Context, actx *analysis.Context) ([]analysis.Result, error) {
	var results []analysis.Result
	for _, fc := range actx.FileChanges() {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if fc.Status == analysis.FileRemoved || !p.matchesFile(fc.Filename) {
			continue
		}
		for _, line := range AddedLines(fc.Patch) {
			loc := p.re.FindStringIndex(line.Text)
			if loc == nil {
				continue
			}
			match := line.Text[loc[0]:loc[1]]
			results = append(results, analysis.Result{
				RuleID:   p.meta.ID,
				Severity: p.meta.Severity,
				Message:  strings.ReplaceAll(p.message, MatchPlaceholder, match),
				FilePath: fc.Filename,
				Line:     line.Number,
				Column:   loc[0] + 1,
				Metadata: map[string]interface{}{"match": match},
			})
		}
	}
	return results, nil
}

func (p *PatternRule) matchesFile(name string) bool {
	if p.files == "" {
		return true
	}
	if ok, _ := filepath.Match(p.files, name); ok {
		return true
	}
	ok, _ := filepath.Match(p.files, filepath.Base(name))
	return ok
}

// LoadPack parses one rule pack file into rule factories.
func LoadPack(path string) ([]Factory, error) {
	data, err := os.ReadFile(path) //nolint:gosec // rule pack paths come from configuration
	if err != nil {
		return nil, appErrors.FileReadError(path, err)
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, appErrors.DecodeError("yaml", path, err)
	}

	factories := make([]Factory, 0, len(pack.Rules))
	for i := range pack.Rules {
		spec := pack.Rules[i]
		if _, err := NewPatternRule(spec, path); err != nil {
			return nil, appErrors.RuleConstructionError(spec.ID, err)
		}
		factories = append(factories, func() (Rule, error) {
			return NewPatternRule(spec, path)
		})
	}
	return factories, nil
}

// DiscoverDir registers the pattern rules of every *.yaml and *.yml file in dir.
// Files that fail to parse are logged and skipped.
func (r *Registry) DiscoverDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, appErrors.DirectoryReadError(dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	var (
		factories []Factory
		skipped   int
	)
	for _, file := range files {
		loaded, err := LoadPack(file)
		if err != nil {
			skipped++
			r.logger.WithFields(logrus.Fields{
				logging.StandardFields.FilePath: file,
				logging.StandardFields.Error:    err.Error(),
			}).Warn("Skipping rule pack")
			continue
		}
		factories = append(factories, loaded...)
	}

	registered, err := r.Discover(factories...)
	r.logger.WithFields(logrus.Fields{
		"directory":                      dir,
		"files":                          len(files),
		"skipped":                        skipped,
		logging.StandardFields.RuleCount: registered,
	}).Debug("Discovered rule packs")

	return registered, err
}
