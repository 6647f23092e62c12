// Package diff builds unified diffs for pull request files from base and
// head checkouts, for inputs that carry no patches of their own.
package diff

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
	"github.com/mrz1836/go-pranalyzer/internal/validation"
)

// ContextLines is the number of unchanged lines around each hunk.
const ContextLines = 3

// Unified returns the unified diff turning base into head. Identical
// content yields an empty string.
func Unified(filename, base, head string) (string, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(base),
		B:        splitLines(head),
		FromFile: "a/" + filename,
		ToFile:   "b/" + filename,
		Context:  ContextLines,
	})
	if err != nil {
		return "", appErrors.WrapWithContext(err, "diff "+filename)
	}
	return text, nil
}

// FillPatches sets the patch and changed lines of every file that has none,
// reading the old version below baseDir and the new one below headDir.
// A file missing from a side counts as empty there. Removed files get no patch.
func FillPatches(pr *analysis.PRData, baseDir, headDir string) error {
	for i := range pr.Files {
		fc := &pr.Files[i]
		if fc.Patch != "" || fc.Status == analysis.FileRemoved {
			continue
		}
		if err := validation.ValidateFilePath(fc.Filename, "file"); err != nil {
			return err
		}

		base, err := readOptional(baseDir, fc.Filename)
		if err != nil {
			return err
		}
		head, err := readOptional(headDir, fc.Filename)
		if err != nil {
			return err
		}

		patch, err := Unified(fc.Filename, base, head)
		if err != nil {
			return err
		}
		fc.Patch = patch
		fc.ChangedLines = nil
		for _, line := range rules.AddedLines(patch) {
			fc.ChangedLines = append(fc.ChangedLines, line.Number)
		}
	}
	return nil
}

// splitLines splits text into newline-terminated lines. A final line without
// a newline gets one, and empty text has no lines.
func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}
	return lines
}

func readOptional(dir, name string) (string, error) {
	if dir == "" {
		return "", nil
	}
	path := filepath.Join(dir, filepath.FromSlash(name))
	data, err := os.ReadFile(path) //#nosec G304 -- path is validated to stay below dir
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", appErrors.FileReadError(path, err)
	}
	return string(data), nil
}
