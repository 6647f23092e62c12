package builtin

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
)

func contextWith(files ...analysis.FileChange) *analysis.Context {
	return analysis.NewContext(analysis.PRData{ID: "1", Files: files})
}

func TestRegister(t *testing.T) {
	logger, _ := test.NewNullLogger()
	reg := rules.NewRegistry(logger)

	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))

	assert.Equal(t, []string{LargeChangeID, RepeatedLinesID, LineLengthID, TrailingWhitespaceID}, reg.IDs())

	def, ok := reg.Get(RepeatedLinesID)
	require.True(t, ok)
	assert.Equal(t, []string{TrailingWhitespaceID}, def.Metadata.Dependencies)
}

func TestLineLength(t *testing.T) {
	rule := NewLineLength(10)
	actx := contextWith(
		analysis.FileChange{Filename: "a.go", Patch: "@@ -1 +1,2 @@\n+short\n+this line is too long"},
		analysis.FileChange{Filename: "README.md", Patch: "+this line is too long but not code"},
	)

	assert.True(t, rule.ShouldRun(actx))
	results, err := rule.Analyze(context.Background(), actx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.go:2:11", results[0].Location())
	assert.Contains(t, results[0].Message, "21 characters")

	assert.False(t, rule.ShouldRun(contextWith(analysis.FileChange{Filename: "notes.txt"})))
}

func TestTrailingWhitespace(t *testing.T) {
	actx := contextWith(analysis.FileChange{Filename: "a.go", Patch: "+clean\n+dirty \t\n+also  "})

	results, err := (&TrailingWhitespace{}).Analyze(context.Background(), actx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.go:2:6", results[0].Location())
	assert.Equal(t, "a.go:3:5", results[1].Location())
}

func TestLargeChange(t *testing.T) {
	patch := "+" + strings.Repeat("x\n+", 5) + "x"
	actx := contextWith(
		analysis.FileChange{Filename: "big.go", Patch: patch},
		analysis.FileChange{Filename: "small.go", Patch: "+x"},
	)

	results, err := NewLargeChange(3).Analyze(context.Background(), actx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "big.go", results[0].FilePath)
	assert.Equal(t, 6, results[0].Metadata["added_lines"])
	assert.Equal(t, analysis.SeverityWarning, results[0].Severity)
}

func TestRepeatedLines(t *testing.T) {
	patch := "@@ -1 +1,7 @@\n+total += compute(x)\n+total += compute(x)\n+total += compute(x)\n+}\n+}\n+}\n+done()"
	actx := contextWith(analysis.FileChange{Filename: "a.go", Patch: patch})

	results, err := NewRepeatedLines(3).Analyze(context.Background(), actx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Line)
	assert.Equal(t, 3, results[0].Metadata["repeats"])
}

func TestRulesHonorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	actx := contextWith(analysis.FileChange{Filename: "a.go", Patch: "+x"})

	for _, factory := range Factories() {
		rule, err := factory()
		require.NoError(t, err)
		_, err = rule.Analyze(ctx, actx)
		require.ErrorIs(t, err, context.Canceled, rule.Metadata().ID)
	}
}
