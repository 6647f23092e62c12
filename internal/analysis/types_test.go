package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

func TestSeverityOrdering(t *testing.T) {
	assert.Less(t, SeverityInfo, SeverityWarning)
	assert.Less(t, SeverityWarning, SeverityError)
	assert.Less(t, SeverityError, SeverityCritical)
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input    string
		expected Severity
		wantErr  bool
	}{
		{"info", SeverityInfo, false},
		{"WARNING", SeverityWarning, false},
		{" error ", SeverityError, false},
		{"critical", SeverityCritical, false},
		{"fatal", SeverityInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	assert.Equal(t, "severity(9)", Severity(9).String())
}

func TestSeverityTextEncoding(t *testing.T) {
	data, err := json.Marshal(Result{RuleID: "r1", Severity: SeverityWarning, Message: "m"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rule_id":"r1","severity":"warning","message":"m"}`, string(data))

	var fc struct {
		Level Severity `yaml:"level"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("level: critical\n"), &fc))
	assert.Equal(t, SeverityCritical, fc.Level)

	err = yaml.Unmarshal([]byte("level: loud\n"), &fc)
	require.Error(t, err)
}

func TestNewFileChange(t *testing.T) {
	t.Run("lines dropped without patch", func(t *testing.T) {
		fc := NewFileChange("a.go", FileModified, "", []int{1, 2})
		assert.Nil(t, fc.ChangedLines)
	})

	t.Run("lines copied with patch", func(t *testing.T) {
		lines := []int{3, 4}
		fc := NewFileChange("a.go", FileModified, "@@ -1 +1 @@", lines)
		lines[0] = 99
		assert.Equal(t, []int{3, 4}, fc.ChangedLines)
	})
}

func TestFileStatusValid(t *testing.T) {
	assert.True(t, FileAdded.Valid())
	assert.True(t, FileModified.Valid())
	assert.True(t, FileRemoved.Valid())
	assert.False(t, FileStatus("renamed").Valid())
}

func TestIsCodeFile(t *testing.T) {
	assert.True(t, FileChange{Filename: "cmd/main.go"}.IsCodeFile())
	assert.True(t, FileChange{Filename: "web/App.TSX"}.IsCodeFile())
	assert.False(t, FileChange{Filename: "README.md"}.IsCodeFile())
	assert.False(t, FileChange{Filename: "Makefile"}.IsCodeFile())
}

func TestResultLocation(t *testing.T) {
	assert.Empty(t, Result{}.Location())
	assert.Equal(t, "file.py", Result{FilePath: "file.py"}.Location())
	assert.Equal(t, "file.py:3", Result{FilePath: "file.py", Line: 3}.Location())
	assert.Equal(t, "file.py:3:7", Result{FilePath: "file.py", Line: 3, Column: 7}.Location())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestParseSeverityErrorKind(t *testing.T) {
	_, err := ParseSeverity("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid field: severity")
	assert.NotErrorIs(t, err, appErrors.ErrInvalidState)
}
