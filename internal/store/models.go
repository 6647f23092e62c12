package store

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrz1836/go-pranalyzer/internal/jsonutil"
)

// ErrInvalidType is returned when scanning a value of incorrect type
var ErrInvalidType = errors.New("invalid type")

// BaseModel contains common columns for all tables following GORM conventions
type BaseModel struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Metadata is a JSON key/value map stored as TEXT
//
//nolint:recvcheck // mixed receivers required by driver.Valuer/sql.Scanner interface
type Metadata map[string]interface{}

// Value implements driver.Valuer for database storage
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil //nolint:nilnil // database/sql pattern for NULL values
	}
	data, err := jsonutil.MarshalJSON(map[string]interface{}(m))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("%w for Metadata", ErrInvalidType)
	}

	decoded, err := jsonutil.UnmarshalJSON[map[string]interface{}](bytes)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

// Run is one finished analysis of a pull request.
type Run struct {
	BaseModel

	PRID           string    `gorm:"column:pr_id;index;not null" json:"pr_id"`
	Repo           string    `gorm:"index" json:"repo"`
	Status         string    `gorm:"not null" json:"status"`
	TotalRules     int       `json:"total_rules"`
	CompletedRules int       `json:"completed_rules"`
	FailedRules    int       `json:"failed_rules"`
	ResultCount    int       `json:"result_count"`
	StartedAt      time.Time `json:"started_at"`
	DurationMs     int64     `json:"duration_ms"`
	Findings       []Finding `gorm:"constraint:OnDelete:CASCADE" json:"findings,omitempty"`
}

// Finding is one stored analysis result.
type Finding struct {
	BaseModel

	RunID    uint     `gorm:"index;not null" json:"run_id"`
	RuleID   string   `gorm:"index;not null" json:"rule_id"`
	Severity string   `gorm:"index;not null" json:"severity"`
	Message  string   `json:"message"`
	FilePath string   `json:"file_path,omitempty"`
	Line     int      `json:"line_number,omitempty"`
	Column   int      `json:"column,omitempty"`
	Metadata Metadata `gorm:"type:text" json:"metadata,omitempty"`
}
