package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("analysis run not found")

// Store reads and writes analysis runs.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := OpenSQLite(OpenOptions{Path: path})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// New wraps an open database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun stores a finished context and the results of its run in one transaction.
func (s *Store) SaveRun(ctx context.Context, actx *analysis.Context, results []analysis.Result) (*Run, error) {
	progress := actx.Progress()
	run := &Run{
		PRID:           actx.PRID(),
		Repo:           actx.Repo(),
		Status:         string(progress.Status),
		TotalRules:     progress.TotalRules,
		CompletedRules: progress.CompletedRules,
		FailedRules:    len(actx.FailedRules()),
		ResultCount:    len(results),
		StartedAt:      actx.StartTime(),
		DurationMs:     actx.Duration().Milliseconds(),
		Findings:       make([]Finding, 0, len(results)),
	}
	for _, r := range results {
		run.Findings = append(run.Findings, Finding{
			RuleID:   r.RuleID,
			Severity: r.Severity.String(),
			Message:  r.Message,
			FilePath: r.FilePath,
			Line:     r.Line,
			Column:   r.Column,
			Metadata: Metadata(r.Metadata),
		})
	}

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, appErrors.WrapWithContext(err, "save analysis run")
	}
	return run, nil
}

// GetRun loads a run and its findings.
func (s *Store) GetRun(ctx context.Context, id uint) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).Preload("Findings", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, appErrors.WrapWithContext(err, "load analysis run")
	}
	return &run, nil
}

// ListRuns returns the most recent runs for a PR, newest first. An empty
// prID lists runs of every PR.
func (s *Store) ListRuns(ctx context.Context, prID string, limit int) ([]Run, error) {
	query := s.db.WithContext(ctx).Order("id DESC")
	if prID != "" {
		query = query.Where("pr_id = ?", prID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []Run
	if err := query.Find(&runs).Error; err != nil {
		return nil, appErrors.WrapWithContext(err, "list analysis runs")
	}
	return runs, nil
}

// CountBySeverity counts the findings of one run per severity name.
func (s *Store) CountBySeverity(ctx context.Context, runID uint) (map[string]int, error) {
	var rows []struct {
		Severity string
		Count    int
	}
	err := s.db.WithContext(ctx).Model(&Finding{}).
		Select("severity, COUNT(*) AS count").
		Where("run_id = ?", runID).
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, appErrors.WrapWithContext(err, "count findings")
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Severity] = row.Count
	}
	return counts, nil
}
