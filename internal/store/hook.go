package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	"github.com/mrz1836/go-pranalyzer/internal/analyzer"
	"github.com/mrz1836/go-pranalyzer/internal/logging"
	"github.com/mrz1836/go-pranalyzer/internal/metrics"
)

// SaveSlowThreshold is the save duration above which the hook logs a warning.
const SaveSlowThreshold = 2 * time.Second

// Hook saves every finished analysis to a Store.
type Hook struct {
	analyzer.NopHook

	store  *Store
	logger *logrus.Entry
}

// NewHook creates a persistence hook.
func NewHook(store *Store, logger logrus.FieldLogger) *Hook {
	return &Hook{
		store:  store,
		logger: logging.Component(logger, logging.ComponentNames.Store),
	}
}

// PostAnalysis implements analyzer.Hook.
func (h *Hook) PostAnalysis(ctx context.Context, actx *analysis.Context, results []analysis.Result) error {
	timer := metrics.StartTimer(h.logger.WithField(logging.StandardFields.PRID, actx.PRID()), "save_run").
		WithSlowThreshold(SaveSlowThreshold)

	run, err := h.store.SaveRun(ctx, actx, results)
	if err != nil {
		timer.StopWithError(err)
		return err
	}

	timer.AddField(logging.StandardFields.ResultCount, run.ResultCount).
		AddField("run_id", run.ID).
		Stop()
	return nil
}
