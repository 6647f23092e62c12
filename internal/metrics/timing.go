// Package metrics provides operation timing with structured log output.
//
//	timer := metrics.StartTimer(logger, "analyze_pr").
//	  AddField("pr_id", pr.ID)
//	defer func() { timer.StopWithError(err) }()
package metrics

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrz1836/go-pranalyzer/internal/logging"
)

// DefaultSlowThreshold is the duration above which an operation is logged as slow.
const DefaultSlowThreshold = 30 * time.Second

// Timer tracks the duration of one operation and logs it when stopped.
// A timer is meant to be stopped once; further stops are ignored.
type Timer struct {
	start     time.Time
	operation string
	logger    *logrus.Entry
	fields    logrus.Fields
	slow      time.Duration

	stopOnce sync.Once
	duration time.Duration
}

// StartTimer creates a timer for an operation, starting now.
func StartTimer(logger logrus.FieldLogger, operation string) *Timer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Timer{
		start:     time.Now(),
		operation: operation,
		logger:    logger.WithField(logging.StandardFields.Operation, operation),
		fields:    make(logrus.Fields),
		slow:      DefaultSlowThreshold,
	}
}

// AddField adds a field to be logged when the timer stops.
func (t *Timer) AddField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// WithSlowThreshold overrides the slow operation threshold.
func (t *Timer) WithSlowThreshold(d time.Duration) *Timer {
	if d > 0 {
		t.slow = d
	}
	return t
}

// Stop stops the timer and logs the duration. Operations slower than the
// threshold are logged as warnings, others at debug level.
func (t *Timer) Stop() time.Duration {
	return t.StopWithError(nil)
}

// StopWithError stops the timer and logs the duration along with err.
// A non-nil err is logged at error level.
func (t *Timer) StopWithError(err error) time.Duration {
	t.stopOnce.Do(func() {
		t.duration = time.Since(t.start)

		t.fields[logging.StandardFields.DurationMs] = t.duration.Milliseconds()
		t.fields["duration_human"] = t.duration.String()

		entry := t.logger.WithFields(t.fields)
		switch {
		case err != nil:
			entry.WithFields(logrus.Fields{
				logging.StandardFields.Error:  err.Error(),
				logging.StandardFields.Status: "failed",
			}).Error("Operation failed")
		case t.duration > t.slow:
			entry.WithField(logging.StandardFields.Status, "completed").
				Warn("Operation took longer than expected")
		default:
			entry.WithField(logging.StandardFields.Status, "completed").
				Debug("Operation completed")
		}
	})
	return t.duration
}
