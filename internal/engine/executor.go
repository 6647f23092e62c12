package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mrz1836/go-pranalyzer/internal/logging"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
	"github.com/mrz1836/go-pranalyzer/internal/worker"
)

// DefaultMaxWorkers is the parallel pool size when none is configured.
const DefaultMaxWorkers = 4

// Job is one instantiated rule scheduled for a run.
type Job struct {
	ID       string
	Metadata rules.Metadata
	Rule     rules.Rule
}

// RunFunc executes one job, including all bookkeeping. It must not panic.
type RunFunc func(ctx context.Context, job Job)

// Executor runs jobs that are already in dependency order.
type Executor interface {
	Execute(ctx context.Context, jobs []Job, run RunFunc)
}

// SequentialExecutor runs jobs one at a time on the calling goroutine.
type SequentialExecutor struct{}

// Execute implements Executor.
func (SequentialExecutor) Execute(ctx context.Context, jobs []Job, run RunFunc) {
	for _, job := range jobs {
		run(ctx, job)
	}
}

// ParallelExecutor runs jobs on a bounded worker pool. A job is submitted
// only after every dependency inside the run has finished; eligibility is
// re-evaluated as each job completes. Eligible jobs are queued in plan
// order, so priority decides who gets a free worker first.
type ParallelExecutor struct {
	MaxWorkers int
	Logger     logrus.FieldLogger
}

type ruleTask struct {
	ctx context.Context //nolint:containedctx // run context is carried to the worker
	job Job
	run RunFunc
}

func (t *ruleTask) Execute(context.Context) error {
	t.run(t.ctx, t.job)
	return nil
}

func (t *ruleTask) Name() string {
	return t.job.ID
}

// Execute implements Executor.
func (e ParallelExecutor) Execute(ctx context.Context, jobs []Job, run RunFunc) {
	if len(jobs) == 0 {
		return
	}

	workers := e.MaxWorkers
	if workers <= 0 {
		workers = DefaultMaxWorkers
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	log := logging.Component(e.Logger, logging.ComponentNames.Engine)

	// The pool runs detached from ctx so that every job reaches run and is
	// accounted for; rules observe ctx themselves.
	pool := worker.MustNewPool(workers, len(jobs))
	pool.Start(context.Background())
	defer pool.Shutdown()

	inRun := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		inRun[job.ID] = struct{}{}
	}
	finished := make(map[string]struct{}, len(jobs))
	pending := append([]Job(nil), jobs...)
	running := 0

	ready := func(job Job) bool {
		for _, dep := range job.Metadata.Dependencies {
			if _, ok := inRun[dep]; !ok {
				continue
			}
			if _, ok := finished[dep]; !ok {
				return false
			}
		}
		return true
	}

	submit := func(job Job) {
		if err := pool.Submit(&ruleTask{ctx: ctx, job: job, run: run}); err != nil {
			log.WithFields(logrus.Fields{
				logging.StandardFields.RuleID: job.ID,
				logging.StandardFields.Error:  err.Error(),
			}).Warn("Worker pool rejected rule, running inline")
			run(ctx, job)
			finished[job.ID] = struct{}{}
			return
		}
		running++
	}

	schedule := func() {
		for {
			progressed := false
			for i := 0; i < len(pending); {
				if !ready(pending[i]) {
					i++
					continue
				}
				job := pending[i]
				pending = append(pending[:i], pending[i+1:]...)
				before := len(finished)
				submit(job)
				progressed = progressed || len(finished) > before
			}
			// jobs caught in a dependency cycle never become ready
			if running == 0 && len(pending) > 0 {
				job := pending[0]
				pending = pending[1:]
				before := len(finished)
				submit(job)
				progressed = progressed || len(finished) > before
			}
			if !progressed {
				return
			}
		}
	}

	schedule()
	for running > 0 {
		result := <-pool.Results()
		running--
		finished[result.TaskName] = struct{}{}
		schedule()
	}

	processed, _, _ := pool.Stats()
	log.WithFields(logrus.Fields{
		logging.StandardFields.MaxWorkers: workers,
		"tasks_processed":                 processed,
	}).Debug("Worker pool drained")
}
