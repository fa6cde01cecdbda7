// Package saga runs an ordered list of dependent writes where some steps are
// essential and others are best-effort side effects.
// This is part of the platform layer and contains no business logic.
package saga

import (
	"context"
	"fmt"

	"github.com/Niconord59/crm-axivity-sub001/platform/logger"
)

// Step is one write in a saga.
type Step struct {
	Name string
	// Essential steps run first, in order; the first failure aborts the saga.
	// Best-effort steps run afterwards, each isolated from the others.
	Essential bool
	Run       func(ctx context.Context) error
	// Compensate undoes a completed essential step. Optional.
	Compensate func(ctx context.Context) error
}

// StepError tags the originating error with the essential step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

// Unwrap returns the originating error unchanged.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Outcome is the result of a best-effort step. A failed outcome is reported,
// never returned as the saga error.
type Outcome struct {
	Step string
	Err  error
}

// OK reports whether the step succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Report lists what the saga did.
type Report struct {
	Completed  []string
	BestEffort []Outcome
}

// Failed returns the names of best-effort steps that failed.
func (r Report) Failed() []string {
	var names []string
	for _, o := range r.BestEffort {
		if !o.OK() {
			names = append(names, o.Step)
		}
	}
	return names
}

// Runner executes sagas.
type Runner struct {
	log *logger.Logger
}

// NewRunner creates a runner that logs swallowed failures to log.
func NewRunner(log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Discard()
	}
	return &Runner{log: log}
}

// Run executes the essential steps in declaration order, then the best-effort
// steps. Best-effort steps are skipped entirely when an essential step fails.
func (r *Runner) Run(ctx context.Context, steps []Step) (Report, error) {
	var report Report
	var done []Step

	for _, step := range steps {
		if !step.Essential {
			continue
		}
		if err := step.Run(ctx); err != nil {
			r.compensate(ctx, done)
			return report, &StepError{Step: step.Name, Err: err}
		}
		done = append(done, step)
		report.Completed = append(report.Completed, step.Name)
	}

	for _, step := range steps {
		if step.Essential {
			continue
		}
		report.BestEffort = append(report.BestEffort, r.Attempt(ctx, step.Name, step.Run))
	}

	return report, nil
}

// Attempt runs a single best-effort action in its own error boundary.
func (r *Runner) Attempt(ctx context.Context, name string, fn func(ctx context.Context) error) (out Outcome) {
	out.Step = name
	defer func() {
		if rec := recover(); rec != nil {
			out.Err = fmt.Errorf("panic: %v", rec)
			r.log.BestEffortFailed(name, out.Err)
		}
	}()
	if err := fn(ctx); err != nil {
		out.Err = err
		r.log.BestEffortFailed(name, err)
	}
	return out
}

func (r *Runner) compensate(ctx context.Context, done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			r.log.BestEffortFailed("compensate_"+step.Name, err)
		}
	}
}
