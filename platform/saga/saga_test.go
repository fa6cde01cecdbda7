package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(name string, essential bool, err error, trace *[]string) Step {
	return Step{
		Name:      name,
		Essential: essential,
		Run: func(context.Context) error {
			*trace = append(*trace, name)
			return err
		},
	}
}

func TestRunEssentialThenBestEffort(t *testing.T) {
	var trace []string
	steps := []Step{
		step("a", true, nil, &trace),
		step("audit", false, errors.New("audit down"), &trace),
		step("b", true, nil, &trace),
		step("nudge", false, nil, &trace),
	}

	report, err := NewRunner(nil).Run(context.Background(), steps)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "audit", "nudge"}, trace)
	assert.Equal(t, []string{"a", "b"}, report.Completed)
	assert.Equal(t, []string{"audit"}, report.Failed())
}

func TestRunStopsAtFirstEssentialFailure(t *testing.T) {
	var trace []string
	cause := errors.New("insert failed")
	steps := []Step{
		step("a", true, nil, &trace),
		step("b", true, cause, &trace),
		step("c", true, nil, &trace),
		step("audit", false, nil, &trace),
	}

	report, err := NewRunner(nil).Run(context.Background(), steps)
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "b", stepErr.Step)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"a", "b"}, trace)
	assert.Equal(t, []string{"a"}, report.Completed)
	assert.Empty(t, report.BestEffort)
}

func TestRunCompensatesCompletedStepsInReverse(t *testing.T) {
	var undone []string
	undo := func(name string) func(context.Context) error {
		return func(context.Context) error {
			undone = append(undone, name)
			return nil
		}
	}
	steps := []Step{
		{Name: "a", Essential: true, Run: func(context.Context) error { return nil }, Compensate: undo("a")},
		{Name: "b", Essential: true, Run: func(context.Context) error { return nil }, Compensate: undo("b")},
		{Name: "c", Essential: true, Run: func(context.Context) error { return errors.New("boom") }, Compensate: undo("c")},
	}

	_, err := NewRunner(nil).Run(context.Background(), steps)
	require.Error(t, err)
	assert.Equal(t, []string{"b", "a"}, undone)
}

func TestAttemptRecoversPanic(t *testing.T) {
	out := NewRunner(nil).Attempt(context.Background(), "explode", func(context.Context) error {
		panic("kaboom")
	})
	assert.False(t, out.OK())
	assert.Equal(t, "explode", out.Step)
}
