package outreach

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue_automation_backend/internal/leads/repository"
)

func threeSteps() []repository.SequenceStep {
	return []repository.SequenceStep{
		{ID: uuid.New(), Order: 1},
		{ID: uuid.New(), Order: 2, WaitHours: 48},
		{ID: uuid.New(), Order: 5, WaitHours: 72},
	}
}

func TestNextStep(t *testing.T) {
	steps := threeSteps()

	tests := []struct {
		name      string
		completed []uuid.UUID
		want      *uuid.UUID
	}{
		{name: "nothing completed", completed: nil, want: &steps[0].ID},
		{name: "first completed", completed: []uuid.UUID{steps[0].ID}, want: &steps[1].ID},
		{name: "out of order completion", completed: []uuid.UUID{steps[1].ID}, want: &steps[0].ID},
		{name: "unknown ids ignored", completed: []uuid.UUID{uuid.New(), steps[0].ID, steps[1].ID}, want: &steps[2].ID},
		{name: "all completed", completed: []uuid.UUID{steps[2].ID, steps[0].ID, steps[1].ID}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextStep(steps, tt.completed)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, got.ID)
		})
	}
}

func TestNextStepEmptySequence(t *testing.T) {
	assert.Nil(t, NextStep(nil, nil))
}

func TestStepAfter(t *testing.T) {
	steps := threeSteps()

	next := StepAfter(steps, steps[0].ID)
	require.NotNil(t, next)
	assert.Equal(t, steps[1].ID, next.ID)

	assert.Nil(t, StepAfter(steps, steps[2].ID))
	assert.Nil(t, StepAfter(steps, uuid.New()))
}

func TestRunningEveryStepCompletesSequence(t *testing.T) {
	steps := threeSteps()
	var completed []uuid.UUID
	for range steps {
		step := NextStep(steps, completed)
		require.NotNil(t, step)
		completed = append(completed, step.ID)
	}
	assert.Nil(t, NextStep(steps, completed))
	assert.ElementsMatch(t, []uuid.UUID{steps[0].ID, steps[1].ID, steps[2].ID}, completed)
}

func TestReadyAt(t *testing.T) {
	steps := threeSteps()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	assert.True(t, ReadyAt(steps[0], nil).IsZero())
	assert.True(t, ReadyAt(steps[1], []repository.CompletedStep{{StepID: steps[0].ID}}).IsZero())

	completed := []repository.CompletedStep{
		{StepID: steps[1].ID, CompletedAt: base.Add(time.Hour)},
		{StepID: steps[0].ID, CompletedAt: base},
	}
	assert.Equal(t, base.Add(73*time.Hour), ReadyAt(steps[2], completed))
	assert.Equal(t, []uuid.UUID{steps[1].ID, steps[0].ID}, StepIDs(completed))
}
