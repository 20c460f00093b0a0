package outreach

import (
	"time"

	"github.com/google/uuid"

	"revenue_automation_backend/internal/leads/repository"
)

// NextStep returns the lowest-order step whose id is not in completed, or nil
// when every step has fired. steps must be ascending by Order.
func NextStep(steps []repository.SequenceStep, completed []uuid.UUID) *repository.SequenceStep {
	done := make(map[uuid.UUID]struct{}, len(completed))
	for _, id := range completed {
		done[id] = struct{}{}
	}
	for i := range steps {
		if _, ok := done[steps[i].ID]; !ok {
			return &steps[i]
		}
	}
	return nil
}

// StepAfter returns the step immediately following current in sequence
// order, or nil when current is the last one.
func StepAfter(steps []repository.SequenceStep, current uuid.UUID) *repository.SequenceStep {
	for i := range steps {
		if steps[i].ID == current && i+1 < len(steps) {
			return &steps[i+1]
		}
	}
	return nil
}

// StepIDs lists the step ids of completed events.
func StepIDs(completed []repository.CompletedStep) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(completed))
	for _, c := range completed {
		ids = append(ids, c.StepID)
	}
	return ids
}

// ReadyAt is the earliest time next may fire: its wait counted from the most
// recent completed step. The zero time means it may fire immediately.
func ReadyAt(next repository.SequenceStep, completed []repository.CompletedStep) time.Time {
	var last time.Time
	for _, c := range completed {
		if c.CompletedAt.After(last) {
			last = c.CompletedAt
		}
	}
	if last.IsZero() {
		return time.Time{}
	}
	return last.Add(next.WaitDuration())
}
