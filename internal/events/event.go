// Package events defines the pipeline's live-update events. Transport is in
// platform/events.
package events

import (
	"time"

	"revenue_automation_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event     = events.Event
	Publisher = events.Publisher
)

// Event type names carried on the broadcast channel.
const (
	TypeLeadCreated       = "lead.created"
	TypeLeadQualified     = "lead.qualified"
	TypeOutreachSent      = "outreach.sent"
	TypeSequenceCompleted = "sequence.completed"
	TypeFollowUpCompleted = "followup.completed"
)

func newEvent(eventType string, workspaceID, leadID uuid.UUID, payload map[string]any) Event {
	e := Event{
		Type:        eventType,
		WorkspaceID: workspaceID.String(),
		Payload:     payload,
		OccurredAt:  time.Now().UTC(),
	}
	if leadID != uuid.Nil {
		e.LeadID = leadID.String()
	}
	return e
}

// LeadCreated is published once intake has stored the lead.
func LeadCreated(workspaceID, leadID uuid.UUID, source string) Event {
	return newEvent(TypeLeadCreated, workspaceID, leadID, map[string]any{"source": source})
}

// LeadQualified is published after a qualification pass.
func LeadQualified(workspaceID, leadID uuid.UUID, score int, recommendation string) Event {
	return newEvent(TypeLeadQualified, workspaceID, leadID, map[string]any{
		"score":          score,
		"recommendation": recommendation,
	})
}

// OutreachSent is published after a sequence step was delivered.
func OutreachSent(workspaceID, leadID, sequenceID, stepID uuid.UUID, subject string) Event {
	return newEvent(TypeOutreachSent, workspaceID, leadID, map[string]any{
		"sequenceId": sequenceID.String(),
		"stepId":     stepID.String(),
		"subject":    subject,
	})
}

// SequenceCompleted is published when an enrollment finishes its last step.
func SequenceCompleted(workspaceID, leadID, sequenceID uuid.UUID) Event {
	return newEvent(TypeSequenceCompleted, workspaceID, leadID, map[string]any{
		"sequenceId": sequenceID.String(),
	})
}

// FollowUpCompleted is published after a follow-up task was executed.
func FollowUpCompleted(workspaceID, leadID, taskID uuid.UUID) Event {
	return newEvent(TypeFollowUpCompleted, workspaceID, leadID, map[string]any{
		"taskId": taskID.String(),
	})
}
