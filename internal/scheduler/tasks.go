package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"revenue_automation_backend/platform/apperr"
)

// Queue names. Each queue carries exactly one task type of the same name.
const (
	QueueIntake        = "lead:intake"
	QueueQualification = "lead:qualification"
	QueueOutreach      = "outreach:dispatch"
	QueueFollowUp      = "followup:execute"
	QueueAnalytics     = "analytics:refresh"
)

// Queues lists every pipeline queue.
var Queues = []string{QueueIntake, QueueQualification, QueueOutreach, QueueFollowUp, QueueAnalytics}

func knownQueue(name string) bool {
	for _, q := range Queues {
		if q == name {
			return true
		}
	}
	return false
}

// Qualification reasons.
const (
	ReasonNewLead         = "new_lead"
	ReasonRequalification = "requalification"
)

type IntakeCompany struct {
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
}

type IntakeContact struct {
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone,omitempty"`
	Title     string         `json:"title,omitempty"`
	Company   *IntakeCompany `json:"company,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type IntakePayload struct {
	WorkspaceID string        `json:"workspaceId"`
	Source      string        `json:"source"`
	Contact     IntakeContact `json:"payload"`
}

type QualificationPayload struct {
	WorkspaceID string `json:"workspaceId"`
	LeadID      string `json:"leadId"`
	Reason      string `json:"reason"`
}

type DispatchPayload struct {
	WorkspaceID string  `json:"workspaceId"`
	LeadID      string  `json:"leadId"`
	Priority    string  `json:"priority,omitempty"`
	Status      string  `json:"status,omitempty"`
	SequenceID  *string `json:"sequenceId,omitempty"`
}

type FollowUpPayload struct {
	WorkspaceID string `json:"workspaceId"`
	LeadID      string `json:"leadId"`
	TaskID      string `json:"taskId"`
}

type AnalyticsPayload struct {
	WorkspaceID string    `json:"workspaceId"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
}

func newTask(typename string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, data), nil
}

func parseTask[T any](task *asynq.Task, want string) (T, error) {
	var payload T
	if task.Type() != want {
		return payload, apperr.BadRequest(fmt.Sprintf("unexpected task type %q, want %q", task.Type(), want))
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, apperr.Wrap(apperr.KindBadRequest, "decode "+want+" payload", err)
	}
	return payload, nil
}

func NewIntakeTask(payload IntakePayload) (*asynq.Task, error) {
	return newTask(QueueIntake, payload)
}

func ParseIntakePayload(task *asynq.Task) (IntakePayload, error) {
	return parseTask[IntakePayload](task, QueueIntake)
}

func NewQualificationTask(payload QualificationPayload) (*asynq.Task, error) {
	return newTask(QueueQualification, payload)
}

func ParseQualificationPayload(task *asynq.Task) (QualificationPayload, error) {
	return parseTask[QualificationPayload](task, QueueQualification)
}

func NewDispatchTask(payload DispatchPayload) (*asynq.Task, error) {
	return newTask(QueueOutreach, payload)
}

func ParseDispatchPayload(task *asynq.Task) (DispatchPayload, error) {
	return parseTask[DispatchPayload](task, QueueOutreach)
}

func NewFollowUpTask(payload FollowUpPayload) (*asynq.Task, error) {
	return newTask(QueueFollowUp, payload)
}

func ParseFollowUpPayload(task *asynq.Task) (FollowUpPayload, error) {
	return parseTask[FollowUpPayload](task, QueueFollowUp)
}

func NewAnalyticsTask(payload AnalyticsPayload) (*asynq.Task, error) {
	return newTask(QueueAnalytics, payload)
}

func ParseAnalyticsPayload(task *asynq.Task) (AnalyticsPayload, error) {
	return parseTask[AnalyticsPayload](task, QueueAnalytics)
}

// DelayUntil is how long to wait for due. Past or missing due times give 0.
func DelayUntil(due *time.Time, now time.Time) time.Duration {
	if due == nil || !due.After(now) {
		return 0
	}
	return due.Sub(now)
}
