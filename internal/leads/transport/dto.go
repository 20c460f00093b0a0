package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs
type CompanyRequest struct {
	Name   string `json:"name" validate:"required,notblank,max=200"`
	Domain string `json:"domain,omitempty" validate:"omitempty,max=255"`
}

type CreateLeadRequest struct {
	WorkspaceID string          `json:"workspaceId" validate:"required,uuid"`
	FirstName   string          `json:"firstName" validate:"required,notblank,max=100"`
	LastName    string          `json:"lastName" validate:"max=100"`
	Email       string          `json:"email" validate:"required,email,max=254"`
	Phone       string          `json:"phone,omitempty" validate:"omitempty,min=5,max=32"`
	Title       string          `json:"title,omitempty" validate:"omitempty,max=150"`
	Source      string          `json:"source,omitempty" validate:"omitempty,max=32"`
	Company     *CompanyRequest `json:"company,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

type CreateFollowUpRequest struct {
	WorkspaceID string         `json:"workspaceId" validate:"required,uuid"`
	Notes       string         `json:"notes" validate:"required,notblank,max=2000"`
	DueAt       *time.Time     `json:"dueAt,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Response DTOs
type QueuedResponse struct {
	Status string `json:"status"`
}

type FollowUpTaskResponse struct {
	ID          uuid.UUID      `json:"id"`
	WorkspaceID uuid.UUID      `json:"workspaceId"`
	LeadID      uuid.UUID      `json:"leadId"`
	Status      string         `json:"status"`
	DueAt       *time.Time     `json:"dueAt,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type FollowUpResponse struct {
	Task FollowUpTaskResponse `json:"task"`
}

type TimelineEventResponse struct {
	ID        uuid.UUID      `json:"id"`
	ActorType string         `json:"actorType"`
	ActorName string         `json:"actorName"`
	EventType string         `json:"eventType"`
	Title     string         `json:"title"`
	Summary   *string        `json:"summary,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type TimelineResponse struct {
	Items []TimelineEventResponse `json:"items"`
}

type CompanyResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Domain    *string   `json:"domain,omitempty"`
	Industry  *string   `json:"industry,omitempty"`
	Employees *int      `json:"employees,omitempty"`
}

type QualificationResponse struct {
	Framework      string    `json:"framework"`
	Score          int       `json:"score"`
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"createdAt"`
}

type LeadResponse struct {
	ID                  uuid.UUID              `json:"id"`
	WorkspaceID         uuid.UUID              `json:"workspaceId"`
	FirstName           string                 `json:"firstName"`
	LastName            string                 `json:"lastName"`
	Email               string                 `json:"email"`
	Phone               *string                `json:"phone,omitempty"`
	Title               *string                `json:"title,omitempty"`
	Source              string                 `json:"source"`
	Status              string                 `json:"status"`
	Priority            string                 `json:"priority"`
	Score               int                    `json:"score"`
	LastContactAt       *time.Time             `json:"lastContactAt,omitempty"`
	LastQualifiedAt     *time.Time             `json:"lastQualifiedAt,omitempty"`
	Company             *CompanyResponse       `json:"company,omitempty"`
	LatestQualification *QualificationResponse `json:"latestQualification,omitempty"`
	CreatedAt           time.Time              `json:"createdAt"`
}
