// Package agents wraps the AI collaborators used by the pipeline: a Gemini
// qualifier and ADK agents for orchestration and email composition.
package agents

import (
	"math"

	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/internal/leads/repository"
)

// QualificationResult is a validated MEDDIC assessment. Every field must be
// present in the reply; a missing score is not read as zero.
type QualificationResult struct {
	Metrics          map[string]any         `json:"metrics" validate:"required"`
	EconomicBuyer    map[string]any         `json:"economic_buyer" validate:"required"`
	DecisionCriteria []string               `json:"decision_criteria" validate:"required"`
	DecisionProcess  map[string]any         `json:"decision_process" validate:"required"`
	PainPoints       []repository.PainPoint `json:"identify_pain" validate:"required,dive"`
	Champion         map[string]any         `json:"champion" validate:"required"`
	RawScore         *float64               `json:"qualification_score" validate:"required,gte=0,lte=100"`
	Recommendation   domain.Recommendation  `json:"recommendation" validate:"required,oneof=disqualify nurture advance_to_sales fast_track"`
}

// Score is the qualification score rounded to an integer in [0,100].
func (r QualificationResult) Score() int {
	if r.RawScore == nil {
		return 0
	}
	return int(math.Round(*r.RawScore))
}

// Action is one follow-on step proposed by the orchestrator.
type Action struct {
	Type             domain.ActionType `json:"type" validate:"required"`
	Description      string            `json:"description"`
	DueWithinMinutes *int              `json:"dueWithinMinutes,omitempty" validate:"omitempty,gte=0"`
	Payload          map[string]any    `json:"payload,omitempty"`
}

// PayloadString returns a string value from the action payload.
func (a Action) PayloadString(key string) string {
	if a.Payload == nil {
		return ""
	}
	s, _ := a.Payload[key].(string)
	return s
}

// Decision is the orchestrator's routing verdict. Route, priority and status
// are kept raw; callers map them onto the closed domain enums.
type Decision struct {
	AssignedAgent         domain.AssignedAgent `json:"assignedAgent"`
	RouteToQueue          string               `json:"routeToQueue" validate:"required"`
	Priority              domain.LeadPriority  `json:"priority"`
	Confidence            float64              `json:"confidence" validate:"gte=0,lte=1"`
	NextStatus            domain.LeadStatus    `json:"nextStatus"`
	Actions               []Action             `json:"actions" validate:"dive"`
	SpecialConsiderations []string             `json:"specialConsiderations"`
}

// Route maps the raw queue name onto the closed routing enum.
func (d Decision) Route() domain.Route {
	return domain.ParseRoute(d.RouteToQueue)
}

// Email is composed outreach content. All three fields are required.
type Email struct {
	Subject  string `json:"subject" validate:"required,notblank"`
	HTMLBody string `json:"htmlBody" validate:"required,notblank"`
	TextBody string `json:"textBody" validate:"required,notblank"`
}
