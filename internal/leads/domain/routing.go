package domain

import "strings"

// Route is the queue an orchestration decision sends a lead to next.
type Route string

const (
	RouteOutreach  Route = "outreach:dispatch"
	RouteFollowUp  Route = "followup:execute"
	RouteRequalify Route = "lead:qualification"
	RouteUnknown   Route = "unknown"
)

// ParseRoute maps the decision's free-form route string onto the closed set.
// Anything unrecognised becomes RouteUnknown.
func ParseRoute(raw string) Route {
	switch Route(strings.TrimSpace(strings.ToLower(raw))) {
	case RouteOutreach:
		return RouteOutreach
	case RouteFollowUp:
		return RouteFollowUp
	case RouteRequalify:
		return RouteRequalify
	default:
		return RouteUnknown
	}
}

// ActionType is the kind of a single orchestration action.
type ActionType string

const (
	ActionEnrichLead       ActionType = "enrich_lead"
	ActionQualifyLead      ActionType = "qualify_lead"
	ActionLaunchSequence   ActionType = "launch_sequence"
	ActionScheduleFollowUp ActionType = "schedule_followup"
	ActionHumanReview      ActionType = "human_review"
	ActionSyncCRM          ActionType = "sync_crm"
	ActionNotifySlack      ActionType = "notify_slack"
)

// ActionTypes lists every action the orchestrator may emit.
var ActionTypes = []ActionType{
	ActionEnrichLead,
	ActionQualifyLead,
	ActionLaunchSequence,
	ActionScheduleFollowUp,
	ActionHumanReview,
	ActionSyncCRM,
	ActionNotifySlack,
}

// IsKnown reports whether a is one of the defined action types.
func (a ActionType) IsKnown() bool {
	for _, known := range ActionTypes {
		if a == known {
			return true
		}
	}
	return false
}

// AssignedAgent names the automated agent owning a lead's next move.
type AssignedAgent string

const (
	AgentLeadDiscovery AssignedAgent = "lead-discovery"
	AgentQualification AssignedAgent = "qualification"
	AgentOutreach      AssignedAgent = "outreach"
	AgentFollowUp      AssignedAgent = "follow-up"
)
