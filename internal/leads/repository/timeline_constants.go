package repository

// ActorType constants identify the category of entity that produced a timeline event.
const (
	ActorTypeAgent  = "agent"  // AI agent acting on the lead
	ActorTypeSystem = "system" // Internal pipeline process
)

// Actor name constants for agents and system processes.
const (
	ActorNameQualification      = "gemini-qualification"
	ActorNameOrchestrator       = "orchestrator"
	ActorNameOutreachAutomation = "outreach-automation"
	ActorNameFollowUpAutomation = "followup-automation"
	ActorNamePipeline           = "pipeline"
)

// EventType constants identify the nature of a timeline event.
const (
	EventTypeQualificationCompleted = "qualification.completed"
	EventTypeRoutingUnknown         = "routing.unknown"
	EventTypeHumanReview            = "review.requested"
	EventTypeSlackNotice            = "notify.slack"
	EventTypeSequenceMissing        = "outreach.sequence_missing"
	EventTypeSequenceCompleted      = "outreach.sequence_completed"
	EventTypeOutreachHalted         = "outreach.halted"
	EventTypeFollowUpCompleted      = "followup.completed"
	EventTypeFollowUpSkipped        = "followup.skipped"
)

// EventTitle constants are the human-readable labels shown in the timeline UI.
const (
	EventTitleQualificationCompleted = "Qualification completed"
	EventTitleRoutingUnknown         = "Unrecognised routing decision"
	EventTitleHumanReview            = "Human review requested"
	EventTitleSlackNotice            = "Team notification requested"
	EventTitleSequenceMissing        = "No active outreach sequence"
	EventTitleSequenceCompleted      = "Outreach sequence completed"
	EventTitleOutreachHalted         = "Outreach stopped"
	EventTitleFollowUpCompleted      = "Follow-up sent"
	EventTitleFollowUpSkipped        = "Follow-up skipped"
)
