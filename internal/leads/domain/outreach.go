package domain

// Channel is the delivery medium of an interaction or sequence step.
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelSMS      Channel = "SMS"
	ChannelLinkedIn Channel = "LINKEDIN"
	ChannelCall     Channel = "CALL"
)

// IsKnown reports whether c is one of the defined channels.
func (c Channel) IsKnown() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelLinkedIn, ChannelCall:
		return true
	default:
		return false
	}
}

// Direction of an interaction relative to the workspace.
type Direction string

const (
	DirectionOutbound Direction = "OUTBOUND"
	DirectionInbound  Direction = "INBOUND"
)

// TaskStatus is the lifecycle of a follow-up task. COMPLETED is terminal.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// EnrollmentStatus is the lifecycle of a lead's run through a sequence.
// COMPLETED is terminal.
type EnrollmentStatus string

const (
	EnrollmentInProgress EnrollmentStatus = "IN_PROGRESS"
	EnrollmentCompleted  EnrollmentStatus = "COMPLETED"
)

// SequenceStatus is the authoring state of a sequence template. Only ACTIVE
// sequences are picked up by dispatch.
type SequenceStatus string

const (
	SequenceDraft    SequenceStatus = "DRAFT"
	SequenceActive   SequenceStatus = "ACTIVE"
	SequenceArchived SequenceStatus = "ARCHIVED"
)

// IsKnown reports whether s is one of the defined sequence statuses.
func (s SequenceStatus) IsKnown() bool {
	switch s {
	case SequenceDraft, SequenceActive, SequenceArchived:
		return true
	default:
		return false
	}
}

// SequenceEventStepCompleted is the only sequence event type that advances
// an enrollment.
const SequenceEventStepCompleted = "step.completed"

// InteractionStatusSent marks an outbound interaction handed to the provider.
const InteractionStatusSent = "sent"
