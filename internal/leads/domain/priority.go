package domain

// LeadPriority orders leads for attention.
type LeadPriority string

const (
	PriorityLow      LeadPriority = "LOW"
	PriorityMedium   LeadPriority = "MEDIUM"
	PriorityHigh     LeadPriority = "HIGH"
	PriorityCritical LeadPriority = "CRITICAL"
)

// IsKnown reports whether p is one of the defined priorities.
func (p LeadPriority) IsKnown() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// Score thresholds for PriorityForScore. Each is inclusive.
const (
	CriticalScoreThreshold = 80
	HighScoreThreshold     = 60
	MediumScoreThreshold   = 40
)

// PriorityForScore maps a 0-100 qualification score to a priority.
func PriorityForScore(score int) LeadPriority {
	switch {
	case score >= CriticalScoreThreshold:
		return PriorityCritical
	case score >= HighScoreThreshold:
		return PriorityHigh
	case score >= MediumScoreThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// LeadSource records where a lead entered the pipeline.
type LeadSource string

const (
	SourceManual     LeadSource = "MANUAL"
	SourceImport     LeadSource = "IMPORT"
	SourceWebsite    LeadSource = "WEBSITE"
	SourcePartner    LeadSource = "PARTNER"
	SourceEvent      LeadSource = "EVENT"
	SourceIntentData LeadSource = "INTENT_DATA"
	SourceEnriched   LeadSource = "ENRICHED"
	SourceReferral   LeadSource = "REFERRAL"
	SourceOutbound   LeadSource = "OUTBOUND"
)

// LeadSources lists every accepted source value.
var LeadSources = []LeadSource{
	SourceManual, SourceImport, SourceWebsite, SourcePartner, SourceEvent,
	SourceIntentData, SourceEnriched, SourceReferral, SourceOutbound,
}

// IsKnown reports whether s is one of the defined sources.
func (s LeadSource) IsKnown() bool {
	for _, known := range LeadSources {
		if s == known {
			return true
		}
	}
	return false
}

// DefaultPriority is the priority a freshly ingested lead gets before any
// qualification has run.
func DefaultPriority(source LeadSource) LeadPriority {
	switch source {
	case SourceIntentData, SourceReferral, SourceOutbound:
		return PriorityHigh
	case SourceWebsite, SourceEvent:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
