// Package domain holds the pipeline's enumerations and the pure rules that
// map between them. Nothing here performs I/O.
package domain

// LeadStatus is the pipeline stage of a lead.
type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "NEW"
	LeadStatusQualified    LeadStatus = "QUALIFIED"
	LeadStatusInProgress   LeadStatus = "IN_PROGRESS"
	LeadStatusNurture      LeadStatus = "NURTURE"
	LeadStatusOpportunity  LeadStatus = "OPPORTUNITY"
	LeadStatusDisqualified LeadStatus = "DISQUALIFIED"
	LeadStatusClosedWon    LeadStatus = "CLOSED_WON"
	LeadStatusClosedLost   LeadStatus = "CLOSED_LOST"
)

var knownLeadStatuses = map[LeadStatus]struct{}{
	LeadStatusNew:          {},
	LeadStatusQualified:    {},
	LeadStatusInProgress:   {},
	LeadStatusNurture:      {},
	LeadStatusOpportunity:  {},
	LeadStatusDisqualified: {},
	LeadStatusClosedWon:    {},
	LeadStatusClosedLost:   {},
}

// IsKnown reports whether s is one of the defined statuses.
func (s LeadStatus) IsKnown() bool {
	_, ok := knownLeadStatuses[s]
	return ok
}

// IsTerminal reports whether automated outreach must stop for a lead in
// this status.
func (s LeadStatus) IsTerminal() bool {
	switch s {
	case LeadStatusDisqualified, LeadStatusClosedWon, LeadStatusClosedLost:
		return true
	default:
		return false
	}
}

// Recommendation is the qualification verdict.
type Recommendation string

const (
	RecommendationDisqualify     Recommendation = "disqualify"
	RecommendationNurture        Recommendation = "nurture"
	RecommendationAdvanceToSales Recommendation = "advance_to_sales"
	RecommendationFastTrack      Recommendation = "fast_track"
)

// Recommendations lists every verdict, in escalating order.
var Recommendations = []Recommendation{
	RecommendationDisqualify,
	RecommendationNurture,
	RecommendationAdvanceToSales,
	RecommendationFastTrack,
}

// StatusForRecommendation maps a qualification verdict to the lead status it
// implies. Unknown verdicts leave the status unchanged (ok=false).
func StatusForRecommendation(rec Recommendation) (LeadStatus, bool) {
	switch rec {
	case RecommendationDisqualify:
		return LeadStatusDisqualified, true
	case RecommendationNurture:
		return LeadStatusNurture, true
	case RecommendationAdvanceToSales:
		return LeadStatusQualified, true
	case RecommendationFastTrack:
		return LeadStatusOpportunity, true
	default:
		return "", false
	}
}
