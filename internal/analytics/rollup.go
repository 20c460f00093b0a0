package analytics

import (
	"math"
	"time"

	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/internal/leads/repository"
)

// Window is the closed interval a rollup covers. Start doubles as the
// metric date of the row.
type Window struct {
	Start time.Time
	End   time.Time
}

// ComputeRollup derives the per-day metrics row for a lead from its
// interactions in the window, which must be ordered oldest first.
func ComputeRollup(lead repository.Lead, interactions []repository.Interaction, w Window) repository.LeadAnalytics {
	return repository.LeadAnalytics{
		WorkspaceID:           lead.WorkspaceID,
		LeadID:                lead.ID,
		MetricDate:            w.Start,
		Touches:               len(interactions),
		ResponseTimeMinutes:   responseMinutes(interactions),
		ConversionProbability: conversionProbability(lead.Score),
		PipelineStage:         lead.Status,
	}
}

// responseMinutes is the gap between the first outbound and the first
// inbound interaction. Nil without both, or when the lead wrote first.
func responseMinutes(interactions []repository.Interaction) *int {
	var outbound, inbound *time.Time
	for i := range interactions {
		in := &interactions[i]
		switch in.Direction {
		case domain.DirectionOutbound:
			if outbound == nil {
				outbound = &in.SentAt
			}
		case domain.DirectionInbound:
			if inbound == nil {
				inbound = &in.SentAt
			}
		}
	}
	if outbound == nil || inbound == nil || inbound.Before(*outbound) {
		return nil
	}
	minutes := int(math.Round(inbound.Sub(*outbound).Minutes()))
	return &minutes
}

func conversionProbability(score int) float64 {
	switch {
	case score <= 0:
		return 0
	case score >= 100:
		return 1
	default:
		return float64(score) / 100
	}
}
