package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Context window sizes loaded for AI prompts.
const (
	contextInteractionLimit  = 10
	contextIntentSignalLimit = 10
)

type IntentSignal struct {
	Provider   string
	Topic      *string
	Score      int
	CapturedAt time.Time
}

// LeadContext is everything the AI collaborators see about a lead.
type LeadContext struct {
	Lead                Lead
	Company             *Company
	RecentInteractions  []Interaction // newest first
	IntentSignals       []IntentSignal
	LatestQualification *QualificationSnapshot
	LatestEnrollment    *EnrollmentSummary
}

// EnrollmentSummary is the newest enrollment with its sequence name.
type EnrollmentSummary struct {
	Enrollment
	SequenceName string
}

// LatestInteraction returns the newest interaction, if any.
func (c LeadContext) LatestInteraction() *Interaction {
	if len(c.RecentInteractions) == 0 {
		return nil
	}
	return &c.RecentInteractions[0]
}

// GetLeadContext loads the lead with its company, recent interactions,
// intent signals and newest qualification snapshot.
func (r *Repository) GetLeadContext(ctx context.Context, workspaceID, leadID uuid.UUID) (LeadContext, error) {
	lead, err := r.GetLead(ctx, workspaceID, leadID)
	if err != nil {
		return LeadContext{}, err
	}
	out := LeadContext{Lead: lead}

	if lead.CompanyID != nil {
		company, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, *lead.CompanyID))
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return LeadContext{}, err
		}
		if err == nil {
			out.Company = &company
		}
	}

	if out.RecentInteractions, err = r.listRecentInteractions(ctx, leadID, contextInteractionLimit); err != nil {
		return LeadContext{}, err
	}
	if out.IntentSignals, err = r.listIntentSignals(ctx, leadID, contextIntentSignalLimit); err != nil {
		return LeadContext{}, err
	}

	snapshot, err := r.latestQualification(ctx, leadID)
	switch {
	case err == nil:
		out.LatestQualification = &snapshot
	case !errors.Is(err, pgx.ErrNoRows):
		return LeadContext{}, err
	}

	var enrollment EnrollmentSummary
	err = r.pool.QueryRow(ctx, `
		SELECT e.id, e.lead_id, e.sequence_id, e.status, e.completed_at, e.created_at, s.name
		FROM sequence_enrollments e
		JOIN outreach_sequences s ON s.id = e.sequence_id
		WHERE e.lead_id = $1
		ORDER BY e.created_at DESC
		LIMIT 1
	`, leadID).Scan(&enrollment.ID, &enrollment.LeadID, &enrollment.SequenceID, &enrollment.Status,
		&enrollment.CompletedAt, &enrollment.CreatedAt, &enrollment.SequenceName)
	switch {
	case err == nil:
		out.LatestEnrollment = &enrollment
	case !errors.Is(err, pgx.ErrNoRows):
		return LeadContext{}, err
	}

	return out, nil
}

func (r *Repository) listIntentSignals(ctx context.Context, leadID uuid.UUID, limit int) ([]IntentSignal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT provider, topic, score, captured_at
		FROM intent_signals
		WHERE lead_id = $1
		ORDER BY captured_at DESC
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signals := make([]IntentSignal, 0)
	for rows.Next() {
		var s IntentSignal
		if err := rows.Scan(&s.Provider, &s.Topic, &s.Score, &s.CapturedAt); err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}
