package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/platform/apperr"
)

type Lead struct {
	ID              uuid.UUID
	WorkspaceID     uuid.UUID
	CompanyID       *uuid.UUID
	FirstName       string
	LastName        string
	Email           string
	Phone           *string
	Title           *string
	Source          domain.LeadSource
	Status          domain.LeadStatus
	Priority        domain.LeadPriority
	Score           int
	Metadata        map[string]any
	LastContactAt   *time.Time
	LastQualifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName joins first and last name.
func (l Lead) FullName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	default:
		return l.FirstName + " " + l.LastName
	}
}

type UpsertLeadParams struct {
	WorkspaceID uuid.UUID
	CompanyID   *uuid.UUID
	FirstName   string
	LastName    string
	Email       string
	Phone       *string
	Title       *string
	Source      domain.LeadSource
	Priority    domain.LeadPriority
	Metadata    map[string]any
}

const leadColumns = `id, workspace_id, company_id, first_name, last_name, email, phone, title, source, status,
	priority, score, metadata, last_contact_at, last_qualified_at, created_at, updated_at`

func scanLead(s rowScanner, extra ...any) (Lead, error) {
	var l Lead
	var rawMetadata []byte
	dest := []any{&l.ID, &l.WorkspaceID, &l.CompanyID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Title,
		&l.Source, &l.Status, &l.Priority, &l.Score, &rawMetadata, &l.LastContactAt, &l.LastQualifiedAt,
		&l.CreatedAt, &l.UpdatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return Lead{}, err
	}
	l.Metadata = unmarshalMap(rawMetadata)
	return l, nil
}

// UpsertLeadByEmail inserts a lead or refreshes the existing row with the same
// email. Both paths reset status to NEW and priority to the supplied default.
// An email already owned by another workspace is a Conflict and the row is left
// untouched. The boolean reports whether a new row was inserted.
func (r *Repository) UpsertLeadByEmail(ctx context.Context, params UpsertLeadParams) (Lead, bool, error) {
	metadata, err := marshalJSON(params.Metadata)
	if err != nil {
		return Lead{}, false, err
	}

	var inserted bool
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			workspace_id, company_id, first_name, last_name, email, phone, title,
			source, status, priority, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (email) DO UPDATE SET
			company_id = COALESCE(EXCLUDED.company_id, leads.company_id),
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = COALESCE(EXCLUDED.phone, leads.phone),
			title = COALESCE(EXCLUDED.title, leads.title),
			source = EXCLUDED.source,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			metadata = EXCLUDED.metadata,
			updated_at = now()
		WHERE leads.workspace_id = EXCLUDED.workspace_id
		RETURNING `+leadColumns+`, (xmax = 0) AS inserted
	`,
		params.WorkspaceID, params.CompanyID, params.FirstName, params.LastName, params.Email, params.Phone,
		params.Title, params.Source, domain.LeadStatusNew, params.Priority, metadata,
	), &inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, false, apperr.Conflict("lead email belongs to another workspace")
	}
	if err != nil {
		return Lead{}, false, err
	}
	return lead, inserted, nil
}

func (r *Repository) GetLead(ctx context.Context, workspaceID, leadID uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1 AND workspace_id = $2
	`, leadID, workspaceID))
	if err != nil {
		return Lead{}, notFoundOr(err, "lead", leadID)
	}
	return lead, nil
}

func (r *Repository) TouchLastContact(ctx context.Context, leadID uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET last_contact_at = $2, updated_at = now() WHERE id = $1
	`, leadID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("lead %s not found", leadID)
	}
	return nil
}

// ListLeadsForAnalytics returns every lead of a workspace.
func (r *Repository) ListLeadsForAnalytics(ctx context.Context, workspaceID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE workspace_id = $1 ORDER BY created_at ASC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
