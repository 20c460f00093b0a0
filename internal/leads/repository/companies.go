package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"revenue_automation_backend/platform/apperr"
)

type Company struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Name        string
	Domain      *string
	Industry    *string
	Employees   *int
	Revenue     *int64
	LinkedInURL *string
	EnrichedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateCompanyParams struct {
	WorkspaceID uuid.UUID
	Name        string
	Domain      *string
}

// ApplyEnrichmentParams carries firmographics. Nil fields keep the stored value.
type ApplyEnrichmentParams struct {
	Industry    *string
	Employees   *int
	Revenue     *int64
	LinkedInURL *string
}

const companyColumns = `id, workspace_id, name, domain, industry, employees, revenue, linkedin_url, enriched_at, created_at, updated_at`

func scanCompany(s rowScanner) (Company, error) {
	var c Company
	err := s.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Domain, &c.Industry, &c.Employees, &c.Revenue,
		&c.LinkedInURL, &c.EnrichedAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// FindCompanyByDomain looks a company up across all workspaces. Domains are
// globally unique, so the caller decides whether a foreign owner matters.
func (r *Repository) FindCompanyByDomain(ctx context.Context, domain string) (Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE domain = $1`, domain))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, apperr.NotFoundf("company with domain %s not found", domain)
	}
	return c, err
}

// CreateCompany inserts a company. A concurrent insert of the same domain
// resolves to the existing row instead of failing.
func (r *Repository) CreateCompany(ctx context.Context, params CreateCompanyParams) (Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `
		INSERT INTO companies (workspace_id, name, domain)
		VALUES ($1, $2, $3)
		ON CONFLICT (domain) DO NOTHING
		RETURNING `+companyColumns,
		params.WorkspaceID, params.Name, params.Domain,
	))
	if errors.Is(err, pgx.ErrNoRows) && params.Domain != nil {
		return r.FindCompanyByDomain(ctx, *params.Domain)
	}
	return c, err
}

func (r *Repository) UpdateCompanyName(ctx context.Context, id uuid.UUID, name string) (Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `
		UPDATE companies SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+companyColumns,
		id, name,
	))
	if err != nil {
		return Company{}, notFoundOr(err, "company", id)
	}
	return c, nil
}

func (r *Repository) ApplyCompanyEnrichment(ctx context.Context, companyID uuid.UUID, params ApplyEnrichmentParams) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE companies SET
			industry = COALESCE($2, industry),
			employees = COALESCE($3, employees),
			revenue = COALESCE($4, revenue),
			linkedin_url = COALESCE($5, linkedin_url),
			enriched_at = now(),
			updated_at = now()
		WHERE id = $1
	`, companyID, params.Industry, params.Employees, params.Revenue, params.LinkedInURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("company %s not found", companyID)
	}
	return nil
}

func (r *Repository) InsertCompanyEnrichment(ctx context.Context, companyID uuid.UUID, provider string, payload map[string]any) error {
	raw, err := marshalJSON(payload)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO company_enrichments (company_id, provider, payload)
		VALUES ($1, $2, $3)
	`, companyID, provider, raw)
	return err
}
