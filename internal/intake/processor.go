// Package intake turns raw inbound contacts into stored leads and schedules
// their first qualification pass.
package intake

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"revenue_automation_backend/internal/events"
	"revenue_automation_backend/internal/leads/domain"
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/internal/scheduler"
	"revenue_automation_backend/platform/apperr"
	"revenue_automation_backend/platform/logger"
	"revenue_automation_backend/platform/phone"
	"revenue_automation_backend/platform/sanitize"
)

const defaultEnrichmentTimeout = 30 * time.Second

// Enricher looks up firmographics for a company. It never returns errors;
// provider failures are its own concern.
type Enricher interface {
	EnrichCompany(ctx context.Context, companyID uuid.UUID, domain string)
}

type Processor struct {
	companies     repository.CompanyStore
	leads         repository.LeadStore
	enricher      Enricher
	queue         scheduler.QualificationScheduler
	publisher     events.Publisher
	log           *logger.Logger
	enrichTimeout time.Duration

	// enrichments tracks detached enrichment goroutines so shutdown can drain them.
	enrichments sync.WaitGroup
}

func NewProcessor(
	companies repository.CompanyStore,
	leads repository.LeadStore,
	enricher Enricher,
	queue scheduler.QualificationScheduler,
	publisher events.Publisher,
	log *logger.Logger,
	enrichTimeout time.Duration,
) *Processor {
	if enrichTimeout <= 0 {
		enrichTimeout = defaultEnrichmentTimeout
	}
	return &Processor{
		companies:     companies,
		leads:         leads,
		enricher:      enricher,
		queue:         queue,
		publisher:     publisher,
		log:           log,
		enrichTimeout: enrichTimeout,
	}
}

// ProcessTask is the asynq handler for the intake queue.
func (p *Processor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := scheduler.ParseIntakePayload(task)
	if err != nil {
		return err
	}
	_, err = p.Process(ctx, payload)
	return err
}

// Process stores the lead and schedules qualification. It returns the lead id.
func (p *Processor) Process(ctx context.Context, payload scheduler.IntakePayload) (uuid.UUID, error) {
	workspaceID, err := uuid.Parse(payload.WorkspaceID)
	if err != nil {
		return uuid.Nil, apperr.BadRequest("invalid workspace id")
	}
	source := domain.LeadSource(strings.ToUpper(strings.TrimSpace(payload.Source)))
	if !source.IsKnown() {
		return uuid.Nil, apperr.Validation("unknown lead source " + payload.Source)
	}

	contact, err := normalizeContact(payload.Contact)
	if err != nil {
		return uuid.Nil, err
	}

	company, err := p.resolveCompany(ctx, workspaceID, contact.Company)
	if err != nil {
		return uuid.Nil, err
	}

	params := repository.UpsertLeadParams{
		WorkspaceID: workspaceID,
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		Email:       contact.Email,
		Phone:       optional(contact.Phone),
		Title:       optional(contact.Title),
		Source:      source,
		Priority:    domain.DefaultPriority(source),
		Metadata:    contact.Metadata,
	}
	if company != nil {
		params.CompanyID = &company.ID
	}

	lead, inserted, err := p.leads.UpsertLeadByEmail(ctx, params)
	if err != nil {
		return uuid.Nil, err
	}
	log := p.log.WithLead(lead.WorkspaceID.String(), lead.ID.String())
	log.Info("lead stored", "inserted", inserted, "source", source)

	if company != nil && company.Domain != nil {
		p.enrichDetached(ctx, company.ID, *company.Domain)
	}

	err = p.queue.EnqueueQualification(ctx, scheduler.QualificationPayload{
		WorkspaceID: lead.WorkspaceID.String(),
		LeadID:      lead.ID.String(),
		Reason:      scheduler.ReasonNewLead,
	}, 0)
	if err != nil {
		return uuid.Nil, err
	}

	p.publisher.Publish(ctx, events.LeadCreated(lead.WorkspaceID, lead.ID, string(source)))
	return lead.ID, nil
}

// resolveCompany finds or creates the company by domain. A company owned by
// another workspace is linked as-is and never renamed.
func (p *Processor) resolveCompany(ctx context.Context, workspaceID uuid.UUID, in *scheduler.IntakeCompany) (*repository.Company, error) {
	if in == nil || in.Name == "" {
		return nil, nil
	}

	normalized := domain.NormalizeDomain(in.Domain)
	if normalized != "" {
		existing, err := p.companies.FindCompanyByDomain(ctx, normalized)
		switch {
		case err == nil:
			if existing.WorkspaceID != workspaceID {
				return &existing, nil
			}
			updated, err := p.companies.UpdateCompanyName(ctx, existing.ID, in.Name)
			if err != nil {
				return nil, err
			}
			return &updated, nil
		case !apperr.Is(err, apperr.KindNotFound):
			return nil, err
		}
	}

	created, err := p.companies.CreateCompany(ctx, repository.CreateCompanyParams{
		WorkspaceID: workspaceID,
		Name:        in.Name,
		Domain:      optional(normalized),
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// enrichDetached runs enrichment outside the job's lifetime. The job never
// waits for it and its failures never reach the broker.
func (p *Processor) enrichDetached(ctx context.Context, companyID uuid.UUID, companyDomain string) {
	if p.enricher == nil {
		return
	}
	p.enrichments.Add(1)
	go func() {
		defer p.enrichments.Done()
		ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.enrichTimeout)
		defer cancel()
		p.enricher.EnrichCompany(ectx, companyID, companyDomain)
	}()
}

// Drain blocks until in-flight enrichments finish.
func (p *Processor) Drain() {
	p.enrichments.Wait()
}

func normalizeContact(in scheduler.IntakeContact) (scheduler.IntakeContact, error) {
	out := in
	out.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if out.Email == "" {
		return out, apperr.Validation("contact email is required")
	}
	if err := checkmail.ValidateFormat(out.Email); err != nil {
		return out, apperr.Wrap(apperr.KindValidation, "invalid contact email", err)
	}

	out.FirstName = sanitize.Text(in.FirstName)
	out.LastName = sanitize.Text(in.LastName)
	out.Title = sanitize.Text(in.Title)
	out.Phone = phone.NormalizeE164(in.Phone)

	if in.Company != nil {
		out.Company = &scheduler.IntakeCompany{
			Name:   sanitize.Text(in.Company.Name),
			Domain: in.Company.Domain,
		}
	}
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	return out, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
