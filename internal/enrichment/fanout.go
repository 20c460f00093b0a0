package enrichment

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/platform/logger"
)

// Fanout queries every provider concurrently and persists what comes back.
// Provider failures are logged and never returned.
type Fanout struct {
	providers []Provider
	store     repository.EnrichmentStore
	log       *logger.Logger
}

func NewFanout(providers []Provider, store repository.EnrichmentStore, log *logger.Logger) *Fanout {
	return &Fanout{providers: providers, store: store, log: log}
}

// Enabled reports whether any provider is configured.
func (f *Fanout) Enabled() bool {
	return f != nil && len(f.providers) > 0
}

func (f *Fanout) EnrichCompany(ctx context.Context, companyID uuid.UUID, domain string) {
	if !f.Enabled() || domain == "" {
		return
	}

	results := make([]*Result, len(f.providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, provider := range f.providers {
		g.Go(func() error {
			res, err := provider.EnrichCompany(gctx, domain)
			if err != nil {
				f.log.Warn("company enrichment failed", "provider", provider.Name(), "domain", domain, "error", err)
				return nil
			}
			if err := f.store.InsertCompanyEnrichment(gctx, companyID, res.Provider, res.Payload); err != nil {
				f.log.Warn("failed to store company enrichment", "provider", provider.Name(), "companyId", companyID, "error", err)
			}
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	merged, ok := mergeFirmographics(results)
	if !ok {
		return
	}
	err := f.store.ApplyCompanyEnrichment(ctx, companyID, repository.ApplyEnrichmentParams{
		Industry:    merged.Industry,
		Employees:   merged.Employees,
		Revenue:     merged.Revenue,
		LinkedInURL: merged.LinkedInURL,
	})
	if err != nil {
		f.log.Warn("failed to apply company enrichment", "companyId", companyID, "error", err)
	}
}

// mergeFirmographics takes each field from the first result that has it.
func mergeFirmographics(results []*Result) (Firmographics, bool) {
	var out Firmographics
	found := false
	for _, res := range results {
		if res == nil {
			continue
		}
		found = true
		if out.Industry == nil {
			out.Industry = res.Firmographics.Industry
		}
		if out.Employees == nil {
			out.Employees = res.Firmographics.Employees
		}
		if out.Revenue == nil {
			out.Revenue = res.Firmographics.Revenue
		}
		if out.LinkedInURL == nil {
			out.LinkedInURL = res.Firmographics.LinkedInURL
		}
	}
	return out, found
}
