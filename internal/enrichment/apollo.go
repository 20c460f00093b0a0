package enrichment

import (
	"context"
	"net/http"
)

const apolloBaseURL = "https://api.apollo.io/v1"

type Apollo struct {
	httpProvider
	apiKey string
}

func NewApollo(apiKey, baseURL string) *Apollo {
	return &Apollo{httpProvider: newHTTPProvider("apollo", baseURL, 2, nil), apiKey: apiKey}
}

func (a *Apollo) EnrichCompany(ctx context.Context, domain string) (Result, error) {
	payload, err := a.doJSON(ctx, http.MethodPost, "/organizations/enrich", map[string]string{
		"api_key": a.apiKey,
		"domain":  domain,
	})
	if err != nil {
		return Result{}, err
	}

	firm := Firmographics{
		Industry:    stringAt(payload, "organization", "industry"),
		Employees:   intAt(payload, "organization", "estimated_num_employees"),
		Revenue:     int64At(payload, "organization", "annual_revenue"),
		LinkedInURL: stringAt(payload, "organization", "linkedin_url"),
	}
	return Result{Provider: a.Name(), Payload: payload, Firmographics: firm}, nil
}
