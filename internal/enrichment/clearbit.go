package enrichment

import (
	"context"
	"net/http"
	"net/url"
)

const clearbitBaseURL = "https://company.clearbit.com/v2"

type Clearbit struct {
	httpProvider
}

func NewClearbit(apiKey, baseURL string) *Clearbit {
	return &Clearbit{newHTTPProvider("clearbit", baseURL, 5, map[string]string{
		"Authorization": "Bearer " + apiKey,
	})}
}

func (c *Clearbit) EnrichCompany(ctx context.Context, domain string) (Result, error) {
	payload, err := c.doJSON(ctx, http.MethodGet, "/companies/find?domain="+url.QueryEscape(domain), nil)
	if err != nil {
		return Result{}, err
	}

	firm := Firmographics{
		Industry:  stringAt(payload, "category", "industry"),
		Employees: intAt(payload, "metrics", "employees"),
		Revenue:   int64At(payload, "metrics", "estimatedAnnualRevenue"),
	}
	if handle := stringAt(payload, "site", "linkedin", "handle"); handle != nil {
		linkedIn := "https://www.linkedin.com/" + *handle
		firm.LinkedInURL = &linkedIn
	} else if handle := stringAt(payload, "linkedin", "handle"); handle != nil {
		linkedIn := "https://www.linkedin.com/" + *handle
		firm.LinkedInURL = &linkedIn
	}

	return Result{Provider: c.Name(), Payload: payload, Firmographics: firm}, nil
}
