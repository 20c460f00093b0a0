// Package enrichment looks up company firmographics from third-party providers.
package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"revenue_automation_backend/platform/config"
)

const defaultHTTPTimeout = 10 * time.Second

// Firmographics are the company fields a provider may supply. Nil means unknown.
type Firmographics struct {
	Industry    *string
	Employees   *int
	Revenue     *int64
	LinkedInURL *string
}

// Result is one provider's answer for a domain.
type Result struct {
	Provider      string
	Payload       map[string]any
	Firmographics Firmographics
}

// Provider enriches a company by its normalized domain.
type Provider interface {
	Name() string
	EnrichCompany(ctx context.Context, domain string) (Result, error)
}

// httpProvider holds the transport shared by all providers. Each provider gets
// its own limiter so a slow vendor never starves the others.
type httpProvider struct {
	name    string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	headers map[string]string
}

func newHTTPProvider(name, baseURL string, perSecond float64, headers map[string]string) httpProvider {
	return httpProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		headers: headers,
	}
}

func (p httpProvider) Name() string { return p.name }

func (p httpProvider) doJSON(ctx context.Context, method, path string, body any) (map[string]any, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%s status %d: %s", p.name, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s decode: %w", p.name, err)
	}
	return payload, nil
}

// ProvidersFromConfig returns one provider per configured API key, in
// precedence order for firmographics.
func ProvidersFromConfig(cfg config.EnrichmentConfig) []Provider {
	var providers []Provider
	if key := cfg.GetClearbitAPIKey(); key != "" {
		providers = append(providers, NewClearbit(key, clearbitBaseURL))
	}
	if key := cfg.GetZoomInfoAPIKey(); key != "" {
		providers = append(providers, NewZoomInfo(key, zoomInfoBaseURL))
	}
	if key := cfg.GetApolloAPIKey(); key != "" {
		providers = append(providers, NewApollo(key, apolloBaseURL))
	}
	return providers
}

// lookup walks a nested JSON object by keys.
func lookup(payload map[string]any, keys ...string) any {
	var current any = payload
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

func stringAt(payload map[string]any, keys ...string) *string {
	s, ok := lookup(payload, keys...).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

func intAt(payload map[string]any, keys ...string) *int {
	f, ok := lookup(payload, keys...).(float64)
	if !ok || f < 0 {
		return nil
	}
	v := int(f)
	return &v
}

func int64At(payload map[string]any, keys ...string) *int64 {
	f, ok := lookup(payload, keys...).(float64)
	if !ok || f < 0 {
		return nil
	}
	v := int64(f)
	return &v
}
