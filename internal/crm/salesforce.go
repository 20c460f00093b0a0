package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"revenue_automation_backend/platform/config"
)

const salesforceAPIVersion = "v62.0"

// Salesforce upserts Lead objects keyed by email. It logs in with the OAuth
// password flow on first use and again after the session expires.
type Salesforce struct {
	creds  config.SalesforceCredentials
	client *http.Client

	mu      sync.Mutex
	session *transport
}

func NewSalesforce(creds config.SalesforceCredentials) *Salesforce {
	return &Salesforce{creds: creds, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *Salesforce) Name() string { return "salesforce" }

type salesforceToken struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
}

type salesforceQuery struct {
	Records []struct {
		ID string `json:"Id"`
	} `json:"records"`
}

type salesforceCreated struct {
	ID string `json:"id"`
}

func (s *Salesforce) login(ctx context.Context) (*transport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return s.session, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", s.creds.ClientID)
	form.Set("client_secret", s.creds.ClientSecret)
	form.Set("username", s.creds.Username)
	form.Set("password", s.creds.Password+s.creds.SecurityToken)

	loginURL := strings.TrimRight(s.creds.LoginURL, "/") + "/services/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("salesforce login: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var tok salesforceToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("salesforce login: %w", err)
	}
	if tok.AccessToken == "" || tok.InstanceURL == "" {
		return nil, fmt.Errorf("salesforce login: incomplete token response")
	}

	t := newTransport(tok.InstanceURL+"/services/data/"+salesforceAPIVersion, 5,
		map[string]string{"Authorization": "Bearer " + tok.AccessToken})
	s.session = &t
	return s.session, nil
}

func (s *Salesforce) expire() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
}

func (s *Salesforce) UpsertContact(ctx context.Context, contact Contact) (string, error) {
	id, err := s.upsert(ctx, contact)
	if err != nil && strings.Contains(err.Error(), "status 401") {
		s.expire()
		return s.upsert(ctx, contact)
	}
	return id, err
}

func (s *Salesforce) upsert(ctx context.Context, contact Contact) (string, error) {
	t, err := s.login(ctx)
	if err != nil {
		return "", err
	}

	soql := fmt.Sprintf("SELECT Id FROM Lead WHERE Email = '%s' LIMIT 1", escapeSOQL(contact.Email))
	var found salesforceQuery
	if err := t.do(ctx, http.MethodGet, "/query?q="+url.QueryEscape(soql), nil, &found); err != nil {
		return "", err
	}

	company := contact.Company
	if company == "" {
		// Lead.Company is required by Salesforce.
		company = "Unknown"
	}
	lastName := contact.LastName
	if lastName == "" {
		lastName = contact.FirstName
	}
	body := map[string]any{
		"FirstName": contact.FirstName,
		"LastName":  lastName,
		"Email":     contact.Email,
		"Company":   company,
	}
	if contact.Phone != "" {
		body["Phone"] = contact.Phone
	}
	if contact.Title != "" {
		body["Title"] = contact.Title
	}

	if len(found.Records) > 0 {
		id := found.Records[0].ID
		if err := t.do(ctx, http.MethodPatch, "/sobjects/Lead/"+id, body, nil); err != nil {
			return "", err
		}
		return id, nil
	}

	var created salesforceCreated
	if err := t.do(ctx, http.MethodPost, "/sobjects/Lead", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func escapeSOQL(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}
