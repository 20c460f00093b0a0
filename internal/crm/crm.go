// Package crm mirrors qualified leads into external CRMs. Sync is best effort.
package crm

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
	"revenue_automation_backend/platform/logger"
)

// Contact is the CRM view of a lead.
type Contact struct {
	Email          string
	FirstName      string
	LastName       string
	Phone          string
	Title          string
	Company        string
	LifecycleStage string
}

func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Client upserts a contact and returns the CRM's own identifier.
type Client interface {
	Name() string
	UpsertContact(ctx context.Context, contact Contact) (string, error)
}

// Syncer fans a contact out to every configured CRM.
type Syncer struct {
	clients []Client
	log     *logger.Logger
}

func NewSyncer(clients []Client, log *logger.Logger) *Syncer {
	return &Syncer{clients: clients, log: log}
}

// FromConfig builds a Syncer for the CRMs that have credentials.
func FromConfig(cfg config.CRMConfig, log *logger.Logger) *Syncer {
	var clients []Client
	if token := cfg.GetHubSpotAccessToken(); token != "" {
		clients = append(clients, NewHubSpot(token, hubSpotBaseURL))
	}
	if token := cfg.GetPipedriveAPIToken(); token != "" {
		clients = append(clients, NewPipedrive(token, pipedriveBaseURL))
	}
	if creds := cfg.GetSalesforce(); creds.Complete() {
		clients = append(clients, NewSalesforce(creds))
	}
	return NewSyncer(clients, log)
}

// Sync pushes the contact to each CRM and returns how many accepted it.
func (s *Syncer) Sync(ctx context.Context, contact Contact) int {
	if s == nil {
		return 0
	}
	synced := 0
	for _, client := range s.clients {
		id, err := client.UpsertContact(ctx, contact)
		if err != nil {
			s.log.Warn("crm sync failed", "crm", client.Name(), "email", contact.Email, "error", err)
			continue
		}
		s.log.Info("crm contact synced", "crm", client.Name(), "externalId", id)
		synced++
	}
	return synced
}

type transport struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	headers map[string]string
}

func newTransport(baseURL string, perSecond float64, headers map[string]string) transport {
	return transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		headers: headers,
	}
}

func (t transport) do(ctx context.Context, method, path string, body, out any) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
