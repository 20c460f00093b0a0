package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const brevoBaseURL = "https://api.brevo.com/v3"

// brevoCustomHeader is echoed back on Brevo webhooks.
const brevoCustomHeader = "X-Mailin-custom"

type BrevoSender struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoEmailRequest struct {
	Sender      brevoAddress      `json:"sender"`
	To          []brevoAddress    `json:"to"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent"`
	TextContent string            `json:"textContent,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

func (b *BrevoSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	html, err := renderHTML(msg)
	if err != nil {
		return err
	}

	payload := brevoEmailRequest{
		Sender:      brevoAddress{Name: msg.FromName, Email: msg.From},
		To:          []brevoAddress{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: html,
		TextContent: msg.Text,
		Tags:        msg.Categories,
	}
	if len(msg.CustomArgs) > 0 {
		custom, err := json.Marshal(msg.CustomArgs)
		if err != nil {
			return err
		}
		payload.Headers = map[string]string{brevoCustomHeader: string(custom)}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/smtp/email", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("brevo send failed: status %d: %s", resp.StatusCode, string(data))
	}

	return nil
}
