package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() Message {
	return Message{
		To:         "ada@example.com",
		From:       "sdr@acme.io",
		FromName:   "Acme SDR",
		Subject:    "Quick question",
		HTML:       "<p>Hi Ada</p>",
		Text:       "Hi Ada",
		Categories: []string{"outreach-step"},
		CustomArgs: map[string]string{"leadId": "lead-1", "stepId": "step-1"},
	}
}

func TestBrevoSendPayload(t *testing.T) {
	var captured brevoEmailRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/smtp/email", r.URL.Path)
		apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := &BrevoSender{apiKey: "secret", baseURL: srv.URL, client: srv.Client()}
	require.NoError(t, sender.Send(context.Background(), testMessage()))

	assert.Equal(t, "secret", apiKey)
	assert.Equal(t, "sdr@acme.io", captured.Sender.Email)
	assert.Equal(t, "Acme SDR", captured.Sender.Name)
	require.Len(t, captured.To, 1)
	assert.Equal(t, "ada@example.com", captured.To[0].Email)
	assert.Equal(t, []string{"outreach-step"}, captured.Tags)
	assert.Equal(t, "Hi Ada", captured.TextContent)
	assert.Contains(t, captured.HTMLContent, "<p>Hi Ada</p>")
	assert.Contains(t, captured.HTMLContent, "<!DOCTYPE html>")

	var custom map[string]string
	require.NoError(t, json.Unmarshal([]byte(captured.Headers[brevoCustomHeader]), &custom))
	assert.Equal(t, "lead-1", custom["leadId"])
}

func TestBrevoSendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid sender", http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := &BrevoSender{apiKey: "secret", baseURL: srv.URL, client: srv.Client()}
	err := sender.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestSendRejectsIncompleteMessage(t *testing.T) {
	sender := &BrevoSender{apiKey: "secret", baseURL: "http://127.0.0.1:0", client: http.DefaultClient}
	msg := testMessage()
	msg.To = ""
	require.Error(t, sender.Send(context.Background(), msg))
}

func TestRenderHTMLKeepsFullDocuments(t *testing.T) {
	msg := testMessage()
	msg.HTML = "<html><body>done</body></html>"
	out, err := renderHTML(msg)
	require.NoError(t, err)
	assert.Equal(t, msg.HTML, out)
}

func TestRenderHTMLWrapsFragment(t *testing.T) {
	out, err := renderHTML(testMessage())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Quick question</title>")
	assert.Contains(t, out, "Acme SDR")
}

func TestSMTPBuildMsgSetsHeaders(t *testing.T) {
	s := NewSMTPSender("localhost", 25, "", "")
	m, err := s.buildMsg(testMessage())
	require.NoError(t, err)

	var buf strings.Builder
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Subject: Quick question")
	assert.Contains(t, raw, "X-Arg-leadId: lead-1")
	assert.Contains(t, raw, "X-Categories: outreach-step")
}

type stubEmailConfig struct {
	enabled bool
	brevo   string
	host    string
}

func (s stubEmailConfig) GetEmailEnabled() bool          { return s.enabled }
func (s stubEmailConfig) GetBrevoAPIKey() string         { return s.brevo }
func (s stubEmailConfig) GetSMTPHost() string            { return s.host }
func (s stubEmailConfig) GetSMTPPort() int               { return 587 }
func (s stubEmailConfig) GetSMTPUsername() string        { return "" }
func (s stubEmailConfig) GetSMTPPassword() string        { return "" }
func (s stubEmailConfig) GetOutreachFromAddress() string { return "sdr@acme.io" }
func (s stubEmailConfig) GetOutreachFromName() string    { return "Acme" }

func TestNewSenderSelection(t *testing.T) {
	s, err := NewSender(stubEmailConfig{})
	require.NoError(t, err)
	assert.IsType(t, NoopSender{}, s)

	s, err = NewSender(stubEmailConfig{enabled: true, host: "smtp.local"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	s, err = NewSender(stubEmailConfig{enabled: true, brevo: "k"})
	require.NoError(t, err)
	assert.IsType(t, &BrevoSender{}, s)

	_, err = NewSender(stubEmailConfig{enabled: true})
	require.Error(t, err)
}
