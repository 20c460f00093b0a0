package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue_automation_backend/platform/config"
	"revenue_automation_backend/platform/logger"
)

type stubClient struct {
	name  string
	err   error
	calls int
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) UpsertContact(context.Context, Contact) (string, error) {
	s.calls++
	return "1", s.err
}

func TestSyncContinuesPastFailures(t *testing.T) {
	failing := &stubClient{name: "hubspot", err: errors.New("401")}
	ok := &stubClient{name: "pipedrive"}
	s := NewSyncer([]Client{failing, ok}, logger.New("test"))

	assert.Equal(t, 1, s.Sync(context.Background(), Contact{Email: "ada@example.com"}))
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestNilSyncerIsNoop(t *testing.T) {
	var s *Syncer
	assert.Zero(t, s.Sync(context.Background(), Contact{}))
}

func TestHubSpotCreatesWhenMissing(t *testing.T) {
	var created map[string]map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/crm/v3/objects/contacts/search":
			_, _ = w.Write([]byte(`{"results":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/crm/v3/objects/contacts":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			_, _ = w.Write([]byte(`{"id":"901"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	id, err := NewHubSpot("tok", srv.URL).UpsertContact(context.Background(), Contact{
		Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", Title: "CTO",
	})
	require.NoError(t, err)
	assert.Equal(t, "901", id)
	assert.Equal(t, "CTO", created["properties"]["jobtitle"])
	_, hasPhone := created["properties"]["phone"]
	assert.False(t, hasPhone)
}

func TestHubSpotUpdatesExisting(t *testing.T) {
	var patched bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/crm/v3/objects/contacts/search":
			_, _ = w.Write([]byte(`{"results":[{"id":"77"}]}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/crm/v3/objects/contacts/77":
			patched = true
			_, _ = w.Write([]byte(`{"id":"77"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	id, err := NewHubSpot("tok", srv.URL).UpsertContact(context.Background(), Contact{Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "77", id)
	assert.True(t, patched)
}

func TestPipedriveUpsert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("api_token"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/persons/search":
			assert.Equal(t, "ada@example.com", r.URL.Query().Get("term"))
			_, _ = w.Write([]byte(`{"data":{"items":[]}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/persons":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Ada Lovelace", body["name"])
			_, _ = w.Write([]byte(`{"data":{"id":42}}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	id, err := NewPipedrive("tok", srv.URL).UpsertContact(context.Background(), Contact{
		Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestSalesforceLogsInOnceAndCreatesLead(t *testing.T) {
	var logins int
	var created map[string]any
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/services/oauth2/token":
			logins++
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "password", r.PostForm.Get("grant_type"))
			assert.Equal(t, "secretTOKEN", r.PostForm.Get("password"))
			_, _ = w.Write([]byte(`{"access_token":"sf","instance_url":"` + srv.URL + `"}`))
		case r.URL.Path == "/services/data/v62.0/query":
			assert.Equal(t, "Bearer sf", r.Header.Get("Authorization"))
			assert.Contains(t, r.URL.Query().Get("q"), `Email = 'o\'brien@example.com'`)
			_, _ = w.Write([]byte(`{"records":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/services/data/v62.0/sobjects/Lead":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"00Q1"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	sf := NewSalesforce(config.SalesforceCredentials{
		LoginURL: srv.URL, ClientID: "id", ClientSecret: "cs", Username: "u", Password: "secret", SecurityToken: "TOKEN",
	})
	contact := Contact{Email: "o'brien@example.com", FirstName: "Pat"}

	for i := 0; i < 2; i++ {
		id, err := sf.UpsertContact(context.Background(), contact)
		require.NoError(t, err)
		assert.Equal(t, "00Q1", id)
	}
	assert.Equal(t, 1, logins)
	assert.Equal(t, "Unknown", created["Company"])
	assert.Equal(t, "Pat", created["LastName"])
}

func TestSalesforceReloginAfterExpiredSession(t *testing.T) {
	var logins, queries int
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/services/oauth2/token":
			logins++
			_, _ = w.Write([]byte(`{"access_token":"sf","instance_url":"` + srv.URL + `"}`))
		case r.URL.Path == "/services/data/v62.0/query":
			queries++
			if queries == 1 {
				http.Error(w, `[{"errorCode":"INVALID_SESSION_ID"}]`, http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"records":[{"Id":"00Q9"}]}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/services/data/v62.0/sobjects/Lead/00Q9":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	sf := NewSalesforce(config.SalesforceCredentials{
		LoginURL: srv.URL, ClientID: "id", ClientSecret: "cs", Username: "u", Password: "p", SecurityToken: "t",
	})
	id, err := sf.UpsertContact(context.Background(), Contact{Email: "ada@example.com", LastName: "Lovelace"})

	require.NoError(t, err)
	assert.Equal(t, "00Q9", id)
	assert.Equal(t, 2, logins)
}
