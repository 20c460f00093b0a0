package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"revenue_automation_backend/internal/leads/transport"
	"revenue_automation_backend/platform/apperr"
	"revenue_automation_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	queued    []transport.CreateLeadRequest
	followUps []transport.CreateFollowUpRequest
	lead      transport.LeadResponse
	timeline  transport.TimelineResponse
	err       error
}

func (f *fakeService) QueueLead(_ context.Context, req transport.CreateLeadRequest) error {
	f.queued = append(f.queued, req)
	return f.err
}

func (f *fakeService) CreateFollowUp(_ context.Context, leadID uuid.UUID, req transport.CreateFollowUpRequest) (transport.FollowUpTaskResponse, error) {
	f.followUps = append(f.followUps, req)
	if f.err != nil {
		return transport.FollowUpTaskResponse{}, f.err
	}
	return transport.FollowUpTaskResponse{ID: uuid.New(), LeadID: leadID, Status: "PENDING", CreatedAt: time.Now()}, nil
}

func (f *fakeService) GetLead(context.Context, uuid.UUID, uuid.UUID) (transport.LeadResponse, error) {
	return f.lead, f.err
}

func (f *fakeService) Timeline(context.Context, uuid.UUID, uuid.UUID) (transport.TimelineResponse, error) {
	return f.timeline, f.err
}

func newRouter(svc Service) *gin.Engine {
	r := gin.New()
	New(svc, validator.New()).RegisterRoutes(r.Group("/api/v1/leads"))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateQueuesLead(t *testing.T) {
	svc := &fakeService{}
	body := `{"workspaceId":"` + uuid.NewString() + `","firstName":"Ada","lastName":"Lovelace","email":"ada@acme.io","company":{"name":"Acme","domain":"acme.io"}}`

	w := do(newRouter(svc), http.MethodPost, "/api/v1/leads", body)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"status":"queued"}`, w.Body.String())
	require.Len(t, svc.queued, 1)
	assert.Equal(t, "Acme", svc.queued[0].Company.Name)
}

func TestCreateRejectsInvalidBody(t *testing.T) {
	svc := &fakeService{}
	cases := map[string]string{
		"malformed json":  `{"workspaceId":`,
		"missing email":   `{"workspaceId":"` + uuid.NewString() + `","firstName":"Ada"}`,
		"blank name":      `{"workspaceId":"` + uuid.NewString() + `","firstName":"  ","email":"ada@acme.io"}`,
		"bad workspaceId": `{"workspaceId":"nope","firstName":"Ada","email":"ada@acme.io"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(newRouter(svc), http.MethodPost, "/api/v1/leads", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, svc.queued)
}

func TestCreateMapsServiceValidationError(t *testing.T) {
	svc := &fakeService{err: apperr.Validation("unknown lead source carrier-pigeon")}
	body := `{"workspaceId":"` + uuid.NewString() + `","firstName":"Ada","email":"ada@acme.io","source":"carrier-pigeon"}`

	w := do(newRouter(svc), http.MethodPost, "/api/v1/leads", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown lead source")
}

func TestCreateFollowUpReturnsTask(t *testing.T) {
	svc := &fakeService{}
	leadID := uuid.New()
	body := `{"workspaceId":"` + uuid.NewString() + `","notes":"Check in after demo","dueAt":"2030-01-02T15:04:05Z"}`

	w := do(newRouter(svc), http.MethodPost, "/api/v1/leads/"+leadID.String()+"/followups", body)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp transport.FollowUpResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, leadID, resp.Task.LeadID)
	require.Len(t, svc.followUps, 1)
	require.NotNil(t, svc.followUps[0].DueAt)
}

func TestCreateFollowUpRequiresNotes(t *testing.T) {
	svc := &fakeService{}
	body := `{"workspaceId":"` + uuid.NewString() + `","notes":""}`

	w := do(newRouter(svc), http.MethodPost, "/api/v1/leads/"+uuid.NewString()+"/followups", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.followUps)
}

func TestCreateFollowUpUnknownLead(t *testing.T) {
	svc := &fakeService{err: apperr.NotFound("lead not found")}
	body := `{"workspaceId":"` + uuid.NewString() + `","notes":"ping"}`

	w := do(newRouter(svc), http.MethodPost, "/api/v1/leads/"+uuid.NewString()+"/followups", body)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLeadRequiresWorkspace(t *testing.T) {
	w := do(newRouter(&fakeService{}), http.MethodGet, "/api/v1/leads/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLead(t *testing.T) {
	leadID := uuid.New()
	svc := &fakeService{lead: transport.LeadResponse{ID: leadID, Email: "ada@acme.io", Status: "NEW"}}

	w := do(newRouter(svc), http.MethodGet, "/api/v1/leads/"+leadID.String()+"?workspaceId="+uuid.NewString(), "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"ada@acme.io"`)
}

func TestTimeline(t *testing.T) {
	svc := &fakeService{timeline: transport.TimelineResponse{Items: []transport.TimelineEventResponse{
		{ID: uuid.New(), EventType: "qualification.completed", Title: "Lead qualified"},
	}}}

	w := do(newRouter(svc), http.MethodGet, "/api/v1/leads/"+uuid.NewString()+"/timeline?workspaceId="+uuid.NewString(), "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp transport.TimelineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "qualification.completed", resp.Items[0].EventType)
}

func TestTimelineHidesInfrastructureErrors(t *testing.T) {
	svc := &fakeService{err: context.DeadlineExceeded}

	w := do(newRouter(svc), http.MethodGet, "/api/v1/leads/"+uuid.NewString()+"/timeline?workspaceId="+uuid.NewString(), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
