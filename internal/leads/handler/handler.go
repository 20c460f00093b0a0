package handler

import (
	"context"
	"net/http"

	"revenue_automation_backend/internal/leads/transport"
	"revenue_automation_backend/platform/httpkit"
	"revenue_automation_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Service is what the handler needs from the leads use cases.
type Service interface {
	QueueLead(ctx context.Context, req transport.CreateLeadRequest) error
	CreateFollowUp(ctx context.Context, leadID uuid.UUID, req transport.CreateFollowUpRequest) (transport.FollowUpTaskResponse, error)
	GetLead(ctx context.Context, workspaceID, leadID uuid.UUID) (transport.LeadResponse, error)
	Timeline(ctx context.Context, workspaceID, leadID uuid.UUID) (transport.TimelineResponse, error)
}

type Handler struct {
	svc Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidWorkspace = "workspaceId query parameter must be a uuid"
	statusQueued        = "queued"
)

func New(svc Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/followups", h.CreateFollowUp)
	rg.GET("/:id/timeline", h.Timeline)
}

// Create accepts a lead and queues it for intake.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	if httpkit.HandleError(c, h.svc.QueueLead(c.Request.Context(), req)) {
		return
	}
	httpkit.Accepted(c, transport.QueuedResponse{Status: statusQueued})
}

func (h *Handler) CreateFollowUp(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CreateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	task, err := h.svc.CreateFollowUp(c.Request.Context(), leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.FollowUpResponse{Task: task})
}

func (h *Handler) GetByID(c *gin.Context) {
	workspaceID, leadID, ok := scopedIDs(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetLead(c.Request.Context(), workspaceID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Timeline(c *gin.Context) {
	workspaceID, leadID, ok := scopedIDs(c)
	if !ok {
		return
	}

	timeline, err := h.svc.Timeline(c.Request.Context(), workspaceID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, timeline)
}

// scopedIDs reads the lead id from the path and the workspace from the query.
func scopedIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, uuid.Nil, false
	}
	workspaceID, err := uuid.Parse(c.Query("workspaceId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidWorkspace, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return workspaceID, leadID, true
}
