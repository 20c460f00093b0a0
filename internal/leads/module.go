// Package leads provides the inbound lead API module.
// This file defines the module that wires the leads service and registers its routes.
package leads

import (
	apphttp "revenue_automation_backend/internal/http"
	"revenue_automation_backend/internal/leads/handler"
	"revenue_automation_backend/internal/leads/repository"
	"revenue_automation_backend/internal/leads/service"
	"revenue_automation_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates the leads module. Writes from the API only ever reach the
// intake and follow-up queues; the workers own the rest of the pipeline.
func NewModule(pool *pgxpool.Pool, queue service.Queue, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, repo, repo, queue)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the shared leads repository.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
