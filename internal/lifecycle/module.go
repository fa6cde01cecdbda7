// Package lifecycle provides the contact lifecycle bounded context module:
// stage transitions, prospect conversion and funnel analytics.
package lifecycle

import (
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/events"
	apphttp "github.com/Niconord59/crm-axivity-sub001/internal/http"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/handler"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/service"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"
	"github.com/Niconord59/crm-axivity-sub001/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the lifecycle bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the lifecycle module with all its dependencies.
func NewModule(pool *pgxpool.Pool, storeTimeout time.Duration, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool, storeTimeout)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "lifecycle"
}

// Service returns the lifecycle service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the lifecycle repository for adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lifecycle routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/lifecycle"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
