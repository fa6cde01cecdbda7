// Package invoices provides the invoice dunning bounded context module.
package invoices

import (
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/events"
	apphttp "github.com/Niconord59/crm-axivity-sub001/internal/http"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/dispatch"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/handler"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/service"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the invoices bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the dunning service. A nil dispatcher is allowed: relances
// then fail with a dispatch error while previews keep working.
func NewModule(pool *pgxpool.Pool, storeTimeout time.Duration, dispatcher dispatch.Dispatcher, eventBus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool, storeTimeout)
	svc := service.New(repo, dispatcher, eventBus, log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "invoices"
}

// Service returns the dunning service for the scheduler and adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetAuditWriter injects the lifecycle interaction writer.
func (m *Module) SetAuditWriter(w service.AuditWriter) {
	m.service.SetAuditWriter(w)
}

// RegisterRoutes mounts dunning routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/invoices"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
