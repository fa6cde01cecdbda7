package handler

import (
	"net/http"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/service"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/transport"
	"github.com/Niconord59/crm-axivity-sub001/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

// Handler handles HTTP requests for invoice dunning
type Handler struct {
	svc *service.Service
}

// New creates a new invoices handler
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the dunning routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/dunning", h.Preview)
	rg.POST("/:id/relance", h.Relance)
}

func (h *Handler) Preview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	preview, err := h.svc.Preview(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToDunningPreviewResponse(preview))
}

func (h *Handler) Relance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Relance(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToRelanceResponse(result))
}
