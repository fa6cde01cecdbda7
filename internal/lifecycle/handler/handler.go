package handler

import (
	"net/http"
	"strings"

	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/service"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/transport"
	"github.com/Niconord59/crm-axivity-sub001/platform/httpkit"
	"github.com/Niconord59/crm-axivity-sub001/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidStage     = "invalid lifecycle stage"
)

// Handler handles HTTP requests for the lifecycle engine
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new lifecycle handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the lifecycle routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stages", h.ListStages)
	rg.GET("/funnel", h.Funnel)
	rg.GET("/contacts", h.ListContacts)
	rg.POST("/contacts/stage/bulk", h.BulkUpdateStage)
	rg.PATCH("/contacts/:id/stage", h.UpdateStage)
	rg.POST("/contacts/:id/convert", h.Convert)
	rg.GET("/contacts/:id/interactions", h.ListInteractions)
	rg.GET("/opportunities/:id", h.GetOpportunity)
}

func (h *Handler) ListStages(c *gin.Context) {
	httpkit.OK(c, transport.StageOptionsResponse{Stages: h.svc.StageOptions()})
}

func (h *Handler) Funnel(c *gin.Context) {
	report, err := h.svc.Funnel(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, report)
}

// ListContacts accepts ?stage=Lead,MQL and ?accountId=.
func (h *Handler) ListContacts(c *gin.Context) {
	var filter repository.ContactFilter

	if raw := strings.TrimSpace(c.Query("stage")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			stage, err := domain.ParseStage(part)
			if err != nil {
				httpkit.Error(c, http.StatusBadRequest, msgInvalidStage, gin.H{"stage": part})
				return
			}
			filter.Stages = append(filter.Stages, stage)
		}
	}
	if raw := strings.TrimSpace(c.Query("accountId")); raw != "" {
		accountID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filter.AccountID = &accountID
	}

	contacts, err := h.svc.ListContacts(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToContactListResponse(contacts))
}

func (h *Handler) UpdateStage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	target, err := domain.ParseStage(req.TargetStage)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidStage, gin.H{"targetStage": req.TargetStage})
		return
	}
	params := service.UpdateStageParams{
		ContactID:      id,
		TargetStage:    target,
		ForceDowngrade: req.ForceDowngrade,
		SkipAudit:      req.CreateAuditRecord != nil && !*req.CreateAuditRecord,
		AccountID:      req.AccountID,
	}
	if req.CurrentStage != nil && strings.TrimSpace(*req.CurrentStage) != "" {
		current, err := domain.ParseStage(*req.CurrentStage)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidStage, gin.H{"currentStage": *req.CurrentStage})
			return
		}
		params.CurrentStage = &current
	}

	result, err := h.svc.UpdateStage(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToStageChangeResponse(result))
}

func (h *Handler) BulkUpdateStage(c *gin.Context) {
	var req transport.BulkUpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	target, err := domain.ParseStage(req.TargetStage)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidStage, gin.H{"targetStage": req.TargetStage})
		return
	}

	result, err := h.svc.BulkUpdateStage(c.Request.Context(), req.ContactIDs, target)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BulkStageResponse{UpdatedCount: result.UpdatedCount, UpdatedIDs: result.UpdatedIDs})
}

func (h *Handler) Convert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Convert(c.Request.Context(), service.ConvertParams{
		ContactID:           id,
		AccountID:           req.AccountID,
		ContactDisplayName:  req.ContactDisplayName,
		AccountDisplayName:  req.AccountDisplayName,
		EstimatedValueCents: req.EstimatedValueCents,
		Notes:               req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToConversionResponse(result))
}

func (h *Handler) ListInteractions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	items, err := h.svc.ListInteractions(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToInteractionListResponse(items))
}

func (h *Handler) GetOpportunity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	detail, err := h.svc.GetOpportunity(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToOpportunityResponse(detail))
}
