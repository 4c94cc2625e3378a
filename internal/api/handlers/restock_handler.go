package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
	"github.com/kenttraders/aimarketops/backend-go/internal/repository"
	"github.com/kenttraders/aimarketops/backend-go/internal/service"
	"github.com/rs/zerolog/log"
)

// RestockService is the service surface the inventory routes need.
type RestockService interface {
	AutoRestock(ctx context.Context) (domain.RestockResult, error)
	Optimize(ctx context.Context, mode domain.OptimizationMode) (domain.OptimizationReport, error)
	Alerts(ctx context.Context, threshold int, includePredictions bool) (domain.AlertReport, error)
	ListRuns(ctx context.Context, filter *repository.RunFilter) ([]domain.RestockRun, error)
	RunPurchaseOrders(ctx context.Context, runID int64) ([]domain.PurchaseOrderBatch, error)
}

type RestockHandler struct {
	service RestockService
}

func NewRestockHandler(service RestockService) *RestockHandler {
	return &RestockHandler{service: service}
}

// AutomationRequest is the body of POST /inventory/automation.
type AutomationRequest struct {
	Action             string `json:"action"`
	Threshold          int    `json:"threshold"`
	IncludePredictions *bool  `json:"includePredictions"`
	OptimizationType   string `json:"optimizationType"`
}

type restockResponse struct {
	Success bool `json:"success"`
	domain.RestockResult
}

type optimizationResponse struct {
	Success bool `json:"success"`
	domain.OptimizationReport
}

type alertResponse struct {
	Success bool `json:"success"`
	domain.AlertReport
}

// Automation dispatches on the request action.
func (h *RestockHandler) Automation(c *gin.Context) {
	var req AutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	switch req.Action {
	case service.ActionAutoRestock:
		h.autoRestock(c)
	case service.ActionGenerateAlerts:
		includePredictions := true
		if req.IncludePredictions != nil {
			includePredictions = *req.IncludePredictions
		}
		h.alerts(c, req.Threshold, includePredictions)
	case service.ActionOptimize:
		mode, ok := domain.ParseOptimizationMode(req.OptimizationType)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid optimizationType"})
			return
		}
		h.optimize(c, mode)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
	}
}

// GetRestock serves the auto-restock computation.
func (h *RestockHandler) GetRestock(c *gin.Context) {
	h.autoRestock(c)
}

func (h *RestockHandler) GetOptimizations(c *gin.Context) {
	mode, ok := domain.ParseOptimizationMode(c.Query("mode"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
		return
	}
	h.optimize(c, mode)
}

func (h *RestockHandler) GetAlerts(c *gin.Context) {
	threshold := 0
	if raw := strings.TrimSpace(c.Query("threshold")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold"})
			return
		}
		threshold = v
	}

	includePredictions := true
	if raw := strings.TrimSpace(c.Query("include_predictions")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid include_predictions"})
			return
		}
		includePredictions = v
	}

	h.alerts(c, threshold, includePredictions)
}

func (h *RestockHandler) autoRestock(c *gin.Context) {
	result, err := h.service.AutoRestock(c.Request.Context())
	if err != nil {
		failure(c, "Auto-restock failed", err)
		return
	}
	c.JSON(http.StatusOK, restockResponse{Success: true, RestockResult: result})
}

func (h *RestockHandler) optimize(c *gin.Context, mode domain.OptimizationMode) {
	report, err := h.service.Optimize(c.Request.Context(), mode)
	if err != nil {
		if errors.Is(err, restock.ErrUnknownMode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		failure(c, "Optimization failed", err)
		return
	}
	c.JSON(http.StatusOK, optimizationResponse{Success: true, OptimizationReport: report})
}

func (h *RestockHandler) alerts(c *gin.Context, threshold int, includePredictions bool) {
	report, err := h.service.Alerts(c.Request.Context(), threshold, includePredictions)
	if err != nil {
		failure(c, "Alert generation failed", err)
		return
	}
	c.JSON(http.StatusOK, alertResponse{Success: true, AlertReport: report})
}

// ListRuns returns persisted restock runs.
func (h *RestockHandler) ListRuns(c *gin.Context) {
	filter := &repository.RunFilter{}

	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since, expected RFC3339"})
			return
		}
		filter.Since = &since
	}
	if raw := strings.TrimSpace(c.Query("min_cost")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinCost = &v
		}
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	runs, err := h.service.ListRuns(c.Request.Context(), filter)
	if err != nil {
		failure(c, "failed to list runs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRunPurchaseOrders returns the purchase orders stored for one run.
func (h *RestockHandler) GetRunPurchaseOrders(c *gin.Context) {
	runID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || runID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	batches, err := h.service.RunPurchaseOrders(c.Request.Context(), runID)
	if err != nil {
		failure(c, "failed to fetch purchase orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchaseOrders": batches})
}

func failure(c *gin.Context, message string, err error) {
	log.Error().Err(err).Str("path", c.FullPath()).Msg(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}
