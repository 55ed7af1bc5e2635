package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/utils"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/dtos"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/internal/services"
	"go.uber.org/zap"
)

type AlertHandler struct {
	logger  *zap.Logger
	service services.AlertService
}

func NewAlertHandler(logger *zap.Logger, svc services.AlertService) *AlertHandler {
	return &AlertHandler{logger: logger, service: svc}
}

// RegisterRoutes registers alert routes on the provided Gin group.
func (h *AlertHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/alerts/active", h.GetActiveAlerts)
	r.PUT("/alerts/:id/resolve", h.ResolveAlert)
}

func (h *AlertHandler) GetActiveAlerts(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	viewList, err := h.service.FindActive(c.Request.Context(), traceID)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}
	c.JSON(http.StatusOK, viewList)
}

func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "invalid alert id",
		})
		return
	}

	var req dtos.ResolveAlertRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	view, err := h.service.ResolveAlert(c.Request.Context(), traceID, id, req)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}
	c.JSON(http.StatusOK, view)
}
