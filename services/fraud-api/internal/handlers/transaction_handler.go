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

type TransactionHandler struct {
	logger  *zap.Logger
	service services.TransactionService
}

func NewTransactionHandler(logger *zap.Logger, svc services.TransactionService) *TransactionHandler {
	return &TransactionHandler{logger: logger, service: svc}
}

// RegisterRoutes registers transaction routes on the provided Gin group.
func (h *TransactionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/transactions", h.SubmitTransaction)
	r.GET("/transactions/:id", h.GetTransaction)
	r.GET("/users/:id/transactions", h.GetUserTransactions)
}

func (h *TransactionHandler) SubmitTransaction(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	var req dtos.CreateTransactionRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	view, err := h.service.SubmitTransaction(c.Request.Context(), traceID, req)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
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
			Message: "invalid transaction id",
		})
		return
	}

	view, err := h.service.FindById(c.Request.Context(), traceID, id)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "invalid user id",
		})
		return
	}

	viewList, err := h.service.FindByUserId(c.Request.Context(), traceID, userID)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}
	c.JSON(http.StatusOK, viewList)
}
