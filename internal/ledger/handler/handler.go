package handler

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/fekuna/omnipos-parts-service/internal/apperror"
	"github.com/fekuna/omnipos-parts-service/internal/auth"
	"github.com/fekuna/omnipos-parts-service/internal/forecast"
	"github.com/fekuna/omnipos-parts-service/internal/ledger"
	"github.com/fekuna/omnipos-parts-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-parts-service/internal/model"
	partdto "github.com/fekuna/omnipos-parts-service/internal/part/dto"
	txdto "github.com/fekuna/omnipos-parts-service/internal/transaction/dto"
	"github.com/fekuna/omnipos-parts-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LedgerHandler struct {
	uc     ledger.UseCase
	logger logger.ZapLogger
	now    func() time.Time
}

func NewLedgerHandler(uc ledger.UseCase, log logger.ZapLogger) *LedgerHandler {
	return &LedgerHandler{
		uc:     uc,
		logger: log,
		now:    time.Now,
	}
}

type signInRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type scanRequest struct {
	QRCode   string `json:"qr_code" binding:"required"`
	Quantity int    `json:"quantity"`
}

type roleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

func (h *LedgerHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.Health)
	router.POST("/v1/sessions", h.SignIn)

	v1 := router.Group("/v1", auth.Middleware(h.uc))
	{
		parts := v1.Group("/parts")
		{
			parts.GET("", h.ListParts)
			parts.POST("", h.CreatePart)
			parts.GET("/:id", h.GetPart)
			parts.PATCH("/:id", h.UpdatePart)
			parts.DELETE("/:id", h.DeletePart)
			parts.POST("/:id/stock", h.AddStock)
			parts.POST("/:id/checkout", h.CheckOut)
			parts.GET("/:id/transactions", h.ListPartTransactions)
			parts.GET("/:id/forecast", h.Forecast)
			parts.GET("/:id/usage", h.Usage)
		}
		v1.POST("/scan/checkout", h.ScanCheckOut)
		v1.GET("/transactions", h.ListTransactions)

		v1.GET("/alerts", h.ListAlerts)
		v1.POST("/alerts/:id/resolve", h.ResolveAlert)

		v1.GET("/users", h.ListUsers)
		v1.PATCH("/users/:id/role", auth.RequireRoles(model.RoleAdmin), h.SetUserRole)

		v1.GET("/dashboard", h.Dashboard)
		v1.GET("/analytics/top-parts", h.TopParts)

		export := v1.Group("/export", auth.RequireRoles(model.RoleAdmin, model.RoleManager))
		{
			export.GET("/parts.csv", h.ExportParts)
			export.GET("/transactions.csv", h.ExportTransactions)
		}
	}
}

func (h *LedgerHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *LedgerHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.uc.SignIn(c.Request.Context(), req.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *LedgerHandler) ListParts(c *gin.Context) {
	parts := h.uc.ListParts(c.Request.Context(), &partdto.PartFilters{Search: c.Query("search")})
	c.JSON(http.StatusOK, gin.H{"items": parts, "total": len(parts)})
}

func (h *LedgerHandler) GetPart(c *gin.Context) {
	p, err := h.uc.GetPart(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *LedgerHandler) CreatePart(c *gin.Context) {
	var req partdto.CreatePartInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.uc.CreatePart(c.Request.Context(), auth.Actor(c).ID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *LedgerHandler) UpdatePart(c *gin.Context) {
	var req partdto.PartPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.uc.UpdatePart(c.Request.Context(), auth.Actor(c).ID, c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *LedgerHandler) DeletePart(c *gin.Context) {
	if err := h.uc.DeletePart(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LedgerHandler) AddStock(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.uc.AddStock(c.Request.Context(), auth.Actor(c).ID, c.Param("id"), req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *LedgerHandler) CheckOut(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.uc.CheckOut(c.Request.Context(), auth.Actor(c).ID, c.Param("id"), req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *LedgerHandler) ScanCheckOut(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.uc.ScanCheckOut(c.Request.Context(), auth.Actor(c).ID, req.QRCode, req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *LedgerHandler) ListPartTransactions(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.uc.GetPart(ctx, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	items := slices.Collect(h.uc.ListTransactions(ctx, &txdto.TransactionFilters{PartID: c.Param("id")}))
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	filters, err := transactionFilters(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	items := slices.Collect(h.uc.ListTransactions(c.Request.Context(), filters))
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *LedgerHandler) ListAlerts(c *gin.Context) {
	items := h.uc.ListAlerts(c.Request.Context(), c.Query("include_resolved") == "true")
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *LedgerHandler) ResolveAlert(c *gin.Context) {
	a, err := h.uc.ResolveAlert(c.Request.Context(), auth.Actor(c).ID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *LedgerHandler) ListUsers(c *gin.Context) {
	items := h.uc.ListUsers(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *LedgerHandler) SetUserRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.uc.SetUserRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func transactionFilters(c *gin.Context) (*txdto.TransactionFilters, error) {
	filters := &txdto.TransactionFilters{PartID: c.Query("part_id")}
	if typ := c.Query("type"); typ != "" && typ != "All" {
		filters.Type = model.TransactionType(typ)
		if !filters.Type.Valid() {
			return nil, apperror.Validation("unknown transaction type %q", typ)
		}
	}
	return filters, nil
}

func (h *LedgerHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, forecast.ErrInsufficientData):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrForecastUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
