package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-parts-service/internal/analytics"
	"github.com/fekuna/omnipos-parts-service/internal/apperror"
	"github.com/fekuna/omnipos-parts-service/internal/export"
	partdto "github.com/fekuna/omnipos-parts-service/internal/part/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultUsageDays = 30
	maxUsageDays     = 365
)

func (h *LedgerHandler) Forecast(c *gin.Context) {
	res, err := h.uc.Forecast(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *LedgerHandler) Usage(c *gin.Context) {
	ctx := c.Request.Context()
	days, err := queryInt(c, "days", defaultUsageDays)
	if err != nil || days < 1 || days > maxUsageDays {
		h.writeError(c, apperror.Validation("days must be between 1 and %d", maxUsageDays))
		return
	}
	p, err := h.uc.GetPart(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	now := h.now()
	points := analytics.DailyUsage(h.uc.ListTransactions(ctx, nil), p.ID, now.AddDate(0, 0, -days), now)
	c.JSON(http.StatusOK, gin.H{"part_id": p.ID, "days": days, "items": points})
}

func (h *LedgerHandler) TopParts(c *gin.Context) {
	limit, err := queryInt(c, "limit", analytics.DefaultTopParts)
	if err != nil || limit < 1 {
		h.writeError(c, apperror.Validation("limit must be a positive integer"))
		return
	}
	items := analytics.TopParts(h.uc.ListTransactions(c.Request.Context(), nil), limit)
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *LedgerHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	summary := analytics.Summarize(
		h.uc.ListParts(ctx, nil),
		h.uc.ListAlerts(ctx, false),
		h.uc.ListTransactions(ctx, nil),
		h.now(),
	)
	c.JSON(http.StatusOK, summary)
}

func (h *LedgerHandler) ExportParts(c *gin.Context) {
	parts := h.uc.ListParts(c.Request.Context(), &partdto.PartFilters{Search: c.Query("search")})
	h.attachCSV(c, "parts_inventory")
	if err := export.WriteParts(c.Writer, parts); err != nil {
		h.logger.Error("failed to write parts export", zap.Error(err))
	}
}

func (h *LedgerHandler) ExportTransactions(c *gin.Context) {
	filters, err := transactionFilters(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.attachCSV(c, "transactions_export")
	if err := export.WriteTransactions(c.Writer, h.uc.ListTransactions(c.Request.Context(), filters)); err != nil {
		h.logger.Error("failed to write transactions export", zap.Error(err))
	}
}

func (h *LedgerHandler) attachCSV(c *gin.Context, name string) {
	filename := name + "_" + h.now().Format("2006-01-02") + ".csv"
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
