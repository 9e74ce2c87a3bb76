package handler

import (
	"time"

	financeapp "github.com/buildledger/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles spend reporting API endpoints.
type ReportHandler struct {
	BaseHandler
	service *financeapp.SpendReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *financeapp.SpendReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// SpendSummaryQuery carries the reporting window
type SpendSummaryQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// GetSpendSummary returns total spend for the window, partitioned into
// general and invoice-settled spend with no entry counted twice.
// GET /finance/reports/spend-summary
func (h *ReportHandler) GetSpendSummary(c *gin.Context) {
	var query SpendSummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Query parameters from and to are required (YYYY-MM-DD)")
		return
	}

	from, err := time.Parse("2006-01-02", query.From)
	if err != nil {
		h.BadRequest(c, "Invalid from date, expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", query.To)
	if err != nil {
		h.BadRequest(c, "Invalid to date, expected YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		h.BadRequest(c, "The to date must not precede the from date")
		return
	}
	to = to.Add(24*time.Hour - time.Second)

	summary, err := h.service.SpendSummaryForPeriod(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// RegisterRoutes registers all report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/spend-summary", h.GetSpendSummary)
	}
}
