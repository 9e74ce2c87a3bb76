package handler

import (
	financeapp "github.com/buildledger/backend/internal/application/finance"
	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExpenseHandler handles expense ledger API endpoints.
type ExpenseHandler struct {
	BaseHandler
	service *financeapp.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(service *financeapp.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// ExpenseListFilter carries the query parameters for listing expenses
type ExpenseListFilter struct {
	Search        string `form:"search"`
	Category      string `form:"category"`
	PaymentStatus string `form:"payment_status"`
	ProjectID     string `form:"project_id" binding:"omitempty,uuid"`
	OnlyUnsettled bool   `form:"only_unsettled"`
	FromDate      string `form:"from_date"`
	ToDate        string `form:"to_date"`
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// CreateExpense records a new unpaid expense.
// POST /finance/expenses
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req financeapp.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	expense, err := h.service.CreateExpense(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, expense)
}

// GetExpense returns a single expense by ID.
// GET /finance/expenses/:id
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID")
		return
	}

	expense, err := h.service.GetExpense(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, expense)
}

// ListExpenses returns a paginated expense list. The only_unsettled flag
// excludes entries settled through an invoice.
// GET /finance/expenses
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	var filter ExpenseListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := finance.ExpenseFilter{
		Search:        filter.Search,
		OnlyUnsettled: filter.OnlyUnsettled,
		FromDate:      parseDateStart(filter.FromDate),
		ToDate:        parseDateEnd(filter.ToDate),
		Page:          filter.Page,
		PageSize:      filter.PageSize,
		OrderBy:       filter.OrderBy,
		OrderDir:      filter.OrderDir,
	}
	if filter.Category != "" {
		category := finance.ExpenseCategory(filter.Category)
		if !category.IsValid() {
			h.BadRequest(c, "Invalid expense category filter")
			return
		}
		domainFilter.Category = &category
	}
	if filter.PaymentStatus != "" {
		status := finance.ExpensePaymentStatus(filter.PaymentStatus)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid payment status filter")
			return
		}
		domainFilter.PaymentStatus = &status
	}
	if filter.ProjectID != "" {
		projectID, err := uuid.Parse(filter.ProjectID)
		if err != nil {
			h.BadRequest(c, "Invalid project ID filter")
			return
		}
		domainFilter.ProjectID = &projectID
	}

	page, err := h.service.ListExpenses(c.Request.Context(), domainFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// PayExpense settles an expense directly, outside any invoice.
// POST /finance/expenses/:id/pay
func (h *ExpenseHandler) PayExpense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID")
		return
	}

	var req financeapp.PayExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	expense, err := h.service.PayExpense(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, expense)
}

// CreateRecurringExpense records a recurring expense occurrence.
// POST /finance/recurring-expenses
func (h *ExpenseHandler) CreateRecurringExpense(c *gin.Context) {
	var req financeapp.CreateRecurringExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	recurring, err := h.service.CreateRecurringExpense(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, recurring)
}

// RegisterRoutes registers all expense routes
func (h *ExpenseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	expenses := rg.Group("/expenses")
	{
		expenses.GET("", h.ListExpenses)
		expenses.GET("/:id", h.GetExpense)
		expenses.POST("", h.CreateExpense)
		expenses.POST("/:id/pay", h.PayExpense)
	}

	recurring := rg.Group("/recurring-expenses")
	{
		recurring.POST("", h.CreateRecurringExpense)
	}
}
