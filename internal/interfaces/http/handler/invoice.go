package handler

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	financeapp "github.com/buildledger/backend/internal/application/finance"
	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxReceiptSize caps receipt uploads at 10 MiB.
const maxReceiptSize = 10 << 20

// InvoiceHandler handles vendor invoice API endpoints, including settlement.
type InvoiceHandler struct {
	BaseHandler
	invoices    *financeapp.InvoiceService
	settlements *financeapp.SettlementService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *financeapp.InvoiceService, settlements *financeapp.SettlementService) *InvoiceHandler {
	return &InvoiceHandler{
		invoices:    invoices,
		settlements: settlements,
	}
}

// InvoiceListFilter carries the query parameters for listing invoices
type InvoiceListFilter struct {
	Search   string `form:"search"`
	Vendor   string `form:"vendor"`
	Status   string `form:"status"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// CreateInvoice records a vendor invoice with its line items.
// POST /finance/invoices
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req financeapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// GetInvoice returns a single invoice by ID.
// GET /finance/invoices/:id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// ListInvoices returns a paginated invoice list.
// GET /finance/invoices
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter InvoiceListFilter
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

	domainFilter := finance.InvoiceFilter{
		Search:   filter.Search,
		Vendor:   filter.Vendor,
		FromDate: parseDateStart(filter.FromDate),
		ToDate:   parseDateEnd(filter.ToDate),
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
	if filter.Status != "" {
		status := finance.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid invoice status filter")
			return
		}
		domainFilter.Status = &status
	}

	page, err := h.invoices.ListInvoices(c.Request.Context(), domainFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// DeleteInvoice removes an unpaid invoice and reverts its settled markers.
// DELETE /finance/invoices/:id
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.invoices.DeleteInvoice(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// SettleInvoice applies a settlement strategy to the invoice's remaining
// balance. Accepts either a JSON body or a multipart form; the multipart
// form may carry a receipt document under the "receipt" field.
// POST /finance/invoices/:id/settle
func (h *InvoiceHandler) SettleInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req financeapp.SettleInvoiceRequest
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		req, err = h.bindMultipartSettle(c)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.InvoiceID = id

	result, err := h.settlements.SettleInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// bindMultipartSettle reads a settlement request from a multipart form.
// Scalar fields mirror the JSON body; expense_ids is comma separated and
// distribution is a JSON array string.
func (h *InvoiceHandler) bindMultipartSettle(c *gin.Context) (financeapp.SettleInvoiceRequest, error) {
	var req financeapp.SettleInvoiceRequest

	req.Strategy = c.PostForm("strategy")
	req.PaymentMethod = c.PostForm("payment_method")
	req.Note = c.PostForm("note")

	if raw := c.PostForm("payment_date"); raw != "" {
		t, err := parseFlexibleDate(raw)
		if err != nil {
			return req, err
		}
		req.PaymentDate = t
	}

	if raw := c.PostForm("expense_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				return req, err
			}
			req.ExpenseIDs = append(req.ExpenseIDs, id)
		}
	}

	if raw := c.PostForm("distribution"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Distribution); err != nil {
			return req, err
		}
	}

	if raw := c.PostForm("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return req, err
		}
		req.Amount = &amount
	}

	file, err := c.FormFile("receipt")
	if err != nil && err != http.ErrMissingFile {
		return req, err
	}
	if file != nil {
		receipt, err := readReceipt(file)
		if err != nil {
			return req, err
		}
		req.Receipt = receipt
	}

	return req, nil
}

func readReceipt(file *multipart.FileHeader) (*financeapp.ReceiptUpload, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxReceiptSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxReceiptSize {
		return nil, errReceiptTooLarge
	}

	return &financeapp.ReceiptUpload{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// RegisterRoutes registers all invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.POST("", h.CreateInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
		invoices.POST("/:id/settle", h.SettleInvoice)
	}
}

// parseFlexibleDate accepts either RFC 3339 timestamps or bare dates.
func parseFlexibleDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// parseDateStart parses a YYYY-MM-DD query value into the start of that day.
func parseDateStart(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

// parseDateEnd parses a YYYY-MM-DD query value into the end of that day.
func parseDateEnd(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	t = t.Add(24*time.Hour - time.Second)
	return &t
}
