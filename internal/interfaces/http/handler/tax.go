package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	taxapp "github.com/ecommerized/adperfumes-sub001/internal/application/tax"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/tax"
)

// TaxHandler handles VAT return and compliance API endpoints
type TaxHandler struct {
	BaseHandler
	complianceService *taxapp.ComplianceService
}

// NewTaxHandler creates a new TaxHandler
func NewTaxHandler(complianceService *taxapp.ComplianceService) *TaxHandler {
	return &TaxHandler{complianceService: complianceService}
}

// RegisterRoutes registers tax compliance routes
func (h *TaxHandler) RegisterRoutes(rg *gin.RouterGroup) {
	returns := rg.Group("/vat-returns")
	{
		returns.POST("/prepare", h.PrepareReturn)
		returns.GET("", h.ListReturns)
		returns.GET("/:id", h.GetReturn)
		returns.POST("/:id/submit", h.SubmitForReview)
		returns.POST("/:id/approve", h.ApproveReturn)
		returns.POST("/:id/file", h.FileReturn)
		returns.POST("/:id/pay", h.MarkReturnPaid)
		returns.POST("/:id/refund-received", h.MarkRefundReceived)
		returns.POST("/:id/amend", h.AmendReturn)
		returns.POST("/:id/reminders", h.ScheduleReminders)
	}
	rg.POST("/expenses", h.RecordExpense)
	rg.POST("/expenses/:id/approve", h.ApproveExpense)
	rg.GET("/compliance-events", h.ListPendingObligations)
}

// PrepareReturnRequest represents a request to draft a VAT return
type PrepareReturnRequest struct {
	PeriodType  string          `json:"period_type" binding:"required,oneof=QUARTERLY MONTHLY"`
	PeriodStart time.Time       `json:"period_start" binding:"required"`
	PeriodEnd   time.Time       `json:"period_end" binding:"required"`
	Adjustments decimal.Decimal `json:"adjustments"`
}

// PrepareReturn drafts the VAT return for a reporting period
func (h *TaxHandler) PrepareReturn(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req PrepareReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.complianceService.PrepareReturn(
		c.Request.Context(), tenantID, tax.PeriodType(req.PeriodType),
		req.PeriodStart, req.PeriodEnd, req.Adjustments,
	)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetReturn retrieves a VAT return by ID
func (h *TaxHandler) GetReturn(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	result, err := h.complianceService.GetReturn(c.Request.Context(), tenantID, returnID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListReturns lists all VAT returns for the tenant
func (h *TaxHandler) ListReturns(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.complianceService.ListReturns(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// returnTransition runs one status transition on a VAT return
func (h *TaxHandler) returnTransition(c *gin.Context, fn func(ctx *gin.Context, tenantID, returnID uuid.UUID) (*taxapp.VatReturnResponse, error)) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	result, err := fn(c, tenantID, returnID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// SubmitForReview moves a draft return into review
func (h *TaxHandler) SubmitForReview(c *gin.Context) {
	h.returnTransition(c, func(c *gin.Context, tenantID, returnID uuid.UUID) (*taxapp.VatReturnResponse, error) {
		return h.complianceService.SubmitForReview(c.Request.Context(), tenantID, returnID)
	})
}

// ApproveReturn approves a return under review
func (h *TaxHandler) ApproveReturn(c *gin.Context) {
	h.returnTransition(c, func(c *gin.Context, tenantID, returnID uuid.UUID) (*taxapp.VatReturnResponse, error) {
		return h.complianceService.ApproveReturn(c.Request.Context(), tenantID, returnID)
	})
}

// FileReturn files an approved return with the tax authority
func (h *TaxHandler) FileReturn(c *gin.Context) {
	h.returnTransition(c, func(c *gin.Context, tenantID, returnID uuid.UUID) (*taxapp.VatReturnResponse, error) {
		return h.complianceService.FileReturn(c.Request.Context(), tenantID, returnID)
	})
}

// MarkReturnPaid records payment of the net VAT due on a filed return
func (h *TaxHandler) MarkReturnPaid(c *gin.Context) {
	h.returnTransition(c, func(c *gin.Context, tenantID, returnID uuid.UUID) (*taxapp.VatReturnResponse, error) {
		return h.complianceService.MarkReturnPaid(c.Request.Context(), tenantID, returnID)
	})
}

// MarkRefundReceived records receipt of a VAT refund on a filed return
func (h *TaxHandler) MarkRefundReceived(c *gin.Context) {
	h.returnTransition(c, func(c *gin.Context, tenantID, returnID uuid.UUID) (*taxapp.VatReturnResponse, error) {
		return h.complianceService.MarkRefundReceived(c.Request.Context(), tenantID, returnID)
	})
}

// AmendReturnRequest represents a request to amend a filed return
type AmendReturnRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// AmendReturn drafts an amendment superseding a filed return
func (h *TaxHandler) AmendReturn(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	var req AmendReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.complianceService.AmendReturn(c.Request.Context(), tenantID, returnID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// ScheduleReminders schedules the filing deadline obligations for a return
func (h *TaxHandler) ScheduleReminders(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	if err := h.complianceService.ScheduleFilingReminders(c.Request.Context(), tenantID, returnID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// RecordExpenseRequest represents a request to capture a deductible expense.
// IsVatReclaimable defaults to true; entertainment-style costs whose VAT
// cannot be recovered are flagged false.
type RecordExpenseRequest struct {
	Description      string          `json:"description" binding:"required,min=1,max=255"`
	Category         string          `json:"category" binding:"required,min=1,max=50"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	VatAmount        decimal.Decimal `json:"vat_amount" binding:"required"`
	ExpenseDate      time.Time       `json:"expense_date" binding:"required"`
	IsVatReclaimable *bool           `json:"is_vat_reclaimable"`
}

// ExpenseResponse represents a recorded expense in API responses
type ExpenseResponse struct {
	ID               uuid.UUID       `json:"id"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	Amount           decimal.Decimal `json:"amount"`
	VatAmount        decimal.Decimal `json:"vat_amount"`
	ExpenseDate      time.Time       `json:"expense_date"`
	IsVatReclaimable bool            `json:"is_vat_reclaimable"`
	Status           string          `json:"status"`
	VatReclaimed     bool            `json:"vat_reclaimed"`
}

func toExpenseResponse(e *tax.Expense) *ExpenseResponse {
	return &ExpenseResponse{
		ID:               e.ID,
		Description:      e.Description,
		Category:         e.Category,
		Amount:           e.Amount,
		VatAmount:        e.VatAmount,
		ExpenseDate:      e.ExpenseDate,
		IsVatReclaimable: e.IsVatReclaimable,
		Status:           e.Status.String(),
		VatReclaimed:     e.VatReclaimed,
	}
}

// RecordExpense captures a business expense pending approval
func (h *TaxHandler) RecordExpense(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req RecordExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	reclaimable := true
	if req.IsVatReclaimable != nil {
		reclaimable = *req.IsVatReclaimable
	}

	expense, err := h.complianceService.RecordExpense(
		c.Request.Context(), tenantID, req.Description, req.Category,
		req.Amount, req.VatAmount, req.ExpenseDate, reclaimable,
	)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toExpenseResponse(expense))
}

// ApproveExpense confirms a recorded expense so its VAT counts toward the
// next return
func (h *TaxHandler) ApproveExpense(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID")
		return
	}

	expense, err := h.complianceService.ApproveExpense(c.Request.Context(), tenantID, expenseID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toExpenseResponse(expense))
}

// ListPendingObligations lists open compliance obligations, nearest deadline
// first
func (h *TaxHandler) ListPendingObligations(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.complianceService.ListPendingObligations(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
