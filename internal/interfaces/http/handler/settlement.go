package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	settlementapp "github.com/ecommerized/adperfumes-sub001/internal/application/settlement"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
)

// SettlementHandler handles merchant settlement API endpoints
type SettlementHandler struct {
	BaseHandler
	settlementService *settlementapp.Service
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *settlementapp.Service) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// RegisterRoutes registers settlement routes
func (h *SettlementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	settlements := rg.Group("/settlements")
	{
		settlements.POST("/generate", h.Generate)
		settlements.GET("", h.List)
		settlements.GET("/:id", h.GetByID)
		settlements.POST("/:id/pay", h.MarkPaid)
		settlements.POST("/:id/cancel", h.Cancel)
	}
}

// GenerateSettlementRequest represents a request to build a merchant payout
type GenerateSettlementRequest struct {
	MerchantID string     `json:"merchant_id" binding:"required,uuid"`
	PayoutDate *time.Time `json:"payout_date"`
}

// Generate builds a pending settlement for one merchant payout cycle
func (h *SettlementHandler) Generate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req GenerateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return
	}

	payoutDate := time.Now()
	if req.PayoutDate != nil {
		payoutDate = *req.PayoutDate
	}

	result, err := h.settlementService.GenerateSettlement(c.Request.Context(), tenantID, merchantID, payoutDate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID retrieves a settlement by ID
func (h *SettlementHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid settlement ID format")
		return
	}

	result, err := h.settlementService.GetSettlement(c.Request.Context(), tenantID, settlementID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListSettlementsRequest represents query parameters for listing settlements
type ListSettlementsRequest struct {
	Page       int        `form:"page,default=1" binding:"min=1"`
	PageSize   int        `form:"page_size,default=20" binding:"min=1,max=100"`
	MerchantID *string    `form:"merchant_id" binding:"omitempty,uuid"`
	Status     *string    `form:"status" binding:"omitempty,oneof=PENDING PROCESSING PAID CANCELLED"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	OrderBy    string     `form:"order_by,default=created_at"`
	OrderDir   string     `form:"order_dir,default=desc" binding:"omitempty,oneof=asc desc"`
}

// List retrieves settlements with filtering and pagination
func (h *SettlementHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ListSettlementsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	filter := settlement.Filter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		},
		From: req.From,
		To:   req.To,
	}
	if filter.MerchantID, err = parseOptionalUUID(req.MerchantID); err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return
	}
	if req.Status != nil {
		status := settlement.Status(*req.Status)
		filter.Status = &status
	}

	result, err := h.settlementService.ListSettlements(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// MarkPaidRequest represents a request to record a completed payout
type MarkPaidRequest struct {
	TransactionReference string `json:"transaction_reference" binding:"required,min=1,max=100"`
}

// MarkPaid records the bank transfer that paid out a settlement
func (h *SettlementHandler) MarkPaid(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid settlement ID format")
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.settlementService.MarkSettlementPaid(c.Request.Context(), tenantID, settlementID, req.TransactionReference)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// CancelSettlementRequest represents a request to cancel a pending settlement
type CancelSettlementRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Cancel cancels a settlement that has not been paid; its orders return to
// the payout pool
func (h *SettlementHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid settlement ID format")
		return
	}

	var req CancelSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	if err := h.settlementService.CancelSettlement(c.Request.Context(), tenantID, settlementID, req.Reason); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
