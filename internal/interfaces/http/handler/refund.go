package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	refundapp "github.com/ecommerized/adperfumes-sub001/internal/application/refund"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/refund"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
)

// RefundHandler handles refund and reconciliation API endpoints
type RefundHandler struct {
	BaseHandler
	refundService *refundapp.ReconcilerService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refundService *refundapp.ReconcilerService) *RefundHandler {
	return &RefundHandler{refundService: refundService}
}

// RegisterRoutes registers refund routes
func (h *RefundHandler) RegisterRoutes(rg *gin.RouterGroup) {
	refunds := rg.Group("/refunds")
	{
		refunds.POST("", h.Request)
		refunds.GET("", h.List)
		refunds.GET("/:id", h.GetByID)
		refunds.POST("/:id/approve", h.Approve)
		refunds.POST("/:id/reject", h.Reject)
		refunds.POST("/:id/process", h.Process)
	}
	rg.POST("/merchants/:merchantId/refunds/resolve-recovered", h.ResolveRecovered)
}

// RequestRefundItemRequest is one order line in a refund request
type RequestRefundItemRequest struct {
	OrderItemID string `json:"order_item_id" binding:"required,uuid"`
	Condition   string `json:"condition" binding:"required,oneof=SEALED UNOPENED OPENED_DEFECTIVE DAMAGED_IN_TRANSIT"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
}

// RequestRefundRequest represents a new refund request
type RequestRefundRequest struct {
	OrderID        string                     `json:"order_id" binding:"required,uuid"`
	MerchantID     string                     `json:"merchant_id" binding:"required,uuid"`
	Type           string                     `json:"type" binding:"required,oneof=FULL PARTIAL EXCHANGE"`
	ReasonCategory string                     `json:"reason_category" binding:"required,min=1,max=100"`
	Items          []RequestRefundItemRequest `json:"items" binding:"required,min=1,dive"`
}

// Request records a refund request against a paid order
func (h *RefundHandler) Request(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req RequestRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return
	}

	input := refundapp.RequestRefundInput{
		TenantID:       tenantID,
		OrderID:        orderID,
		MerchantID:     merchantID,
		Type:           refund.Type(req.Type),
		ReasonCategory: req.ReasonCategory,
		Items:          make([]refundapp.RequestRefundItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		orderItemID, err := uuid.Parse(item.OrderItemID)
		if err != nil {
			h.BadRequest(c, "Invalid order item ID format")
			return
		}
		input.Items = append(input.Items, refundapp.RequestRefundItem{
			OrderItemID: orderItemID,
			Condition:   refund.ItemCondition(item.Condition),
			Quantity:    item.Quantity,
		})
	}

	result, err := h.refundService.RequestRefund(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID retrieves a refund by ID
func (h *RefundHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	result, err := h.refundService.GetRefund(c.Request.Context(), tenantID, refundID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListRefundsRequest represents query parameters for listing refunds
type ListRefundsRequest struct {
	Page       int     `form:"page,default=1" binding:"min=1"`
	PageSize   int     `form:"page_size,default=20" binding:"min=1,max=100"`
	OrderID    *string `form:"order_id" binding:"omitempty,uuid"`
	MerchantID *string `form:"merchant_id" binding:"omitempty,uuid"`
	Status     *string `form:"status" binding:"omitempty,oneof=PENDING APPROVED PROCESSING COMPLETED REJECTED RECOVERY_PENDING FULLY_RESOLVED"`
	OrderBy    string  `form:"order_by,default=created_at"`
	OrderDir   string  `form:"order_dir,default=desc" binding:"omitempty,oneof=asc desc"`
}

// List retrieves refunds with filtering and pagination
func (h *RefundHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ListRefundsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	filter := refund.Filter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		},
	}
	if filter.OrderID, err = parseOptionalUUID(req.OrderID); err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	if filter.MerchantID, err = parseOptionalUUID(req.MerchantID); err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return
	}
	if req.Status != nil {
		status := refund.Status(*req.Status)
		filter.Status = &status
	}

	result, err := h.refundService.ListRefunds(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Approve approves a pending refund
func (h *RefundHandler) Approve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	result, err := h.refundService.ApproveRefund(c.Request.Context(), tenantID, refundID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// RejectRefundRequest represents a request to reject a pending refund
type RejectRefundRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Reject rejects a pending refund
func (h *RefundHandler) Reject(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	var req RejectRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	if err := h.refundService.RejectRefund(c.Request.Context(), tenantID, refundID, req.Reason); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Process reconciles an approved refund against the merchant ledger. The
// outcome depends on whether the order was already settled.
func (h *RefundHandler) Process(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	result, err := h.refundService.ProcessRefund(c.Request.Context(), tenantID, refundID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ResolveRecovered closes recovery-pending refunds whose debit notes have
// been fully applied against the merchant's later settlements
func (h *RefundHandler) ResolveRecovered(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	merchantID, err := uuid.Parse(c.Param("merchantId"))
	if err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return
	}

	if err := h.refundService.ResolveRecoveredRefunds(c.Request.Context(), tenantID, merchantID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
