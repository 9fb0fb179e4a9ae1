package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderapp "github.com/ecommerized/adperfumes-sub001/internal/application/order"
	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
)

// OrderHandler handles the storefront order handover API endpoints
type OrderHandler struct {
	BaseHandler
	intakeService *orderapp.IntakeService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(intakeService *orderapp.IntakeService) *OrderHandler {
	return &OrderHandler{intakeService: intakeService}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Ingest)
		orders.GET("", h.List)
		orders.GET("/:id", h.GetByID)
		orders.POST("/:id/pay", h.MarkPaid)
	}
}

// IngestOrderItemRequest is one purchased line in an order handover
type IngestOrderItemRequest struct {
	MerchantID  string          `json:"merchant_id" binding:"required,uuid"`
	ProductID   string          `json:"product_id" binding:"required,uuid"`
	ProductName string          `json:"product_name" binding:"required,min=1,max=200"`
	BrandName   string          `json:"brand_name" binding:"max=100"`
	CategoryIDs []string        `json:"category_ids" binding:"omitempty,dive,uuid"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
}

// IngestOrderRequest represents a storefront order handover
type IngestOrderRequest struct {
	OrderNumber string                   `json:"order_number" binding:"required,min=1,max=50"`
	CustomerID  string                   `json:"customer_id" binding:"required,uuid"`
	TaxAmount   decimal.Decimal          `json:"tax_amount"`
	Items       []IngestOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// Ingest records a storefront order with frozen commission snapshots
func (h *OrderHandler) Ingest(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req IngestOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	input := orderapp.IngestOrderInput{
		TenantID:    tenantID,
		OrderNumber: req.OrderNumber,
		CustomerID:  customerID,
		TaxAmount:   req.TaxAmount,
		Items:       make([]orderapp.IngestOrderItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		merchantID, err := uuid.Parse(item.MerchantID)
		if err != nil {
			h.BadRequest(c, "Invalid merchant ID format")
			return
		}
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		categoryIDs := make([]uuid.UUID, 0, len(item.CategoryIDs))
		for _, raw := range item.CategoryIDs {
			categoryID, err := uuid.Parse(raw)
			if err != nil {
				h.BadRequest(c, "Invalid category ID format")
				return
			}
			categoryIDs = append(categoryIDs, categoryID)
		}
		input.Items = append(input.Items, orderapp.IngestOrderItem{
			MerchantID:  merchantID,
			ProductID:   productID,
			ProductName: item.ProductName,
			BrandName:   item.BrandName,
			CategoryIDs: categoryIDs,
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
	}

	result, err := h.intakeService.IngestOrder(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID retrieves an order by ID with its items
func (h *OrderHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	result, err := h.intakeService.GetOrder(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListOrdersRequest represents query parameters for listing orders
type ListOrdersRequest struct {
	Page          int        `form:"page,default=1" binding:"min=1"`
	PageSize      int        `form:"page_size,default=20" binding:"min=1,max=100"`
	CustomerID    *string    `form:"customer_id" binding:"omitempty,uuid"`
	PaymentStatus *string    `form:"payment_status" binding:"omitempty,oneof=PENDING PAID FAILED REFUNDED"`
	PaidFrom      *time.Time `form:"paid_from" time_format:"2006-01-02"`
	PaidTo        *time.Time `form:"paid_to" time_format:"2006-01-02"`
	OrderBy       string     `form:"order_by,default=created_at"`
	OrderDir      string     `form:"order_dir,default=desc" binding:"omitempty,oneof=asc desc"`
}

// List retrieves orders with filtering and pagination
func (h *OrderHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	filter := ordr.OrderFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		},
		PaidFrom: req.PaidFrom,
		PaidTo:   req.PaidTo,
	}
	if filter.CustomerID, err = parseOptionalUUID(req.CustomerID); err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}
	if req.PaymentStatus != nil {
		status := ordr.PaymentStatus(*req.PaymentStatus)
		filter.PaymentStatus = &status
	}

	result, err := h.intakeService.ListOrders(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// MarkOrderPaidRequest represents a payment confirmation
type MarkOrderPaidRequest struct {
	PaymentReference string `json:"payment_reference" binding:"required,min=1,max=100"`
}

// MarkPaid records the payment confirmation for an order
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req MarkOrderPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.intakeService.MarkOrderPaid(c.Request.Context(), tenantID, orderID, req.PaymentReference)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
