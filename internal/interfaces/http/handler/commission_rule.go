package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	commissionapp "github.com/ecommerized/adperfumes-sub001/internal/application/commission"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
)

// CommissionRuleHandler handles commission rule API endpoints
type CommissionRuleHandler struct {
	BaseHandler
	ruleService *commissionapp.RuleService
}

// NewCommissionRuleHandler creates a new CommissionRuleHandler
func NewCommissionRuleHandler(ruleService *commissionapp.RuleService) *CommissionRuleHandler {
	return &CommissionRuleHandler{ruleService: ruleService}
}

// RegisterRoutes registers commission rule routes
func (h *CommissionRuleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rules := rg.Group("/commission-rules")
	{
		rules.POST("", h.Create)
		rules.GET("", h.List)
		rules.GET("/:id", h.GetByID)
		rules.POST("/:id/deactivate", h.Deactivate)
		rules.POST("/resolve", h.ResolveRate)
	}
}

// CreateRuleRequest represents a request to create a commission rule
type CreateRuleRequest struct {
	Name           string            `json:"name" binding:"required,min=1,max=200"`
	Level          string            `json:"level" binding:"required,oneof=GLOBAL MERCHANT CATEGORY PRODUCT TIER"`
	Type           string            `json:"type" binding:"required,oneof=PERCENTAGE FIXED TIERED HYBRID"`
	MerchantID     *string           `json:"merchant_id" binding:"omitempty,uuid"`
	CategoryID     *string           `json:"category_id" binding:"omitempty,uuid"`
	ProductID      *string           `json:"product_id" binding:"omitempty,uuid"`
	PercentageRate float64           `json:"percentage_rate" binding:"gte=0,lte=100"`
	FixedAmount    float64           `json:"fixed_amount" binding:"gte=0"`
	Priority       int               `json:"priority" binding:"gte=0"`
	ValidFrom      *time.Time        `json:"valid_from"`
	ValidUntil     *time.Time        `json:"valid_until"`
	Tiers          []RuleTierRequest `json:"tiers" binding:"omitempty,dive"`
}

// RuleTierRequest is one volume tier in a create request
type RuleTierRequest struct {
	MinVolume float64 `json:"min_volume" binding:"gte=0"`
	Rate      float64 `json:"rate" binding:"required,gt=0,lte=100"`
}

// Create creates a new commission rule
func (h *CommissionRuleHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	appReq := commissionapp.CreateRuleRequest{
		TenantID:       tenantID,
		Name:           req.Name,
		Level:          commission.RuleLevel(req.Level),
		Type:           commission.RuleType(req.Type),
		PercentageRate: decimal.NewFromFloat(req.PercentageRate),
		FixedAmount:    decimal.NewFromFloat(req.FixedAmount),
		Priority:       req.Priority,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
	}

	if appReq.MerchantID, err = parseOptionalUUID(req.MerchantID); err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return
	}
	if appReq.CategoryID, err = parseOptionalUUID(req.CategoryID); err != nil {
		h.BadRequest(c, "Invalid category ID format")
		return
	}
	if appReq.ProductID, err = parseOptionalUUID(req.ProductID); err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	for _, tier := range req.Tiers {
		appReq.Tiers = append(appReq.Tiers, commissionapp.TierRequest{
			MinVolume: decimal.NewFromFloat(tier.MinVolume),
			Rate:      decimal.NewFromFloat(tier.Rate),
		})
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, rule)
}

// GetByID retrieves a commission rule by ID
func (h *CommissionRuleHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rule ID format")
		return
	}

	rule, err := h.ruleService.GetRule(c.Request.Context(), tenantID, ruleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rule)
}

// ListRulesRequest represents query parameters for listing commission rules
type ListRulesRequest struct {
	Page       int     `form:"page,default=1" binding:"min=1"`
	PageSize   int     `form:"page_size,default=20" binding:"min=1,max=100"`
	Level      *string `form:"level" binding:"omitempty,oneof=GLOBAL MERCHANT CATEGORY PRODUCT TIER"`
	Type       *string `form:"type" binding:"omitempty,oneof=PERCENTAGE FIXED TIERED HYBRID"`
	MerchantID *string `form:"merchant_id" binding:"omitempty,uuid"`
	IsActive   *bool   `form:"is_active"`
	OrderBy    string  `form:"order_by,default=priority"`
	OrderDir   string  `form:"order_dir,default=asc" binding:"omitempty,oneof=asc desc"`
}

// List retrieves commission rules with filtering and pagination
func (h *CommissionRuleHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ListRulesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	filter := commission.CommissionRuleFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		},
		IsActive: req.IsActive,
	}
	if req.Level != nil {
		level := commission.RuleLevel(*req.Level)
		filter.Level = &level
	}
	if req.Type != nil {
		ruleType := commission.RuleType(*req.Type)
		filter.Type = &ruleType
	}
	if filter.MerchantID, err = parseOptionalUUID(req.MerchantID); err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return
	}

	result, err := h.ruleService.ListRules(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Deactivate deactivates a commission rule
func (h *CommissionRuleHandler) Deactivate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rule ID format")
		return
	}

	if err := h.ruleService.DeactivateRule(c.Request.Context(), tenantID, ruleID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ResolveRateRequest represents a rate resolution preview request
type ResolveRateRequest struct {
	MerchantID  string     `json:"merchant_id" binding:"required,uuid"`
	ProductID   string     `json:"product_id" binding:"required,uuid"`
	CategoryIDs []string   `json:"category_ids" binding:"omitempty,dive,uuid"`
	Subtotal    float64    `json:"subtotal" binding:"required,gt=0"`
	Date        *time.Time `json:"date"`
}

// ResolveRate previews the commission that would apply to one order line
func (h *CommissionRuleHandler) ResolveRate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ResolveRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		h.BadRequest(c, "Invalid merchant ID format")
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}
	categoryIDs := make([]uuid.UUID, 0, len(req.CategoryIDs))
	for _, raw := range req.CategoryIDs {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid category ID format")
			return
		}
		categoryIDs = append(categoryIDs, categoryID)
	}

	appReq := commissionapp.ResolveRateRequest{
		TenantID:    tenantID,
		MerchantID:  merchantID,
		ProductID:   productID,
		CategoryIDs: categoryIDs,
		Subtotal:    decimal.NewFromFloat(req.Subtotal),
	}
	if req.Date != nil {
		appReq.Date = *req.Date
	}

	spec, err := h.ruleService.ResolveRate(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, commissionapp.ToResolvedRateResponse(spec))
}

// parseOptionalUUID parses a pointer to a UUID string, treating nil and empty
// as absent
func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
