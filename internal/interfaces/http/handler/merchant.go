package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	commissionapp "github.com/ecommerized/adperfumes-sub001/internal/application/commission"
)

// MerchantHandler handles merchant registry API endpoints
type MerchantHandler struct {
	BaseHandler
	merchantService *commissionapp.MerchantService
}

// NewMerchantHandler creates a new MerchantHandler
func NewMerchantHandler(merchantService *commissionapp.MerchantService) *MerchantHandler {
	return &MerchantHandler{merchantService: merchantService}
}

// RegisterRoutes registers merchant routes
func (h *MerchantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	merchants := rg.Group("/merchants")
	{
		merchants.POST("", h.Create)
		merchants.GET("", h.ListActive)
		merchants.GET("/:merchantId", h.GetByID)
		merchants.PUT("/:merchantId/commission-percentage", h.SetCommissionPercentage)
		merchants.PUT("/:merchantId/volume", h.RecordVolume)
		merchants.POST("/:merchantId/deactivate", h.Deactivate)
	}
}

// CreateMerchantRequest represents a request to register a merchant
type CreateMerchantRequest struct {
	Code string `json:"code" binding:"required,min=1,max=20"`
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// Create registers a merchant with the platform default commission rate
func (h *MerchantHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.merchantService.CreateMerchant(c.Request.Context(), tenantID, req.Code, req.Name)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID retrieves a merchant by ID
func (h *MerchantHandler) GetByID(c *gin.Context) {
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

	result, err := h.merchantService.GetMerchant(c.Request.Context(), tenantID, merchantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListActive lists the tenant's active merchants
func (h *MerchantHandler) ListActive(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.merchantService.ListActiveMerchants(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// SetCommissionPercentageRequest represents a fallback rate override
type SetCommissionPercentageRequest struct {
	Rate decimal.Decimal `json:"rate" binding:"required"`
}

// SetCommissionPercentage overrides a merchant's fallback commission rate
func (h *MerchantHandler) SetCommissionPercentage(c *gin.Context) {
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

	var req SetCommissionPercentageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.merchantService.SetCommissionPercentage(c.Request.Context(), tenantID, merchantID, req.Rate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// RecordVolumeRequest represents a trailing volume update
type RecordVolumeRequest struct {
	Volume decimal.Decimal `json:"volume" binding:"required"`
}

// RecordVolume replaces a merchant's trailing 30-day sales volume
func (h *MerchantHandler) RecordVolume(c *gin.Context) {
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

	var req RecordVolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.merchantService.RecordVolume(c.Request.Context(), tenantID, merchantID, req.Volume)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Deactivate removes a merchant from commission resolution
func (h *MerchantHandler) Deactivate(c *gin.Context) {
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

	result, err := h.merchantService.DeactivateMerchant(c.Request.Context(), tenantID, merchantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
