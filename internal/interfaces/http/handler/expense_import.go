package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	taxapp "github.com/ecommerized/adperfumes-sub001/internal/application/tax"
	csvimport "github.com/ecommerized/adperfumes-sub001/internal/infrastructure/import"
	"github.com/ecommerized/adperfumes-sub001/internal/interfaces/http/dto"
)

// maxImportFileSize limits expense CSV uploads to 10MB
const maxImportFileSize = 10 * 1024 * 1024

// ExpenseImportHandler handles bulk expense CSV uploads
type ExpenseImportHandler struct {
	BaseHandler
	importService *taxapp.ExpenseImportService
}

// NewExpenseImportHandler creates a new ExpenseImportHandler
func NewExpenseImportHandler(importService *taxapp.ExpenseImportService) *ExpenseImportHandler {
	return &ExpenseImportHandler{importService: importService}
}

// RegisterRoutes registers expense import routes
func (h *ExpenseImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/expenses/import")
	{
		imports.POST("", h.ImportExpenses)
		imports.POST("/validate", h.ValidateExpenses)
		imports.GET("/sessions/:id", h.GetSession)
	}
}

// ImportSessionResponse represents a validation session in API responses
type ImportSessionResponse struct {
	ID          uuid.UUID            `json:"id"`
	FileName    string               `json:"file_name"`
	State       string               `json:"state"`
	TotalRows   int                  `json:"total_rows"`
	ValidRows   int                  `json:"valid_rows"`
	ErrorRows   int                  `json:"error_rows"`
	Errors      []csvimport.RowError `json:"errors,omitempty"`
	Preview     []map[string]any     `json:"preview,omitempty"`
	CreatedAt   string               `json:"created_at"`
	CompletedAt string               `json:"completed_at,omitempty"`
}

func toImportSessionResponse(s *csvimport.ImportSession) *ImportSessionResponse {
	resp := &ImportSessionResponse{
		ID:        s.ID,
		FileName:  s.FileName,
		State:     string(s.State),
		TotalRows: s.TotalRows,
		ValidRows: s.ValidRows,
		ErrorRows: s.ErrorRows,
		Errors:    s.Errors,
		Preview:   s.Preview,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
	if s.CompletedAt != nil {
		resp.CompletedAt = s.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

// readCSVUpload extracts and reads the uploaded CSV file from the request.
// It returns false after writing the error response when the upload is
// unusable.
func (h *ExpenseImportHandler) readCSVUpload(c *gin.Context) ([]byte, *multipart.FileHeader, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return nil, nil, false
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidation, "file exceeds maximum size of 10MB")
		return nil, nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "text/csv" && contentType != "application/octet-stream" &&
		contentType != "text/plain" && contentType != "application/vnd.ms-excel" {
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeValidation, "file must be a CSV file")
		return nil, nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImportFileSize+1))
	if err != nil {
		h.InternalError(c, "failed to read uploaded file")
		return nil, nil, false
	}
	return data, header, true
}

// ValidateExpenses dry-runs an expense CSV and returns the validation result
// with a preview, without persisting anything
func (h *ExpenseImportHandler) ValidateExpenses(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID := requestUserID(c)

	data, header, ok := h.readCSVUpload(c)
	if !ok {
		return
	}

	session, err := h.importService.ValidateCSV(c.Request.Context(), tenantID, userID, header.Filename, data)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toImportSessionResponse(session))
}

// ImportExpenses validates and persists an expense CSV in one call. Valid
// rows are imported; invalid rows are reported back.
func (h *ExpenseImportHandler) ImportExpenses(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	data, _, ok := h.readCSVUpload(c)
	if !ok {
		return
	}

	result, err := h.importService.ImportCSV(c.Request.Context(), tenantID, data)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetSession retrieves a previous validation session
func (h *ExpenseImportHandler) GetSession(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}

	session, err := h.importService.GetSession(sessionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if session == nil || session.TenantID != tenantID {
		h.NotFound(c, "Import session not found")
		return
	}

	h.Success(c, toImportSessionResponse(session))
}

// requestUserID reads the optional X-User-ID header, falling back to the nil
// UUID for unattributed uploads
func requestUserID(c *gin.Context) uuid.UUID {
	if raw := c.GetHeader("X-User-ID"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return id
		}
	}
	return uuid.Nil
}
