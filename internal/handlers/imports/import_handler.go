// internal/handlers/imports/import_handler.go
package imports

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"crm-service/internal/domain/customer"
	xerrors "crm-service/internal/pkg/errors"
	"crm-service/internal/pkg/response"
	"crm-service/internal/service/importer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc      *importer.Service
	maxBytes int64
	logger   *zap.Logger
}

func NewHandler(svc *importer.Service, maxBytes int64, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, maxBytes: maxBytes, logger: logger}
}

// UploadFile ingests a multipart csv/xlsx/xls upload. Per-row failures are
// reported in the summary; only a malformed request fails wholesale.
func (h *Handler) UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ValidationError(c, "no file uploaded", err)
		return
	}
	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		response.ValidationError(c, "file exceeds the upload size limit", nil)
		return
	}

	format, err := importer.FormatFromFilename(fileHeader.Filename)
	if err != nil {
		response.ValidationError(c, "unsupported file format, expected csv, xlsx or xls", err)
		return
	}

	var defaultAssignee *int64
	if raw := c.PostForm("assigned_to"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			response.ValidationError(c, "invalid assigned_to value", err)
			return
		}
		defaultAssignee = &id
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ValidationError(c, "failed to read uploaded file", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.ValidationError(c, "failed to read uploaded file", err)
		return
	}

	result, err := h.svc.ImportFile(c.Request.Context(), data, format, defaultAssignee)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrEmptyFile):
			response.ValidationError(c, "file has no data rows", err)
		case errors.Is(err, xerrors.ErrUnsupportedFormat):
			response.ValidationError(c, "unsupported file format", err)
		default:
			// excelize fails here for files that are not real workbooks.
			response.ValidationError(c, "failed to parse file", err)
		}
		return
	}

	h.logger.Info("file import finished",
		zap.String("filename", fileHeader.Filename),
		zap.Int("total", result.TotalRecords),
		zap.Int("imported", result.ImportedCount),
		zap.Int("errors", result.ErrorCount))

	response.Success(c, http.StatusOK, "import finished", result)
}

// BulkUpload ingests pre-parsed customer records. Callers that need full
// control over the column mapping parse the file themselves and use this.
func (h *Handler) BulkUpload(c *gin.Context) {
	var req customer.BulkUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid bulk upload payload", err)
		return
	}

	summary := h.svc.ImportRecords(c.Request.Context(), req.Customers, req.BatchSize)

	h.logger.Info("bulk upload finished",
		zap.Int("total", summary.TotalRecords),
		zap.Int("imported", summary.ImportedCount),
		zap.Int("errors", summary.ErrorCount))

	response.Success(c, http.StatusOK, "import finished", summary)
}
