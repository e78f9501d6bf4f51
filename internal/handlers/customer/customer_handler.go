// internal/handlers/customer/customer_handler.go
package customer

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"crm-service/internal/domain/customer"
	"crm-service/internal/middleware"
	xerrors "crm-service/internal/pkg/errors"
	"crm-service/internal/pkg/response"
	customersvc "crm-service/internal/service/customer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc    *customersvc.Service
	logger *zap.Logger
}

func NewHandler(svc *customersvc.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationError(c, "invalid customer id", err)
		return 0, false
	}
	return id, true
}

// writeServiceError maps service sentinels to HTTP statuses.
func (h *Handler) writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		response.NotFound(c, "customer not found")
	case errors.Is(err, xerrors.ErrConflict):
		response.Conflict(c, "customer was modified by another request", err)
	case errors.Is(err, xerrors.ErrDuplicateEntry):
		response.ValidationError(c, "duplicate entry", err)
	case errors.Is(err, xerrors.ErrInvalidReference):
		response.ValidationError(c, "referenced record does not exist", err)
	case errors.Is(err, xerrors.ErrInvalidInput):
		response.ValidationError(c, err.Error(), nil)
	default:
		h.logger.Error(fallback, zap.Error(err))
		response.Error(c, http.StatusInternalServerError, fallback, nil)
	}
}

func (h *Handler) List(c *gin.Context) {
	var filters customer.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	resp, err := h.svc.List(c.Request.Context(), &filters)
	if err != nil {
		h.writeServiceError(c, err, "failed to list customers")
		return
	}

	response.Success(c, http.StatusOK, "customers retrieved", resp)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	cust, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err, "failed to load customer")
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", cust)
}

func (h *Handler) Create(c *gin.Context) {
	var req customer.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid customer payload", err)
		return
	}

	cust, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		h.writeServiceError(c, err, "failed to create customer")
		return
	}

	response.Success(c, http.StatusCreated, "customer created", cust)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req customer.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid update payload", err)
		return
	}

	cust, err := h.svc.Update(c.Request.Context(), id, middleware.UserIDFrom(c), &req)
	if err != nil {
		h.writeServiceError(c, err, "failed to update customer")
		return
	}

	response.Success(c, http.StatusOK, "customer updated", cust)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err, "failed to delete customer")
		return
	}

	response.Success(c, http.StatusOK, "customer deleted", nil)
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var req customer.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid bulk delete payload", err)
		return
	}

	deleted, err := h.svc.BulkDelete(c.Request.Context(), req.CustomerIDs)
	if err != nil {
		h.writeServiceError(c, err, "failed to bulk delete customers")
		return
	}

	response.Success(c, http.StatusOK, "customers deleted",
		customer.BulkDeleteResponse{DeletedCount: deleted})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "failed to load customer stats")
		return
	}

	response.Success(c, http.StatusOK, "customer stats", stats)
}

func (h *Handler) Actions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	actions, err := h.svc.Actions(c.Request.Context(), id, limit)
	if err != nil {
		h.writeServiceError(c, err, "failed to load customer actions")
		return
	}

	response.Success(c, http.StatusOK, "customer actions", actions)
}

func (h *Handler) Export(c *gin.Context) {
	data, err := h.svc.ExportCSV(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "failed to export customers")
		return
	}

	filename := "customers-" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}
