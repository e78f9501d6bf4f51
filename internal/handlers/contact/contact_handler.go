// internal/handlers/contact/contact_handler.go
package contact

import (
	"errors"
	"net/http"

	"crm-service/internal/domain/customer"
	xerrors "crm-service/internal/pkg/errors"
	"crm-service/internal/pkg/response"
	contactsvc "crm-service/internal/service/contact"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc    *contactsvc.Service
	logger *zap.Logger
}

func NewHandler(svc *contactsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Submit is the public contact-form endpoint. The response never reveals
// whether the email already existed.
func (h *Handler) Submit(c *gin.Context) {
	var req customer.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid contact payload", err)
		return
	}

	_, _, err := h.svc.Submit(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, xerrors.ErrInvalidInput) {
			response.ValidationError(c, err.Error(), nil)
			return
		}
		h.logger.Error("contact submission failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to submit contact form", nil)
		return
	}

	response.Success(c, http.StatusOK, "thank you, we will be in touch", nil)
}
