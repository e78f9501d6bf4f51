// internal/handlers/auth/auth_handler.go
package auth

import (
	"errors"
	"net/http"

	"crm-service/internal/domain/auth"
	"crm-service/internal/middleware"
	xerrors "crm-service/internal/pkg/errors"
	"crm-service/internal/pkg/response"
	authsvc "crm-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc    *authsvc.Service
	logger *zap.Logger
}

func NewHandler(svc *authsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid login request", err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, xerrors.ErrUnauthorized) {
			response.Unauthorized(c, "invalid username or password")
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "login failed", nil)
		return
	}

	response.Success(c, http.StatusOK, "logged in", resp)
}

func (h *Handler) Logout(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.svc.Logout(c.Request.Context(), claims); err != nil {
		h.logger.Error("logout failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}

	response.Success(c, http.StatusOK, "logged out", nil)
}

func (h *Handler) Me(c *gin.Context) {
	userID := middleware.UserIDFrom(c)
	if userID == 0 {
		response.Unauthorized(c, "authentication required")
		return
	}

	user, err := h.svc.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("failed to load current user", zap.Int64("user_id", userID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to load user", nil)
		return
	}

	response.Success(c, http.StatusOK, "current user", user.Public())
}
