// internal/handlers/user/user_handler.go
package user

import (
	"errors"
	"net/http"
	"strconv"

	"crm-service/internal/domain/auth"
	xerrors "crm-service/internal/pkg/errors"
	"crm-service/internal/pkg/response"
	usersvc "crm-service/internal/service/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc    *usersvc.Service
	logger *zap.Logger
}

func NewHandler(svc *usersvc.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationError(c, "invalid user id", err)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, xerrors.ErrDuplicateEntry):
		response.ValidationError(c, "username already taken", err)
	default:
		h.logger.Error(fallback, zap.Error(err))
		response.Error(c, http.StatusInternalServerError, fallback, nil)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req auth.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid user payload", err)
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		h.writeServiceError(c, err, "failed to create user")
		return
	}

	response.Success(c, http.StatusCreated, "user created", resp)
}

func (h *Handler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "failed to list users")
		return
	}

	public := make([]auth.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	response.Success(c, http.StatusOK, "users retrieved", public)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err, "failed to load user")
		return
	}

	response.Success(c, http.StatusOK, "user retrieved", u.Public())
}

// TempPassword returns the temporary password generated for the user within
// the last 24 hours, if it is still cached.
func (h *Handler) TempPassword(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	pw, err := h.svc.TempPassword(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "no temporary password available")
			return
		}
		h.writeServiceError(c, err, "failed to load temporary password")
		return
	}

	response.Success(c, http.StatusOK, "temporary password", gin.H{"temp_password": pw})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req auth.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid user payload", err)
		return
	}

	u, tempPassword, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.writeServiceError(c, err, "failed to update user")
		return
	}

	data := gin.H{"user": u.Public()}
	if tempPassword != "" {
		data["temp_password"] = tempPassword
	}
	response.Success(c, http.StatusOK, "user updated", data)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err, "failed to delete user")
		return
	}

	response.Success(c, http.StatusOK, "user deleted", nil)
}
