// internal/app/router.go
package app

import (
	"net/http"
	"time"

	authhandler "crm-service/internal/handlers/auth"
	contacthandler "crm-service/internal/handlers/contact"
	customerhandler "crm-service/internal/handlers/customer"
	importhandler "crm-service/internal/handlers/imports"
	userhandler "crm-service/internal/handlers/user"
	"crm-service/internal/middleware"
	"crm-service/internal/pkg/response"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type routerHandlers struct {
	auth     *authhandler.Handler
	customer *customerhandler.Handler
	imports  *importhandler.Handler
	contact  *contacthandler.Handler
	user     *userhandler.Handler
}

func (s *Server) buildRouter(h *routerHandlers, validator middleware.TokenValidator) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logging(s.logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "ok", nil)
	})

	api := r.Group("/api/v1")

	// File uploads carry their own, larger limit below.
	jsonLimit := middleware.BodyLimit(s.cfg.JSONBodyLimit)
	uploadLimit := middleware.BodyLimit(s.cfg.UploadMaxBytes)

	// Public
	api.POST("/auth/login", jsonLimit, h.auth.Login)
	api.POST("/contact", jsonLimit, h.contact.Submit)

	// Authenticated
	authed := api.Group("")
	authed.Use(middleware.Auth(validator))
	{
		authed.POST("/auth/logout", h.auth.Logout)
		authed.GET("/auth/me", h.auth.Me)

		customers := authed.Group("/customers")
		{
			customers.GET("", h.customer.List)
			customers.POST("", jsonLimit, h.customer.Create)
			customers.GET("/stats", h.customer.Stats)
			customers.GET("/export", h.customer.Export)
			customers.POST("/bulk-delete", jsonLimit, h.customer.BulkDelete)
			customers.POST("/bulk-upload", jsonLimit, h.imports.BulkUpload)
			customers.POST("/upload-file", uploadLimit, h.imports.UploadFile)
			customers.GET("/:id", h.customer.Get)
			customers.PUT("/:id", jsonLimit, h.customer.Update)
			customers.DELETE("/:id", h.customer.Delete)
			customers.GET("/:id/actions", h.customer.Actions)
		}

		users := authed.Group("/users")
		users.Use(middleware.RequireRole("admin"))
		{
			users.POST("", jsonLimit, h.user.Create)
			users.GET("", h.user.List)
			users.GET("/:id", h.user.Get)
			users.GET("/:id/temp-password", h.user.TempPassword)
			users.PUT("/:id", jsonLimit, h.user.Update)
			users.DELETE("/:id", h.user.Delete)
		}
	}

	return r
}
