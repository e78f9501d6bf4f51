// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"crm-service/internal/config"
	"crm-service/internal/db"
	authhandler "crm-service/internal/handlers/auth"
	contacthandler "crm-service/internal/handlers/contact"
	customerhandler "crm-service/internal/handlers/customer"
	importhandler "crm-service/internal/handlers/imports"
	userhandler "crm-service/internal/handlers/user"
	"crm-service/internal/pkg/jwt"
	"crm-service/internal/pkg/passcache"
	"crm-service/internal/pkg/session"
	"crm-service/internal/repository/postgres"
	authsvc "crm-service/internal/service/auth"
	contactsvc "crm-service/internal/service/contact"
	customersvc "crm-service/internal/service/customer"
	"crm-service/internal/service/importer"
	usersvc "crm-service/internal/service/user"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Server owns the process-wide resources and the HTTP server.
type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger

	pool    *pgxpool.Pool
	rdb     *redis.Client
	cron    *cron.Cron
	httpSrv *http.Server
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Start connects the backing stores, wires every component and begins
// serving. It returns when the HTTP server stops.
func (s *Server) Start(ctx context.Context) error {
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{
		DatabaseURL:    s.cfg.DatabaseURL,
		MaxConns:       s.cfg.DBMaxConns,
		MinConns:       s.cfg.DBMinConns,
		AcquireTimeout: s.cfg.DBAcquireTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	s.pool = pool

	rdb, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	s.rdb = rdb

	tokens, err := jwt.NewManager(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to configure jwt: %w", err)
	}
	sessions := session.NewManager(rdb)
	passwords := passcache.New()

	// Repositories
	userRepo := postgres.NewUserRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	actionRepo := postgres.NewActionRepository(pool)

	// Services
	authService := authsvc.NewService(userRepo, tokens, sessions, s.logger)
	userService := usersvc.NewService(userRepo, passwords, sessions, s.logger)
	customerService := customersvc.NewService(pool, customerRepo, actionRepo, s.logger)
	contactService := contactsvc.NewService(pool, customerRepo, s.logger)
	importService := importer.NewService(customerRepo, s.cfg.ImportBatchSize, s.logger)

	// Handlers
	handlers := &routerHandlers{
		auth:     authhandler.NewHandler(authService, s.logger),
		customer: customerhandler.NewHandler(customerService, s.logger),
		imports:  importhandler.NewHandler(importService, s.cfg.UploadMaxBytes, s.logger),
		contact:  contacthandler.NewHandler(contactService, s.logger),
		user:     userhandler.NewHandler(userService, s.logger),
	}

	// Expired temp passwords are swept hourly.
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@hourly", func() {
		if removed := passwords.Sweep(); removed > 0 {
			s.logger.Info("swept expired temp passwords", zap.Int("removed", removed))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule password sweep: %w", err)
	}
	s.cron.Start()

	router := s.buildRouter(handlers, authService)
	s.httpSrv = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server listening", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and releases the backing stores.
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.cron != nil {
		cronCtx := s.cron.Stop()
		select {
		case <-cronCtx.Done():
		case <-ctx.Done():
		}
	}
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}

	return firstErr
}
