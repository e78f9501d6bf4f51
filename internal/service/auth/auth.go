// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"time"

	"crm-service/internal/domain/auth"
	xerrors "crm-service/internal/pkg/errors"
	"crm-service/internal/pkg/jwt"
	"crm-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the slice of the user repository the auth flow needs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*auth.User, error)
	FindByID(ctx context.Context, id int64) (*auth.User, error)
}

type Service struct {
	users    UserStore
	tokens   *jwt.Manager
	sessions *session.Manager
	logger   *zap.Logger
}

func NewService(users UserStore, tokens *jwt.Manager, sessions *session.Manager, logger *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, sessions: sessions, logger: logger}
}

// Login verifies credentials, issues a token and records its session.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *auth.LoginRequest, ip, userAgent string) (*auth.LoginResponse, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("failed login attempt",
			zap.String("username", req.Username),
			zap.String("ip", ip))
		return nil, xerrors.ErrUnauthorized
	}

	token, jti, err := s.tokens.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to issue token")
	}

	now := time.Now()
	err = s.sessions.Create(ctx, &session.SessionData{
		JTI:       jti,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		IPAddress: ip,
		UserAgent: userAgent,
		LoginAt:   now,
		ExpiresAt: now.Add(s.tokens.TTL),
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to record session")
	}

	s.logger.Info("user logged in",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username))

	return &auth.LoginResponse{Token: token, User: user.Public()}, nil
}

// ValidateToken parses the bearer token and confirms its session is still
// live in Redis. A revoked jti fails even when the JWT itself has not expired.
func (s *Service) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, xerrors.ErrUnauthorized
	}
	if _, err := s.sessions.Get(ctx, claims.UserID, claims.ID); err != nil {
		return nil, xerrors.ErrSessionExpired
	}
	return claims, nil
}

// Logout revokes the token's session.
func (s *Service) Logout(ctx context.Context, claims *jwt.Claims) error {
	return s.sessions.Revoke(ctx, claims.UserID, claims.ID)
}

// Me returns the authenticated user's current record.
func (s *Service) Me(ctx context.Context, userID int64) (*auth.User, error) {
	return s.users.FindByID(ctx, userID)
}
