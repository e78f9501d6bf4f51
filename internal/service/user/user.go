// internal/service/user/user.go
package user

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"

	"crm-service/internal/domain/auth"
	xerrors "crm-service/internal/pkg/errors"
	"crm-service/internal/pkg/passcache"
	"crm-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Store is the user persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, u *auth.User) error
	FindByID(ctx context.Context, id int64) (*auth.User, error)
	List(ctx context.Context) ([]auth.User, error)
	Update(ctx context.Context, u *auth.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// SessionRevoker invalidates a user's live tokens when their account
// changes in a way that affects access.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID int64) error
}

type Service struct {
	store     Store
	passwords *passcache.Cache
	sessions  SessionRevoker
	logger    *zap.Logger
}

var _ SessionRevoker = (*session.Manager)(nil)

func NewService(store Store, passwords *passcache.Cache, sessions SessionRevoker, logger *zap.Logger) *Service {
	return &Service{store: store, passwords: passwords, sessions: sessions, logger: logger}
}

const tempPasswordLength = 12

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateTempPassword() (string, error) {
	buf := make([]byte, tempPasswordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create provisions an account with a generated temporary password. The
// plaintext is returned once and kept readable in the cache for 24 hours.
func (s *Service) Create(ctx context.Context, req *auth.CreateUserRequest) (*auth.CreateUserResponse, error) {
	taken, err := s.store.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, xerrors.ErrDuplicateEntry
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &auth.User{
		Username:     req.Username,
		Email:        nullString(req.Email),
		FullName:     nullString(req.FullName),
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	s.passwords.Put(u.Username, tempPassword, passcache.DefaultTTL)

	s.logger.Info("user created",
		zap.Int64("user_id", u.ID),
		zap.String("username", u.Username),
		zap.String("role", u.Role))

	return &auth.CreateUserResponse{User: u.Public(), TempPassword: tempPassword}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*auth.User, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]auth.User, error) {
	return s.store.List(ctx)
}

// TempPassword returns the cached plaintext for an account whose password
// was generated within the last 24 hours.
func (s *Service) TempPassword(ctx context.Context, id int64) (string, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	pw, ok := s.passwords.Get(u.Username)
	if !ok {
		return "", xerrors.ErrNotFound
	}
	return pw, nil
}

// Update edits profile fields and optionally resets the password, returning
// the new temporary password when it does. A role change or password reset
// revokes the user's live sessions.
func (s *Service) Update(ctx context.Context, id int64, req *auth.UpdateUserRequest) (*auth.User, string, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	revoke := false
	if req.Email != nil {
		u.Email = nullString(*req.Email)
	}
	if req.FullName != nil {
		u.FullName = nullString(*req.FullName)
	}
	if req.Role != nil && *req.Role != u.Role {
		u.Role = *req.Role
		revoke = true
	}

	if err := s.store.Update(ctx, u); err != nil {
		return nil, "", err
	}

	tempPassword := ""
	if req.ResetPassword {
		tempPassword, err = generateTempPassword()
		if err != nil {
			return nil, "", err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.store.UpdatePassword(ctx, id, string(hash)); err != nil {
			return nil, "", err
		}
		s.passwords.Put(u.Username, tempPassword, passcache.DefaultTTL)
		revoke = true
	}

	if revoke {
		if err := s.sessions.RevokeAll(ctx, id); err != nil {
			s.logger.Warn("failed to revoke sessions after user update",
				zap.Int64("user_id", id), zap.Error(err))
		}
	}

	return u, tempPassword, nil
}

// Delete removes the account and revokes its sessions.
func (s *Service) Delete(ctx context.Context, id int64) error {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.passwords.Delete(u.Username)
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		s.logger.Warn("failed to revoke sessions after user delete",
			zap.Int64("user_id", id), zap.Error(err))
	}
	return nil
}
