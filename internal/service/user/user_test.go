// internal/service/user/user_test.go
package user

import (
	"context"
	"testing"
	"time"

	"crm-service/internal/domain/auth"
	xerrors "crm-service/internal/pkg/errors"
	"crm-service/internal/pkg/passcache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	byID     map[int64]*auth.User
	nextID   int64
	lastHash string
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[int64]*auth.User{}, nextID: 1}
}

func (s *fakeStore) Create(ctx context.Context, u *auth.User) error {
	u.ID = s.nextID
	s.nextID++
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.byID[u.ID] = u
	return nil
}

func (s *fakeStore) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) List(ctx context.Context) ([]auth.User, error) {
	out := []auth.User{}
	for _, u := range s.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeStore) Update(ctx context.Context, u *auth.User) error {
	s.byID[u.ID] = u
	return nil
}

func (s *fakeStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	u, ok := s.byID[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	u.PasswordHash = hash
	s.lastHash = hash
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return xerrors.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *fakeStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	for _, u := range s.byID {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type fakeRevoker struct {
	revoked []int64
}

func (r *fakeRevoker) RevokeAll(ctx context.Context, userID int64) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

func newTestService() (*Service, *fakeStore, *passcache.Cache, *fakeRevoker) {
	store := newFakeStore()
	cache := passcache.New()
	revoker := &fakeRevoker{}
	return NewService(store, cache, revoker, zap.NewNop()), store, cache, revoker
}

func TestCreateGeneratesAndCachesTempPassword(t *testing.T) {
	svc, store, cache, _ := newTestService()

	resp, err := svc.Create(context.Background(), &auth.CreateUserRequest{
		Username: "jdoe", Role: auth.RoleEmployee,
	})
	require.NoError(t, err)
	require.Len(t, resp.TempPassword, tempPasswordLength)

	// The stored hash matches the returned plaintext.
	u := store.byID[resp.User.ID]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(resp.TempPassword)))

	cached, ok := cache.Get("jdoe")
	require.True(t, ok)
	assert.Equal(t, resp.TempPassword, cached)
}

func TestCreateRejectsTakenUsername(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Create(context.Background(), &auth.CreateUserRequest{
		Username: "jdoe", Role: auth.RoleEmployee,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &auth.CreateUserRequest{
		Username: "jdoe", Role: auth.RoleAdmin,
	})
	assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)
}

func TestTempPassword(t *testing.T) {
	svc, _, _, _ := newTestService()

	resp, err := svc.Create(context.Background(), &auth.CreateUserRequest{
		Username: "jdoe", Role: auth.RoleEmployee,
	})
	require.NoError(t, err)

	pw, err := svc.TempPassword(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.TempPassword, pw)
}

func TestTempPasswordGoneAfterExpiry(t *testing.T) {
	svc, _, cache, _ := newTestService()

	resp, err := svc.Create(context.Background(), &auth.CreateUserRequest{
		Username: "jdoe", Role: auth.RoleEmployee,
	})
	require.NoError(t, err)

	cache.Delete("jdoe")

	_, err = svc.TempPassword(context.Background(), resp.User.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestUpdateRoleChangeRevokesSessions(t *testing.T) {
	svc, _, _, revoker := newTestService()

	resp, err := svc.Create(context.Background(), &auth.CreateUserRequest{
		Username: "jdoe", Role: auth.RoleEmployee,
	})
	require.NoError(t, err)

	role := auth.RoleAdmin
	u, temp, err := svc.Update(context.Background(), resp.User.ID, &auth.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, u.Role)
	assert.Empty(t, temp)
	assert.Contains(t, revoker.revoked, resp.User.ID)
}

func TestUpdateResetPassword(t *testing.T) {
	svc, store, cache, revoker := newTestService()

	resp, err := svc.Create(context.Background(), &auth.CreateUserRequest{
		Username: "jdoe", Role: auth.RoleEmployee,
	})
	require.NoError(t, err)
	original := resp.TempPassword

	_, temp, err := svc.Update(context.Background(), resp.User.ID, &auth.UpdateUserRequest{ResetPassword: true})
	require.NoError(t, err)
	require.NotEmpty(t, temp)
	assert.NotEqual(t, original, temp)

	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.lastHash), []byte(temp)))
	cached, _ := cache.Get("jdoe")
	assert.Equal(t, temp, cached)
	assert.Contains(t, revoker.revoked, resp.User.ID)
}

func TestDeleteRemovesCacheAndSessions(t *testing.T) {
	svc, store, cache, revoker := newTestService()

	resp, err := svc.Create(context.Background(), &auth.CreateUserRequest{
		Username: "jdoe", Role: auth.RoleEmployee,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), resp.User.ID))
	assert.Empty(t, store.byID)
	_, ok := cache.Get("jdoe")
	assert.False(t, ok)
	assert.Contains(t, revoker.revoked, resp.User.ID)
}
