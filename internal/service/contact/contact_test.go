// internal/service/contact/contact_test.go
package contact

import (
	"context"
	"database/sql"
	"testing"

	"crm-service/internal/domain/customer"
	xerrors "crm-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx *fakeTx
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	d.tx = &fakeTx{}
	return d.tx, nil
}

// fakeStore simulates the race: appearAfterLock makes the row visible only
// to the post-lock re-check, as if another transaction inserted it between
// the pre-check and the lock.
type fakeStore struct {
	existing        *customer.Customer
	appearAfterLock bool
	created         *customer.Customer
	updated         *customer.Customer
}

func (s *fakeStore) FindByEmailForUpdate(ctx context.Context, tx pgx.Tx, email string) (*customer.Customer, error) {
	if s.existing == nil || s.appearAfterLock {
		return nil, xerrors.ErrNotFound
	}
	return s.existing, nil
}

func (s *fakeStore) FindByEmailTx(ctx context.Context, tx pgx.Tx, email string) (*customer.Customer, error) {
	if s.existing == nil {
		return nil, xerrors.ErrNotFound
	}
	return s.existing, nil
}

func (s *fakeStore) UpdateTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) (*customer.Customer, error) {
	s.updated = c
	return c, nil
}

func (s *fakeStore) CreateTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) error {
	c.ID = 100
	s.created = c
	return nil
}

func TestSubmitCreatesNewCustomer(t *testing.T) {
	store := &fakeStore{}
	db := &fakeDB{}
	svc := NewService(db, store, zap.NewNop())

	c, created, err := svc.Submit(context.Background(), &customer.ContactRequest{
		Name: "Jane Doe", Email: "Jane@X.com", Phone: "555-1111", Message: "interested in services",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, db.tx.committed)

	require.NotNil(t, store.created)
	assert.Equal(t, "jane@x.com", c.Email.String)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "Jane", c.FirstName.String)
	assert.Equal(t, "Doe", c.LastName.String)
	assert.Equal(t, customer.StatusPending, c.Status)
	assert.Equal(t, "interested in services", c.Notes.String)
}

func TestSubmitDeduplicatesByEmail(t *testing.T) {
	existing := &customer.Customer{
		ID:    7,
		Name:  "Jane Doe",
		Email: sql.NullString{String: "jane@x.com", Valid: true},
		Notes: sql.NullString{String: "first message", Valid: true},
	}
	store := &fakeStore{existing: existing}
	svc := NewService(&fakeDB{}, store, zap.NewNop())

	c, created, err := svc.Submit(context.Background(), &customer.ContactRequest{
		Name: "Jane Doe", Email: "jane@x.com", Message: "second message",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, store.created)

	require.NotNil(t, store.updated)
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, "first message\nsecond message", c.Notes.String)
}

func TestSubmitDoubleCheckCatchesRace(t *testing.T) {
	existing := &customer.Customer{
		ID:    7,
		Name:  "Jane Doe",
		Email: sql.NullString{String: "jane@x.com", Valid: true},
	}
	store := &fakeStore{existing: existing, appearAfterLock: true}
	svc := NewService(&fakeDB{}, store, zap.NewNop())

	c, created, err := svc.Submit(context.Background(), &customer.ContactRequest{
		Name: "Jane Doe", Email: "jane@x.com",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, store.created)
	assert.Equal(t, int64(7), c.ID)
}

func TestSubmitRequiresEmail(t *testing.T) {
	svc := NewService(&fakeDB{}, &fakeStore{}, zap.NewNop())

	_, _, err := svc.Submit(context.Background(), &customer.ContactRequest{Name: "Jane Doe"})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}
