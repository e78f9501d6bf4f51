// internal/service/customer/customer_test.go
package customer

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"crm-service/internal/domain/customer"
	xerrors "crm-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTx implements just enough of pgx.Tx for the pipeline: the embedded
// interface covers the methods the service never calls.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	savepoints []*fakeTx
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) {
	sp := &fakeTx{}
	t.savepoints = append(t.savepoints, sp)
	return sp, nil
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

type fakeStore struct {
	byID    map[int64]*customer.Customer
	updated *customer.Customer
}

func newFakeStore(customers ...*customer.Customer) *fakeStore {
	s := &fakeStore{byID: map[int64]*customer.Customer{}}
	for _, c := range customers {
		s.byID[c.ID] = c
	}
	return s
}

func (s *fakeStore) Create(ctx context.Context, c *customer.Customer) error {
	c.ID = int64(len(s.byID) + 1)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.byID[c.ID] = c
	return nil
}

func (s *fakeStore) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*customer.Customer, error) {
	return s.FindByID(ctx, id)
}

func (s *fakeStore) UpdateTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) (*customer.Customer, error) {
	updated := *c
	updated.UpdatedAt = time.Now()
	s.byID[c.ID] = &updated
	s.updated = &updated
	return &updated, nil
}

func (s *fakeStore) List(ctx context.Context, filters *customer.ListFilters) ([]customer.Customer, int64, error) {
	return nil, 0, nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error { return nil }

func (s *fakeStore) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	return int64(len(ids)), nil
}

func (s *fakeStore) GetStats(ctx context.Context) (*customer.Stats, error) { return nil, nil }

func (s *fakeStore) ExportAll(ctx context.Context) ([]customer.Customer, error) {
	out := []customer.Customer{}
	for _, c := range s.byID {
		out = append(out, *c)
	}
	return out, nil
}

type fakeActions struct {
	inserted  []*customer.Action
	insertErr error
}

func (a *fakeActions) InsertTx(ctx context.Context, tx pgx.Tx, action *customer.Action) error {
	if a.insertErr != nil {
		return a.insertErr
	}
	a.inserted = append(a.inserted, action)
	return nil
}

func (a *fakeActions) ListByCustomer(ctx context.Context, customerID int64, limit int) ([]customer.Action, error) {
	return nil, nil
}

func existingCustomer() *customer.Customer {
	return &customer.Customer{
		ID:         1,
		Name:       "Jane Doe",
		Status:     customer.StatusPending,
		AssignedTo: sql.NullInt64{Int64: 5, Valid: true},
		UpdatedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestService(store *fakeStore, actions *fakeActions) (*Service, *fakeDB) {
	db := &fakeDB{}
	return NewService(db, store, actions, zap.NewNop()), db
}

func strPtr(s string) *string        { return &s }
func boolPtr(b bool) *bool           { return &b }
func timePtr(t time.Time) *time.Time { return &t }

func TestUpdateStatusChangeRecordsAction(t *testing.T) {
	store := newFakeStore(existingCustomer())
	actions := &fakeActions{}
	svc, db := newTestService(store, actions)

	updated, err := svc.Update(context.Background(), 1, 9, &customer.UpdateCustomerRequest{
		Status: strPtr(customer.StatusInterested),
	})
	require.NoError(t, err)
	assert.Equal(t, customer.StatusInterested, updated.Status)
	assert.True(t, db.tx.committed)

	require.Len(t, actions.inserted, 1)
	action := actions.inserted[0]
	assert.Equal(t, customer.ActionStatusChange, action.ActionType)
	assert.Equal(t, customer.StatusPending, action.OldValue.String)
	assert.Equal(t, customer.StatusInterested, action.NewValue.String)
	assert.Equal(t, int64(9), action.UserID.Int64)
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), &fakeActions{})

	_, err := svc.Update(context.Background(), 42, 1, &customer.UpdateCustomerRequest{
		Status: strPtr(customer.StatusInterested),
	})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestUpdateStaleTimestampConflicts(t *testing.T) {
	c := existingCustomer()
	store := newFakeStore(c)
	svc, db := newTestService(store, &fakeActions{})

	stale := c.UpdatedAt.Add(-time.Minute)
	_, err := svc.Update(context.Background(), 1, 1, &customer.UpdateCustomerRequest{
		Status:    strPtr(customer.StatusInterested),
		UpdatedAt: timePtr(stale),
	})
	assert.ErrorIs(t, err, xerrors.ErrConflict)
	assert.True(t, db.tx.rolledBack)
	assert.Nil(t, store.updated)
}

func TestUpdateMatchingTimestampSucceeds(t *testing.T) {
	c := existingCustomer()
	store := newFakeStore(c)
	svc, _ := newTestService(store, &fakeActions{})

	_, err := svc.Update(context.Background(), 1, 1, &customer.UpdateCustomerRequest{
		Status:    strPtr(customer.StatusInterested),
		UpdatedAt: timePtr(c.UpdatedAt),
	})
	assert.NoError(t, err)
}

func TestUpdateArchiveClearsAssignment(t *testing.T) {
	store := newFakeStore(existingCustomer())
	actions := &fakeActions{}
	svc, _ := newTestService(store, actions)

	updated, err := svc.Update(context.Background(), 1, 9, &customer.UpdateCustomerRequest{
		Archived: boolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, updated.Archived)
	assert.False(t, updated.AssignedTo.Valid)

	require.Len(t, actions.inserted, 1)
	assert.Equal(t, customer.ActionArchive, actions.inserted[0].ActionType)
}

func TestUpdateAssignmentChangeRecordsAction(t *testing.T) {
	store := newFakeStore(existingCustomer())
	actions := &fakeActions{}
	svc, _ := newTestService(store, actions)

	newAssignee := int64(8)
	_, err := svc.Update(context.Background(), 1, 9, &customer.UpdateCustomerRequest{
		AssignedTo: &newAssignee,
	})
	require.NoError(t, err)

	require.Len(t, actions.inserted, 1)
	action := actions.inserted[0]
	assert.Equal(t, customer.ActionAssignment, action.ActionType)
	assert.Equal(t, "5", action.OldValue.String)
	assert.Equal(t, "8", action.NewValue.String)
}

func TestUpdateNoChangesStagesNothing(t *testing.T) {
	store := newFakeStore(existingCustomer())
	actions := &fakeActions{}
	svc, _ := newTestService(store, actions)

	_, err := svc.Update(context.Background(), 1, 9, &customer.UpdateCustomerRequest{
		Status: strPtr(customer.StatusPending),
	})
	require.NoError(t, err)
	assert.Empty(t, actions.inserted)
}

func TestUpdateAuditFailureIsSwallowed(t *testing.T) {
	store := newFakeStore(existingCustomer())
	actions := &fakeActions{insertErr: errors.New("relation customer_actions does not exist")}
	svc, db := newTestService(store, actions)

	updated, err := svc.Update(context.Background(), 1, 9, &customer.UpdateCustomerRequest{
		Status: strPtr(customer.StatusInterested),
	})
	require.NoError(t, err)
	assert.Equal(t, customer.StatusInterested, updated.Status)
	// The customer update still commits; only the savepoint rolls back.
	assert.True(t, db.tx.committed)
	require.Len(t, db.tx.savepoints, 1)
	assert.True(t, db.tx.savepoints[0].rolledBack)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(newFakeStore(existingCustomer()), &fakeActions{})

	_, err := svc.Update(context.Background(), 1, 1, &customer.UpdateCustomerRequest{
		Status: strPtr("on_fire"),
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestCreateComposesAndSplitsName(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), &fakeActions{})

	c, err := svc.Create(context.Background(), &customer.CreateCustomerRequest{
		FirstName: "Jane", LastName: "Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, customer.StatusPending, c.Status)

	c, err = svc.Create(context.Background(), &customer.CreateCustomerRequest{
		Name: "Ana Maria Silva",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.FirstName.String)
	assert.Equal(t, "Maria Silva", c.LastName.String)
}

func TestCreateBlankNameFallsBackToUnknown(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), &fakeActions{})

	c, err := svc.Create(context.Background(), &customer.CreateCustomerRequest{
		Email: "jane@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Unknown", c.Name)
}

func TestCreateRejectsEmptyRequest(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), &fakeActions{})

	_, err := svc.Create(context.Background(), &customer.CreateCustomerRequest{})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestExportCSV(t *testing.T) {
	store := newFakeStore(existingCustomer())
	svc, _ := newTestService(store, &fakeActions{})

	data, err := svc.ExportCSV(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), "id,name,first_name")
	assert.Contains(t, string(data), "Jane Doe")
}
