// internal/service/importer/batch_test.go
package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"crm-service/internal/domain/customer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeInserter records submitted batches and can fail selected batch
// indices, mimicking a database rejecting a whole multi-row insert.
type fakeInserter struct {
	batches     [][]customer.Customer
	failBatches map[int]bool
	failAll     bool
}

func (f *fakeInserter) InsertBatch(ctx context.Context, batch []customer.Customer) (int64, error) {
	idx := len(f.batches)
	f.batches = append(f.batches, batch)
	if f.failAll || f.failBatches[idx] {
		return 0, errors.New("invalid input syntax for type bigint")
	}
	return int64(len(batch)), nil
}

func makeRecords(n int) []customer.ImportRecord {
	records := make([]customer.ImportRecord, n)
	for i := range records {
		records[i] = customer.ImportRecord{Name: fmt.Sprintf("Customer %d", i+1)}
	}
	return records
}

func TestWriteBatchesAllSucceed(t *testing.T) {
	ins := &fakeInserter{}
	summary := WriteBatches(context.Background(), ins, makeRecords(25), 10, zap.NewNop())

	assert.Equal(t, 25, summary.TotalRecords)
	assert.Equal(t, 25, summary.ImportedCount)
	assert.Equal(t, 0, summary.ErrorCount)
	assert.Empty(t, summary.Errors)
	require.Len(t, ins.batches, 3)
	assert.Len(t, ins.batches[0], 10)
	assert.Len(t, ins.batches[2], 5)
}

func TestWriteBatchesContinuesPastFailure(t *testing.T) {
	ins := &fakeInserter{failBatches: map[int]bool{1: true}}
	summary := WriteBatches(context.Background(), ins, makeRecords(30), 10, zap.NewNop())

	assert.Equal(t, 30, summary.TotalRecords)
	assert.Equal(t, 20, summary.ImportedCount)
	// The failed batch counts every one of its rows as an error.
	assert.Equal(t, 10, summary.ErrorCount)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "record 11")
	// Later batches still ran.
	assert.Len(t, ins.batches, 3)
}

func TestWriteBatchesErrorListCapped(t *testing.T) {
	ins := &fakeInserter{failAll: true}
	summary := WriteBatches(context.Background(), ins, makeRecords(30), 2, zap.NewNop())

	assert.Equal(t, 0, summary.ImportedCount)
	assert.Equal(t, 30, summary.ErrorCount)
	assert.Len(t, summary.Errors, maxReportedErrors)
}

func TestWriteBatchesClampsBatchSize(t *testing.T) {
	ins := &fakeInserter{}
	WriteBatches(context.Background(), ins, makeRecords(3), 0, zap.NewNop())
	require.Len(t, ins.batches, 1)

	ins = &fakeInserter{}
	WriteBatches(context.Background(), ins, makeRecords(MaxBatchSize+1), MaxBatchSize*10, zap.NewNop())
	require.Len(t, ins.batches, 2)
	assert.Len(t, ins.batches[0], MaxBatchSize)
}

func TestToCustomerDefaults(t *testing.T) {
	assignee := int64(7)
	c := toCustomer(customer.ImportRecord{
		Name:       "Jane Doe",
		FirstName:  "Jane",
		Email:      "jane@x.com",
		AssignedTo: &assignee,
	})

	assert.Equal(t, customer.StatusPending, c.Status)
	assert.False(t, c.Archived)
	assert.True(t, c.Email.Valid)
	assert.False(t, c.Phone.Valid)
	require.True(t, c.AssignedTo.Valid)
	assert.Equal(t, int64(7), c.AssignedTo.Int64)
}

func TestToCustomerBlankNameFallsBackToUnknown(t *testing.T) {
	c := toCustomer(customer.ImportRecord{Email: "jane@x.com"})
	assert.Equal(t, "Unknown", c.Name)
}
