// internal/service/importer/batch.go
package importer

import (
	"context"
	"database/sql"
	"fmt"

	"crm-service/internal/domain/customer"

	"go.uber.org/zap"
)

const (
	DefaultBatchSize = 2000
	// 11 bind parameters per row; the cap keeps a batch well under the
	// 65535 statement parameter limit.
	MaxBatchSize = 5000

	maxReportedErrors = 10
)

// BatchInserter persists one batch atomically. Implemented by the customers
// repository; a batch failure must leave no rows from that batch behind.
type BatchInserter interface {
	InsertBatch(ctx context.Context, batch []customer.Customer) (int64, error)
}

// Summary is the user-facing result of a bulk import.
type Summary struct {
	TotalRecords  int      `json:"totalRecords"`
	ImportedCount int      `json:"importedCount"`
	ErrorCount    int      `json:"errorCount"`
	Errors        []string `json:"errors"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// toCustomer converts a normalized record into a row ready for insertion.
// The blank-name fallback to "Unknown" happens here, at write time.
func toCustomer(rec customer.ImportRecord) customer.Customer {
	name := rec.Name
	if name == "" {
		name = "Unknown"
	}
	c := customer.Customer{
		Name:      name,
		FirstName: nullString(rec.FirstName),
		LastName:  nullString(rec.LastName),
		Email:     nullString(rec.Email),
		Phone:     nullString(rec.Phone),
		Address:   nullString(rec.Address),
		Status:    customer.StatusPending,
		Notes:     nullString(rec.Notes),
		Archived:  false,
	}
	if rec.AssignedTo != nil {
		c.AssignedTo = sql.NullInt64{Int64: *rec.AssignedTo, Valid: true}
	}
	return c
}

// WriteBatches inserts the records in batches of batchSize, each batch in
// its own transaction. A failed batch counts all of its rows as errors and
// the loop continues; batches already committed stay committed.
func WriteBatches(ctx context.Context, inserter BatchInserter, records []customer.ImportRecord, batchSize int, logger *zap.Logger) Summary {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}

	summary := Summary{
		TotalRecords: len(records),
		Errors:       []string{},
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		batch := make([]customer.Customer, 0, end-start)
		for _, rec := range records[start:end] {
			batch = append(batch, toCustomer(rec))
		}

		inserted, err := inserter.InsertBatch(ctx, batch)
		if err != nil {
			summary.ErrorCount += len(batch)
			if len(summary.Errors) < maxReportedErrors {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("batch starting at record %d failed: %v", start+1, err))
			}
			logger.Warn("import batch failed",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			continue
		}
		summary.ImportedCount += int(inserted)
	}

	return summary
}
