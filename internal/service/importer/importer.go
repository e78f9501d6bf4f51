// internal/service/importer/importer.go
package importer

import (
	"context"
	"strings"

	"crm-service/internal/domain/customer"

	"go.uber.org/zap"
)

// Service runs the full import pipeline: parse, resolve headers, normalize,
// write batches.
type Service struct {
	inserter  BatchInserter
	batchSize int
	logger    *zap.Logger
}

func NewService(inserter BatchInserter, batchSize int, logger *zap.Logger) *Service {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Service{inserter: inserter, batchSize: batchSize, logger: logger}
}

// FileResult pairs the import summary with what the header resolver decided,
// so callers can see which columns were assumed for a headerless file.
type FileResult struct {
	Summary
	Header HeaderInfo `json:"header"`
}

// ImportFile parses an uploaded file and imports its rows. defaultAssignee,
// when set, is applied to rows that carry no explicit assignee column.
func (s *Service) ImportFile(ctx context.Context, data []byte, format Format, defaultAssignee *int64) (*FileResult, error) {
	rows, err := Parse(data, format)
	if err != nil {
		return nil, err
	}

	info := ResolveHeader(rows)
	records := NormalizeRows(rows, info, defaultAssignee)

	s.logger.Info("file import parsed",
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
		zap.Int("header_row", info.HeaderRow),
		zap.Int("records", len(records)))

	summary := WriteBatches(ctx, s.inserter, records, s.batchSize, s.logger)
	return &FileResult{Summary: summary, Header: info}, nil
}

// ImportRecords imports pre-parsed records, as submitted by the JSON bulk
// upload endpoint. A request-supplied batch size overrides the default.
func (s *Service) ImportRecords(ctx context.Context, records []customer.ImportRecord, batchSize int) Summary {
	if batchSize < 1 {
		batchSize = s.batchSize
	}

	kept := make([]customer.ImportRecord, 0, len(records))
	for _, rec := range records {
		if rec.Name == "" && rec.FirstName == "" && rec.LastName == "" && rec.Email == "" && rec.Phone == "" {
			continue
		}
		if rec.Name == "" && (rec.FirstName != "" || rec.LastName != "") {
			rec.Name = strings.TrimSpace(rec.FirstName + " " + rec.LastName)
		}
		kept = append(kept, rec)
	}

	return WriteBatches(ctx, s.inserter, kept, batchSize, s.logger)
}
