// internal/service/importer/normalize.go
package importer

import (
	"strconv"
	"strings"

	"crm-service/internal/domain/customer"
)

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// NormalizeRow converts one raw row into an ImportRecord using the resolved
// column map. Rows where name, both name parts, email and phone are all
// blank carry nothing worth importing and are dropped (ok = false).
func NormalizeRow(row []string, columns ColumnMap, defaultAssignee *int64) (customer.ImportRecord, bool) {
	rec := customer.ImportRecord{
		Name:      cellAt(row, columns[FieldName]),
		FirstName: cellAt(row, columns[FieldFirstName]),
		LastName:  cellAt(row, columns[FieldLastName]),
		Email:     cellAt(row, columns[FieldEmail]),
		Phone:     cellAt(row, columns[FieldPhone]),
		Address:   cellAt(row, columns[FieldAddress]),
	}

	if rec.Name == "" && rec.FirstName == "" && rec.LastName == "" && rec.Email == "" && rec.Phone == "" {
		return customer.ImportRecord{}, false
	}

	if rec.Name == "" && (rec.FirstName != "" || rec.LastName != "") {
		rec.Name = strings.TrimSpace(rec.FirstName + " " + rec.LastName)
	}
	if rec.Name != "" && rec.FirstName == "" && rec.LastName == "" {
		parts := strings.Fields(rec.Name)
		if len(parts) > 0 {
			rec.FirstName = parts[0]
			rec.LastName = strings.Join(parts[1:], " ")
		}
	}

	if raw := cellAt(row, columns[FieldAssignedTo]); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			rec.AssignedTo = &id
		}
	}
	if rec.AssignedTo == nil {
		rec.AssignedTo = defaultAssignee
	}

	return rec, true
}

// NormalizeRows applies NormalizeRow to every data row, skipping the header
// row when one was detected.
func NormalizeRows(rows [][]string, info HeaderInfo, defaultAssignee *int64) []customer.ImportRecord {
	start := 0
	if info.HeaderRow >= 0 {
		start = info.HeaderRow + 1
	}

	records := make([]customer.ImportRecord, 0, len(rows)-start)
	for _, row := range rows[start:] {
		if rec, ok := NormalizeRow(row, info.Columns, defaultAssignee); ok {
			records = append(records, rec)
		}
	}
	return records
}
