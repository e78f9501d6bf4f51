// internal/service/importer/header.go
package importer

import (
	"regexp"
	"strings"
)

// Logical fields a column can map to.
const (
	FieldFirstName  = "firstName"
	FieldLastName   = "lastName"
	FieldName       = "name"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldAddress    = "address"
	FieldAssignedTo = "assignedTo"
)

// ColumnMap maps each logical field to its column index, -1 when absent.
type ColumnMap map[string]int

// HeaderInfo is the outcome of header detection: the resolved column map
// and the row index of the detected header, -1 when the sheet is headerless.
type HeaderInfo struct {
	Columns   ColumnMap `json:"columns"`
	HeaderRow int       `json:"header_row"`
}

const maxHeaderScanRows = 10

var headerKeywords = []string{"name", "email", "phone", "address", "first", "last", "assigned"}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+()\d][\d\s().\-]{6,}$`)
	// "Jane Doe": two or more capitalized words, the shape of a data cell
	// rather than a column label.
	properNamePattern = regexp.MustCompile(`^[A-Z][a-z]+(?: [A-Z][a-z]*\.?)+$`)

	punctPattern = regexp.MustCompile(`[^a-z0-9]+`)
)

// normalizeHeaderCell lowercases a cell and strips punctuation so spelling
// variants ("First Name", "first_name", "FirstName") compare equal.
func normalizeHeaderCell(cell string) string {
	return punctPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(cell)), "")
}

func containsKeyword(normalized string) bool {
	for _, kw := range headerKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// looksLikeData reports whether a cell has the shape of a data value. Cells
// that carry a header keyword are exempt from the capitalization test so
// labels like "First Name" are not mistaken for a person's name.
func looksLikeData(cell string) bool {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return false
	}
	if emailPattern.MatchString(trimmed) || phonePattern.MatchString(trimmed) {
		return true
	}
	if containsKeyword(normalizeHeaderCell(trimmed)) {
		return false
	}
	return properNamePattern.MatchString(trimmed)
}

func isHeaderCandidate(row []string) bool {
	keywordCells := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		if looksLikeData(cell) {
			return false
		}
		if containsKeyword(normalizeHeaderCell(cell)) {
			keywordCells++
		}
	}
	return keywordCells >= 2
}

// classifyHeaderCell maps one normalized header cell to a logical field,
// or "" when unrecognized. Order matters: "firstname" contains "name", so
// the part-name checks run first.
func classifyHeaderCell(normalized string) string {
	switch {
	case strings.Contains(normalized, "first"):
		return FieldFirstName
	case strings.Contains(normalized, "last") || strings.Contains(normalized, "surname"):
		return FieldLastName
	case strings.Contains(normalized, "email") || strings.Contains(normalized, "mail"):
		return FieldEmail
	case strings.Contains(normalized, "phone") || strings.Contains(normalized, "mobile") || strings.Contains(normalized, "tel"):
		return FieldPhone
	case strings.Contains(normalized, "address"):
		return FieldAddress
	case strings.Contains(normalized, "assigned") || strings.Contains(normalized, "owner"):
		return FieldAssignedTo
	case strings.Contains(normalized, "name"):
		return FieldName
	default:
		return ""
	}
}

func emptyColumnMap() ColumnMap {
	return ColumnMap{
		FieldFirstName:  -1,
		FieldLastName:   -1,
		FieldName:       -1,
		FieldEmail:      -1,
		FieldPhone:      -1,
		FieldAddress:    -1,
		FieldAssignedTo: -1,
	}
}

// ResolveHeader scans the first rows for a header row and builds the
// field-to-index map. With no detectable header the sheet is treated as
// positional: column 0 name, 1 email, 2 phone, 3 address.
func ResolveHeader(rows [][]string) HeaderInfo {
	limit := len(rows)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}

	for i := 0; i < limit; i++ {
		if !isHeaderCandidate(rows[i]) {
			continue
		}
		columns := emptyColumnMap()
		for idx, cell := range rows[i] {
			field := classifyHeaderCell(normalizeHeaderCell(cell))
			if field == "" {
				continue
			}
			// First spelling of a field wins.
			if columns[field] == -1 {
				columns[field] = idx
			}
		}
		return HeaderInfo{Columns: columns, HeaderRow: i}
	}

	columns := emptyColumnMap()
	columns[FieldName] = 0
	columns[FieldEmail] = 1
	columns[FieldPhone] = 2
	columns[FieldAddress] = 3
	return HeaderInfo{Columns: columns, HeaderRow: -1}
}
