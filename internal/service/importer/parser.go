// internal/service/importer/parser.go
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	xerrors "crm-service/internal/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// Format is the declared source format of an uploaded file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// FormatFromFilename maps a filename extension to a Format.
// Returns ErrUnsupportedFormat for anything else.
func FormatFromFilename(name string) (Format, error) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", xerrors.ErrUnsupportedFormat
	}
	switch strings.ToLower(name[idx+1:]) {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "xls":
		return FormatXLS, nil
	default:
		return "", xerrors.ErrUnsupportedFormat
	}
}

// Parse reads the uploaded bytes into rows of string cells. Only the first
// non-empty sheet of a workbook is read. Files with fewer than 2 rows carry
// no data beyond a putative header and are rejected with ErrEmptyFile.
func Parse(data []byte, format Format) ([][]string, error) {
	var rows [][]string
	var err error

	switch format {
	case FormatCSV:
		rows, err = parseCSV(data)
	case FormatXLSX, FormatXLS:
		rows, err = parseWorkbook(data)
	default:
		return nil, xerrors.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, xerrors.ErrEmptyFile
	}
	return rows, nil
}

func parseCSV(data []byte) ([][]string, error) {
	// Strip a UTF-8 BOM so the first header cell compares cleanly.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows := [][]string{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func parseWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, xerrors.ErrEmptyFile
}
