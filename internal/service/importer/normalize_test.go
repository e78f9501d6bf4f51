// internal/service/importer/normalize_test.go
package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRowComposesName(t *testing.T) {
	columns := emptyColumnMap()
	columns[FieldFirstName] = 0
	columns[FieldLastName] = 1
	columns[FieldEmail] = 2

	rec, ok := NormalizeRow([]string{" Jane ", "Doe", "jane@x.com"}, columns, nil)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Equal(t, "Jane", rec.FirstName)
	assert.Equal(t, "Doe", rec.LastName)
	assert.Equal(t, "jane@x.com", rec.Email)
}

func TestNormalizeRowSplitsName(t *testing.T) {
	columns := emptyColumnMap()
	columns[FieldName] = 0

	rec, ok := NormalizeRow([]string{"Ana Maria Silva"}, columns, nil)
	require.True(t, ok)
	assert.Equal(t, "Ana Maria Silva", rec.Name)
	assert.Equal(t, "Ana", rec.FirstName)
	assert.Equal(t, "Maria Silva", rec.LastName)
}

func TestNormalizeRowFirstNameOnly(t *testing.T) {
	columns := emptyColumnMap()
	columns[FieldFirstName] = 0

	rec, ok := NormalizeRow([]string{"Jane"}, columns, nil)
	require.True(t, ok)
	assert.Equal(t, "Jane", rec.Name)
}

func TestNormalizeRowDiscardsBlankRow(t *testing.T) {
	columns := emptyColumnMap()
	columns[FieldName] = 0
	columns[FieldEmail] = 1
	columns[FieldPhone] = 2

	_, ok := NormalizeRow([]string{"", "", ""}, columns, nil)
	assert.False(t, ok)

	_, ok = NormalizeRow([]string{"   ", " ", ""}, columns, nil)
	assert.False(t, ok)
}

func TestNormalizeRowKeepsEmailOnlyRow(t *testing.T) {
	columns := emptyColumnMap()
	columns[FieldName] = 0
	columns[FieldEmail] = 1

	rec, ok := NormalizeRow([]string{"", "jane@x.com"}, columns, nil)
	require.True(t, ok)
	assert.Equal(t, "", rec.Name)
	assert.Equal(t, "jane@x.com", rec.Email)
}

func TestNormalizeRowShortRow(t *testing.T) {
	columns := emptyColumnMap()
	columns[FieldName] = 0
	columns[FieldEmail] = 1
	columns[FieldPhone] = 5

	rec, ok := NormalizeRow([]string{"Jane Doe"}, columns, nil)
	require.True(t, ok)
	assert.Equal(t, "", rec.Email)
	assert.Equal(t, "", rec.Phone)
}

func TestNormalizeRowAssigneeFallback(t *testing.T) {
	columns := emptyColumnMap()
	columns[FieldName] = 0
	columns[FieldAssignedTo] = 1

	def := int64(9)

	rec, _ := NormalizeRow([]string{"Jane Doe", "4"}, columns, &def)
	require.NotNil(t, rec.AssignedTo)
	assert.Equal(t, int64(4), *rec.AssignedTo)

	rec, _ = NormalizeRow([]string{"Jane Doe", ""}, columns, &def)
	require.NotNil(t, rec.AssignedTo)
	assert.Equal(t, int64(9), *rec.AssignedTo)

	rec, _ = NormalizeRow([]string{"Jane Doe", "not-a-number"}, columns, &def)
	require.NotNil(t, rec.AssignedTo)
	assert.Equal(t, int64(9), *rec.AssignedTo)
}

func TestNormalizeRowsSkipsHeader(t *testing.T) {
	rows := [][]string{
		{"Name", "Email", "Phone"},
		{"Jane Doe", "jane@x.com", "555-1111"},
		{"", "", ""},
		{"Bob K", "bob@x.com", "555-2222"},
	}

	info := ResolveHeader(rows)
	records := NormalizeRows(rows, info, nil)

	require.Len(t, records, 2)
	assert.Equal(t, "Jane Doe", records[0].Name)
	assert.Equal(t, "Bob K", records[1].Name)
}

func TestNormalizeRowsHeaderless(t *testing.T) {
	rows := [][]string{
		{"Jane Doe", "jane@x.com", "555-1111", "12 Main St"},
		{"Bob Kim", "bob@x.com", "555-2222", ""},
	}

	info := ResolveHeader(rows)
	require.Equal(t, -1, info.HeaderRow)
	records := NormalizeRows(rows, info, nil)

	require.Len(t, records, 2)
	assert.Equal(t, "Jane Doe", records[0].Name)
	assert.Equal(t, "jane@x.com", records[0].Email)
	assert.Equal(t, "12 Main St", records[0].Address)
}
