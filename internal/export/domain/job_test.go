package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat(FormatCSV))
	assert.True(t, ValidFormat(FormatExcel))
	assert.True(t, ValidFormat(FormatPDF))
	assert.False(t, ValidFormat("parquet"))
	assert.False(t, ValidFormat(""))
	assert.False(t, ValidFormat("CSV"))
}

func TestFilters_Columns(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{
			name:    "no columns key",
			filters: Filters{"city": "Springfield"},
			want:    nil,
		},
		{
			name:    "string slice",
			filters: Filters{"columns": []string{"full_name", "city"}},
			want:    []string{"full_name", "city"},
		},
		{
			name:    "interface slice from json decoding",
			filters: Filters{"columns": []interface{}{"full_name", "city"}},
			want:    []string{"full_name", "city"},
		},
		{
			name:    "non-string entries are skipped",
			filters: Filters{"columns": []interface{}{"full_name", 42, "city"}},
			want:    []string{"full_name", "city"},
		},
		{
			name:    "wrong type",
			filters: Filters{"columns": "full_name"},
			want:    nil,
		},
		{
			name:    "nil filters",
			filters: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filters.Columns())
		})
	}
}

func TestFilters_ValueScan(t *testing.T) {
	original := Filters{
		"city":    "Springfield",
		"columns": []interface{}{"full_name"},
	}

	value, err := original.Value()
	require.NoError(t, err)

	var restored Filters
	require.NoError(t, restored.Scan(value))
	assert.Equal(t, "Springfield", restored["city"])
	assert.Equal(t, []string{"full_name"}, restored.Columns())
}

func TestFilters_ValueNil(t *testing.T) {
	var f Filters
	value, err := f.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), value)
}

func TestFilters_ScanNil(t *testing.T) {
	var f Filters
	require.NoError(t, f.Scan(nil))
	assert.NotNil(t, f)
	assert.Empty(t, f)
}

func TestFilters_ScanUnsupportedType(t *testing.T) {
	var f Filters
	err := f.Scan(42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported filters column type")
}
