package export

import (
	"strconv"

	"github.com/rollcall-hq/constituent-export/internal/export/domain"
)

// Column keys for the phone attribute. Their presence in the resolved
// selection decides whether row expansion applies.
const (
	ColumnPhoneNumber = "phone_number"
	ColumnPhoneOrder  = "phone_order"
)

// Column is one entry of the export column catalog: a stable key, the header
// label written to the artifact, and a pure accessor over a flat row.
type Column struct {
	Key    string
	Header string
	Value  func(row domain.FlatRow) string
}

// catalog is the fixed, ordered column catalog. Its order is authoritative:
// resolved selections are always re-ordered to match it. Built once, never
// mutated at runtime.
var catalog = []Column{
	{Key: "voter_number", Header: "Voter Number", Value: func(r domain.FlatRow) string { return r.VoterNumber }},
	{Key: "full_name", Header: "Full Name", Value: func(r domain.FlatRow) string { return r.FullName }},
	{Key: "gender", Header: "Gender", Value: func(r domain.FlatRow) string { return r.Gender }},
	{Key: "date_of_birth", Header: "Date of Birth", Value: func(r domain.FlatRow) string {
		if r.DateOfBirth.IsZero() {
			return ""
		}
		return r.DateOfBirth.Format("2006-01-02")
	}},
	{Key: "city", Header: "City", Value: func(r domain.FlatRow) string { return r.City }},
	{Key: "district", Header: "District", Value: func(r domain.FlatRow) string { return r.District }},
	{Key: "address", Header: "Address", Value: func(r domain.FlatRow) string { return r.Address }},
	{Key: ColumnPhoneNumber, Header: "Phone Number", Value: func(r domain.FlatRow) string { return r.PhoneNumber }},
	{Key: ColumnPhoneOrder, Header: "Phone Order", Value: func(r domain.FlatRow) string {
		if r.PhoneOrder == nil {
			return ""
		}
		return strconv.Itoa(*r.PhoneOrder)
	}},
}

// Catalog returns the full column catalog in canonical order.
func Catalog() []Column {
	cols := make([]Column, len(catalog))
	copy(cols, catalog)
	return cols
}

// ResolveColumns filters the requested keys against the catalog, drops
// unknown keys silently, and re-orders the survivors to catalog order. An
// empty or entirely invalid request resolves to the full catalog.
func ResolveColumns(requested []string) []Column {
	if len(requested) == 0 {
		return Catalog()
	}

	wanted := make(map[string]bool, len(requested))
	for _, key := range requested {
		wanted[key] = true
	}

	var cols []Column
	for _, col := range catalog {
		if wanted[col.Key] {
			cols = append(cols, col)
		}
	}

	if len(cols) == 0 {
		return Catalog()
	}
	return cols
}

// includesPhoneColumns reports whether the resolved selection carries either
// of the phone columns.
func includesPhoneColumns(cols []Column) bool {
	for _, col := range cols {
		if col.Key == ColumnPhoneNumber || col.Key == ColumnPhoneOrder {
			return true
		}
	}
	return false
}
