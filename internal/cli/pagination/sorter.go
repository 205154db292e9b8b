package pagination

import (
	"cmp"
	"slices"
	"sort"
	"strings"

	"github.com/rshade/needle/internal/engine"
)

// Sort fields accepted by CompanySorter.
const (
	FieldName   = "name"
	FieldTicker = "ticker"
)

// Sorter defines the interface for sorting the company vocabulary.
type Sorter interface {
	// Sort sorts companies by the specified field and order.
	Sort(companies []engine.Company, field, order string) []engine.Company
	// IsValidField checks if the given field name is valid for sorting.
	IsValidField(field string) bool
	// GetValidFields returns a list of valid field names for sorting.
	GetValidFields() []string
}

// CompanySorter implements Sorter for engine.Company.
type CompanySorter struct {
	validFields map[string]bool
}

// NewCompanySorter creates a CompanySorter with the valid sort fields.
func NewCompanySorter() *CompanySorter {
	return &CompanySorter{
		validFields: map[string]bool{
			FieldName:   true,
			FieldTicker: true,
		},
	}
}

// IsValidField checks if the field is valid for sorting.
func (s *CompanySorter) IsValidField(field string) bool {
	return s.validFields[field]
}

// GetValidFields returns all valid sort fields.
func (s *CompanySorter) GetValidFields() []string {
	fields := make([]string, 0, len(s.validFields))
	for field := range s.validFields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Sort returns a sorted copy of companies. An invalid field returns the
// input unchanged. Name ordering is case-insensitive.
func (s *CompanySorter) Sort(companies []engine.Company, field, order string) []engine.Company {
	if !s.IsValidField(field) {
		return companies
	}

	sorted := slices.Clone(companies)
	slices.SortStableFunc(sorted, func(a, b engine.Company) int {
		if order == SortOrderDesc {
			a, b = b, a
		}
		switch field {
		case FieldTicker:
			return cmp.Compare(a.Ticker, b.Ticker)
		default:
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	})
	return sorted
}
