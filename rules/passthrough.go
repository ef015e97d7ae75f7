package rules

import (
	"strings"

	"github.com/shopspring/decimal"

	"procurerisk/types"
)

// extraNumber reads a passthrough column as a number. Missing or unparseable
// cells are undisclosed.
func extraNumber(record types.ContractRecord, column string) (decimal.Decimal, bool) {
	v, ok := record.Extra[column]
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(v), ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// extraFlag reports whether a passthrough yes/no column is set.
func extraFlag(record types.ContractRecord, column string) bool {
	switch strings.ToLower(strings.TrimSpace(record.Extra[column])) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

// extraLabel folds a passthrough text column, so "In Progress" and
// "in_progress" both read "in-progress".
func extraLabel(record types.ContractRecord, column string) string {
	parts := strings.FieldsFunc(strings.ToLower(record.Extra[column]), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	})
	return strings.Join(parts, "-")
}

func columnOr(column, def string) string {
	if strings.TrimSpace(column) == "" {
		return def
	}
	return column
}
