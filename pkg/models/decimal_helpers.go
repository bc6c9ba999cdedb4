package models

import "github.com/shopspring/decimal"

// NewDecimal creates a decimal from a float64 value
func NewDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// NewNullDecimal creates a valid nullable decimal from a float64 value
func NewNullDecimal(f float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(f), Valid: true}
}

// NullDecimalFromPtr creates a nullable decimal, treating nil as absent
func NullDecimalFromPtr(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return NewNullDecimal(*f)
}

// ToFloat64 converts a decimal to float64 for engine math
func ToFloat64(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// NullFloat unwraps a nullable decimal into a float64 and presence flag
func NullFloat(nd decimal.NullDecimal) (float64, bool) {
	if !nd.Valid {
		return 0, false
	}
	return nd.Decimal.InexactFloat64(), true
}

// FloatPtr returns a pointer to f, for optional result fields
func FloatPtr(f float64) *float64 {
	return &f
}

// IntPtr returns a pointer to n, for optional result fields
func IntPtr(n int) *int {
	return &n
}
