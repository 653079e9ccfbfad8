// Package core provides money parsing and handling utilities.
//
// Amounts are carried as decimal.Decimal everywhere; this file holds the
// entry-point parser for user supplied amounts and display formatting.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a user supplied amount to a positive decimal with two
// fractional digits.
//
// Commas that group digits are thousand separators, in either the western
// (12,500) or the Indian (1,00,000) style. Otherwise a single comma followed
// by one or two digits is the decimal separator (12,34). Any other comma use
// is ambiguous and rejected. A third fractional digit is rounded half-up.
// Zero, negative and malformed values return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34, nil
//	ParseAmount("12,34")     -> 12.34, nil
//	ParseAmount("12,500")    -> 12500, nil
//	ParseAmount("1,00,000")  -> 100000, nil
//	ParseAmount("1,234.56")  -> 1234.56, nil
//	ParseAmount("12.345")    -> 12.35, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		whole, frac, hasDot := strings.Cut(s, ".")
		switch {
		case groupedDigits(whole):
			s = strings.ReplaceAll(whole, ",", "")
			if hasDot {
				s += "." + frac
			}
		case !hasDot && strings.Count(s, ",") == 1 && len(s)-strings.Index(s, ",") <= 3:
			s = strings.Replace(s, ",", ".", 1)
		default:
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// groupedDigits reports whether the commas in s sit at thousand boundaries:
// 1,234,567 or 12,34,567.
func groupedDigits(s string) bool {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts[0]) < 1 || len(parts[0]) > 3 {
		return false
	}
	last := parts[len(parts)-1]
	if len(last) != 3 {
		return false
	}
	western, indian := true, len(parts[0]) <= 2
	for _, p := range parts[1 : len(parts)-1] {
		western = western && len(p) == 3
		indian = indian && len(p) == 2
	}
	return western || indian
}

// Percent returns part as a percentage of whole. Whole must be non-zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	return part.Mul(hundred).Div(whole)
}

// FormatRupees renders an amount for notifications and logs.
func FormatRupees(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-₹" + d.Neg().StringFixed(2)
	}
	return "₹" + d.StringFixed(2)
}
