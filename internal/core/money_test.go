package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"1,234.56", "1234.56", true},
		{"1,5", "1.5", true},
		{"1,234", "1234", true},
		{"12,500", "12500", true},
		{"1,234,567", "1234567", true},
		{"1,00,000", "100000", true},
		{"12,34,567.89", "1234567.89", true},
		{"1,00,000.50", "100000.5", true},
		{"1,2345", "", false},
		{"12,34.56", "", false},
		{"1,,234", "", false},
		{",500", "", false},
		{"1234,567,89", "", false},
		{"0.01", "0.01", true},
		{".5", "0.5", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatRupees(t *testing.T) {
	if got := FormatRupees(decimal.RequireFromString("1234.5")); got != "₹1234.50" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatRupees(decimal.RequireFromString("-3")); got != "-₹3.00" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestPercent(t *testing.T) {
	got := Percent(decimal.NewFromInt(1500), decimal.NewFromInt(10000))
	if !got.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected 15, got %s", got)
	}
}
