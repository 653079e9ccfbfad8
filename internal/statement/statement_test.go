package statement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

var now = time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	text := "Statement of Account\n" +
		"Date Description Amount Balance\n" +
		"23/11/2025  UPI/123456/Merchant  500.00  12,000.00 CR\n" +
		"24-Nov-2025  NETFLIX  499.00 Dr\n" +
		"25-11-2025 SALARY CREDIT 1,50,000.00\n" +
		"Opening balance 10,000.00\n" +
		"26/11/2025 MICROSOFT STORE 79.00\n"

	got := Parse(text, now)
	require.Len(t, got, 4)

	assert.Equal(t, core.NewDate(2025, 11, 23), got[0].Date)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, core.Income, got[0].Type, "CR marks income")
	assert.Equal(t, "UPI/123456/Merchant 12,000.00", got[0].Description)
	assert.Equal(t, 3, got[0].Line)

	assert.Equal(t, core.NewDate(2025, 11, 24), got[1].Date)
	assert.Equal(t, core.Expense, got[1].Type)
	assert.Equal(t, "NETFLIX", got[1].Description)

	assert.True(t, got[2].Amount.Equal(decimal.NewFromInt(150000)))
	assert.Equal(t, core.Income, got[2].Type)
	assert.Equal(t, "SALARY", got[2].Description)

	assert.Equal(t, core.Expense, got[3].Type, "letters inside a word are not a credit marker")
	assert.Equal(t, "MICROSOFT STORE", got[3].Description)
}

func TestParse_InvalidDateFallsBack(t *testing.T) {
	got := Parse("31/02/2025 Something 10.00", now)
	require.Len(t, got, 1)
	assert.Equal(t, core.NewDate(2025, 12, 1), got[0].Date)
	assert.Equal(t, "31/02/2025", got[0].RawDate)
}

func TestParse_LowercaseMonth(t *testing.T) {
	got := Parse("05-jan-2025 Coffee 120.50", now)
	require.Len(t, got, 1)
	assert.Equal(t, core.NewDate(2025, 1, 5), got[0].Date)
}

func TestParse_SkipsLinesWithoutAmount(t *testing.T) {
	assert.Empty(t, Parse("23/11/2025 note without amount\n\n", now))
}
