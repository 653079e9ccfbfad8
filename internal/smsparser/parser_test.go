package smsparser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

var processingTime = time.Date(2025, 11, 20, 9, 30, 0, 0, time.UTC)

func fixedParser() *Parser {
	return New(func() time.Time { return processingTime })
}

const (
	upiDebitSMS = "INR 150.00 debited\n" +
		"A/c no. XX9900\n" +
		"16-11-25, 17:56:09\n" +
		"UPI/P2M/568615976445/SWIGGY FOOD\n" +
		"Not you? SMS BLOCKUPI Cust ID to 919951860002"

	cardSpendSMS = "Axis Bank Spent INR 500\n" +
		"Axis Bank Card no. XX0358\n" +
		"23-11-25 23:24:40 IST\n" +
		"Amazon Pay\n" +
		"Avl Limit: INR 180740.19\n" +
		"Not you? SMS BLOCK 0358 to 919951860002"

	neftCreditSMS = "INR 5000.00 credited to A/c no. XX9900 on 30-09-25 at 15:34:36 IST. " +
		"Info - NEFT/CHASH00005243419/SALARY CREDIT. Chk Bal https://ccm.axbk.in/AXISBK/ltt3Dvko - Axis Bank"
)

func TestParse_RejectsOTP(t *testing.T) {
	bodies := []string{
		"Your OTP is 482913 for a transaction of INR 500.00 debited at AMAZON",
		"One Time Password 1234 for Rs. 99 paid to merchant",
		"Use verification code 5555. INR 10,000 credited to wallet",
		"otp: 9911 INR 1 spent",
	}
	p := fixedParser()
	for _, body := range bodies {
		_, ok := p.Parse(body)
		assert.False(t, ok, body)
	}
}

func TestParse_UPIAmountAndMerchant(t *testing.T) {
	d, ok := fixedParser().Parse("INR 1,234.56 debited from A/c no. XX4321\nUPI/P2M/123/JOHN DOE")
	require.True(t, ok)
	assert.True(t, d.Amount.Equal(decimal.RequireFromString("1234.56")), d.Amount.String())
	assert.Equal(t, core.Expense, d.Type)
	assert.Equal(t, "JOHN DOE", d.MerchantName)
	assert.Equal(t, "UPI", d.TransactionMethod)
	assert.Equal(t, "4321", d.Last4Digits)
	assert.Equal(t, "UPI - JOHN DOE", d.Description)
}

func TestParse_Templates(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		amount   string
		txType   core.TxType
		last4    string
		date     core.Date
		merchant string
		method   string
	}{
		{
			name:     "upi debit",
			body:     upiDebitSMS,
			amount:   "150",
			txType:   core.Expense,
			last4:    "9900",
			date:     core.NewDate(2025, 11, 16),
			merchant: "SWIGGY FOOD",
			method:   "UPI",
		},
		{
			name:     "card spend skips structural lines",
			body:     cardSpendSMS,
			amount:   "500",
			txType:   core.Expense,
			last4:    "0358",
			date:     core.NewDate(2025, 11, 23),
			merchant: "Amazon Pay",
			method:   "Card",
		},
		{
			name:     "neft credit",
			body:     neftCreditSMS,
			amount:   "5000",
			txType:   core.Income,
			last4:    "9900",
			date:     core.NewDate(2025, 9, 30),
			merchant: "SALARY",
			method:   "NEFT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := fixedParser().Parse(tt.body)
			require.True(t, ok)
			assert.True(t, d.Amount.Equal(decimal.RequireFromString(tt.amount)), d.Amount.String())
			assert.Equal(t, tt.txType, d.Type)
			assert.Equal(t, tt.last4, d.Last4Digits)
			assert.Equal(t, tt.date, d.Date)
			assert.Equal(t, tt.merchant, d.MerchantName)
			assert.Equal(t, tt.method, d.TransactionMethod)
			assert.Equal(t, tt.method+" - "+tt.merchant, d.Description)
		})
	}
}

func TestParse_CreditKeywordMeansIncome(t *testing.T) {
	bodies := []string{
		"Rs.250 credited to your account",
		"INR 99 received from RAHUL",
		"Rs 1,000.50 deposited in A/c no. XX1111",
	}
	for _, body := range bodies {
		d, ok := fixedParser().Parse(body)
		require.True(t, ok, body)
		assert.Equal(t, core.Income, d.Type, body)
	}

	d, ok := fixedParser().Parse("INR 100 received, INR 100 paid back")
	require.True(t, ok)
	assert.Equal(t, core.Income, d.Type, "credit wins when both keywords appear")
}

func TestParse_DateFallsBackToProcessingDay(t *testing.T) {
	d, ok := fixedParser().Parse("INR 20 debited at corner shop")
	require.True(t, ok)
	assert.Equal(t, core.NewDate(2025, 11, 20), d.Date)

	d, ok = fixedParser().Parse("INR 20 debited on 31-02-25 at 10:00:00")
	require.True(t, ok)
	assert.Equal(t, core.NewDate(2025, 11, 20), d.Date, "impossible dates are ignored")
}

func TestParse_Rejections(t *testing.T) {
	bodies := map[string]string{
		"no direction":    "INR 500 is your available balance",
		"no amount":       "Your account was debited today",
		"amount is comma": "INR , debited",
		"empty":           "",
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, ok := fixedParser().Parse(body)
			assert.False(t, ok)
		})
	}
}

func TestParse_FirstAmountWins(t *testing.T) {
	// The limit figure precedes the spend, so the limit is reported.
	d, ok := fixedParser().Parse("Avl Limit: INR 9,000.00\nSpent INR 250 at Cafe")
	require.True(t, ok)
	assert.True(t, d.Amount.Equal(decimal.NewFromInt(9000)))
}

func TestParse_UnknownMerchant(t *testing.T) {
	d, ok := fixedParser().Parse("INR 50 debited from A/c no. XX1234")
	require.True(t, ok)
	assert.Equal(t, "Unknown", d.MerchantName)
	assert.Equal(t, "Transaction - Unknown", d.Description)
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		body string
		want core.Date
		ok   bool
	}{
		{"16-11-25, 17:56:09", core.NewDate(2025, 11, 16), true},
		{"on 30-09-25 at 15:34", core.NewDate(2025, 9, 30), true},
		{"dated 01-02-24", core.NewDate(2024, 2, 1), true},
		{"01-01-75 10:00:00", core.NewDate(2075, 1, 1), true},
		{"10-10-25 and later 11-11-25 12:00:00", core.NewDate(2025, 11, 11), true},
		{"31-02-25 10:00:00 and 15-03-25", core.NewDate(2025, 3, 15), true},
		{"on 30-02-25 at 10:00 then on 02-03-25 at 11:00", core.NewDate(2025, 3, 2), true},
		{"no date here", core.Date{}, false},
	}
	for _, tt := range tests {
		got, ok := ExtractDate(tt.body)
		assert.Equal(t, tt.ok, ok, tt.body)
		assert.Equal(t, tt.want, got, tt.body)
	}
}

func TestExtractMethodPriority(t *testing.T) {
	tests := map[string]string{
		"Card payment via UPI":  "UPI",
		"NEFT and IMPS":         "NEFT",
		"imps transfer by card": "IMPS",
		"card no. XX1234":       "Card",
		"RTGS only":             "RTGS",
		"cash":                  "",
	}
	for body, want := range tests {
		got, _ := ExtractMethod(body)
		assert.Equal(t, want, got, body)
	}
}

func TestMerchantCleanup(t *testing.T) {
	assert.Equal(t, "JOHN DOE", merchantFor("INR 1 debited UPI/P2M/1/JOHN    DOE   ", Debit))

	long := "INR 10 credited. Info - " + "Refund for order number ABCDEFGHIJKLMNOPQRSTUVWXYZ 0123456789 extra text"
	got := merchantFor(long, Credit)
	assert.Equal(t, 50, len([]rune(got)))
	assert.Equal(t, "Refund for order number ABCDEFGHIJKLMNOPQRSTUVWXYZ", got)
}

func TestCleanMerchantCollapsesUnicodeSpaces(t *testing.T) {
	assert.Equal(t, "Café Mocha", CleanMerchant("\u00a0Café\u00a0\u00a0Mocha \u2009"))
	assert.Equal(t, "Blue Tokai", CleanMerchant("Blue \t\u3000 Tokai"))
	assert.Equal(t, unknownMerchant, CleanMerchant("\u00a0\u00a0"))
}

func merchantFor(body string, dir Direction) string {
	return CleanMerchant(ExtractMerchant(body, dir))
}

func TestSenderFilter(t *testing.T) {
	f := NewSenderFilter(nil)
	assert.True(t, f.Allows("VM-AXISBK"))
	assert.True(t, f.Allows("ad-axisbk-s"))
	assert.False(t, f.Allows("HDFCBK"))

	custom := NewSenderFilter([]string{" hdfcbk ", "", "icici"})
	assert.Equal(t, []string{"HDFCBK", "ICICI"}, custom.Tokens())
	assert.True(t, custom.Allows("JD-HDFCBK"))
	assert.False(t, custom.Allows("VM-AXISBK"))
}
