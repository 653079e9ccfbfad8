package smsparser

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Direction records which direction keywords a body contains.
type Direction uint8

const (
	Unknown Direction = 0
	Debit   Direction = 1
	Credit  Direction = 2
)

// IsDebit reports whether a debit keyword was seen.
func (d Direction) IsDebit() bool { return d&Debit != 0 }

// IsCredit reports whether a credit keyword was seen. Credit decides the
// transaction type when both are present.
func (d Direction) IsCredit() bool { return d&Credit != 0 }

const (
	maxMerchantRunes   = 50
	maxMerchantLineLen = 100
	unknownMerchant    = "Unknown"
)

var (
	otpRe    = regexp.MustCompile(`(?i)OTP|One Time Password|verification code`)
	debitRe  = regexp.MustCompile(`(?i)spent|debited|paid`)
	creditRe = regexp.MustCompile(`(?i)credited|received|deposited`)

	// First match wins. A balance or limit figure printed before the
	// transaction amount is picked up instead; formats are relied upon to
	// put the amount first.
	amountRe = regexp.MustCompile(`(?i)(?:INR|Rs\.?)\s*([\d,]+\.?\d*)`)
	last4Re  = regexp.MustCompile(`(?i)(?:Card no\.|A/c no\.)\s*XX(\d{4})`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{2}-\d{2}-\d{2})[,\s]+\d{2}:\d{2}:\d{2}`),
		regexp.MustCompile(`(?i)on\s+(\d{2}-\d{2}-\d{2})\s+at`),
		regexp.MustCompile(`(\d{2}-\d{2}-\d{2})`),
	}

	methods = []struct {
		name string
		re   *regexp.Regexp
	}{
		{"UPI", regexp.MustCompile(`(?i)UPI`)},
		{"NEFT", regexp.MustCompile(`(?i)NEFT`)},
		{"IMPS", regexp.MustCompile(`(?i)IMPS`)},
		{"Card", regexp.MustCompile(`(?i)Card`)},
		{"RTGS", regexp.MustCompile(`(?i)RTGS`)},
	}

	upiMerchantRe  = regexp.MustCompile(`(?i)UPI/[^/]+/[^/]+/([^\n\r]+)`)
	lineSplitRe    = regexp.MustCompile(`[\n\r]+`)
	structuralRe   = regexp.MustCompile(`(?i)Spent|Debited|INR|Rs\.|Card no|A/c no|Axis Bank|Avl Limit|Not you|SMS BLOCK`)
	bareDateRe     = regexp.MustCompile(`\d{2}-\d{2}-\d{2}`)
	infoRe         = regexp.MustCompile(`(?i)Info\s*-\s*([^\n\r]+)`)
	infoTransferRe = regexp.MustCompile(`(?i)(?:NEFT|IMPS|UPI)/[^/]+/([^\s.]+)`)
	whitespaceRe   = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// IsOTP reports whether body is a one time password message. It runs before
// any other stage so OTPs quoting an amount are never drafted.
func IsOTP(body string) bool {
	return otpRe.MatchString(body)
}

// Classify returns the direction keywords present in body.
func Classify(body string) Direction {
	var d Direction
	if debitRe.MatchString(body) {
		d |= Debit
	}
	if creditRe.MatchString(body) {
		d |= Credit
	}
	return d
}

// ExtractAmount returns the first INR/Rs prefixed number with thousand
// separators removed.
func ExtractAmount(body string) (decimal.Decimal, bool) {
	m := amountRe.FindStringSubmatch(body)
	if m == nil {
		return decimal.Zero, false
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	raw = strings.TrimSuffix(raw, ".")
	if raw == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// ExtractLast4 returns the masked card or account suffix.
func ExtractLast4(body string) (string, bool) {
	m := last4Re.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractDate tries the timestamped, "on .. at" and bare DD-MM-YY forms in
// that order. Two digit years are read as 20YY. A match that is not a real
// calendar date (31-02-25) is skipped in favour of the next one.
func ExtractDate(body string) (core.Date, bool) {
	for _, re := range datePatterns {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			t, err := time.Parse("02-01-06", m[1])
			if err != nil {
				continue
			}
			// Go maps 69-99 to the 1900s; bank dates are always 20YY.
			year := 2000 + t.Year()%100
			return core.NewDate(year, int(t.Month()), t.Day()), true
		}
	}
	return core.Date{}, false
}

// ExtractMethod returns the first of UPI, NEFT, IMPS, Card, RTGS found.
func ExtractMethod(body string) (string, bool) {
	for _, m := range methods {
		if m.re.MatchString(body) {
			return m.name, true
		}
	}
	return "", false
}

// ExtractMerchant picks the counterparty text for the given direction. It
// returns "Unknown" when nothing fits.
func ExtractMerchant(body string, dir Direction) string {
	switch {
	case dir.IsDebit():
		return debitMerchant(body)
	case dir.IsCredit():
		return creditMerchant(body)
	default:
		return unknownMerchant
	}
}

func debitMerchant(body string) string {
	if m := upiMerchantRe.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, line := range lineSplitRe.Split(body, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if structuralRe.MatchString(line) || bareDateRe.MatchString(line) {
			continue
		}
		if utf8.RuneCountInString(line) < maxMerchantLineLen {
			return line
		}
	}
	return unknownMerchant
}

func creditMerchant(body string) string {
	m := infoRe.FindStringSubmatch(body)
	if m == nil {
		return unknownMerchant
	}
	info := strings.TrimSpace(m[1])
	if t := infoTransferRe.FindStringSubmatch(info); t != nil {
		return strings.TrimSpace(t[1])
	}
	return truncate(info, maxMerchantRunes)
}

// CleanMerchant collapses whitespace and caps the name at 50 characters.
func CleanMerchant(name string) string {
	name = whitespaceRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(truncate(name, maxMerchantRunes))
	if name == "" {
		return unknownMerchant
	}
	return name
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
