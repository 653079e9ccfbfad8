// Package statement extracts transaction drafts from bank statement text.
//
// The input is plain text already pulled out of a PDF or CSV export, one
// transaction per line. A line counts when it has a date and at least one
// amount with two decimals; everything else (headers, balances carried
// forward without a date) is skipped.
package statement

import (
	"bufio"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Entry is one statement line recognised as a transaction.
type Entry struct {
	Date        core.Date       `json:"date"`
	RawDate     string          `json:"rawDate"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        core.TxType     `json:"type"`
	Line        int             `json:"line"`
}

var (
	dateRe     = regexp.MustCompile(`(\d{2}[/-]\d{2}[/-]\d{4}|\d{2}-[A-Za-z]{3}-\d{4})`)
	amountRe   = regexp.MustCompile(`[\d,]+\.\d{2}`)
	creditRe   = regexp.MustCompile(`(?i)\b(?:Cr|Credit)\b`)
	markerRe   = regexp.MustCompile(`(?i)\b(?:Dr|Cr|Debit|Credit)\b`)
	spacesRe   = regexp.MustCompile(`\s+`)
	dateLayout = []string{"02-01-2006", "02-Jan-2006"}
)

// Parse scans text line by line. The first amount on a line is taken as the
// transaction amount; later ones are usually running balances. Dates that
// do not parse fall back to the processing day.
func Parse(text string, now time.Time) []Entry {
	var out []Entry
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		if e, ok := parseLine(sc.Text(), now); ok {
			e.Line = n
			out = append(out, e)
		}
	}
	return out
}

func parseLine(line string, now time.Time) (Entry, bool) {
	rawDate := dateRe.FindString(line)
	if rawDate == "" {
		return Entry{}, false
	}
	rawAmount := amountRe.FindString(strings.Replace(line, rawDate, "", 1))
	if rawAmount == "" {
		return Entry{}, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(rawAmount, ",", ""))
	if err != nil || !amount.IsPositive() {
		return Entry{}, false
	}

	txType := core.Expense
	if creditRe.MatchString(line) {
		txType = core.Income
	}

	desc := strings.Replace(line, rawDate, "", 1)
	desc = strings.Replace(desc, rawAmount, "", 1)
	desc = markerRe.ReplaceAllString(desc, "")
	desc = strings.TrimSpace(spacesRe.ReplaceAllString(desc, " "))

	date, ok := parseDate(rawDate)
	if !ok {
		date = core.DateOf(now)
	}

	return Entry{
		Date:        date,
		RawDate:     rawDate,
		Description: desc,
		Amount:      amount,
		Type:        txType,
	}, true
}

func parseDate(raw string) (core.Date, bool) {
	s := strings.ReplaceAll(raw, "/", "-")
	if len(s) == 11 {
		// 23-nov-2025 -> 23-Nov-2025
		s = s[:3] + strings.ToUpper(s[3:4]) + strings.ToLower(s[4:6]) + s[6:]
	}
	for _, layout := range dateLayout {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), true
		}
	}
	return core.Date{}, false
}
