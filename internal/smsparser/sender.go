package smsparser

import "strings"

// DefaultSenders are the bank sender tokens accepted when none are configured.
var DefaultSenders = []string{"AXISBK"}

// SenderFilter accepts senders containing any allow-listed token,
// ignoring case.
type SenderFilter struct {
	tokens []string
}

// NewSenderFilter builds a filter over tokens. Blank tokens are dropped and
// an empty list falls back to DefaultSenders.
func NewSenderFilter(tokens []string) SenderFilter {
	var clean []string
	for _, t := range tokens {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		for _, t := range DefaultSenders {
			clean = append(clean, strings.ToUpper(t))
		}
	}
	return SenderFilter{tokens: clean}
}

// Allows reports whether sender matches the allow-list.
func (f SenderFilter) Allows(sender string) bool {
	upper := strings.ToUpper(sender)
	for _, t := range f.tokens {
		if strings.Contains(upper, t) {
			return true
		}
	}
	return false
}

// Tokens returns the normalised allow-list.
func (f SenderFilter) Tokens() []string {
	return append([]string(nil), f.tokens...)
}
