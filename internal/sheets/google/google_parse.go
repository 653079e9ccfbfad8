package google

import (
	"fmt"
	"strings"

	ports "fintrack/internal/sheets"
)

type headerStatus int

const (
	headerMissing headerStatus = iota
	headerPresent
	headerForeign
)

// headerState inspects the first row returned for A1:I1.
func headerState(values [][]interface{}) headerStatus {
	if len(values) == 0 {
		return headerMissing
	}
	row := toStrings(values[0])
	empty := true
	for _, v := range row {
		if v != "" {
			empty = false
			break
		}
	}
	if empty {
		return headerMissing
	}
	for i, want := range ports.Header {
		if !strings.EqualFold(safeGet(row, i), want) {
			return headerForeign
		}
	}
	return headerPresent
}

func headerValues() []any {
	out := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		out[i] = h
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
