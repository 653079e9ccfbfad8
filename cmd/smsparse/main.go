// Command smsparse runs the SMS and statement parsers over local text and
// prints the result as JSON. It touches no stored state.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"fintrack/internal/smsparser"
	"fintrack/internal/statement"
)

type smsResult struct {
	Line    int              `json:"line,omitempty"`
	Body    string           `json:"body"`
	Allowed bool             `json:"allowed"`
	Draft   *smsparser.Draft `json:"draft,omitempty"`
}

func main() {
	file := flag.String("file", "", "read input from this file instead of stdin")
	sender := flag.String("sender", "", "check this sender against the allowlist")
	allow := flag.String("allow", os.Getenv("SMS_SENDER_ALLOWLIST"), "comma separated sender allowlist")
	perLine := flag.Bool("lines", false, "treat every non-empty line as a separate message")
	stmt := flag.Bool("statement", false, "parse the input as a pasted bank statement")
	flag.Parse()

	in := io.Reader(os.Stdin)
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatalf("open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(in)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	var out any
	if *stmt {
		out = statement.Parse(string(data), time.Now())
	} else {
		out = parseMessages(string(data), *sender, *allow, *perLine)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}

func parseMessages(text, sender, allow string, perLine bool) []smsResult {
	parser := smsparser.New(time.Now)
	filter := smsparser.NewSenderFilter(strings.Split(allow, ","))
	allowed := sender == "" || filter.Allows(sender)

	var bodies []string
	if perLine {
		sc := bufio.NewScanner(strings.NewReader(text))
		for sc.Scan() {
			bodies = append(bodies, sc.Text())
		}
	} else {
		bodies = []string{text}
	}

	results := make([]smsResult, 0, len(bodies))
	for i, body := range bodies {
		body = strings.TrimSpace(body)
		if body == "" {
			continue
		}
		res := smsResult{Body: body, Allowed: allowed}
		if perLine {
			res.Line = i + 1
		}
		if allowed {
			if d, ok := parser.Parse(body); ok {
				res.Draft = &d
			}
		}
		results = append(results, res)
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "no input")
	}
	return results
}
