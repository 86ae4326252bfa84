package analytics

import (
	"regexp"
	"strings"
)

// HouseSalesperson is the placeholder credited when the store itself, not an
// individual, owns the sale. It never appears in participant-level results.
const HouseSalesperson = "House"

var andSepRe = regexp.MustCompile(`(?i)\bAND\b`)

// Participants tokenizes a raw salesperson string into individual names.
// "A AND B", "A and B" and "A & B" all yield two participants; trailing
// separators and extra whitespace yield none of the empty pieces.
func Participants(raw string) []string {
	s := strings.ReplaceAll(raw, "&", " AND ")
	parts := andSepRe.Split(s, -1)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Split expands one sale line into one fairly-weighted line per participant:
// every financial field divided by the participant count, so the sum across
// the split lines equals the original value. Zero participants means the
// sale contributes nothing to the split view.
func Split(l Line) []Line {
	names := Participants(l.Salesperson)
	n := len(names)
	if n == 0 {
		return nil
	}
	out := make([]Line, 0, n)
	for _, name := range names {
		s := l
		s.Salesperson = name
		s.GrandTotal = l.GrandTotal / float64(n)
		s.Profit = l.Profit / float64(n)
		s.FinanceAmount = l.FinanceAmount / float64(n)
		s.FinanceFee = l.FinanceFee / float64(n)
		s.FinanceBalance = l.FinanceBalance / float64(n)
		out = append(out, s)
	}
	return out
}

// SplitAll recomputes the split view for a set of lines. The view is derived
// per query, never persisted, so it always reflects current sale state.
func SplitAll(lines []Line) []Line {
	var out []Line
	for _, l := range lines {
		out = append(out, Split(l)...)
	}
	return out
}

// linesFor applies the standard view selection: when a salesperson filter is
// present the query runs over the filtered split view, otherwise over whole
// sales.
func linesFor(lines []Line, salesperson string) []Line {
	if strings.TrimSpace(salesperson) == "" {
		return lines
	}
	return FilterBySalesperson(SplitAll(lines), salesperson)
}
