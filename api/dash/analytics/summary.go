package analytics

// Summary is the basic range rollup.
type Summary struct {
	Lines  int     `json:"line_count"`
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
}

func Summarize(lines []Line) Summary {
	var s Summary
	for _, l := range lines {
		s.Lines++
		s.Sales += sanitize(l.GrandTotal)
		s.Profit += sanitize(l.Profit)
	}
	return s
}

// FinanceSummary counts financed lines and sums the finance fields. A line
// is financed when it carries a finance amount or an open balance.
type FinanceSummary struct {
	Lines          int     `json:"line_count"`
	FinancedLines  int     `json:"financed_line_count"`
	FinanceAmount  float64 `json:"finance_amount"`
	FinanceFee     float64 `json:"finance_fee"`
	FinanceBalance float64 `json:"finance_balance"`
}

func SummarizeFinance(lines []Line) FinanceSummary {
	var s FinanceSummary
	for _, l := range lines {
		s.Lines++
		amt := sanitize(l.FinanceAmount)
		bal := sanitize(l.FinanceBalance)
		if amt > 0 || bal > 0 {
			s.FinancedLines++
		}
		s.FinanceAmount += amt
		s.FinanceFee += sanitize(l.FinanceFee)
		s.FinanceBalance += bal
	}
	return s
}
