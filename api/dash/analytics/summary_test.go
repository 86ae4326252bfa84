package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	lines := []Line{
		{GrandTotal: 100, Profit: 30},
		{GrandTotal: 250, Profit: 75},
		{GrandTotal: 50, Profit: -10},
	}
	s := Summarize(lines)
	assert.Equal(t, 3, s.Lines)
	assert.InDelta(t, 400.0, s.Sales, 1e-9)
	assert.InDelta(t, 95.0, s.Profit, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Lines)
	assert.Equal(t, 0.0, s.Sales)
	assert.Equal(t, 0.0, s.Profit)
}

func TestSummarizeSanitizesNaN(t *testing.T) {
	s := Summarize([]Line{
		{GrandTotal: math.NaN(), Profit: math.Inf(-1)},
		{GrandTotal: 100, Profit: 20},
	})
	assert.InDelta(t, 100.0, s.Sales, 1e-9)
	assert.InDelta(t, 20.0, s.Profit, 1e-9)
}

func TestSummarizeFinance(t *testing.T) {
	lines := []Line{
		{FinanceAmount: 500, FinanceFee: 25, FinanceBalance: 100},
		{FinanceAmount: 0, FinanceFee: 0, FinanceBalance: 0},   // cash sale
		{FinanceAmount: 0, FinanceFee: 0, FinanceBalance: 250}, // balance only still counts
	}
	s := SummarizeFinance(lines)
	assert.Equal(t, 3, s.Lines)
	assert.Equal(t, 2, s.FinancedLines)
	assert.InDelta(t, 500.0, s.FinanceAmount, 1e-9)
	assert.InDelta(t, 25.0, s.FinanceFee, 1e-9)
	assert.InDelta(t, 350.0, s.FinanceBalance, 1e-9)
}
