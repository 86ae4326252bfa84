package analytics

import (
	"math"
	"sort"

	"PosDashSaas/internal/config"
)

// OutlierReport carries the flagged page plus the pre-cap total. Threshold
// is nil when the sample was too small to compute a stable fence.
type OutlierReport struct {
	Threshold *float64 `json:"threshold"`
	Q1        float64  `json:"q1"`
	Q3        float64  `json:"q3"`
	IQR       float64  `json:"iqr"`
	Total     int      `json:"total_flagged"`
	Rows      []Line   `json:"rows"`
}

// Quantile computes the q-th quantile of sorted values with continuous
// (linear) interpolation between adjacent order statistics.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// DetectOutliers flags lines whose grand total exceeds Q3 + multiplier*IQR,
// sorted descending by grand total and capped at limit. Quartiles over small
// samples are too unstable to flag anything, so fewer than the configured
// minimum yields an empty report with a nil threshold — a normal answer, not
// an error.
func DetectOutliers(lines []Line, multiplier float64, limit int) OutlierReport {
	if multiplier <= 0 {
		multiplier = config.DefaultOutlierMultiplier
	}
	if len(lines) < config.OutlierMinSample {
		return OutlierReport{}
	}

	values := make([]float64, len(lines))
	for i, l := range lines {
		values[i] = sanitize(l.GrandTotal)
	}
	sort.Float64s(values)

	q1 := Quantile(values, 0.25)
	q3 := Quantile(values, 0.75)
	iqr := q3 - q1
	threshold := q3 + multiplier*iqr

	var flagged []Line
	for _, l := range lines {
		if sanitize(l.GrandTotal) > threshold {
			flagged = append(flagged, l)
		}
	}
	sort.Slice(flagged, func(i, j int) bool {
		return flagged[i].GrandTotal > flagged[j].GrandTotal
	})

	report := OutlierReport{Threshold: &threshold, Q1: q1, Q3: q3, IQR: iqr, Total: len(flagged)}
	if limit > 0 && len(flagged) > limit {
		flagged = flagged[:limit]
	}
	report.Rows = flagged
	return report
}
