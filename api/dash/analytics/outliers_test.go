package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	// pos = 0.25 * 3 = 0.75 -> between 1 and 2
	assert.InDelta(t, 1.75, Quantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 3.25, Quantile(sorted, 0.75), 1e-9)
	assert.InDelta(t, 2.5, Quantile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 1.0, Quantile(sorted, 0), 1e-9)
	assert.InDelta(t, 4.0, Quantile(sorted, 1), 1e-9)
}

func TestQuantileSmallInputs(t *testing.T) {
	assert.Equal(t, 0.0, Quantile(nil, 0.5))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.5))
}

func makeLines(totals []float64) []Line {
	lines := make([]Line, len(totals))
	for i, v := range totals {
		lines[i] = Line{SaleID: fmt.Sprintf("s%d", i), GrandTotal: v}
	}
	return lines
}

func TestDetectOutliersMinSample(t *testing.T) {
	// 19 identical lines plus nothing: below the minimum, nil threshold.
	lines := makeLines(make([]float64, 19))
	report := DetectOutliers(lines, 1.5, 50)
	assert.Nil(t, report.Threshold)
	assert.Empty(t, report.Rows)
	assert.Equal(t, 0, report.Total)

	// One more line crosses the boundary and produces a real fence.
	lines = append(lines, Line{SaleID: "s19", GrandTotal: 0})
	report = DetectOutliers(lines, 1.5, 50)
	require.NotNil(t, report.Threshold)
}

func TestDetectOutliersFlagsAboveFence(t *testing.T) {
	totals := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		totals = append(totals, 100) // tight cluster: IQR = 0, fence = 100
	}
	totals = append(totals, 5000)
	report := DetectOutliers(makeLines(totals), 1.5, 50)

	require.NotNil(t, report.Threshold)
	assert.InDelta(t, 100.0, report.Q1, 1e-9)
	assert.InDelta(t, 100.0, report.Q3, 1e-9)
	require.Len(t, report.Rows, 1)
	assert.InDelta(t, 5000.0, report.Rows[0].GrandTotal, 1e-9)
	assert.Equal(t, 1, report.Total)
}

func TestDetectOutliersSortAndCap(t *testing.T) {
	totals := make([]float64, 0, 24)
	for i := 0; i < 20; i++ {
		totals = append(totals, 100)
	}
	totals = append(totals, 900, 700, 800, 600)
	report := DetectOutliers(makeLines(totals), 1.5, 2)

	// Total counts everything flagged, the page carries only the top slice.
	assert.Equal(t, 4, report.Total)
	require.Len(t, report.Rows, 2)
	assert.InDelta(t, 900.0, report.Rows[0].GrandTotal, 1e-9)
	assert.InDelta(t, 800.0, report.Rows[1].GrandTotal, 1e-9)
}

func TestDetectOutliersDefaultMultiplier(t *testing.T) {
	totals := make([]float64, 20)
	for i := range totals {
		totals[i] = 100
	}
	totals[19] = 5000
	withDefault := DetectOutliers(makeLines(totals), 0, 50)
	explicit := DetectOutliers(makeLines(totals), 1.5, 50)
	require.NotNil(t, withDefault.Threshold)
	require.NotNil(t, explicit.Threshold)
	assert.InDelta(t, *explicit.Threshold, *withDefault.Threshold, 1e-9)
}
