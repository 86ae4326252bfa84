package analytics

import (
	"math"
	"sort"
	"strings"
)

// MarginLine is a split line with its computed margin percentage.
type MarginLine struct {
	Line
	MarginPct float64 `json:"margin_pct"`
}

// marginPct returns profit/grand_total*100 and whether it is defined. A zero
// grand total or a non-finite result means the margin is undefined and the
// line never enters the ranking — dividing by zero is not an option here.
func marginPct(l Line) (float64, bool) {
	gt := sanitize(l.GrandTotal)
	if gt == 0 {
		return 0, false
	}
	m := sanitize(l.Profit) / gt * 100
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, false
	}
	return m, true
}

// RankLowMargins ranks split lines per salesperson ascending by margin
// (worst first), keeping at most perLimit lines per person, then caps the
// combined result at totalLimit. Margins outside [-100, 100] are discarded:
// corrupt source rows produce ratios no real sale can. The returned total is
// the combined count before the global cap — callers must not infer
// completeness from the page length.
func RankLowMargins(lines []Line, perLimit, totalLimit int) ([]MarginLine, int) {
	byPerson := map[string][]MarginLine{}
	for _, l := range SplitAll(lines) {
		name := strings.TrimSpace(l.Salesperson)
		if name == "" || strings.EqualFold(name, HouseSalesperson) {
			continue
		}
		m, ok := marginPct(l)
		if !ok || m < -100 || m > 100 {
			continue
		}
		byPerson[name] = append(byPerson[name], MarginLine{Line: l, MarginPct: m})
	}

	var combined []MarginLine
	for _, ms := range byPerson {
		sort.Slice(ms, func(i, j int) bool {
			if ms[i].MarginPct != ms[j].MarginPct {
				return ms[i].MarginPct < ms[j].MarginPct
			}
			if ms[i].Profit != ms[j].Profit {
				return ms[i].Profit < ms[j].Profit
			}
			return ms[i].GrandTotal > ms[j].GrandTotal
		})
		if perLimit > 0 && len(ms) > perLimit {
			ms = ms[:perLimit]
		}
		combined = append(combined, ms...)
	}

	sort.Slice(combined, func(i, j int) bool {
		if combined[i].MarginPct != combined[j].MarginPct {
			return combined[i].MarginPct < combined[j].MarginPct
		}
		if combined[i].Profit != combined[j].Profit {
			return combined[i].Profit < combined[j].Profit
		}
		return combined[i].GrandTotal > combined[j].GrandTotal
	})

	total := len(combined)
	if totalLimit > 0 && len(combined) > totalLimit {
		combined = combined[:totalLimit]
	}
	return combined, total
}
