package analytics

import (
	"sort"
	"strings"
)

// LeaderboardEntry is one salesperson's summed split credit.
type LeaderboardEntry struct {
	Salesperson string  `json:"salesperson"`
	Sales       float64 `json:"sales"`
	Profit      float64 `json:"profit"`
	Lines       int     `json:"line_count"`
}

// Leaderboard groups the split view by salesperson, excluding the house
// placeholder and empty names, sums sales/profit/lines and returns the top
// limit entries by summed sales.
func Leaderboard(lines []Line, limit int) []LeaderboardEntry {
	byName := map[string]*LeaderboardEntry{}
	for _, l := range SplitAll(lines) {
		name := strings.TrimSpace(l.Salesperson)
		if name == "" || strings.EqualFold(name, HouseSalesperson) {
			continue
		}
		e, ok := byName[name]
		if !ok {
			e = &LeaderboardEntry{Salesperson: name}
			byName[name] = e
		}
		e.Sales += sanitize(l.GrandTotal)
		e.Profit += sanitize(l.Profit)
		e.Lines++
	}

	out := make([]LeaderboardEntry, 0, len(byName))
	for _, e := range byName {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sales != out[j].Sales {
			return out[i].Sales > out[j].Sales
		}
		return out[i].Salesperson < out[j].Salesperson
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
