package analytics

import (
	"sort"
	"time"
)

// TrendPoint is one bucket of a grouped rollup: a location, a day or a week.
type TrendPoint struct {
	Key    string  `json:"key"`
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
	Lines  int     `json:"line_count"`
}

func rollup(lines []Line, keyFn func(Line) string) map[string]*TrendPoint {
	buckets := map[string]*TrendPoint{}
	for _, l := range lines {
		k := keyFn(l)
		p, ok := buckets[k]
		if !ok {
			p = &TrendPoint{Key: k}
			buckets[k] = p
		}
		p.Sales += sanitize(l.GrandTotal)
		p.Profit += sanitize(l.Profit)
		p.Lines++
	}
	return buckets
}

// SalesByLocation groups by store, sorted descending by summed sales.
func SalesByLocation(lines []Line) []TrendPoint {
	buckets := rollup(lines, func(l Line) string { return l.StoreName })
	out := flatten(buckets)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sales != out[j].Sales {
			return out[i].Sales > out[j].Sales
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// DailyTrend groups by calendar day, sorted ascending by date.
func DailyTrend(lines []Line) []TrendPoint {
	buckets := rollup(lines, func(l Line) string {
		return l.SaleDate.Format("2006-01-02")
	})
	out := flatten(buckets)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// WeeklyTrend groups by ISO week start (Monday), sorted ascending.
func WeeklyTrend(lines []Line) []TrendPoint {
	buckets := rollup(lines, func(l Line) string {
		return weekStart(l.SaleDate).Format("2006-01-02")
	})
	out := flatten(buckets)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func weekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7 // Sunday belongs to the week that started the previous Monday
	}
	return day.AddDate(0, 0, 1-wd)
}

func flatten(buckets map[string]*TrendPoint) []TrendPoint {
	out := make([]TrendPoint, 0, len(buckets))
	for _, p := range buckets {
		out = append(out, *p)
	}
	return out
}
