package analytics

import (
	"sort"
	"strings"

	"github.com/apex-analytics/apex-dashboard/internal/analytics/format"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// SeriesPoint is one bar group in the volume chart.
type SeriesPoint struct {
	Key       string
	Label     string
	Success   int64
	Failed    int64
	Drillable bool
}

// Total is success plus failed.
func (p SeriesPoint) Total() int64 { return p.Success + p.Failed }

// PeriodView is the volume chart source, daily or one period's hours.
type PeriodView struct {
	Selected string
	Hourly   bool
	Points   []SeriesPoint
	Periods  []string
}

// DrillDown substitutes the daily series with the hourly breakdown of key
// when period_data has it. An empty or unknown key keeps the daily view.
func DrillDown(p *dataset.Payload, key string) PeriodView {
	view := PeriodView{}
	if p == nil {
		return view
	}
	view.Periods = periodKeys(p.PeriodData)
	key = strings.TrimSpace(key)
	if hours, ok := p.PeriodData[key]; ok && key != "" {
		view.Selected = key
		view.Hourly = true
		view.Points = make([]SeriesPoint, 0, len(hours))
		for _, h := range hours {
			view.Points = append(view.Points, SeriesPoint{
				Key:     h.Hour,
				Label:   hourLabel(h.Hour),
				Success: h.Success,
				Failed:  h.Failed,
			})
		}
		return view
	}
	view.Points = make([]SeriesPoint, 0, len(p.DailyData))
	for _, d := range p.DailyData {
		_, drillable := p.PeriodData[d.Date]
		view.Points = append(view.Points, SeriesPoint{
			Key:       d.Date,
			Label:     format.ShortDate(d.Date),
			Success:   d.Success,
			Failed:    d.Failed,
			Drillable: drillable,
		})
	}
	return view
}

func periodKeys(m map[string][]dataset.HourlyPoint) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hourLabel(h string) string {
	h = strings.TrimSpace(h)
	if len(h) == 1 {
		h = "0" + h
	}
	if strings.HasSuffix(h, "h") {
		return h
	}
	return h + "h"
}

// ApprovalSeries is the approval percentage of each point, zero for empty points.
func ApprovalSeries(points []SeriesPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = rate(p.Success, p.Total())
	}
	return out
}
