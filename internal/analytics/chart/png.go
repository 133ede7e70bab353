// Package chart renders dashboard charts as PNG images for exports and
// embedding outside the browser.
package chart

import (
	"errors"
	"fmt"
	"io"
	"sort"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/format"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// Chart names served under /dashboard/charts/{name}.png.
const (
	Approval = "approval"
	Daily    = "daily"
	Brands   = "brands"
)

var (
	// ErrUnknownChart is returned for names outside Names().
	ErrUnknownChart = errors.New("chart: unknown chart")
	// ErrNoData is returned when the payload has nothing to plot.
	ErrNoData = errors.New("chart: no data")
)

var (
	colorSuccess = drawing.ColorFromHex("16a34a")
	colorFailed  = drawing.ColorFromHex("dc2626")
	colorPrimary = drawing.ColorFromHex("2563eb")
	colorMuted   = drawing.ColorFromHex("94a3b8")
)

const (
	width  = 800
	height = 400
)

// Names lists the renderable charts.
func Names() []string {
	return []string{Approval, Daily, Brands}
}

// Render writes the named chart for p as PNG. period selects the hourly
// breakdown for the daily chart, mirroring the dashboard drill-down.
func Render(w io.Writer, name string, p *dataset.Payload, period string) error {
	if p == nil {
		return ErrNoData
	}
	switch name {
	case Approval:
		return renderApproval(w, p.KPIs)
	case Daily:
		return renderDaily(w, analytics.DrillDown(p, period))
	case Brands:
		return renderBrands(w, p.BrandData)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
}

func renderApproval(w io.Writer, k dataset.KPIs) error {
	if k.SuccessCount+k.FailedCount == 0 {
		return ErrNoData
	}
	pie := gochart.PieChart{
		Title:  "Aprovação " + format.Rate(analytics.ApprovalRate(k)),
		Width:  height,
		Height: height,
		Values: []gochart.Value{
			{Label: "Aprovadas " + format.Number(k.SuccessCount), Value: float64(k.SuccessCount), Style: gochart.Style{FillColor: colorSuccess}},
			{Label: "Recusadas " + format.Number(k.FailedCount), Value: float64(k.FailedCount), Style: gochart.Style{FillColor: colorFailed}},
		},
	}
	return pie.Render(gochart.PNG, w)
}

func renderDaily(w io.Writer, view analytics.PeriodView) error {
	bars := make([]gochart.StackedBar, 0, len(view.Points))
	for _, pt := range view.Points {
		if pt.Total() == 0 {
			continue
		}
		bars = append(bars, gochart.StackedBar{
			Name: pt.Label,
			Values: []gochart.Value{
				{Label: "Aprovadas", Value: float64(pt.Success), Style: gochart.Style{FillColor: colorSuccess, StrokeColor: colorSuccess}},
				{Label: "Recusadas", Value: float64(pt.Failed), Style: gochart.Style{FillColor: colorFailed, StrokeColor: colorFailed}},
			},
		})
	}
	if len(bars) == 0 {
		return ErrNoData
	}
	title := "Volume diário"
	if view.Hourly {
		title = "Volume por hora - " + format.Date(view.Selected)
	}
	sbc := gochart.StackedBarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		Bars:       bars,
	}
	return sbc.Render(gochart.PNG, w)
}

func renderBrands(w io.Writer, brands []dataset.BrandStat) error {
	sorted := make([]dataset.BrandStat, 0, len(brands))
	for _, b := range brands {
		if b.Total > 0 {
			sorted = append(sorted, b)
		}
	}
	if len(sorted) == 0 {
		return ErrNoData
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Total > sorted[j].Total })

	bars := make([]gochart.Value, 0, len(sorted))
	for _, b := range sorted {
		fill := colorPrimary
		if !analytics.BrandHealthy(b.ApprovalRate) {
			fill = colorMuted
		}
		bars = append(bars, gochart.Value{
			Label: b.Brand,
			Value: b.ApprovalRate,
			Style: gochart.Style{FillColor: fill, StrokeColor: fill},
		})
	}
	bc := gochart.BarChart{
		Title:      "Aprovação por bandeira",
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		BarWidth:   40,
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				if vf, ok := v.(float64); ok {
					return format.Rate(vf)
				}
				return ""
			},
		},
		Bars: bars,
	}
	return bc.Render(gochart.PNG, w)
}
