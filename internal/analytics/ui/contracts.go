package ui

import (
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/format"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/svg"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// Trend directions understood by the KPI card template.
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// Value tones.
const (
	TonePositive = "positive"
	ToneNegative = "negative"
)

// DashboardFilters represents sanitized query filters used by the dashboard.
type DashboardFilters struct {
	Merchant      string
	Page          int
	ShowAllErrors bool
	Period        string
}

// Query encodes the filters, omitting defaults.
func (f DashboardFilters) Query() url.Values {
	q := url.Values{}
	if f.Merchant != "" {
		q.Set("merchant", f.Merchant)
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.ShowAllErrors {
		q.Set("errors", "all")
	}
	if f.Period != "" {
		q.Set("period", f.Period)
	}
	return q
}

// URL returns the dashboard link for f anchored at section.
func (f DashboardFilters) URL(section string) string {
	out := "/"
	if q := f.Query().Encode(); q != "" {
		out += "?" + q
	}
	if section != "" {
		out += "#" + section
	}
	return out
}

// PageURL links to page n of the transaction table.
func (f DashboardFilters) PageURL(n int) string {
	f.Page = n
	return f.URL("transactions")
}

// ToggleErrorsURL flips the error list between top five and all entries.
func (f DashboardFilters) ToggleErrorsURL() string {
	f.ShowAllErrors = !f.ShowAllErrors
	return f.URL("errors")
}

// PeriodURL selects a drill-down period; an empty key returns to the daily view.
func (f DashboardFilters) PeriodURL(key string) string {
	f.Period = key
	return f.URL("overview")
}

// KPICard is one labelled metric of the KPI row.
type KPICard struct {
	Title      string
	Value      string
	Subtext    string
	Trend      string
	TrendLabel string
	Tone       string
}

// NewKPICard builds a card without trend information.
func NewKPICard(title, value, subtext string) KPICard {
	return KPICard{Title: title, Value: value, Subtext: subtext}
}

// HasTrend reports whether the template should draw a trend badge.
func (c KPICard) HasTrend() bool {
	return c.Trend != "" && c.TrendLabel != ""
}

// ApprovalCard applies the approval thresholds to the headline card.
func ApprovalCard(a analytics.Approval, subtext string) KPICard {
	card := KPICard{
		Title:      "Taxa de aprovação",
		Value:      format.Rate(a.Rate),
		Subtext:    subtext,
		Trend:      TrendUp,
		TrendLabel: "Dentro da meta",
	}
	if a.TrendDown {
		card.Trend = TrendDown
	}
	if a.BelowTarget {
		card.TrendLabel = "Abaixo da meta (" + format.Rate(analytics.ApprovalTarget) + ")"
	}
	if a.Critical {
		card.Tone = ToneNegative
	}
	return card
}

// BuildKPICards composes the KPI row from headline counters.
func BuildKPICards(k dataset.KPIs) []KPICard {
	approval := analytics.EvaluateApproval(k)
	lost := NewKPICard("Valor perdido", format.CurrencyDecimal(k.TotalLost), format.Number(k.FailedCount)+" recusadas")
	if k.TotalLost.IsPositive() {
		lost.Tone = ToneNegative
	}
	approved := NewKPICard("Valor aprovado", format.CurrencyDecimal(k.TotalApproved), "de "+format.CurrencyDecimal(k.TotalAttempted)+" tentados")
	approved.Tone = TonePositive
	return []KPICard{
		NewKPICard("Total de transações", format.Number(k.TotalTransactions), periodSubtext(k)),
		ApprovalCard(approval, format.Number(k.SuccessCount)+" aprovadas"),
		approved,
		lost,
	}
}

func periodSubtext(k dataset.KPIs) string {
	switch {
	case k.PeriodStart != "" && k.PeriodEnd != "":
		return format.Date(k.PeriodStart) + " a " + format.Date(k.PeriodEnd)
	case k.PeriodStart != "":
		return "desde " + format.Date(k.PeriodStart)
	default:
		return ""
	}
}

// ErrorRow pairs a decline entry with its remediation.
type ErrorRow struct {
	Entry       dataset.ErrorEntry
	Remediation analytics.Remediation
}

// BrandRow is a brand line with its health flag.
type BrandRow struct {
	Stat    dataset.BrandStat
	Healthy bool
}

// Charts holds the inline SVG fragments.
type Charts struct {
	Volume   template.HTML
	Approval template.HTML
	Donut    template.HTML
}

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	Merchant        string
	Merchants       []string
	Filters         DashboardFilters
	Cards           []KPICard
	Approval        analytics.Approval
	Categories      []analytics.CategorySplit
	Period          analytics.PeriodView
	Heatmap         analytics.Heatmap
	Errors          analytics.ErrorList
	ErrorRows       []ErrorRow
	ErrorCategories []dataset.ErrorCategory
	Brands          []BrandRow
	CardTypes       []dataset.CardTypeStat
	Transactions    analytics.TransactionPage
	Actions         analytics.ActionPlan
	Charts          Charts
	Fingerprint     string
	LoadedAt        time.Time
}

// HasMerchantSwitcher reports whether more than one merchant is available.
func (vm DashboardViewModel) HasMerchantSwitcher() bool {
	return len(vm.Merchants) > 1
}

// LineRenderer abstracts SVG line chart rendering for the dashboard.
type LineRenderer interface {
	Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG stacked bar rendering for the dashboard.
type BarRenderer interface {
	StackedBars(width, height int, points []svg.StackPoint, opts svg.BarOpts) (template.HTML, error)
}

// DonutRenderer abstracts SVG donut rendering for the dashboard.
type DonutRenderer interface {
	Donut(size int, slices []svg.Slice, opts svg.DonutOpts) (template.HTML, error)
}
