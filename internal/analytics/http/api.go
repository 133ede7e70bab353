package analytichttp

import (
	"time"

	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/ui"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

type apiCard struct {
	Title      string `json:"title"`
	Value      string `json:"value"`
	Subtext    string `json:"subtext,omitempty"`
	Trend      string `json:"trend,omitempty"`
	TrendLabel string `json:"trend_label,omitempty"`
	Tone       string `json:"tone,omitempty"`
}

type apiApproval struct {
	Rate        float64 `json:"rate"`
	Provided    bool    `json:"provided"`
	BelowTarget bool    `json:"below_target"`
	Critical    bool    `json:"critical"`
	Target      float64 `json:"target"`
}

type apiError struct {
	dataset.ErrorEntry
	Retryable      bool   `json:"retryable"`
	Recommendation string `json:"recommendation"`
}

type apiErrors struct {
	Entries []apiError `json:"entries"`
	Total   int        `json:"total"`
	Hidden  int        `json:"hidden"`
	ShowAll bool       `json:"show_all"`
}

type apiPoint struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Success   int64  `json:"success"`
	Failed    int64  `json:"failed"`
	Drillable bool   `json:"drillable,omitempty"`
}

type apiPeriod struct {
	Selected string     `json:"selected,omitempty"`
	Hourly   bool       `json:"hourly"`
	Points   []apiPoint `json:"points"`
	Periods  []string   `json:"periods"`
}

type apiHeatCell struct {
	Column     string  `json:"column"`
	Value      float64 `json:"value"`
	Level      int     `json:"level"`
	Background string  `json:"background"`
	Text       string  `json:"text"`
}

type apiHeatRow struct {
	Name  string        `json:"name"`
	Cells []apiHeatCell `json:"cells"`
}

type apiAction struct {
	Rank   int    `json:"rank"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type apiPagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

type apiTransactions struct {
	Pagination apiPagination         `json:"pagination"`
	Rows       []dataset.Transaction `json:"rows"`
	Amount     string                `json:"amount"`
	Failed     int                   `json:"failed"`
}

type apiDashboard struct {
	Merchant    string                 `json:"merchant"`
	Merchants   []string               `json:"merchants"`
	Fingerprint string                 `json:"fingerprint"`
	LoadedAt    time.Time              `json:"loaded_at"`
	Cards       []apiCard              `json:"cards"`
	Approval    apiApproval            `json:"approval"`
	Errors      apiErrors              `json:"errors"`
	Period      apiPeriod              `json:"period"`
	Heatmap     []apiHeatRow           `json:"heatmap"`
	Brands      []dataset.BrandStat    `json:"brands"`
	CardTypes   []dataset.CardTypeStat `json:"card_types"`
	Actions     []apiAction            `json:"actions"`
	Recoverable string                 `json:"recoverable"`
}

func toAPIDashboard(vm ui.DashboardViewModel) apiDashboard {
	out := apiDashboard{
		Merchant:    vm.Merchant,
		Merchants:   vm.Merchants,
		Fingerprint: vm.Fingerprint,
		LoadedAt:    vm.LoadedAt,
		Approval: apiApproval{
			Rate:        vm.Approval.Rate,
			Provided:    vm.Approval.Provided,
			BelowTarget: vm.Approval.BelowTarget,
			Critical:    vm.Approval.Critical,
			Target:      analytics.ApprovalTarget,
		},
		Errors: apiErrors{
			Entries: make([]apiError, 0, len(vm.ErrorRows)),
			Total:   vm.Errors.Total,
			Hidden:  vm.Errors.Hidden,
			ShowAll: vm.Errors.ShowAll,
		},
		Period: apiPeriod{
			Selected: vm.Period.Selected,
			Hourly:   vm.Period.Hourly,
			Points:   make([]apiPoint, 0, len(vm.Period.Points)),
			Periods:  vm.Period.Periods,
		},
		Heatmap:     make([]apiHeatRow, 0, len(vm.Heatmap.Rows)),
		Brands:      make([]dataset.BrandStat, 0, len(vm.Brands)),
		CardTypes:   vm.CardTypes,
		Actions:     make([]apiAction, 0, len(vm.Actions.Actions)),
		Recoverable: vm.Actions.Recoverable.StringFixed(2),
	}
	for _, c := range vm.Cards {
		out.Cards = append(out.Cards, apiCard(c))
	}
	for _, row := range vm.ErrorRows {
		out.Errors.Entries = append(out.Errors.Entries, apiError{
			ErrorEntry:     row.Entry,
			Retryable:      row.Remediation.Retryable,
			Recommendation: row.Remediation.Short,
		})
	}
	for _, p := range vm.Period.Points {
		out.Period.Points = append(out.Period.Points, apiPoint{Key: p.Key, Label: p.Label, Success: p.Success, Failed: p.Failed, Drillable: p.Drillable})
	}
	for _, row := range vm.Heatmap.Rows {
		hr := apiHeatRow{Name: row.Name, Cells: make([]apiHeatCell, 0, len(row.Cells))}
		for _, c := range row.Cells {
			hr.Cells = append(hr.Cells, apiHeatCell{Column: c.Column, Value: c.Value, Level: c.Bucket.Level, Background: c.Bucket.Background, Text: c.Bucket.Text})
		}
		out.Heatmap = append(out.Heatmap, hr)
	}
	for _, b := range vm.Brands {
		out.Brands = append(out.Brands, b.Stat)
	}
	for _, a := range vm.Actions.Actions {
		out.Actions = append(out.Actions, apiAction(a))
	}
	return out
}

func toAPITransactions(page analytics.TransactionPage) apiTransactions {
	p := page.Pagination
	return apiTransactions{
		Pagination: apiPagination{
			Page:       p.Page,
			PerPage:    p.PerPage,
			Total:      p.Total,
			TotalPages: p.TotalPages,
			HasPrev:    p.HasPrev(),
			HasNext:    p.HasNext(),
		},
		Rows:   page.Rows,
		Amount: page.Amount.StringFixed(2),
		Failed: page.Failed,
	}
}
