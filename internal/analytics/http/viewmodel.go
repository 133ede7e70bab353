package analytichttp

import (
	"fmt"

	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/format"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/svg"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/ui"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

const donutSize = 180

func (h *Handler) buildViewModel(filters ui.DashboardFilters, snap *dataset.Snapshot, merchant string, p *dataset.Payload) (ui.DashboardViewModel, error) {
	if h.line == nil || h.bar == nil || h.donut == nil {
		return ui.DashboardViewModel{}, fmt.Errorf("svg renderer missing")
	}
	filters.Merchant = merchant

	vm := ui.DashboardViewModel{
		Merchant:        merchant,
		Merchants:       snap.Document.Merchants,
		Cards:           ui.BuildKPICards(p.KPIs),
		Approval:        analytics.EvaluateApproval(p.KPIs),
		Categories:      analytics.CategorySplits(p.KPIs),
		Period:          analytics.DrillDown(p, filters.Period),
		Heatmap:         analytics.BuildHeatmap(p.HeatmapData, p.HeatmapColumns),
		Errors:          analytics.TopErrors(p.ErrorData, filters.ShowAllErrors),
		ErrorCategories: p.ErrorCategories,
		CardTypes:       p.CardTypeData,
		Transactions:    analytics.PageTransactions(p.Transactions, filters.Page),
		Actions:         analytics.BuildActionPlan(p),
		Fingerprint:     snap.Fingerprint,
		LoadedAt:        snap.LoadedAt,
	}
	// Links must reflect what is actually shown.
	filters.Period = vm.Period.Selected
	filters.Page = vm.Transactions.Pagination.Page
	vm.Filters = filters

	vm.ErrorRows = make([]ui.ErrorRow, 0, len(vm.Errors.Entries))
	for _, e := range vm.Errors.Entries {
		vm.ErrorRows = append(vm.ErrorRows, ui.ErrorRow{Entry: e, Remediation: analytics.LookupRemediation(e.Code)})
	}
	vm.Brands = make([]ui.BrandRow, 0, len(p.BrandData))
	for _, b := range p.BrandData {
		vm.Brands = append(vm.Brands, ui.BrandRow{Stat: b, Healthy: analytics.BrandHealthy(b.ApprovalRate)})
	}

	if err := h.renderCharts(&vm, p.KPIs); err != nil {
		return ui.DashboardViewModel{}, err
	}
	return vm, nil
}

func (h *Handler) renderCharts(vm *ui.DashboardViewModel, k dataset.KPIs) error {
	points := vm.Period.Points
	if len(points) > 0 {
		stack := make([]svg.StackPoint, 0, len(points))
		labels := make([]string, 0, len(points))
		for _, pt := range points {
			sp := svg.StackPoint{Label: pt.Label, Success: float64(pt.Success), Failed: float64(pt.Failed)}
			if pt.Drillable {
				sp.Href = vm.Filters.PeriodURL(pt.Key)
			}
			stack = append(stack, sp)
			labels = append(labels, pt.Label)
		}
		title := "Volume diário"
		if vm.Period.Hourly {
			title = "Volume por hora"
		}
		volume, err := h.bar.StackedBars(svg.DefaultWidth, svg.DefaultHeight, stack, svg.BarOpts{
			Title:       title,
			Description: "Transações aprovadas e recusadas",
		})
		if err != nil {
			return err
		}
		vm.Charts.Volume = volume

		if len(points) > 1 {
			approval, err := h.line.Line(svg.DefaultWidth, svg.DefaultHeight, analytics.ApprovalSeries(points), labels, svg.LineOpts{
				Title:       "Taxa de aprovação",
				Description: "Aprovação por período com a meta de referência",
				Target:      analytics.ApprovalTarget,
				Ceiling:     100,
				Unit:        "%",
				ShowDots:    true,
			})
			if err != nil {
				return err
			}
			vm.Charts.Approval = approval
		}
	}

	if k.SuccessCount+k.FailedCount > 0 {
		donut, err := h.donut.Donut(donutSize, []svg.Slice{
			{Label: "Aprovadas", Value: float64(k.SuccessCount), Color: svg.ColorSuccess},
			{Label: "Recusadas", Value: float64(k.FailedCount), Color: svg.ColorFailed},
		}, svg.DonutOpts{
			Title:       "Aprovação",
			Description: "Participação de aprovadas e recusadas",
			CenterLabel: format.Rate(vm.Approval.Rate),
			CenterSub:   "aprovação",
		})
		if err != nil {
			return err
		}
		vm.Charts.Donut = donut
	}
	return nil
}
