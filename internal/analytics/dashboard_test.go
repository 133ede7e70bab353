package analytics

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apex-analytics/apex-dashboard/internal/analytics/format"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

func TestHeatColorBuckets(t *testing.T) {
	cases := []struct {
		value float64
		level int
		text  string
	}{
		{0, 0, TextDark},
		{-5, 0, TextDark},
		{1, 1, TextDark},
		{19.9, 1, TextDark},
		{20, 2, TextDark},
		{79, 3, TextDark},
		{80, 4, TextLight},
		{100, 5, TextLight},
		{5000, 5, TextLight},
	}
	palette := Palette()
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%v", tc.value), func(t *testing.T) {
			b := HeatColor(tc.value)
			assert.Equal(t, tc.level, b.Level)
			assert.Equal(t, palette[tc.level], b.Background)
			assert.Equal(t, tc.text, b.Text)
		})
	}
}

func TestBuildHeatmapDefaultsMissingCells(t *testing.T) {
	p := canonicalPayload(t)
	hm := BuildHeatmap(p.HeatmapData, p.HeatmapColumns)
	require.Len(t, hm.Rows, 2)
	assert.Equal(t, 120.0, hm.Max)

	visa := hm.Rows[0]
	assert.Equal(t, "visa", visa.Name)
	assert.Equal(t, 146.0, visa.Total)
	assert.Equal(t, "#881337", visa.Cells[2].Bucket.Background)

	master := hm.Rows[1]
	assert.Equal(t, "mastercard", master.Name)
	assert.Equal(t, 0.0, master.Cells[1].Value)
	assert.Equal(t, 0, master.Cells[1].Bucket.Level)

	assert.True(t, BuildHeatmap(p.HeatmapData, nil).Empty())
}

func TestTopErrorsToggle(t *testing.T) {
	p := canonicalPayload(t)
	collapsed := TopErrors(p.ErrorData, false)
	assert.Len(t, collapsed.Entries, TopErrorLimit)
	assert.Equal(t, 8, collapsed.Total)
	assert.Equal(t, 3, collapsed.Hidden)
	assert.True(t, collapsed.Toggleable())
	assert.Equal(t, "ABECS-51", collapsed.Entries[0].Code)

	expanded := TopErrors(p.ErrorData, true)
	assert.Len(t, expanded.Entries, 8)
	assert.Zero(t, expanded.Hidden)

	short := TopErrors(p.ErrorData[:3], false)
	assert.Len(t, short.Entries, 3)
	assert.False(t, short.Toggleable())

	collapsed.Entries[0].Code = "changed"
	assert.Equal(t, "ABECS-51", p.ErrorData[0].Code)
}

func TestApprovalRate(t *testing.T) {
	k := dataset.KPIs{SuccessCount: 80, FailedCount: 20}
	assert.Equal(t, 80.0, ApprovalRate(k))
	assert.Equal(t, "80%", format.Rate(ApprovalRate(k)))

	provided := 90.55
	k.ApprovalRate = &provided
	assert.Equal(t, 90.55, ApprovalRate(k))

	assert.Zero(t, ApprovalRate(dataset.KPIs{}))

	eval := EvaluateApproval(dataset.KPIs{SuccessCount: 72, FailedCount: 28})
	assert.False(t, eval.TrendDown)
	assert.True(t, eval.BelowTarget)
	assert.False(t, eval.Critical)

	eval = EvaluateApproval(dataset.KPIs{SuccessCount: 60, FailedCount: 40})
	assert.True(t, eval.TrendDown)
	assert.True(t, eval.Critical)
}

func TestCategorySplits(t *testing.T) {
	p := canonicalPayload(t)
	splits := CategorySplits(p.KPIs)
	require.Len(t, splits, 2)
	assert.Equal(t, "Autorização", splits[0].Label)
	assert.Equal(t, 83.3, splits[0].Rate)
	assert.Equal(t, "Captura", splits[1].Label)
	assert.Equal(t, 75.0, splits[1].Rate)

	empty := CategorySplits(dataset.KPIs{
		Authorization: &dataset.CategoryCounts{Total: 2, Success: 1, Failed: 1},
		ZeroAuth:      &dataset.CategoryCounts{},
		Debit:         &dataset.CategoryCounts{},
	})
	require.Len(t, empty, 1)
	assert.Equal(t, "authorization", empty[0].Key)

	assert.True(t, BrandHealthy(50.1))
	assert.False(t, BrandHealthy(50))
}

func TestDrillDown(t *testing.T) {
	p := canonicalPayload(t)

	daily := DrillDown(p, "")
	assert.False(t, daily.Hourly)
	require.Len(t, daily.Points, 3)
	assert.Equal(t, "02/10", daily.Points[1].Label)
	assert.True(t, daily.Points[1].Drillable)
	assert.False(t, daily.Points[0].Drillable)
	assert.Equal(t, []string{"2025-10-02"}, daily.Periods)

	hourly := DrillDown(p, "2025-10-02")
	assert.True(t, hourly.Hourly)
	assert.Equal(t, "2025-10-02", hourly.Selected)
	require.Len(t, hourly.Points, 2)
	assert.Equal(t, "09h", hourly.Points[0].Label)
	assert.Equal(t, int64(21), hourly.Points[1].Total())

	unknown := DrillDown(p, "2025-12-31")
	assert.False(t, unknown.Hourly)
	assert.Len(t, unknown.Points, 3)
}

func TestLookupRemediation(t *testing.T) {
	r := LookupRemediation(" abecs-51 ")
	assert.True(t, r.Known)
	assert.True(t, r.Retryable)
	assert.Equal(t, "ABECS-51", r.Code)

	fraud := LookupRemediation("ABECS-59")
	assert.False(t, fraud.Retryable)

	unknown := LookupRemediation("XYZ-1")
	assert.False(t, unknown.Known)
	assert.Equal(t, "Sem recomendação", unknown.Short)
	assert.Equal(t, "XYZ-1", unknown.Code)
}

func TestBuildActionPlan(t *testing.T) {
	plan := BuildActionPlan(canonicalPayload(t))
	require.Len(t, plan.Actions, 5)
	assert.Equal(t, "Ativar 3D Secure", plan.Actions[0].Title)
	assert.Contains(t, plan.Actions[0].Detail, "20%")
	assert.Equal(t, "Implementar ZeroAuth", plan.Actions[1].Title)
	assert.Contains(t, plan.Actions[1].Detail, "25%")
	assert.Equal(t, "Revisar Mastercard", plan.Actions[2].Title)
	assert.Contains(t, plan.Actions[2].Detail, "8.3 p.p.")
	assert.Equal(t, "Saldo", plan.Actions[3].Title)
	assert.Equal(t, 5, plan.Actions[4].Rank)

	assert.Equal(t, 40.0, plan.RetryableRate)
	assert.True(t, plan.Recoverable.Equal(decimal.RequireFromString("987.65")), plan.Recoverable.String())

	assert.Empty(t, BuildActionPlan(nil).Actions)
}

func TestPageTransactions(t *testing.T) {
	txs := make([]dataset.Transaction, 250)
	for i := range txs {
		txs[i] = dataset.Transaction{ID: fmt.Sprintf("tx-%d", i), Status: "success", Amount: decimal.NewFromInt(1)}
	}
	txs[210].Status = "failed"

	page := PageTransactions(txs, 3)
	assert.Len(t, page.Rows, 50)
	assert.Equal(t, "tx-200", page.Rows[0].ID)
	assert.Equal(t, 1, page.Failed)
	assert.True(t, page.Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 201, page.Pagination.FirstItem())
	assert.Equal(t, 250, page.Pagination.LastItem())
	assert.False(t, page.Pagination.HasNext())

	assert.Equal(t, 1, PageTransactions(txs, 0).Pagination.Page)
	assert.Equal(t, 3, PageTransactions(txs, 99).Pagination.Page)

	first := PageTransactions(txs, 1)
	assert.Len(t, first.Rows, TransactionPageSize)
	assert.True(t, first.Pagination.HasNext())
	assert.Equal(t, 2, first.Pagination.NextPage())

	empty := PageTransactions(nil, 4)
	assert.Empty(t, empty.Rows)
	assert.Equal(t, 1, empty.Pagination.Page)
	assert.Zero(t, empty.Pagination.FirstItem())
}
