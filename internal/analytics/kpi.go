package analytics

import (
	"math"

	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// Approval thresholds shown on the KPI row.
const (
	ApprovalTarget   = 75.0
	ApprovalTrendMin = 70.0
	ApprovalCritical = 65.0
	BrandHealthyMin  = 50.0
)

// Approval is the evaluated approval KPI.
type Approval struct {
	Rate        float64
	Provided    bool
	TrendDown   bool
	BelowTarget bool
	Critical    bool
}

// ApprovalRate echoes a provided approval_rate, otherwise computes
// success/(success+failed) as a percentage rounded to one decimal.
func ApprovalRate(k dataset.KPIs) float64 {
	if k.ApprovalRate != nil {
		return *k.ApprovalRate
	}
	return rate(k.SuccessCount, k.SuccessCount+k.FailedCount)
}

// EvaluateApproval applies the dashboard thresholds to the approval rate.
func EvaluateApproval(k dataset.KPIs) Approval {
	r := ApprovalRate(k)
	return Approval{
		Rate:        r,
		Provided:    k.ApprovalRate != nil,
		TrendDown:   r < ApprovalTrendMin,
		BelowTarget: r < ApprovalTarget,
		Critical:    r < ApprovalCritical,
	}
}

// CategorySplit is one traffic category row.
type CategorySplit struct {
	Key    string
	Label  string
	Counts dataset.CategoryCounts
	Rate   float64
}

// CategorySplits lists the categories that carried traffic.
func CategorySplits(k dataset.KPIs) []CategorySplit {
	entries := []struct {
		key, label string
		counts     *dataset.CategoryCounts
	}{
		{"authorization", "Autorização", k.Authorization},
		{"capture", "Captura", k.Capture},
		{"zero_auth", "ZeroAuth", k.ZeroAuth},
		{"debit", "Débito", k.Debit},
	}
	out := make([]CategorySplit, 0, len(entries))
	for _, e := range entries {
		// The generator emits {} for categories without traffic.
		if e.counts == nil || (e.counts.Total == 0 && e.counts.Success == 0 && e.counts.Failed == 0) {
			continue
		}
		out = append(out, CategorySplit{
			Key:    e.key,
			Label:  e.label,
			Counts: *e.counts,
			Rate:   rate(e.counts.Success, e.counts.Success+e.counts.Failed),
		})
	}
	return out
}

// BrandHealthy reports whether a brand approval rate is on the green side.
func BrandHealthy(approvalRate float64) bool {
	return approvalRate > BrandHealthyMin
}

func rate(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}
