package analytics

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// maxCategoryActions caps recommendations taken from error_categories.
const maxCategoryActions = 4

// Action is one recommended step in the action plan.
type Action struct {
	Rank   int
	Title  string
	Detail string
}

// ActionPlan lists prioritised actions and the estimated recoverable amount.
type ActionPlan struct {
	Actions       []Action
	Recoverable   decimal.Decimal
	RetryableRate float64
}

// BuildActionPlan derives recommended actions from the decline mix, the brand
// gap and the error category recommendations.
func BuildActionPlan(p *dataset.Payload) ActionPlan {
	var plan ActionPlan
	if p == nil {
		return plan
	}
	add := func(title, detail string) {
		plan.Actions = append(plan.Actions, Action{Rank: len(plan.Actions) + 1, Title: title, Detail: detail})
	}

	if fraud := errorShare(p.ErrorData, "ABECS-59"); fraud > 0 {
		add("Ativar 3D Secure", fmt.Sprintf("%s das falhas são por suspeita de fraude. O 3DS 2.0 transfere a responsabilidade para o emissor e aumenta a aprovação.", shareLabel(fraud)))
	}
	if invalid := errorShare(p.ErrorData, "ABECS-82", "ABECS-57"); invalid > 0 {
		add("Implementar ZeroAuth", fmt.Sprintf("%s das falhas são por dados inválidos ou cartão vencido. Valide o cartão antes da transação.", shareLabel(invalid)))
	}
	if best, worst, ok := brandGap(p.BrandData); ok {
		gap := math.Round((best.ApprovalRate-worst.ApprovalRate)*10) / 10
		add("Revisar "+titleCase(worst.Brand), fmt.Sprintf("A taxa de aprovação da %s está %s p.p. abaixo da %s. Revise configurações de MCC e antifraude.",
			titleCase(worst.Brand), trimFloat(gap), titleCase(best.Brand)))
	}
	for i, cat := range p.ErrorCategories {
		if i == maxCategoryActions {
			break
		}
		if strings.TrimSpace(cat.Recommendation) == "" {
			continue
		}
		add(cat.Name, cat.Recommendation)
	}

	codes := make([]string, 0, len(remediations))
	for code, r := range remediations {
		if r.Retryable {
			codes = append(codes, code)
		}
	}
	plan.RetryableRate = errorShare(p.ErrorData, codes...)
	plan.Recoverable = p.KPIs.TotalLost.Mul(decimal.NewFromFloat(plan.RetryableRate)).Div(decimal.NewFromInt(100)).Round(2)
	return plan
}

// errorShare is the percentage of failures carrying one of codes, from counts.
func errorShare(entries []dataset.ErrorEntry, codes ...string) float64 {
	var total, matched int64
	for _, e := range entries {
		total += e.Count
		for _, code := range codes {
			if strings.EqualFold(e.Code, code) {
				matched += e.Count
				break
			}
		}
	}
	if total == 0 {
		return 0
	}
	return math.Round(float64(matched)/float64(total)*1000) / 10
}

func brandGap(brands []dataset.BrandStat) (dataset.BrandStat, dataset.BrandStat, bool) {
	if len(brands) < 2 {
		return dataset.BrandStat{}, dataset.BrandStat{}, false
	}
	best, worst := brands[0], brands[0]
	for _, b := range brands[1:] {
		if b.ApprovalRate > best.ApprovalRate {
			best = b
		}
		if b.ApprovalRate < worst.ApprovalRate {
			worst = b
		}
	}
	if best.ApprovalRate-worst.ApprovalRate < 1 {
		return best, worst, false
	}
	return best, worst, true
}

func shareLabel(v float64) string {
	return trimFloat(v) + "%"
}

func trimFloat(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
