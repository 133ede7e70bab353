package dataset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMerchant names the payload of a single-merchant document.
const DefaultMerchant = "default"

// Document is one loaded dataset: a payload per merchant in file order.
type Document struct {
	Merchants []string
	Payloads  map[string]*Payload
}

// Payload resolves a merchant payload; an empty name selects the first merchant.
func (d *Document) Payload(merchant string) (string, *Payload, error) {
	if d == nil || len(d.Merchants) == 0 {
		return "", nil, ErrNotLoaded
	}
	merchant = strings.TrimSpace(merchant)
	if merchant == "" {
		merchant = d.Merchants[0]
	}
	payload, ok := d.Payloads[merchant]
	if !ok || payload == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrMerchantNotFound, merchant)
	}
	return merchant, payload, nil
}

// Payload is the analytics snapshot for a single merchant.
type Payload struct {
	KPIs            KPIs                     `json:"kpis"`
	DailyData       []DailyPoint             `json:"daily_data" validate:"dive"`
	BrandData       []BrandStat              `json:"brand_data" validate:"dive"`
	CardTypeData    []CardTypeStat           `json:"card_type_data" validate:"dive"`
	ErrorData       []ErrorEntry             `json:"error_data" validate:"dive"`
	ErrorCategories []ErrorCategory          `json:"error_categories" validate:"dive"`
	HeatmapData     []HeatmapRow             `json:"heatmap_data" validate:"dive"`
	HeatmapColumns  []string                 `json:"heatmap_columns"`
	Transactions    []Transaction            `json:"transactions" validate:"dive"`
	PeriodData      map[string][]HourlyPoint `json:"period_data,omitempty" validate:"dive,dive"`
}

// KPIs aggregates headline counters for the merchant.
type KPIs struct {
	TotalTransactions int64           `json:"total_transactions" validate:"gte=0"`
	SuccessCount      int64           `json:"success_count" validate:"gte=0"`
	FailedCount       int64           `json:"failed_count" validate:"gte=0"`
	ApprovalRate      *float64        `json:"approval_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	TotalAttempted    decimal.Decimal `json:"total_attempted" validate:"gte=0"`
	TotalApproved     decimal.Decimal `json:"total_approved" validate:"gte=0"`
	TotalLost         decimal.Decimal `json:"total_lost" validate:"gte=0"`
	PeriodStart       string          `json:"period_start" validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd         string          `json:"period_end" validate:"omitempty,datetime=2006-01-02"`
	Authorization     *CategoryCounts `json:"authorization,omitempty"`
	Capture           *CategoryCounts `json:"capture,omitempty"`
	ZeroAuth          *CategoryCounts `json:"zero_auth,omitempty"`
	Debit             *CategoryCounts `json:"debit,omitempty"`
}

// CategoryCounts splits traffic for one transaction category.
type CategoryCounts struct {
	Total   int64 `json:"total" validate:"gte=0"`
	Success int64 `json:"success" validate:"gte=0"`
	Failed  int64 `json:"failed" validate:"gte=0"`
}

// DailyPoint is one day of outcomes.
type DailyPoint struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Success int64  `json:"success" validate:"gte=0"`
	Failed  int64  `json:"failed" validate:"gte=0"`
}

// HourlyPoint is one hour inside a drill-down period.
type HourlyPoint struct {
	Hour    string `json:"hour" validate:"required"`
	Success int64  `json:"success" validate:"gte=0"`
	Failed  int64  `json:"failed" validate:"gte=0"`
}

// BrandStat summarises a card brand. Entries carrying Type and Brands are
// card-type rows emitted by older generators; normalize moves them out.
type BrandStat struct {
	Brand        string       `json:"brand"`
	Type         string       `json:"type,omitempty"`
	Total        int64        `json:"total" validate:"gte=0"`
	Success      int64        `json:"success" validate:"gte=0"`
	Failed       int64        `json:"failed" validate:"gte=0"`
	ApprovalRate float64      `json:"approval_rate" validate:"gte=0,lte=100"`
	Brands       []BrandShare `json:"brands,omitempty" validate:"dive"`
}

// CardTypeStat summarises a card type with its brand breakdown.
type CardTypeStat struct {
	Type         string       `json:"type" validate:"required"`
	Total        int64        `json:"total" validate:"gte=0"`
	Success      int64        `json:"success" validate:"gte=0"`
	Failed       int64        `json:"failed" validate:"gte=0"`
	ApprovalRate float64      `json:"approval_rate" validate:"gte=0,lte=100"`
	Brands       []BrandShare `json:"brands" validate:"dive"`
}

// BrandShare is a brand line nested under a card type.
type BrandShare struct {
	Brand string  `json:"brand" validate:"required"`
	Total int64   `json:"total" validate:"gte=0"`
	Rate  float64 `json:"rate" validate:"gte=0,lte=100"`
}

// ErrorEntry is one decline code with its impact.
type ErrorEntry struct {
	Code       string  `json:"code" validate:"required"`
	Details    string  `json:"details"`
	Count      int64   `json:"count" validate:"gte=0"`
	Percentage Percent `json:"percentage" validate:"gte=0"`
	Action     string  `json:"action,omitempty"`
	Type       string  `json:"type,omitempty"`
}

// ShortCode drops the issuer prefix, "ABECS-51" becomes "51".
func (e ErrorEntry) ShortCode() string {
	if idx := strings.LastIndex(e.Code, "-"); idx >= 0 && idx < len(e.Code)-1 {
		return e.Code[idx+1:]
	}
	return e.Code
}

// ErrorCategory groups decline codes with a remediation hint.
type ErrorCategory struct {
	Name           string  `json:"name" validate:"required"`
	Count          int64   `json:"count" validate:"gte=0"`
	Percentage     Percent `json:"percentage" validate:"gte=0"`
	Recommendation string  `json:"recommendation"`
}

// Transaction is a single processed payment attempt.
type Transaction struct {
	Date       string          `json:"date"`
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id,omitempty"`
	ExternalID string          `json:"external_id,omitempty"`
	Category   string          `json:"category"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount" validate:"gte=0"`
	Brand      string          `json:"brand,omitempty"`
	ErrorCode  string          `json:"error_code,omitempty"`
}

// Failed reports whether the attempt was declined.
func (t Transaction) Failed() bool {
	return strings.EqualFold(t.Status, "failed")
}

// Percent accepts both 12.5 and "12.5" (optionally with a trailing %).
type Percent float64

// UnmarshalJSON implements json.Unmarshaler.
func (p *Percent) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*p = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("percentage: %w", err)
		}
		raw = strings.TrimSuffix(strings.TrimSpace(unquoted), "%")
		raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
		if raw == "" {
			*p = 0
			return nil
		}
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("percentage %q: %w", raw, err)
	}
	*p = Percent(value)
	return nil
}

// HeatmapRow is a sparse row keyed by column name. The row label is read from
// "name", falling back to the legacy "brand" key.
type HeatmapRow struct {
	Name  string
	Cells map[string]float64
}

// Value returns the cell for column, zero when absent.
func (r HeatmapRow) Value(column string) float64 {
	return r.Cells[column]
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *HeatmapRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var name, brand string
	cells := make(map[string]float64, len(raw))
	for key, value := range raw {
		switch key {
		case "name":
			if err := json.Unmarshal(value, &name); err != nil {
				return fmt.Errorf("heatmap name: %w", err)
			}
		case "brand":
			if err := json.Unmarshal(value, &brand); err != nil {
				return fmt.Errorf("heatmap brand: %w", err)
			}
		default:
			if string(value) == "null" {
				continue
			}
			var cell float64
			if err := json.Unmarshal(value, &cell); err != nil {
				return fmt.Errorf("heatmap cell %q: %w", key, err)
			}
			cells[key] = cell
		}
	}
	if name == "" {
		name = brand
	}
	r.Name = name
	r.Cells = cells
	return nil
}

// MarshalJSON writes the canonical flat shape.
func (r HeatmapRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Cells)+1)
	for key, value := range r.Cells {
		out[key] = value
	}
	out["name"] = r.Name
	return json.Marshal(out)
}

// normalize reconciles generator drift so that views read one shape.
func (p *Payload) normalize() {
	p.splitCardTypes()
	if p.KPIs.SuccessCount == 0 && p.KPIs.FailedCount == 0 {
		p.deriveCounts()
	}
	if p.KPIs.TotalTransactions == 0 {
		p.KPIs.TotalTransactions = p.KPIs.SuccessCount + p.KPIs.FailedCount
	}
	if p.KPIs.TotalAttempted.IsZero() && len(p.Transactions) > 0 {
		p.deriveAmounts()
	}
	if len(p.DailyData) > 0 {
		if p.KPIs.PeriodStart == "" {
			p.KPIs.PeriodStart = p.DailyData[0].Date
		}
		if p.KPIs.PeriodEnd == "" {
			p.KPIs.PeriodEnd = p.DailyData[len(p.DailyData)-1].Date
		}
	}
	for i := range p.Transactions {
		tx := &p.Transactions[i]
		if tx.ID == "" {
			tx.ID = tx.ExternalID
		}
		if tx.ID == "" {
			tx.ID = tx.OrderID
		}
	}
}

// splitCardTypes moves card-type shaped rows out of brand_data and rebuilds
// per-brand totals from their nested shares.
func (p *Payload) splitCardTypes() {
	brands := make([]BrandStat, 0, len(p.BrandData))
	var types []CardTypeStat
	for _, entry := range p.BrandData {
		if entry.Brand != "" || entry.Type == "" {
			brands = append(brands, entry)
			continue
		}
		types = append(types, CardTypeStat{
			Type:         entry.Type,
			Total:        entry.Total,
			Success:      entry.Success,
			Failed:       entry.Failed,
			ApprovalRate: entry.ApprovalRate,
			Brands:       entry.Brands,
		})
	}
	if len(types) == 0 {
		return
	}
	if len(p.CardTypeData) == 0 {
		p.CardTypeData = types
	}
	if len(brands) > 0 {
		p.BrandData = brands
		return
	}

	index := make(map[string]int)
	for _, t := range types {
		// Shares only carry a success rate. The non-success rest is split
		// between failed and other statuses (pending) in the card type's ratio.
		failedRatio := 1.0
		if rest := t.Total - t.Success; rest > 0 && t.Failed < rest {
			failedRatio = float64(t.Failed) / float64(rest)
		}
		for _, share := range t.Brands {
			success := int64(float64(share.Total)*share.Rate/100 + 0.5)
			if success > share.Total {
				success = share.Total
			}
			failed := int64(float64(share.Total-success)*failedRatio + 0.5)
			pos, ok := index[share.Brand]
			if !ok {
				pos = len(brands)
				index[share.Brand] = pos
				brands = append(brands, BrandStat{Brand: share.Brand})
			}
			brands[pos].Total += share.Total
			brands[pos].Success += success
			brands[pos].Failed += failed
		}
	}
	for i := range brands {
		if brands[i].Total > 0 {
			brands[i].ApprovalRate = roundTenth(float64(brands[i].Success) / float64(brands[i].Total) * 100)
		}
	}
	sort.SliceStable(brands, func(i, j int) bool { return brands[i].Total > brands[j].Total })
	p.BrandData = brands
}

func (p *Payload) deriveCounts() {
	for _, c := range []*CategoryCounts{p.KPIs.Authorization, p.KPIs.Capture, p.KPIs.ZeroAuth, p.KPIs.Debit} {
		if c == nil {
			continue
		}
		p.KPIs.SuccessCount += c.Success
		p.KPIs.FailedCount += c.Failed
		p.KPIs.TotalTransactions += c.Total
	}
	if p.KPIs.SuccessCount != 0 || p.KPIs.FailedCount != 0 {
		return
	}
	for _, day := range p.DailyData {
		p.KPIs.SuccessCount += day.Success
		p.KPIs.FailedCount += day.Failed
	}
}

func (p *Payload) deriveAmounts() {
	attempted := decimal.Zero
	approved := decimal.Zero
	lost := decimal.Zero
	for _, tx := range p.Transactions {
		attempted = attempted.Add(tx.Amount)
		switch {
		case tx.Failed():
			lost = lost.Add(tx.Amount)
		case strings.EqualFold(tx.Status, "success"):
			approved = approved.Add(tx.Amount)
		}
	}
	p.KPIs.TotalAttempted = attempted
	p.KPIs.TotalApproved = approved
	p.KPIs.TotalLost = lost
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
