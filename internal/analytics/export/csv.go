package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// WriteKPICSV serialises the headline counters to CSV.
func WriteKPICSV(w io.Writer, merchant string, k dataset.KPIs) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"metric", "value"}); err != nil {
		return err
	}
	records := [][]string{
		{"merchant", merchant},
		{"period_start", k.PeriodStart},
		{"period_end", k.PeriodEnd},
		{"total_transactions", strconv.FormatInt(k.TotalTransactions, 10)},
		{"success_count", strconv.FormatInt(k.SuccessCount, 10)},
		{"failed_count", strconv.FormatInt(k.FailedCount, 10)},
		{"approval_rate", formatFloat(analytics.ApprovalRate(k))},
		{"total_attempted", k.TotalAttempted.StringFixed(2)},
		{"total_approved", k.TotalApproved.StringFixed(2)},
		{"total_lost", k.TotalLost.StringFixed(2)},
	}
	for _, split := range analytics.CategorySplits(k) {
		records = append(records,
			[]string{split.Key + "_total", strconv.FormatInt(split.Counts.Total, 10)},
			[]string{split.Key + "_approval_rate", formatFloat(split.Rate)},
		)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteErrorsCSV emits every decline code with its remediation.
func WriteErrorsCSV(w io.Writer, entries []dataset.ErrorEntry) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"code", "details", "count", "percentage", "retryable", "recommendation"}); err != nil {
		return err
	}
	for _, e := range entries {
		rem := analytics.LookupRemediation(e.Code)
		if err := writer.Write([]string{
			e.Code,
			e.Details,
			strconv.FormatInt(e.Count, 10),
			formatFloat(float64(e.Percentage)),
			strconv.FormatBool(rem.Retryable),
			rem.Short,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteBrandsCSV emits the brand breakdown.
func WriteBrandsCSV(w io.Writer, brands []dataset.BrandStat) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"brand", "total", "success", "failed", "approval_rate"}); err != nil {
		return err
	}
	for _, b := range brands {
		if err := writer.Write([]string{
			b.Brand,
			strconv.FormatInt(b.Total, 10),
			strconv.FormatInt(b.Success, 10),
			strconv.FormatInt(b.Failed, 10),
			formatFloat(b.ApprovalRate),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTransactionsCSV prints transactions in upstream order.
func WriteTransactionsCSV(w io.Writer, txs []dataset.Transaction) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"date", "id", "order_id", "category", "status", "amount", "brand", "error_code"}); err != nil {
		return err
	}
	for _, tx := range txs {
		if err := writer.Write([]string{
			tx.Date,
			tx.ID,
			tx.OrderID,
			tx.Category,
			tx.Status,
			tx.Amount.StringFixed(2),
			tx.Brand,
			tx.ErrorCode,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
