package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/apex-analytics/apex-dashboard/internal/dataset"
	"github.com/apex-analytics/apex-dashboard/internal/shared"
)

// TransactionPageSize is the fixed row count per transaction page.
const TransactionPageSize = 100

// TransactionPage is one page of the transaction table.
type TransactionPage struct {
	Pagination shared.Pagination
	Rows       []dataset.Transaction
	Amount     decimal.Decimal
	Failed     int
}

// PageTransactions slices txs for the requested page; out of range pages are clamped.
func PageTransactions(txs []dataset.Transaction, page int) TransactionPage {
	p := shared.NewPagination(page, TransactionPageSize, len(txs))
	start, end := p.Bounds()
	rows := make([]dataset.Transaction, end-start)
	copy(rows, txs[start:end])

	amount := decimal.Zero
	failed := 0
	for _, tx := range rows {
		amount = amount.Add(tx.Amount)
		if tx.Failed() {
			failed++
		}
	}
	return TransactionPage{Pagination: p, Rows: rows, Amount: amount, Failed: failed}
}
