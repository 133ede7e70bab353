package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/format"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// SummaryOptions defines available flags for the summary command.
type SummaryOptions struct {
	File     string
	Merchant string
	All      bool
	Stdout   io.Writer
	Stderr   io.Writer
}

// SummaryCommand prints the headline numbers of a dataset file as tables.
func SummaryCommand(ctx context.Context, opts SummaryOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if strings.TrimSpace(opts.File) == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "summary: --file is required")
		return ExitUsage
	}
	raw, err := dataset.FileSource{Path: opts.File}.Fetch(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "summary: %v\n", err)
		return ExitUsage
	}
	doc, err := dataset.Decode(raw)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "summary: %v\n", err)
		return ExitInvalid
	}
	merchant, payload, err := doc.Payload(opts.Merchant)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "summary: %v\n", err)
		return ExitUsage
	}

	_, _ = fmt.Fprintf(opts.Stdout, "Estabelecimento: %s\n\n", merchant)
	renderKPIs(opts.Stdout, payload.KPIs)
	_, _ = fmt.Fprintln(opts.Stdout)
	renderErrors(opts.Stdout, analytics.TopErrors(payload.ErrorData, opts.All))
	_, _ = fmt.Fprintln(opts.Stdout)
	renderBrands(opts.Stdout, payload.BrandData)
	return ExitOK
}

func renderKPIs(w io.Writer, k dataset.KPIs) {
	approval := analytics.EvaluateApproval(k)
	status := "dentro da meta"
	if approval.BelowTarget {
		status = "abaixo da meta"
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Indicador", "Valor"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{"Total de transações", format.Number(k.TotalTransactions)})
	table.Append([]string{"Aprovadas", format.Number(k.SuccessCount)})
	table.Append([]string{"Recusadas", format.Number(k.FailedCount)})
	table.Append([]string{"Taxa de aprovação", format.Rate(approval.Rate) + " (" + status + ")"})
	table.Append([]string{"Valor aprovado", format.CurrencyDecimal(k.TotalApproved)})
	table.Append([]string{"Valor perdido", format.CurrencyDecimal(k.TotalLost)})
	table.Render()
}

func renderErrors(w io.Writer, list analytics.ErrorList) {
	if list.Total == 0 {
		_, _ = fmt.Fprintln(w, "Nenhum erro registrado.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Código", "Descrição", "Qtd", "%", "Recomendação"})
	table.SetAutoWrapText(false)
	for _, e := range list.Entries {
		table.Append([]string{
			e.Code,
			format.Truncate(e.Details, 40),
			format.Number(e.Count),
			format.Percent(float64(e.Percentage)),
			analytics.LookupRemediation(e.Code).Short,
		})
	}
	table.Render()
	if list.Hidden > 0 {
		_, _ = fmt.Fprintf(w, "+%d erro(s) omitido(s); use --all para listar todos.\n", list.Hidden)
	}
}

func renderBrands(w io.Writer, brands []dataset.BrandStat) {
	if len(brands) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Bandeira", "Total", "Aprovação", "Saúde"})
	for _, b := range brands {
		health := "ok"
		if !analytics.BrandHealthy(b.ApprovalRate) {
			health = "atenção"
		}
		table.Append([]string{b.Brand, format.Number(b.Total), format.Rate(b.ApprovalRate), health})
	}
	table.Render()
}
