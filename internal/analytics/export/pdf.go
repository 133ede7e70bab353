package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"

	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/format"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// HTMLRenderer converts an HTML document into PDF bytes.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// DashboardPayload aggregates dashboard data destined for PDF rendering.
type DashboardPayload struct {
	Merchant    string
	KPIs        dataset.KPIs
	Errors      []dataset.ErrorEntry
	Brands      []dataset.BrandStat
	Actions     analytics.ActionPlan
	GeneratedAt time.Time
}

// Document is a rendered PDF with its export identifier.
type Document struct {
	ID    string
	Bytes []byte
}

// Filename is the attachment name offered to browsers.
func (d Document) Filename() string {
	id := d.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return "dashboard.pdf"
	}
	return fmt.Sprintf("dashboard-%s.pdf", id)
}

// PDFExporter renders the dashboard summary through an HTMLRenderer.
type PDFExporter struct {
	Renderer HTMLRenderer
}

// RenderDashboard builds the summary HTML and hands it to the renderer.
func (p *PDFExporter) RenderDashboard(ctx context.Context, payload DashboardPayload) (Document, error) {
	if p == nil || p.Renderer == nil {
		return Document{}, errors.New("pdf exporter not initialised")
	}
	id := uuid.NewString()
	html, err := BuildHTML(id, payload)
	if err != nil {
		return Document{}, err
	}
	data, err := p.Renderer.RenderHTML(ctx, html)
	if err != nil {
		return Document{}, fmt.Errorf("render pdf: %w", err)
	}
	return Document{ID: id, Bytes: data}, nil
}

var pdfTemplate = template.Must(template.New("pdf").Funcs(template.FuncMap{
	"currency":    format.CurrencyDecimal,
	"number":      format.Number,
	"percent":     func(v dataset.Percent) string { return format.Percent(float64(v)) },
	"rate":        format.Rate,
	"date":        format.Date,
	"remediation": analytics.LookupRemediation,
}).Parse(`<html><head><meta charset="utf-8"><title>Dashboard {{.Merchant}}</title><style>
body{font-family:sans-serif;margin:24px;color:#0f172a}h1{font-size:20px}h2{font-size:16px;margin-top:24px}
table{width:100%;border-collapse:collapse;margin-bottom:16px}th,td{border:1px solid #e2e8f0;padding:6px;text-align:right}
th{text-align:left;background:#f8fafc}td.label{text-align:left}footer{font-size:10px;color:#64748b}
</style></head><body>
<h1>Análise de aprovação - {{.Merchant}}</h1>
<p>{{date .KPIs.PeriodStart}} a {{date .KPIs.PeriodEnd}}</p>
<section><h2>Indicadores</h2><table><tbody>
<tr><td class="label">Total de transações</td><td>{{number .KPIs.TotalTransactions}}</td></tr>
<tr><td class="label">Taxa de aprovação</td><td>{{rate .Approval}}</td></tr>
<tr><td class="label">Valor aprovado</td><td>{{currency .KPIs.TotalApproved}}</td></tr>
<tr><td class="label">Valor perdido</td><td>{{currency .KPIs.TotalLost}}</td></tr>
</tbody></table></section>
{{if .Errors}}<section><h2>Principais erros</h2><table><thead><tr><th>Código</th><th>Descrição</th><th>Qtd</th><th>%</th><th>Recomendação</th></tr></thead><tbody>
{{range .Errors}}<tr><td class="label">{{.Code}}</td><td class="label">{{.Details}}</td><td>{{number .Count}}</td><td>{{percent .Percentage}}</td><td class="label">{{(remediation .Code).Short}}</td></tr>
{{end}}</tbody></table></section>{{end}}
{{if .Brands}}<section><h2>Bandeiras</h2><table><thead><tr><th>Bandeira</th><th>Total</th><th>Aprovação</th></tr></thead><tbody>
{{range .Brands}}<tr><td class="label">{{.Brand}}</td><td>{{number .Total}}</td><td>{{rate .ApprovalRate}}</td></tr>
{{end}}</tbody></table></section>{{end}}
{{if .Actions.Actions}}<section><h2>Plano de ação</h2><ol>
{{range .Actions.Actions}}<li><strong>{{.Title}}</strong>: {{.Detail}}</li>
{{end}}</ol><p>Valor recuperável estimado: {{currency .Actions.Recoverable}}</p></section>{{end}}
<footer>Exportação {{.ID}} gerada em {{.Generated}}</footer>
</body></html>`))

// BuildHTML renders the PDF source document.
func BuildHTML(id string, payload DashboardPayload) (string, error) {
	generated := payload.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	var buf bytes.Buffer
	err := pdfTemplate.Execute(&buf, struct {
		DashboardPayload
		ID        string
		Approval  float64
		Generated string
	}{
		DashboardPayload: payload,
		ID:               id,
		Approval:         analytics.ApprovalRate(payload.KPIs),
		Generated:        generated.Format("02/01/2006 15:04"),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
