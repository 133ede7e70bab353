package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/format"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
	"github.com/apex-analytics/apex-dashboard/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	layout    Layout
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	Layout      Layout
	CurrentPath string
	// RefreshSeconds adds a meta refresh when positive.
	RefreshSeconds int
	Data           any
}

// NewEngine parses templates at build-time.
func NewEngine(layout Layout) (*Engine, error) {
	tpl, err := template.New("root").Funcs(FuncMap()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl, layout: layout.withDefaults()}, nil
}

// FuncMap exposes the formatting helpers to templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"money":       func(d decimal.Decimal) string { return format.CurrencyDecimal(d) },
		"number":      format.Number,
		"percent":     func(v dataset.Percent) string { return format.Percent(float64(v)) },
		"rate":        format.Rate,
		"date":        format.Date,
		"dateTime":    format.DateTime,
		"truncate":    format.Truncate,
		"remediation": analytics.LookupRemediation,
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
	}
}

// RenderStatus buffers the template so a failed render never leaves a
// half-written page behind the requested status.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	if data.Layout.Brand == "" {
		data.Layout = e.layout
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
