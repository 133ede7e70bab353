// Package format renders numbers and dates for the pt-BR dashboard.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

var shortMonths = [...]string{"jan.", "fev.", "mar.", "abr.", "mai.", "jun.", "jul.", "ago.", "set.", "out.", "nov.", "dez."}

// Currency formats a BRL amount, e.g. "R$ 1.234,56".
func Currency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v < 0 {
		return "-R$ " + printer.Sprintf("%.2f", -v)
	}
	return "R$ " + printer.Sprintf("%.2f", v)
}

// CurrencyDecimal formats an exact amount.
func CurrencyDecimal(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return Currency(f)
}

// Number groups thousands, e.g. 12345 becomes "12.345".
func Number(v int64) string {
	return printer.Sprintf("%d", v)
}

// Percent renders a share with up to two decimals, e.g. "12,5%".
func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	rounded := math.Round(v*100) / 100
	return strings.Replace(strconv.FormatFloat(rounded, 'f', -1, 64), ".", ",", 1) + "%"
}

// Rate renders an approval rate verbatim, e.g. 80 becomes "80%".
func Rate(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// ParseDate reads the date forms emitted by the dataset generator.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "+00")
	for _, layout := range []string{
		"2006-01-02",
		"2006-01-02 15:04:05.999999",
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date renders "dd de MMM, yyyy", e.g. "01 de out., 2025". Unparseable input
// is returned unchanged.
func Date(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return raw
	}
	return fmt.Sprintf("%02d de %s, %d", t.Day(), shortMonths[t.Month()-1], t.Year())
}

// ShortDate renders "dd/MM" for chart ticks.
func ShortDate(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return raw
	}
	return t.Format("02/01")
}

// DateTime renders "dd/MM/yyyy HH:mm" for table rows.
func DateTime(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return raw
	}
	return t.Format("02/01/2006 15:04")
}

// Truncate shortens s to n runes with a trailing ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
