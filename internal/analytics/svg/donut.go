package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Donut renders proportional slices around a centre label. Slices are drawn
// with stroke-dasharray on a single circle so no arc maths leaks into markup.
func Donut(size int, slices []Slice, opts DonutOpts) (template.HTML, error) {
	if len(slices) == 0 {
		return "", fmt.Errorf("svg: slices required")
	}
	if size <= 0 {
		size = DefaultDonutSize
	}
	thickness := opts.Thickness
	if thickness <= 0 {
		thickness = float64(size) / 8
	}
	radius := (float64(size) - thickness) / 2
	if radius <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}
	total := 0.0
	for _, s := range slices {
		if s.Value < 0 || math.IsNaN(s.Value) {
			return "", fmt.Errorf("svg: slice %q must be non-negative", s.Label)
		}
		total += s.Value
	}
	trackColor := fallback(opts.TrackColor, "#e2e8f0")
	textColor := fallback(opts.TextColor, "#0f172a")
	circumference := 2 * math.Pi * radius
	center := float64(size) / 2

	titleID := makeID(opts.Title, "donut-title")
	descID := makeID(opts.Title, "donut-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", size, size, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Distribuição")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Participação por categoria")))
	fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\"></circle>", center, center, radius, trackColor, thickness)

	if total > 0 {
		offset := 0.0
		for _, s := range slices {
			if s.Value == 0 {
				continue
			}
			length := s.Value / total * circumference
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\" stroke-dasharray=\"%.2f %.2f\" stroke-dashoffset=\"%.2f\" transform=\"rotate(-90 %.2f %.2f)\"><title>%s: %s%%</title></circle>",
				center, center, radius, fallback(s.Color, ColorPrimary), thickness,
				length, circumference-length, -offset, center, center,
				template.HTMLEscapeString(s.Label), formatTick(math.Round(s.Value/total*1000)/10))
			offset += length
		}
	}

	if opts.CenterLabel != "" {
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"%.0f\" font-weight=\"700\" text-anchor=\"middle\">%s</text>", center, center+4, textColor, float64(size)/8, template.HTMLEscapeString(opts.CenterLabel))
	}
	if opts.CenterSub != "" {
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"%.0f\" text-anchor=\"middle\">%s</text>", center, center+float64(size)/8, ColorAxis, float64(size)/16, template.HTMLEscapeString(opts.CenterSub))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
