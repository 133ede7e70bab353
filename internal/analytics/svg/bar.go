package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// StackedBars renders success over failed volume per label. Points with an
// Href are wrapped in a link so the column drills into its period.
func StackedBars(width, height int, points []StackPoint, opts BarOpts) (template.HTML, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("svg: points required")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}

	axisColor := fallback(opts.AxisColor, ColorAxis)
	gridColor := fallback(opts.GridColor, ColorGrid)
	successColor := fallback(opts.SuccessColor, ColorSuccess)
	failedColor := fallback(opts.FailedColor, ColorFailed)
	successLabel := fallback(opts.SuccessLabel, "Aprovadas")
	failedLabel := fallback(opts.FailedLabel, "Recusadas")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	maxVal := 0.0
	for _, p := range points {
		if total := clampZero(p.Success) + clampZero(p.Failed); total > maxVal {
			maxVal = total
		}
	}
	if almostEqual(maxVal, 0) {
		maxVal = 1
	}
	scale := chartHeight / maxVal
	base := padding + chartHeight

	groupWidth := chartWidth / float64(len(points))
	barWidth := groupWidth * 0.6

	titleID := makeID(opts.Title, "bar-title")
	descID := makeID(opts.Title, "bar-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Volume de transações")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Aprovadas e recusadas por período")))

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		y := base - ratio*chartHeight
		fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, template.HTMLEscapeString(formatTick(maxVal*ratio)))
	}

	fmt.Fprintf(&b, "<g stroke=\"%s\" aria-hidden=\"true\">", axisColor)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, base)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, base, padding+chartWidth, base)
	b.WriteString("</g>")

	every := labelStride(len(points), chartWidth)
	for i, p := range points {
		x := padding + float64(i)*groupWidth + (groupWidth-barWidth)/2
		okH := clampZero(p.Success) * scale
		failH := clampZero(p.Failed) * scale
		label := template.HTMLEscapeString(p.Label)

		if p.Href != "" {
			fmt.Fprintf(&b, "<a href=\"%s\" class=\"drill\">", template.HTMLEscapeString(p.Href))
		}
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"><title>%s %s: %s</title></rect>", x, base-okH, barWidth, okH, successColor, template.HTMLEscapeString(successLabel), label, formatTick(p.Success))
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"><title>%s %s: %s</title></rect>", x, base-okH-failH, barWidth, failH, failedColor, template.HTMLEscapeString(failedLabel), label, formatTick(p.Failed))
		if p.Href != "" {
			b.WriteString("</a>")
		}
		if i%every == 0 {
			fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x+barWidth/2, base+14, axisColor, label)
		}
	}

	legendY := padding - 12
	if legendY < 12 {
		legendY = 12
	}
	fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", padding, legendY-8, successColor)
	fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", padding+14, legendY, axisColor, template.HTMLEscapeString(successLabel))
	fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", padding+100, legendY-8, failedColor)
	fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", padding+114, legendY, axisColor, template.HTMLEscapeString(failedLabel))

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
