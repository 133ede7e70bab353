package svg

import "html/template"

// Renderer exposes the package chart functions as a value so handlers can
// depend on narrow interfaces.
type Renderer struct{}

// Line implements the dashboard line renderer.
func (Renderer) Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	return Line(width, height, series, labels, opts)
}

// StackedBars implements the dashboard bar renderer.
func (Renderer) StackedBars(width, height int, points []StackPoint, opts BarOpts) (template.HTML, error) {
	return StackedBars(width, height, points, opts)
}

// Donut implements the dashboard donut renderer.
func (Renderer) Donut(size int, slices []Slice, opts DonutOpts) (template.HTML, error) {
	return Donut(size, slices, opts)
}
