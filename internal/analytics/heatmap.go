package analytics

import (
	"math"
	"strconv"

	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// Text colours picked by background brightness.
const (
	TextDark  = "#0f172a"
	TextLight = "#ffffff"

	brightnessThreshold = 128
)

// Bucket is a heat cell colour pair.
type Bucket struct {
	Level      int
	Background string
	Text       string
}

type threshold struct {
	below      float64
	background string
}

// heatThresholds is ordered; the first entry holds exact zero only.
var heatThresholds = []threshold{
	{below: 0, background: "#f8fafc"},
	{below: 20, background: "#ffe4e6"},
	{below: 50, background: "#fda4af"},
	{below: 80, background: "#fb7185"},
	{below: 100, background: "#e11d48"},
	{below: math.Inf(1), background: "#881337"},
}

// Palette returns the heat backgrounds from lightest to critical.
func Palette() []string {
	out := make([]string, len(heatThresholds))
	for i, t := range heatThresholds {
		out[i] = t.background
	}
	return out
}

// HeatColor maps a count to its bucket. Negative or non-finite input falls
// into the lowest bucket.
func HeatColor(v float64) Bucket {
	level := 0
	if !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 {
		for i := 1; i < len(heatThresholds); i++ {
			if v < heatThresholds[i].below {
				level = i
				break
			}
		}
		if math.IsInf(v, 1) || level == 0 {
			level = len(heatThresholds) - 1
		}
	}
	bg := heatThresholds[level].background
	return Bucket{Level: level, Background: bg, Text: ContrastText(bg)}
}

// ContrastText returns the legible text colour for a #rrggbb background.
func ContrastText(hex string) string {
	if Brightness(hex) > brightnessThreshold {
		return TextDark
	}
	return TextLight
}

// Brightness is the perceived brightness (0-255) of a #rrggbb colour.
func Brightness(hex string) float64 {
	if len(hex) != 7 || hex[0] != '#' {
		return 255
	}
	r, errR := strconv.ParseUint(hex[1:3], 16, 8)
	g, errG := strconv.ParseUint(hex[3:5], 16, 8)
	b, errB := strconv.ParseUint(hex[5:7], 16, 8)
	if errR != nil || errG != nil || errB != nil {
		return 255
	}
	return float64(r*299+g*587+b*114) / 1000
}

// HeatCell is one rendered heatmap cell.
type HeatCell struct {
	Column string
	Value  float64
	Bucket Bucket
}

// HeatRow is one rendered heatmap row.
type HeatRow struct {
	Name  string
	Cells []HeatCell
	Total float64
}

// Heatmap is the rendered brand by column matrix.
type Heatmap struct {
	Columns []string
	Rows    []HeatRow
	Max     float64
}

// Empty reports whether there is nothing to draw.
func (h Heatmap) Empty() bool {
	return len(h.Columns) == 0 || len(h.Rows) == 0
}

// BuildHeatmap looks up every row by column, defaulting absent cells to zero.
func BuildHeatmap(rows []dataset.HeatmapRow, columns []string) Heatmap {
	hm := Heatmap{Columns: append([]string(nil), columns...)}
	if len(columns) == 0 {
		return hm
	}
	hm.Rows = make([]HeatRow, 0, len(rows))
	for _, row := range rows {
		out := HeatRow{Name: row.Name, Cells: make([]HeatCell, 0, len(columns))}
		for _, col := range columns {
			v := row.Value(col)
			out.Cells = append(out.Cells, HeatCell{Column: col, Value: v, Bucket: HeatColor(v)})
			out.Total += v
			if v > hm.Max {
				hm.Max = v
			}
		}
		hm.Rows = append(hm.Rows, out)
	}
	return hm
}
