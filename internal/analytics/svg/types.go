package svg

// LineOpts customises the approval line renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	TargetColor string
	// Target draws a dashed reference line when positive.
	Target float64
	// Ceiling fixes the top of the value axis; zero scales to the data.
	Ceiling   float64
	Unit      string
	Padding   float64
	ShowDots  bool
	TickCount int
}

// BarOpts customises the stacked volume renderer.
type BarOpts struct {
	Title        string
	Description  string
	SuccessLabel string
	FailedLabel  string
	SuccessColor string
	FailedColor  string
	AxisColor    string
	GridColor    string
	Padding      float64
	TickCount    int
}

// StackPoint is one stacked column; Href makes the column a drill-down link.
type StackPoint struct {
	Label   string
	Success float64
	Failed  float64
	Href    string
}

// DonutOpts customises the donut renderer.
type DonutOpts struct {
	Title       string
	Description string
	CenterLabel string
	CenterSub   string
	Thickness   float64
	TrackColor  string
	TextColor   string
}

// Slice is one donut segment.
type Slice struct {
	Label string
	Value float64
	Color string
}

// Defaults for the dashboard charts.
const (
	DefaultWidth     = 720
	DefaultHeight    = 240
	DefaultPadding   = 28.0
	DefaultTicks     = 5
	DefaultDonutSize = 180
)

// Dashboard palette shared with the templates.
const (
	ColorSuccess = "#16a34a"
	ColorFailed  = "#dc2626"
	ColorPrimary = "#2563eb"
	ColorTarget  = "#f59e0b"
	ColorAxis    = "#475569"
	ColorGrid    = "#cbd5e1"
)
