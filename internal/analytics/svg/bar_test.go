package svg

import (
	"strings"
	"testing"
)

func TestStackedBarsProducesSVG(t *testing.T) {
	html, err := StackedBars(420, 220, []StackPoint{
		{Label: "01/10", Success: 30, Failed: 5},
		{Label: "02/10", Success: 25, Failed: 10, Href: "/?period=2025-10-02#overview"},
	}, BarOpts{Title: "Volume diário"})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if strings.Count(output, "<rect") != 6 {
		t.Fatalf("expected two stacked bars plus legend swatches")
	}
	if strings.Count(output, "<a href=") != 1 {
		t.Fatalf("expected only the drillable column to be linked")
	}
	if !strings.Contains(output, "Aprovadas") || !strings.Contains(output, "Recusadas") {
		t.Fatalf("expected legend labels")
	}
}

func TestStackedBarsRequiresPoints(t *testing.T) {
	if _, err := StackedBars(420, 220, nil, BarOpts{}); err == nil {
		t.Fatalf("expected error for empty points")
	}
}
