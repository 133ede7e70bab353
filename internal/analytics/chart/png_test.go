package chart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func samplePayload() *dataset.Payload {
	return &dataset.Payload{
		KPIs: dataset.KPIs{SuccessCount: 80, FailedCount: 20},
		DailyData: []dataset.DailyPoint{
			{Date: "2025-10-01", Success: 30, Failed: 5},
			{Date: "2025-10-02", Success: 25, Failed: 10},
		},
		BrandData: []dataset.BrandStat{
			{Brand: "visa", Total: 60, ApprovalRate: 83.3},
			{Brand: "elo", Total: 10, ApprovalRate: 40},
		},
		PeriodData: map[string][]dataset.HourlyPoint{
			"2025-10-02": {{Hour: "09", Success: 10, Failed: 4}},
		},
	}
}

func TestRenderCharts(t *testing.T) {
	p := samplePayload()
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, name, p, ""))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), "expected png output")
		})
	}
}

func TestRenderHourlyDrillDown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Daily, samplePayload(), "2025-10-02"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Render(&buf, "pie", samplePayload(), ""), ErrUnknownChart)
	assert.ErrorIs(t, Render(&buf, Approval, &dataset.Payload{}, ""), ErrNoData)
	assert.ErrorIs(t, Render(&buf, Daily, &dataset.Payload{}, ""), ErrNoData)
	assert.ErrorIs(t, Render(&buf, Brands, &dataset.Payload{}, ""), ErrNoData)
	assert.ErrorIs(t, Render(&buf, Approval, nil, ""), ErrNoData)
	assert.Zero(t, buf.Len())
}
