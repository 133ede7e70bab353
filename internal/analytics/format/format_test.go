package format

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", Currency(1234.56))
	assert.Equal(t, "R$ 0,00", Currency(0))
	assert.Equal(t, "-R$ 10,50", Currency(-10.5))
	assert.Equal(t, "R$ 0,00", Currency(math.NaN()))
	assert.Equal(t, "R$ 20,25", CurrencyDecimal(decimal.RequireFromString("20.245")))
}

func TestNumberAndPercent(t *testing.T) {
	assert.Equal(t, "12.345", Number(12345))
	assert.Equal(t, "12,5%", Percent(12.5))
	assert.Equal(t, "33,33%", Percent(33.3333))
	assert.Equal(t, "80%", Percent(80))
}

func TestRateEchoesValue(t *testing.T) {
	assert.Equal(t, "80%", Rate(80))
	assert.Equal(t, "66.67%", Rate(66.67))
	assert.Equal(t, "0%", Rate(math.Inf(1)))
}

func TestDates(t *testing.T) {
	assert.Equal(t, "01 de out., 2025", Date("2025-10-01"))
	assert.Equal(t, "31 de dez., 2024", Date("2024-12-31"))
	assert.Equal(t, "01/10", ShortDate("2025-10-01"))
	assert.Equal(t, "01/10/2025 10:00", DateTime("2025-10-01 10:00:00.123+00"))
	assert.Equal(t, "not a date", Date("not a date"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 50))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "ação...", Truncate("açãozinha", 4))
}
