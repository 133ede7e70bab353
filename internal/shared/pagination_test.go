package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationClampsPage(t *testing.T) {
	p := NewPagination(9, 100, 250)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 3, p.TotalPages)
	start, end := p.Bounds()
	assert.Equal(t, 200, start)
	assert.Equal(t, 250, end)
	assert.True(t, p.HasPrev())
	assert.False(t, p.HasNext())
	assert.Equal(t, 3, p.NextPage())
	assert.Equal(t, 201, p.FirstItem())
	assert.Equal(t, 250, p.LastItem())
}

func TestNewPaginationEmpty(t *testing.T) {
	p := NewPagination(0, 0, -5)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Zero(t, p.TotalPages)
	assert.Zero(t, p.FirstItem())
	assert.Zero(t, p.LastItem())
	assert.Equal(t, 1, p.PrevPage())
	assert.False(t, p.HasNext())
}

func TestPaginationLastPageLength(t *testing.T) {
	cases := []struct {
		total, pages, lastLen int
	}{
		{1, 1, 1},
		{99, 1, 99},
		{100, 1, 100},
		{101, 2, 1},
		{200, 2, 100},
		{1000, 10, 100},
	}
	for _, tc := range cases {
		first := NewPagination(1, 100, tc.total)
		start, _ := first.Bounds()
		assert.Zero(t, start, "total=%d", tc.total)
		assert.Equal(t, tc.pages, first.TotalPages, "total=%d", tc.total)

		last := NewPagination(1<<30, 100, tc.total)
		assert.Equal(t, tc.pages, last.Page, "total=%d", tc.total)
		lo, hi := last.Bounds()
		assert.Equal(t, tc.lastLen, hi-lo, "total=%d", tc.total)
	}
}
