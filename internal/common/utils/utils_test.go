package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringPtr(t *testing.T) {
	p := StringPtr("SF123")
	assert.Equal(t, "SF123", *p)
	assert.Equal(t, "SF123", SafeString(p))
	assert.Equal(t, "", SafeString(nil))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, Unique([]int64{3, 1, 3, 2, 1}))
	assert.Empty(t, Unique([]int64{}))
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name         string
		in           Pagination
		wantPage     int
		wantPageSize int
		wantOffset   int
	}{
		{"defaults", Pagination{}, 1, 10, 0},
		{"second page", Pagination{Page: 2, PageSize: 20}, 2, 20, 20},
		{"clamped", Pagination{Page: 1, PageSize: 500}, 1, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPageSize, p.PageSize)
			assert.Equal(t, tt.wantOffset, p.GetOffset())
			assert.Equal(t, tt.wantPageSize, p.GetLimit())
		})
	}
}

func TestPagination_GetTotalPages(t *testing.T) {
	p := Pagination{Page: 1, PageSize: 10}
	assert.Equal(t, 0, p.GetTotalPages())
	p.Total = 21
	assert.Equal(t, 3, p.GetTotalPages())
	p.Total = 20
	assert.Equal(t, 2, p.GetTotalPages())
}
