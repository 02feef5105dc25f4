package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		page, size  int
		offset, lim int
	}{
		{name: "first page", page: 1, size: 10, offset: 0, lim: 10},
		{name: "third page", page: 3, size: 10, offset: 20, lim: 10},
		{name: "zero page", page: 0, size: 5, offset: 0, lim: 5},
		{name: "zero size", page: 2, size: 0, offset: DefaultPageSize, lim: DefaultPageSize},
		{name: "too large size", page: 1, size: 1000, offset: 0, lim: DefaultPageSize},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			offset, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.lim, limit)
		})
	}
}

func TestMeta(t *testing.T) {
	t.Parallel()

	m := Meta(2, 10, 25)
	assert.Equal(t, int64(3), m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)

	m = Meta(3, 10, 25)
	assert.False(t, m.HasNext)
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}
