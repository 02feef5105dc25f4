package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func line(id uuid.UUID, color, size string, qty, price int64) models.CartLine {
	return models.CartLine{ProductID: id, Color: color, Size: size, Quantity: qty, Price: price, Name: "tee"}
}

func TestAddLine_SameKeySumsQuantity(t *testing.T) {
	t.Parallel()

	pid := uuid.New()
	c := New(nil, AppliedVoucher{})
	for _, q := range []int64{1, 2, 3, 4} {
		c.AddLine(line(pid, "White", "M", q, 199_000))
	}

	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(10), c.Lines[0].Quantity)
}

func TestAddLine_DifferentKeysStaySeparate(t *testing.T) {
	t.Parallel()

	pid := uuid.New()
	c := New(nil, AppliedVoucher{})
	c.AddLine(line(pid, "White", "M", 1, 100))
	c.AddLine(line(pid, "Black", "M", 1, 100))
	c.AddLine(line(pid, "White", "L", 1, 100))
	c.AddLine(line(uuid.New(), "White", "M", 1, 100))

	assert.Len(t, c.Lines, 4)
}

func TestRemoveLine_ExactTriple(t *testing.T) {
	t.Parallel()

	pid := uuid.New()
	c := New([]models.CartLine{
		line(pid, "White", "M", 1, 100),
		line(pid, "White", "L", 1, 100),
	}, AppliedVoucher{})

	assert.Equal(t, 0, c.RemoveLine(Key{ProductID: pid, Color: "Black", Size: "M"}))
	assert.Equal(t, 1, c.RemoveLine(Key{ProductID: pid, Color: "White", Size: "M"}))
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "L", c.Lines[0].Size)
}

func TestAdjustQuantity(t *testing.T) {
	t.Parallel()

	pid := uuid.New()
	k := Key{ProductID: pid, Color: "White", Size: "M"}
	c := New([]models.CartLine{line(pid, "White", "M", 1, 100)}, AppliedVoucher{})

	l, ok := c.AdjustQuantity(k, -1)
	require.True(t, ok)
	assert.Equal(t, int64(1), l.Quantity, "decrease at 1 is a no-op")
	require.Len(t, c.Lines, 1)

	l, _ = c.AdjustQuantity(k, 1)
	assert.Equal(t, int64(2), l.Quantity)
	l, _ = c.AdjustQuantity(k, -1)
	assert.Equal(t, int64(1), l.Quantity)

	_, ok = c.AdjustQuantity(Key{ProductID: uuid.New()}, 1)
	assert.False(t, ok)
}

func TestComputeTotals_Shipping(t *testing.T) {
	t.Parallel()

	pid := uuid.New()
	tests := []struct {
		name     string
		lines    []models.CartLine
		voucher  AppliedVoucher
		shipping int64
		total    int64
	}{
		{name: "below threshold", lines: []models.CartLine{line(pid, "", "", 2, 199_000)}, shipping: 30_000, total: 428_000},
		{name: "at threshold", lines: []models.CartLine{line(pid, "", "", 1, 500_000)}, shipping: 0, total: 500_000},
		{name: "above threshold", lines: []models.CartLine{line(pid, "", "", 3, 199_000)}, shipping: 0, total: 597_000},
		{
			name:     "shipping waiver",
			lines:    []models.CartLine{line(pid, "", "", 1, 200_000)},
			voucher:  AppliedVoucher{Code: "FREESHIP", Discount: 30_000, FreeShipping: true},
			shipping: 0,
			total:    170_000,
		},
		{
			name:     "discount larger than total floors at zero",
			lines:    []models.CartLine{line(pid, "", "", 1, 10_000)},
			voucher:  AppliedVoucher{Code: "GIAM50K", Discount: 50_000},
			shipping: 30_000,
			total:    0,
		},
		{name: "empty", shipping: 30_000, total: 30_000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ComputeTotals(tt.lines, tt.voucher)
			assert.Equal(t, tt.shipping, got.Shipping)
			assert.Equal(t, tt.total, got.Total)
			assert.Equal(t, tt.voucher.Discount, got.Discount)
		})
	}
}
