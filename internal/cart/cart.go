package cart

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	FreeShippingThreshold int64 = 500_000
	ShippingFee           int64 = 30_000
)

// Key identifies a cart line. Two lines differ only if one of the fields differs.
type Key struct {
	ProductID uuid.UUID
	Color     string
	Size      string
}

func KeyOf(l models.CartLine) Key {
	return Key{ProductID: l.ProductID, Color: l.Color, Size: l.Size}
}

// AppliedVoucher is the voucher state kept in the session next to the cart.
type AppliedVoucher struct {
	Code         string `json:"code"`
	Discount     int64  `json:"discount"`
	FreeShipping bool   `json:"free_shipping"`
}

func (v AppliedVoucher) Empty() bool { return v.Code == "" }

type Totals struct {
	Subtotal     int64 `json:"subtotal"`
	Shipping     int64 `json:"shipping"`
	Discount     int64 `json:"voucher_discount"`
	Total        int64 `json:"total"`
	FreeShipping bool  `json:"free_shipping"`
}

type Cart struct {
	Lines   []models.CartLine `json:"items"`
	Voucher AppliedVoucher    `json:"voucher"`
}

func New(lines []models.CartLine, v AppliedVoucher) *Cart {
	return &Cart{Lines: lines, Voucher: v}
}

func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

func (c *Cart) find(k Key) int {
	for i := range c.Lines {
		if KeyOf(c.Lines[i]) == k {
			return i
		}
	}
	return -1
}

// Line returns the line stored under k, or nil.
func (c *Cart) Line(k Key) *models.CartLine {
	if i := c.find(k); i >= 0 {
		return &c.Lines[i]
	}
	return nil
}

// AddLine increments the quantity of a line with the same key or appends the line.
func (c *Cart) AddLine(line models.CartLine) *models.CartLine {
	if i := c.find(KeyOf(line)); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return &c.Lines[i]
	}
	c.Lines = append(c.Lines, line)
	return &c.Lines[len(c.Lines)-1]
}

// RemoveLine drops every line matching the key and reports how many were removed.
func (c *Cart) RemoveLine(k Key) int {
	kept := c.Lines[:0]
	removed := 0
	for _, l := range c.Lines {
		if KeyOf(l) == k {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	c.Lines = kept
	return removed
}

func (c *Cart) AdjustQuantity(k Key, delta int64) (*models.CartLine, bool) {
	i := c.find(k)
	if i < 0 {
		return nil, false
	}
	c.Lines[i].Quantity = AdjustedQuantity(c.Lines[i].Quantity, delta)
	return &c.Lines[i], true
}

// AdjustedQuantity applies delta but never goes below 1.
func AdjustedQuantity(qty, delta int64) int64 {
	if next := qty + delta; next >= 1 {
		return next
	}
	return qty
}

func (c *Cart) Subtotal() int64 {
	return Subtotal(c.Lines)
}

func (c *Cart) Totals() Totals {
	return ComputeTotals(c.Lines, c.Voucher)
}

func Subtotal(lines []models.CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Price * l.Quantity
	}
	return sum
}

func ShippingFor(subtotal int64) int64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	return ShippingFee
}

func ComputeTotals(lines []models.CartLine, v AppliedVoucher) Totals {
	subtotal := Subtotal(lines)
	return TotalsFor(subtotal, v.Discount, v.FreeShipping)
}

// TotalsFor computes subtotal - discount + shipping floored at zero.
func TotalsFor(subtotal, discount int64, freeShipping bool) Totals {
	shipping := ShippingFor(subtotal)
	if freeShipping {
		shipping = 0
	}
	total := subtotal - discount + shipping
	if total < 0 {
		total = 0
	}
	return Totals{
		Subtotal:     subtotal,
		Shipping:     shipping,
		Discount:     discount,
		Total:        total,
		FreeShipping: freeShipping,
	}
}
