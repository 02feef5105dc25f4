package transport

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/Skotchmaster/storefront/internal/models"
)

type OrderRow struct {
	ID              string `csv:"order_id"`
	CreatedAt       string `csv:"created_at"`
	CustomerEmail   string `csv:"customer_email"`
	CustomerName    string `csv:"customer_name"`
	Phone           string `csv:"phone"`
	Address         string `csv:"address"`
	Items           int64  `csv:"items"`
	Subtotal        int64  `csv:"subtotal"`
	Shipping        int64  `csv:"shipping"`
	VoucherCode     string `csv:"voucher_code"`
	VoucherDiscount int64  `csv:"voucher_discount"`
	Total           int64  `csv:"total"`
	PaymentMethod   string `csv:"payment_method"`
	PaymentStatus   string `csv:"payment_status"`
	Status          string `csv:"status"`
}

func OrderRows(orders []models.Order) []*OrderRow {
	rows := make([]*OrderRow, 0, len(orders))
	for _, o := range orders {
		var items int64
		for _, l := range o.Lines {
			items += l.Quantity
		}
		rows = append(rows, &OrderRow{
			ID:              o.ID.String(),
			CreatedAt:       o.CreatedAt.UTC().Format(time.RFC3339),
			CustomerEmail:   o.UserEmail,
			CustomerName:    o.ShippingInfo.Name,
			Phone:           o.ShippingInfo.Phone,
			Address:         o.ShippingInfo.Address,
			Items:           items,
			Subtotal:        o.Subtotal,
			Shipping:        o.ShippingFee,
			VoucherCode:     o.VoucherCode,
			VoucherDiscount: o.VoucherDiscount,
			Total:           o.Total,
			PaymentMethod:   o.PaymentMethod,
			PaymentStatus:   o.PaymentStatus,
			Status:          o.Status,
		})
	}
	return rows
}

// WriteOrdersCSV writes a header row followed by one row per order.
func WriteOrdersCSV(w io.Writer, orders []models.Order) error {
	return gocsv.Marshal(OrderRows(orders), w)
}
