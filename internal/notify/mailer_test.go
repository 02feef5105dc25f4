package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/Skotchmaster/storefront/internal/models"
)

func testOrder() *models.Order {
	return &models.Order{
		ID:        uuid.New(),
		UserEmail: "buyer@example.com",
		Lines: []models.OrderLine{
			{Name: "Linen Shirt", Color: "white", Size: "M", Quantity: 2, Price: 250_000},
		},
		ShippingInfo:    models.ShippingInfo{Name: "Lan", Phone: "0900000000", Address: "1 Le Loi"},
		Subtotal:        500_000,
		VoucherCode:     "SALE20",
		VoucherDiscount: 100_000,
		Total:           400_000,
		PaymentMethod:   models.PaymentMethodCOD,
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	t.Parallel()

	var sent *gomail.Message
	m := &Mailer{from: "shop@example.com", send: func(msg *gomail.Message) error {
		sent = msg
		return nil
	}}

	order := testOrder()
	require.NoError(t, m.SendOrderConfirmation(context.Background(), order))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"buyer@example.com"}, sent.GetHeader("To"))

	var buf bytes.Buffer
	_, err := sent.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Linen Shirt / white / M x2")
	assert.Contains(t, buf.String(), "Voucher SALE20: -100000")
	assert.Contains(t, buf.String(), "Total: 400000")
}

func TestSendOrderConfirmationDisabled(t *testing.T) {
	t.Parallel()

	m := NewMailer(SMTPConfig{From: "shop@example.com"})
	assert.False(t, m.Enabled())
	assert.NoError(t, m.SendOrderConfirmation(context.Background(), testOrder()))
}

func TestSendOrderConfirmationError(t *testing.T) {
	t.Parallel()

	m := &Mailer{from: "shop@example.com", send: func(*gomail.Message) error { return errors.New("dial tcp: refused") }}
	err := m.SendOrderConfirmation(context.Background(), testOrder())
	assert.ErrorContains(t, err, "send confirmation")
}
