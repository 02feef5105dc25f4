package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(
	`Hello {{.ShippingInfo.Name}},

Your order {{.ID}} has been received.
{{range .Lines}}
  {{.Name}}{{if .Color}} / {{.Color}}{{end}}{{if .Size}} / {{.Size}}{{end}} x{{.Quantity}}  {{.Price}}
{{- end}}

Subtotal: {{.Subtotal}}
Shipping: {{.ShippingFee}}
{{- if .VoucherCode}}
Voucher {{.VoucherCode}}: -{{.VoucherDiscount}}
{{- end}}
Total: {{.Total}}

Payment: {{.PaymentMethod}}
Deliver to: {{.ShippingInfo.Address}} ({{.ShippingInfo.Phone}})
`))

// Mailer sends transactional mail over SMTP. With no host configured it only logs.
type Mailer struct {
	from string
	send func(*gomail.Message) error
}

func NewMailer(cfg SMTPConfig) *Mailer {
	m := &Mailer{from: cfg.From}
	if cfg.Host != "" {
		dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
		m.send = func(msg *gomail.Message) error { return dialer.DialAndSend(msg) }
	}
	return m
}

func (m *Mailer) Enabled() bool { return m.send != nil }

func (m *Mailer) buildConfirmation(order *models.Order) (*gomail.Message, error) {
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, order); err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", order.UserEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Order %s confirmed", order.ID))
	msg.SetBody("text/plain", body.String())
	return msg, nil
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	logger := logging.FromContext(ctx).With("svc", "mailer", "order_id", order.ID.String())

	msg, err := m.buildConfirmation(order)
	if err != nil {
		return err
	}
	if !m.Enabled() {
		logger.Debug("smtp not configured, confirmation skipped", "to", order.UserEmail)
		return nil
	}
	if err := m.send(msg); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}

	logger.Info("confirmation sent", "to", order.UserEmail)
	return nil
}
