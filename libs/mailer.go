package libs

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"gopkg.in/gomail.v2"

	"storefront/models"
)

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(host, port, user, pass, from string) (*Mailer, error) {
	if host == "" || user == "" || pass == "" {
		return nil, errors.New("SMTP configuration missing")
	}

	p, err := strconv.Atoi(port)
	if err != nil {
		p = 587
	}
	if from == "" {
		from = user
	}

	return &Mailer{dialer: gomail.NewDialer(host, p, user, pass), from: from}, nil
}

func (m *Mailer) SendOrderConfirmation(to string, order models.Order) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Order #%d confirmation", order.ID))
	msg.SetBody("text/html", orderConfirmationBody(order))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func orderConfirmationBody(order models.Order) string {
	var items strings.Builder
	for _, p := range order.Products {
		fmt.Fprintf(&items, "<li>%s &mdash; %s</li>", html.EscapeString(p.Name), p.Price.StringFixed(2))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
    <h2>Thank you for your order!</h2>
    <p><strong>Order number:</strong> %d</p>
    <p><strong>Delivery address:</strong> %s</p>
    <ul>%s</ul>
    <p style="color: #666; font-size: 12px;">This is an automated email. Please do not reply.</p>
</body>
</html>`, order.ID, html.EscapeString(order.DeliveryAddress), items.String())
}
