package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
)

var orderConfirmation = template.Must(template.New("order").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2563eb;">Thank you for your order, {{.Name}}</h2>
  <p>Your order <strong>{{.OrderID}}</strong> has been placed and is now pending.</p>
  <table style="width: 100%; border-collapse: collapse;">
    <tr><th align="left">Item</th><th align="left">Color</th><th align="right">Qty</th><th align="right">Price</th></tr>
    {{- range .Products}}
    <tr><td>{{.Name}}</td><td>{{.Color}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.UnitPrice.StringFixed 2}}</td></tr>
    {{- end}}
  </table>
  <p style="font-size: 1.1em;">Total: <strong>{{.TotalPrice.StringFixed 2}}</strong></p>
  <p>We will email you again when it ships.</p>
</div>`))

// OrderConfirmation renders the checkout confirmation for o.
func OrderConfirmation(from string, o *domain.Order) (Message, error) {
	var body bytes.Buffer
	if err := orderConfirmation.Execute(&body, o); err != nil {
		return Message{}, fmt.Errorf("render order confirmation: %w", err)
	}
	return Message{
		From:    from,
		To:      o.Email,
		Subject: fmt.Sprintf("Order %s confirmed", o.OrderID),
		HTML:    body.String(),
	}, nil
}
