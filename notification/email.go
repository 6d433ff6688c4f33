package notification

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sportshop/ecommerce/internal/repository"
)

// OrderConfirmationSubject builds the subject line for an order
// confirmation email.
func OrderConfirmationSubject(order repository.Order) string {
	return fmt.Sprintf("Order Confirmation - %s", order.ID.String())
}

// OrderConfirmationBody renders the order confirmation email as html.
func OrderConfirmationBody(order repository.Order) string {
	items := strings.Builder{}
	for _, item := range order.Items {
		subtotal := item.Price.Mul(decimal.NewFromInt32(item.Quantity))
		items.WriteString(fmt.Sprintf(`
    <tr>
      <td style="padding: 10px; border-bottom: 1px solid #ddd;">%s</td>
      <td style="padding: 10px; border-bottom: 1px solid #ddd; text-align: center;">%d</td>
      <td style="padding: 10px; border-bottom: 1px solid #ddd; text-align: right;">$%s</td>
      <td style="padding: 10px; border-bottom: 1px solid #ddd; text-align: right;">$%s</td>
    </tr>`,
			html.EscapeString(item.Name),
			item.Quantity,
			item.Price.StringFixed(2),
			subtotal.StringFixed(2),
		))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background-color: #2563eb; color: white; padding: 20px; text-align: center; }
    .content { padding: 20px; background-color: #f9fafb; }
    .order-info { background-color: white; padding: 15px; margin: 20px 0; border-radius: 5px; }
    table { width: 100%%; border-collapse: collapse; background-color: white; }
    th { background-color: #f3f4f6; padding: 10px; text-align: left; }
    .total { font-size: 18px; font-weight: bold; margin-top: 20px; text-align: right; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Order Confirmation</h1>
    </div>
    <div class="content">
      <p>Thank you for your order!</p>
      <div class="order-info">
        <p><strong>Order ID:</strong> %s</p>
        <p><strong>Date:</strong> %s</p>
        <p><strong>Shipping Address:</strong> %s</p>
        <p><strong>Payment Method:</strong> %s</p>
      </div>
      <h2>Order Details</h2>
      <table>
        <thead>
          <tr>
            <th>Product</th>
            <th style="text-align: center;">Quantity</th>
            <th style="text-align: right;">Price</th>
            <th style="text-align: right;">Subtotal</th>
          </tr>
        </thead>
        <tbody>%s
        </tbody>
      </table>
      <div class="total">
        Total: $%s
      </div>
      <p style="margin-top: 30px; color: #666;">
        If you have any questions about your order, please contact our support team.
      </p>
    </div>
  </div>
</body>
</html>`,
		order.ID.String(),
		order.CreatedAt.Format("Jan 2, 2006 3:04:05 PM"),
		html.EscapeString(order.ShippingAddress),
		html.EscapeString(order.PaymentMethod),
		items.String(),
		order.Total.StringFixed(2),
	)
}
