package mail

import (
	"fmt"
	"strings"

	"storefront/internal/model"
)

// Subjects for the transactional mail the store sends.
const (
	SubjectEmailVerification = "Verify your email address"
	SubjectOrderVerification = "Confirm your order"
	SubjectOrderConfirmation = "Your order has been placed"
	SubjectPasswordReset     = "Reset your password"
)

func EmailVerificationBody(name, code string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nYour email verification code is: %s\n\nThe code expires in 15 minutes.\n",
		name, code)
}

func OrderVerificationBody(name, code string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nYour order confirmation code is: %s\n\nThe code expires in 10 minutes. If you did not start a checkout, ignore this mail.\n",
		name, code)
}

func PasswordResetBody(name, code string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nYour password reset code is: %s\n\nThe code expires in 15 minutes. If you did not request a reset, ignore this mail.\n",
		name, code)
}

func OrderConfirmationBody(o *model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nYour order %s has been placed.\n\n", o.DeliveryInfo.FirstName, o.OrderID)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "  %s", item.Name)
		if item.Size != "" {
			fmt.Fprintf(&b, " (%s)", item.Size)
		}
		fmt.Fprintf(&b, " x%d - %.2f\n", item.Quantity, item.Price*float64(item.Quantity))
	}
	fmt.Fprintf(&b, "\nDelivery fee: %.2f\nTotal: %.2f\n", o.DeliveryFee, o.Amount)
	fmt.Fprintf(&b, "Payment method: %s\n", o.PaymentMethod)
	return b.String()
}
