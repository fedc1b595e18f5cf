package payment

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/util"
)

// PayHere gateway status codes delivered on the notify webhook.
const (
	StatusSuccess    = 2
	StatusPending    = 0
	StatusCancelled  = -1
	StatusFailed     = -2
	StatusChargeback = -3
)

// CheckoutParams is the parameter set the frontend posts to the hosted
// PayHere checkout page.
type CheckoutParams struct {
	MerchantID string  `json:"merchant_id"`
	ReturnURL  string  `json:"return_url"`
	CancelURL  string  `json:"cancel_url"`
	NotifyURL  string  `json:"notify_url"`
	OrderID    string  `json:"order_id"`
	Items      string  `json:"items"`
	Currency   string  `json:"currency"`
	Amount     string  `json:"amount"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	Country    string  `json:"country"`
	Hash       string  `json:"hash"`
	Sandbox    bool    `json:"sandbox"`
	RawAmount  float64 `json:"-"`
}

// Notification is the form payload PayHere posts to the notify URL.
type Notification struct {
	MerchantID    string
	OrderID       string
	PaymentID     string
	Amount        string
	Currency      string
	StatusCode    int
	MD5Signature  string
	StatusMessage string
}

// Gateway builds hosted-checkout parameters and verifies webhook
// signatures for the PayHere gateway.
type Gateway struct {
	merchantID     string
	merchantSecret string
	currency       string
	returnURL      string
	cancelURL      string
	notifyURL      string
	sandbox        bool
}

func NewGateway(cfg *config.Config, logger *zap.Logger) *Gateway {
	payhereConfig := cfg.PayHere
	return &Gateway{
		merchantID:     payhereConfig.MerchantID,
		merchantSecret: payhereConfig.MerchantSecret,
		currency:       payhereConfig.Currency,
		returnURL:      payhereConfig.ReturnURL,
		cancelURL:      payhereConfig.CancelURL,
		notifyURL:      payhereConfig.NotifyURL,
		sandbox:        payhereConfig.Sandbox,
	}
}

// BuildCheckoutParams assembles the signed parameter set for an order.
func (g *Gateway) BuildCheckoutParams(o *model.Order) *CheckoutParams {
	amount := formatAmount(o.Amount)

	items := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, item.Name)
	}

	params := &CheckoutParams{
		MerchantID: g.merchantID,
		ReturnURL:  g.returnURL,
		CancelURL:  g.cancelURL,
		NotifyURL:  g.notifyURL,
		OrderID:    o.OrderID,
		Items:      strings.Join(items, ", "),
		Currency:   g.currency,
		Amount:     amount,
		FirstName:  o.DeliveryInfo.FirstName,
		LastName:   o.DeliveryInfo.LastName,
		Email:      o.DeliveryInfo.Email,
		Phone:      o.DeliveryInfo.Phone,
		Address:    o.DeliveryInfo.Address,
		City:       o.DeliveryInfo.City,
		Country:    "Sri Lanka",
		Sandbox:    g.sandbox,
		RawAmount:  o.Amount,
	}
	params.Hash = g.checkoutHash(o.OrderID, amount)

	return params
}

// checkoutHash computes the PayHere request signature:
// md5(merchant_id + order_id + amount + currency + md5(secret)),
// uppercase hex at every step.
func (g *Gateway) checkoutHash(orderID, amount string) string {
	secretHash := upperMD5(g.merchantSecret)
	return upperMD5(g.merchantID + orderID + amount + g.currency + secretHash)
}

// VerifyNotification checks the webhook signature:
// md5(merchant_id + order_id + amount + currency + status_code +
// md5(secret)). Unsigned or mis-signed notifications are rejected.
func (g *Gateway) VerifyNotification(n *Notification) error {
	if n.MerchantID != g.merchantID {
		return fmt.Errorf("merchant id mismatch")
	}

	secretHash := upperMD5(g.merchantSecret)
	expected := upperMD5(fmt.Sprintf("%s%s%s%s%d%s",
		n.MerchantID, n.OrderID, n.Amount, n.Currency, n.StatusCode, secretHash))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(n.MD5Signature)) != 1 {
		util.Warn("PayHere notification signature mismatch",
			zap.String("order_id", n.OrderID),
			zap.Int("status_code", n.StatusCode))
		return fmt.Errorf("invalid notification signature")
	}

	return nil
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

func upperMD5(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
