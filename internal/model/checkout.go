package model

import "time"

// CheckoutSessionTTL is how long a verification session stays claimable.
const CheckoutSessionTTL = 10 * time.Minute

// CheckoutSession mediates the send-code / verify-code / create-order
// sequence. Sessions live in Redis under the session id with a TTL, so
// expiry and cross-instance sharing are handled by the store.
type CheckoutSession struct {
	SessionID     string       `json:"session_id"`
	UserID        string       `json:"user_id"`
	DeliveryInfo  DeliveryInfo `json:"delivery_info"`
	ServiceType   string       `json:"service_type"`
	PaymentMethod string       `json:"payment_method"`
	Amount        float64      `json:"amount"`
	DeliveryFee   float64      `json:"delivery_fee"`
	CodeHash      string       `json:"code_hash"`
	Verified      bool         `json:"verified"`
	CreatedAt     time.Time    `json:"created_at"`
}
