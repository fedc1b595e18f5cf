package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/payment"
)

func paymentTestConfig() *config.Config {
	cfg := testConfig()
	cfg.PayHere = config.PayHereConfig{
		MerchantID:     "1210101",
		MerchantSecret: "merchant-secret",
		Currency:       "LKR",
		ReturnURL:      "https://shop.example.com/payment/return",
		CancelURL:      "https://shop.example.com/payment/cancel",
		NotifyURL:      "https://shop.example.com/api/payment/payhere-webhook",
		Sandbox:        true,
	}
	return cfg
}

func signNotification(n *payment.Notification, secret string) {
	hash := func(s string) string {
		sum := md5.Sum([]byte(s))
		return strings.ToUpper(hex.EncodeToString(sum[:]))
	}
	n.MD5Signature = hash(fmt.Sprintf("%s%s%s%s%d%s",
		n.MerchantID, n.OrderID, n.Amount, n.Currency, n.StatusCode, hash(secret)))
}

type paymentFixture struct {
	svc    *PaymentService
	orders *fakeOrderRepo
	cfg    *config.Config
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	cfg := paymentTestConfig()
	orders := newFakeOrderRepo()
	gateway := payment.NewGateway(cfg, nil)
	orderService := NewOrderService(orders, nil, nil)

	return &paymentFixture{
		svc:    NewPaymentService(orders, gateway, orderService),
		orders: orders,
		cfg:    cfg,
	}
}

func (fx *paymentFixture) placeOrder(t *testing.T, userID string, amount float64, method string) *model.Order {
	t.Helper()
	order := &model.Order{
		UserID:        userID,
		Amount:        amount,
		PaymentMethod: method,
		Status:        model.StatusOrderPlaced,
		Items:         []model.OrderItem{{ProductID: "p1", Name: "Ceramic Mug", Price: amount, Quantity: 1}},
	}
	require.NoError(t, fx.orders.CreateOrder(context.Background(), order))
	return order
}

func TestCreateCheckout(t *testing.T) {
	fx := newPaymentFixture(t)
	ctx := context.Background()
	order := fx.placeOrder(t, "user-1", 5100, model.PaymentMethodPayHere)

	params, err := fx.svc.CreateCheckout(ctx, "user-1", order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "1210101", params.MerchantID)
	assert.Equal(t, order.OrderID, params.OrderID)
	assert.Equal(t, "5100.00", params.Amount)
	assert.Equal(t, "LKR", params.Currency)
	assert.NotEmpty(t, params.Hash)

	_, err = fx.svc.CreateCheckout(ctx, "someone-else", order.OrderID)
	assert.ErrorIs(t, err, ErrForbidden)

	cod := fx.placeOrder(t, "user-1", 900, model.PaymentMethodCOD)
	_, err = fx.svc.CreateCheckout(ctx, "user-1", cod.OrderID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, fx.orders.MarkPaid(ctx, order.OrderID))
	_, err = fx.svc.CreateCheckout(ctx, "user-1", order.OrderID)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestHandleNotificationMarksPaid(t *testing.T) {
	fx := newPaymentFixture(t)
	ctx := context.Background()
	order := fx.placeOrder(t, "user-1", 5100, model.PaymentMethodPayHere)

	n := &payment.Notification{
		MerchantID: "1210101",
		OrderID:    order.OrderID,
		PaymentID:  "320072798100",
		Amount:     "5100.00",
		Currency:   "LKR",
		StatusCode: payment.StatusSuccess,
	}
	signNotification(n, "merchant-secret")

	require.NoError(t, fx.svc.HandleNotification(ctx, n))

	stored, err := fx.orders.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.True(t, stored.Paid)
}

func TestHandleNotificationRejectsBadSignature(t *testing.T) {
	fx := newPaymentFixture(t)
	ctx := context.Background()
	order := fx.placeOrder(t, "user-1", 5100, model.PaymentMethodPayHere)

	n := &payment.Notification{
		MerchantID:   "1210101",
		OrderID:      order.OrderID,
		Amount:       "5100.00",
		Currency:     "LKR",
		StatusCode:   payment.StatusSuccess,
		MD5Signature: "DEADBEEFDEADBEEFDEADBEEFDEADBEEF",
	}

	assert.ErrorIs(t, fx.svc.HandleNotification(ctx, n), ErrUnauthorized)

	stored, err := fx.orders.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.False(t, stored.Paid)
}

func TestHandleNotificationRejectsAmountMismatch(t *testing.T) {
	fx := newPaymentFixture(t)
	ctx := context.Background()
	order := fx.placeOrder(t, "user-1", 5100, model.PaymentMethodPayHere)

	// Correctly signed, but for a lower amount than the stored order.
	n := &payment.Notification{
		MerchantID: "1210101",
		OrderID:    order.OrderID,
		Amount:     "100.00",
		Currency:   "LKR",
		StatusCode: payment.StatusSuccess,
	}
	signNotification(n, "merchant-secret")

	assert.ErrorIs(t, fx.svc.HandleNotification(ctx, n), ErrInvalidInput)

	stored, err := fx.orders.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.False(t, stored.Paid)
}

func TestHandleNotificationNonSuccessStatuses(t *testing.T) {
	fx := newPaymentFixture(t)
	ctx := context.Background()
	order := fx.placeOrder(t, "user-1", 5100, model.PaymentMethodPayHere)

	for _, status := range []int{payment.StatusPending, payment.StatusCancelled, payment.StatusFailed, payment.StatusChargeback} {
		n := &payment.Notification{
			MerchantID: "1210101",
			OrderID:    order.OrderID,
			Amount:     "5100.00",
			Currency:   "LKR",
			StatusCode: status,
		}
		signNotification(n, "merchant-secret")
		assert.NoError(t, fx.svc.HandleNotification(ctx, n))
	}

	stored, err := fx.orders.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.False(t, stored.Paid)
}
