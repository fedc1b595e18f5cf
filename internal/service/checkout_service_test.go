package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/hashing"
	"storefront/internal/model"
)

var codePattern = regexp.MustCompile(`code is: (\d{6})`)

func extractCode(t *testing.T, body string) string {
	t.Helper()
	match := codePattern.FindStringSubmatch(body)
	require.Len(t, match, 2, "mail body should carry a 6-digit code")
	return match[1]
}

func testConfig() *config.Config {
	return &config.Config{
		Hashing: config.HashingConfig{
			Argon2MemoryCost:  1024,
			Argon2TimeCost:    1,
			Argon2Parallelism: 1,
			Peppers:           []string{"test-pepper"},
		},
	}
}

type checkoutFixture struct {
	svc      *CheckoutService
	sessions *fakeSessionStore
	users    *fakeUserRepo
	products *fakeProductRepo
	orders   *fakeOrderRepo
	mailer   *fakeMailer
	userID   string
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	users := newFakeUserRepo()
	products := newFakeProductRepo()
	orders := newFakeOrderRepo()
	sessions := newFakeSessionStore()
	mailer := &fakeMailer{}
	hasher := hashing.NewHasher(testConfig())

	user := &model.User{
		Name:            "Nimal Perera",
		Email:           "nimal@example.com",
		IsEmailVerified: true,
	}
	require.NoError(t, users.CreateUser(context.Background(), user))

	products.put(&model.Product{ProductID: "p1", Name: "Ceramic Mug", Price: 1200, Stock: 10})
	products.put(&model.Product{ProductID: "p2", Name: "Tea Sampler", Price: 2400, Stock: 3})

	require.NoError(t, users.SetCartItem(context.Background(), user.UserID, "p1", 2))
	require.NoError(t, users.SetCartItem(context.Background(), user.UserID, "p2", 1))

	svc := NewCheckoutService(sessions, users, products, orders, hasher, mailer, nil, nil)

	return &checkoutFixture{
		svc:      svc,
		sessions: sessions,
		users:    users,
		products: products,
		orders:   orders,
		mailer:   mailer,
		userID:   user.UserID,
	}
}

func testDeliveryInfo() model.DeliveryInfo {
	return model.DeliveryInfo{
		FirstName: "Nimal",
		LastName:  "Perera",
		Email:     "nimal@example.com",
		Phone:     "0771234567",
		Address:   "12 Galle Road",
		City:      "Colombo",
		District:  "Colombo",
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	sessionID, err := fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "standard", model.PaymentMethodCOD)
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	mailMsg, ok := fx.mailer.lastSent()
	require.True(t, ok)
	code := extractCode(t, mailMsg.Body)

	require.NoError(t, fx.svc.VerifyCode(ctx, fx.userID, sessionID, code))

	order, err := fx.svc.CreateOrder(ctx, fx.userID, sessionID)
	require.NoError(t, err)

	// Cart subtotal 2*1200 + 2400 = 4800, below the free threshold,
	// so delivery for Colombo standard adds 300.
	assert.InDelta(t, 5100.0, order.Amount, 0.001)
	assert.InDelta(t, 300.0, order.DeliveryFee, 0.001)
	assert.Equal(t, model.StatusOrderPlaced, order.Status)
	assert.Len(t, order.Items, 2)

	// Stock was claimed for both lines.
	p1, err := fx.products.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 8, p1.Stock)
	p2, err := fx.products.GetProduct(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 2, p2.Stock)

	// Cart is emptied after the order is placed.
	cart, err := fx.users.GetCart(ctx, fx.userID)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestCheckoutVerifyIsIdempotent(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	sessionID, err := fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "standard", model.PaymentMethodCOD)
	require.NoError(t, err)
	mailMsg, _ := fx.mailer.lastSent()
	code := extractCode(t, mailMsg.Body)

	require.NoError(t, fx.svc.VerifyCode(ctx, fx.userID, sessionID, code))
	require.NoError(t, fx.svc.VerifyCode(ctx, fx.userID, sessionID, code))
}

func TestCheckoutWrongCode(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	sessionID, err := fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "standard", model.PaymentMethodCOD)
	require.NoError(t, err)
	mailMsg, _ := fx.mailer.lastSent()
	code := extractCode(t, mailMsg.Body)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	assert.ErrorIs(t, fx.svc.VerifyCode(ctx, fx.userID, sessionID, wrong), ErrCodeMismatch)

	// The right code still works afterwards.
	assert.NoError(t, fx.svc.VerifyCode(ctx, fx.userID, sessionID, code))
}

func TestCheckoutAttemptLimit(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	sessionID, err := fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "standard", model.PaymentMethodCOD)
	require.NoError(t, err)
	mailMsg, _ := fx.mailer.lastSent()
	code := extractCode(t, mailMsg.Body)

	wrong := "999999"
	if wrong == code {
		wrong = "999998"
	}
	for i := 0; i < maxSessionAttempts; i++ {
		assert.ErrorIs(t, fx.svc.VerifyCode(ctx, fx.userID, sessionID, wrong), ErrCodeMismatch)
	}

	// The sixth attempt destroys the session even with the right code.
	assert.ErrorIs(t, fx.svc.VerifyCode(ctx, fx.userID, sessionID, code), ErrTooManyAttempts)
	assert.ErrorIs(t, fx.svc.VerifyCode(ctx, fx.userID, sessionID, code), ErrSessionExpired)
}

func TestCheckoutExpiredSession(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	sessionID, err := fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "standard", model.PaymentMethodCOD)
	require.NoError(t, err)
	fx.sessions.expire(sessionID)

	assert.ErrorIs(t, fx.svc.VerifyCode(ctx, fx.userID, sessionID, "123456"), ErrSessionExpired)

	_, err = fx.svc.CreateOrder(ctx, fx.userID, sessionID)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestCheckoutForeignSession(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	sessionID, err := fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "standard", model.PaymentMethodCOD)
	require.NoError(t, err)

	assert.ErrorIs(t, fx.svc.VerifyCode(ctx, "someone-else", sessionID, "123456"), ErrForbidden)
}

func TestCheckoutRejectsUnverifiedSession(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	sessionID, err := fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "standard", model.PaymentMethodCOD)
	require.NoError(t, err)

	_, err = fx.svc.CreateOrder(ctx, fx.userID, sessionID)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestCheckoutRequiresVerifiedEmail(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	unverified := &model.User{Name: "Kamala", Email: "kamala@example.com"}
	require.NoError(t, fx.users.CreateUser(ctx, unverified))
	require.NoError(t, fx.users.SetCartItem(ctx, unverified.UserID, "p1", 1))

	_, err := fx.svc.SendVerification(ctx, unverified.UserID, testDeliveryInfo(), "standard", model.PaymentMethodCOD)
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestCheckoutMailFailureRemovesSession(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()
	fx.mailer.fail = true

	_, err := fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "standard", model.PaymentMethodCOD)
	assert.ErrorIs(t, err, ErrMailDelivery)
	assert.Empty(t, fx.sessions.sessions)
}

func TestCheckoutInsufficientStockLeavesNothingBehind(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	sessionID, err := fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "standard", model.PaymentMethodCOD)
	require.NoError(t, err)
	mailMsg, _ := fx.mailer.lastSent()
	require.NoError(t, fx.svc.VerifyCode(ctx, fx.userID, sessionID, extractCode(t, mailMsg.Body)))

	// Someone else buys out p2 between verify and create.
	require.NoError(t, fx.products.SetStock(ctx, "p2", 0))

	_, err = fx.svc.CreateOrder(ctx, fx.userID, sessionID)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// No order was placed and the p1 claim was compensated.
	count, err := fx.orders.CountOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	p1, err := fx.products.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, p1.Stock)
}

func TestCheckoutDoubleCreatePlacesOneOrder(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	sessionID, err := fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "standard", model.PaymentMethodCOD)
	require.NoError(t, err)
	mailMsg, _ := fx.mailer.lastSent()
	require.NoError(t, fx.svc.VerifyCode(ctx, fx.userID, sessionID, extractCode(t, mailMsg.Body)))

	_, err = fx.svc.CreateOrder(ctx, fx.userID, sessionID)
	require.NoError(t, err)

	_, err = fx.svc.CreateOrder(ctx, fx.userID, sessionID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	count, err := fx.orders.CountOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCheckoutInvalidInputs(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	info := testDeliveryInfo()
	info.Phone = ""
	_, err := fx.svc.SendVerification(ctx, fx.userID, info, "standard", model.PaymentMethodCOD)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "overnight", model.PaymentMethodCOD)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = fx.svc.SendVerification(ctx, fx.userID, testDeliveryInfo(), "standard", "bitcoin")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateDirectOrder(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	order, err := fx.svc.CreateDirectOrder(ctx, fx.userID, testDeliveryInfo(), "standard")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentMethodCOD, order.PaymentMethod)
	assert.InDelta(t, 5100.0, order.Amount, 0.001)

	p1, err := fx.products.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 8, p1.Stock)

	// The cart was consumed; a second direct order has nothing to buy.
	_, err = fx.svc.CreateDirectOrder(ctx, fx.userID, testDeliveryInfo(), "standard")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestQuoteDeliveryFee(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	quote, err := fx.svc.QuoteDeliveryFee(ctx, fx.userID, "Kandy", "", "express")
	require.NoError(t, err)
	assert.Equal(t, 2, quote.Zone)
	assert.InDelta(t, 650.0, quote.Fee, 0.001)

	_, err = fx.svc.QuoteDeliveryFee(ctx, fx.userID, "Kandy", "", "sameDay")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
