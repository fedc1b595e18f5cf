package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/analytics"
	"storefront/internal/events"
	"storefront/internal/hashing"
	"storefront/internal/mail"
	"storefront/internal/model"
	redisrepo "storefront/internal/repository/redis"
	"storefront/internal/repository/scylla"
	"storefront/internal/shipping"
	"storefront/internal/util"
)

const maxSessionAttempts = 5

// CheckoutService drives the order verification workflow: send a code,
// verify it, then place the order from the caller's cart.
type CheckoutService struct {
	sessions redisrepo.CheckoutSessionStore
	users    scylla.UserRepository
	products scylla.ProductRepository
	orders   scylla.OrderRepository
	hasher   *hashing.Hasher
	mailer   mail.Mailer
	events   *events.Publisher
	metrics  *analytics.Recorder
}

func NewCheckoutService(
	sessions redisrepo.CheckoutSessionStore,
	users scylla.UserRepository,
	products scylla.ProductRepository,
	orders scylla.OrderRepository,
	hasher *hashing.Hasher,
	mailer mail.Mailer,
	eventPublisher *events.Publisher,
	metrics *analytics.Recorder,
) *CheckoutService {
	return &CheckoutService{
		sessions: sessions,
		users:    users,
		products: products,
		orders:   orders,
		hasher:   hasher,
		mailer:   mailer,
		events:   eventPublisher,
		metrics:  metrics,
	}
}

// SendVerification opens a checkout session for the caller's cart and
// mails a confirmation code. Returns the session id the client must
// present on verify and create.
func (s *CheckoutService) SendVerification(ctx context.Context, userID string, info model.DeliveryInfo, serviceType, paymentMethod string) (string, error) {
	if err := validateDeliveryInfo(&info); err != nil {
		return "", err
	}
	if !model.IsValidPaymentMethod(paymentMethod) {
		return "", ErrInvalidInput
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !user.IsEmailVerified {
		return "", ErrNotVerified
	}

	subtotal, _, err := s.priceCart(ctx, userID)
	if err != nil {
		return "", err
	}

	quote, ok := shipping.CalculateFee(info.District, info.City, subtotal, serviceType)
	if !ok {
		return "", ErrInvalidInput
	}

	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	codeHash, err := s.hasher.HashCode(code)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}

	session := &model.CheckoutSession{
		SessionID:     uuid.New().String(),
		UserID:        userID,
		DeliveryInfo:  info,
		ServiceType:   serviceType,
		PaymentMethod: paymentMethod,
		Amount:        subtotal + quote.Fee,
		DeliveryFee:   quote.Fee,
		CodeHash:      codeHash,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return "", err
	}

	body := mail.OrderVerificationBody(user.Name, code)
	if err := s.mailer.Send(user.Email, mail.SubjectOrderVerification, body); err != nil {
		// Undo the session so a client cannot verify against a code
		// that was never delivered
		if delErr := s.sessions.DeleteSession(ctx, session.SessionID); delErr != nil {
			util.Warn("Failed to remove session after mail failure",
				zap.String("session_id", session.SessionID),
				zap.Error(delErr))
		}
		return "", ErrMailDelivery
	}

	util.Info("Checkout verification sent",
		zap.String("session_id", session.SessionID),
		zap.String("user_id", userID),
		zap.Float64("amount", session.Amount))

	return session.SessionID, nil
}

// VerifyCode checks the code against the session. Re-verifying an
// already verified session with the correct code succeeds.
func (s *CheckoutService) VerifyCode(ctx context.Context, userID, sessionID, code string) error {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	attempts, err := s.sessions.IncrementAttempts(ctx, sessionID)
	if err != nil {
		return err
	}
	if attempts > maxSessionAttempts {
		if delErr := s.sessions.DeleteSession(ctx, sessionID); delErr != nil {
			util.Warn("Failed to remove session after attempt limit",
				zap.String("session_id", sessionID),
				zap.Error(delErr))
		}
		return ErrTooManyAttempts
	}

	ok, err := s.hasher.VerifyCode(code, session.CodeHash)
	if err != nil || !ok {
		return ErrCodeMismatch
	}

	if session.Verified {
		return nil
	}

	session.Verified = true
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		if errors.Is(err, redisrepo.ErrSessionNotFound) {
			return ErrSessionExpired
		}
		return err
	}

	util.Info("Checkout session verified", zap.String("session_id", sessionID))
	return nil
}

// CreateOrder consumes a verified session and places the order from the
// caller's current cart. The session is claimed atomically, so a
// double-submitted create places at most one order.
func (s *CheckoutService) CreateOrder(ctx context.Context, userID, sessionID string) (*model.Order, error) {
	session, err := s.sessions.ConsumeSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redisrepo.ErrSessionNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	if session.UserID != userID {
		// Consuming a foreign session destroys it; the owner retries
		return nil, ErrForbidden
	}
	if !session.Verified {
		return nil, ErrSessionInvalid
	}

	items, subtotal, err := s.cartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	}

	// All-or-nothing stock claim: decrement every line, compensating
	// the ones already taken if any line comes up short
	if err := s.claimStock(ctx, items); err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:        userID,
		Items:         items,
		Amount:        subtotal + session.DeliveryFee,
		DeliveryFee:   session.DeliveryFee,
		DeliveryInfo:  session.DeliveryInfo,
		ServiceType:   session.ServiceType,
		PaymentMethod: session.PaymentMethod,
		Status:        model.StatusOrderPlaced,
	}
	return s.placeOrder(ctx, userID, order, items)
}

// CreateDirectOrder places a cash-on-delivery order from the caller's
// cart without the email verification step.
func (s *CheckoutService) CreateDirectOrder(ctx context.Context, userID string, info model.DeliveryInfo, serviceType string) (*model.Order, error) {
	if err := validateDeliveryInfo(&info); err != nil {
		return nil, err
	}

	items, subtotal, err := s.cartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	}

	quote, ok := shipping.CalculateFee(info.District, info.City, subtotal, serviceType)
	if !ok {
		return nil, ErrInvalidInput
	}

	if err := s.claimStock(ctx, items); err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:        userID,
		Items:         items,
		Amount:        subtotal + quote.Fee,
		DeliveryFee:   quote.Fee,
		DeliveryInfo:  info,
		ServiceType:   serviceType,
		PaymentMethod: model.PaymentMethodCOD,
		Status:        model.StatusOrderPlaced,
	}
	return s.placeOrder(ctx, userID, order, items)
}

// placeOrder persists a stock-claimed order, clears the cart, and fires
// the follow-up event, metric, and confirmation mail.
func (s *CheckoutService) placeOrder(ctx context.Context, userID string, order *model.Order, items []model.OrderItem) (*model.Order, error) {
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.releaseStock(ctx, items)
		return nil, err
	}

	if err := s.users.ClearCart(ctx, userID); err != nil {
		util.Warn("Failed to clear cart after order",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	s.events.OrderPlaced(ctx, order)
	s.metrics.RecordOrderEvent(ctx, events.TypeOrderPlaced, order.OrderID,
		order.UserID, order.Amount, order.PaymentMethod)

	// Confirmation mail is best-effort
	if user, err := s.users.GetUserByID(ctx, userID); err == nil {
		if mailErr := s.mailer.Send(user.Email, mail.SubjectOrderConfirmation,
			mail.OrderConfirmationBody(order)); mailErr != nil {
			util.Warn("Order confirmation mail failed",
				zap.String("order_id", order.OrderID),
				zap.Error(mailErr))
		}
	}

	return order, nil
}

// QuoteDeliveryFee prices shipping for the caller's current cart.
func (s *CheckoutService) QuoteDeliveryFee(ctx context.Context, userID, district, city, serviceType string) (*shipping.Quote, error) {
	subtotal, _, err := s.priceCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	quote, ok := shipping.CalculateFee(district, city, subtotal, serviceType)
	if !ok {
		return nil, ErrInvalidInput
	}
	return &quote, nil
}

func (s *CheckoutService) getOwnedSession(ctx context.Context, userID, sessionID string) (*model.CheckoutSession, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redisrepo.ErrSessionNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrForbidden
	}
	return session, nil
}

func (s *CheckoutService) priceCart(ctx context.Context, userID string) (float64, []model.CartItem, error) {
	lines, err := s.users.GetCart(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	if len(lines) == 0 {
		return 0, nil, fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	}

	var subtotal float64
	for _, line := range lines {
		p, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gocql.ErrNotFound) {
				return 0, nil, fmt.Errorf("%w: product %s", ErrNotFound, line.ProductID)
			}
			return 0, nil, err
		}
		subtotal += p.Price * float64(line.Quantity)
	}

	return subtotal, lines, nil
}

func (s *CheckoutService) cartItems(ctx context.Context, userID string) ([]model.OrderItem, float64, error) {
	lines, err := s.users.GetCart(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	var subtotal float64
	items := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		p, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gocql.ErrNotFound) {
				return nil, 0, fmt.Errorf("%w: product %s", ErrNotFound, line.ProductID)
			}
			return nil, 0, err
		}

		items = append(items, model.OrderItem{
			ProductID: p.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  line.Quantity,
		})
		subtotal += p.Price * float64(line.Quantity)
	}

	return items, subtotal, nil
}

func (s *CheckoutService) claimStock(ctx context.Context, items []model.OrderItem) error {
	claimed := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.releaseStock(ctx, claimed)
			if errors.Is(err, scylla.ErrInsufficientStock) {
				return fmt.Errorf("%w: product %s", ErrInsufficientStock, item.ProductID)
			}
			if errors.Is(err, gocql.ErrNotFound) {
				return fmt.Errorf("%w: product %s", ErrNotFound, item.ProductID)
			}
			return err
		}
		claimed = append(claimed, item)
	}
	return nil
}

func (s *CheckoutService) releaseStock(ctx context.Context, items []model.OrderItem) {
	for _, item := range items {
		if err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			util.Error("Failed to release claimed stock",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

func validateDeliveryInfo(info *model.DeliveryInfo) error {
	info.FirstName = util.SanitizeInput(info.FirstName)
	info.LastName = util.SanitizeInput(info.LastName)
	info.Address = util.SanitizeInput(info.Address)
	info.City = util.SanitizeInput(info.City)
	info.District = util.SanitizeInput(info.District)

	if info.FirstName == "" || info.Address == "" || info.City == "" ||
		info.District == "" || info.Phone == "" {
		return ErrInvalidInput
	}
	if !util.IsValidEmail(info.Email) {
		return ErrInvalidInput
	}
	return nil
}
