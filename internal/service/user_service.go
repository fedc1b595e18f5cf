package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/hashing"
	"storefront/internal/mail"
	"storefront/internal/model"
	redisrepo "storefront/internal/repository/redis"
	"storefront/internal/repository/scylla"
	"storefront/internal/util"
)

const maxCodeAttempts = 5

// LoginResult carries the outcome of a login attempt. NeedsVerification
// is set when credentials are correct but the email is unverified.
type LoginResult struct {
	Token             string      `json:"token,omitempty"`
	User              *model.User `json:"user,omitempty"`
	NeedsVerification bool        `json:"needs_verification,omitempty"`
}

// UserService implements account, cart and wishlist operations.
type UserService struct {
	users    scylla.UserRepository
	products scylla.ProductRepository
	codes    redisrepo.CodeStore
	hasher   *hashing.Hasher
	tokens   *auth.TokenManager
	mailer   mail.Mailer
	cfg      *config.Config
}

func NewUserService(
	users scylla.UserRepository,
	products scylla.ProductRepository,
	codes redisrepo.CodeStore,
	hasher *hashing.Hasher,
	tokens *auth.TokenManager,
	mailer mail.Mailer,
	cfg *config.Config,
) *UserService {
	return &UserService{
		users:    users,
		products: products,
		codes:    codes,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// Register creates an account and sends the email verification code.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = util.SanitizeInput(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || !util.IsValidEmail(email) {
		return nil, ErrInvalidInput
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, gocql.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sendCode(ctx, user, redisrepo.PurposeEmailVerify,
		mail.SubjectEmailVerification, mail.EmailVerificationBody); err != nil {
		util.Warn("Verification mail not sent on registration",
			zap.String("user_id", user.UserID),
			zap.Error(err))
	}

	return user, nil
}

// Login checks credentials. Unverified accounts get NeedsVerification
// instead of a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	ok, err := s.hasher.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrUnauthorized
	}

	if !user.IsEmailVerified {
		return &LoginResult{NeedsVerification: true, User: user}, nil
	}

	token, err := s.tokens.Issue(user.UserID, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: user}, nil
}

// AdminLogin issues an admin token against the configured admin
// credentials.
func (s *UserService) AdminLogin(ctx context.Context, email, password string) (string, error) {
	adminEmail := s.cfg.Auth.AdminEmail
	adminPassword := s.cfg.Auth.AdminPassword
	if adminEmail == "" || adminPassword == "" {
		return "", ErrUnauthorized
	}
	if !strings.EqualFold(email, adminEmail) || password != adminPassword {
		return "", ErrUnauthorized
	}

	token, err := s.tokens.Issue("admin", true)
	if err != nil {
		return "", err
	}
	return token, nil
}

// VerifyEmail redeems a registration code and flips the account to
// verified.
func (s *UserService) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := s.checkCode(ctx, redisrepo.PurposeEmailVerify, user.UserID, code); err != nil {
		return err
	}

	if err := s.users.SetEmailVerified(ctx, user.UserID, true); err != nil {
		return err
	}

	return s.codes.ConsumeCode(ctx, redisrepo.PurposeEmailVerify, user.UserID)
}

// ResendVerification sends a fresh code, subject to the resend
// cooldown.
func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return ErrAlreadyExists
	}

	if err := s.codes.ClaimResendSlot(ctx, redisrepo.PurposeEmailVerify, user.UserID); err != nil {
		if errors.Is(err, redisrepo.ErrResendTooSoon) {
			return ErrRateLimited
		}
		return err
	}

	return s.sendCode(ctx, user, redisrepo.PurposeEmailVerify,
		mail.SubjectEmailVerification, mail.EmailVerificationBody)
}

// ForgotPassword sends a password reset code. Unknown emails return
// nil, so the endpoint cannot be used to probe accounts.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.codes.ClaimResendSlot(ctx, redisrepo.PurposePasswordReset, user.UserID); err != nil {
		if errors.Is(err, redisrepo.ErrResendTooSoon) {
			return ErrRateLimited
		}
		return err
	}

	return s.sendCode(ctx, user, redisrepo.PurposePasswordReset,
		mail.SubjectPasswordReset, mail.PasswordResetBody)
}

// ResetPassword redeems a reset code and replaces the password hash.
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := s.checkCode(ctx, redisrepo.PurposePasswordReset, user.UserID, code); err != nil {
		return err
	}

	passwordHash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.SetPassword(ctx, user.UserID, passwordHash); err != nil {
		return err
	}

	return s.codes.ConsumeCode(ctx, redisrepo.PurposePasswordReset, user.UserID)
}

// GetUser loads the account for the authenticated user id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ---------- Cart ----------

func (s *UserService) GetCart(ctx context.Context, userID string) ([]model.CartItem, error) {
	return s.users.GetCart(ctx, userID)
}

// SetCartItem validates the product exists before writing the line.
// Quantity zero removes it.
func (s *UserService) SetCartItem(ctx context.Context, userID, productID string, quantity int) error {
	if productID == "" || quantity < 0 {
		return ErrInvalidInput
	}

	if quantity > 0 {
		if _, err := s.products.GetProduct(ctx, productID); err != nil {
			if errors.Is(err, gocql.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
	}

	return s.users.SetCartItem(ctx, userID, productID, quantity)
}

func (s *UserService) ClearCart(ctx context.Context, userID string) error {
	return s.users.ClearCart(ctx, userID)
}

// ---------- Wishlist ----------

func (s *UserService) GetWishlist(ctx context.Context, userID string) ([]string, error) {
	return s.users.GetWishlist(ctx, userID)
}

func (s *UserService) AddWishlistItem(ctx context.Context, userID, productID string) error {
	if productID == "" {
		return ErrInvalidInput
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.users.AddWishlistItem(ctx, userID, productID)
}

func (s *UserService) RemoveWishlistItem(ctx context.Context, userID, productID string) error {
	if productID == "" {
		return ErrInvalidInput
	}
	return s.users.RemoveWishlistItem(ctx, userID, productID)
}

// ---------- Helpers ----------

func (s *UserService) userByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !util.IsValidEmail(email) {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) sendCode(ctx context.Context, user *model.User, purpose, subject string, body func(name, code string) string) error {
	code, err := GenerateCode()
	if err != nil {
		return err
	}

	codeHash, err := s.hasher.HashCode(code)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	if err := s.codes.StoreCode(ctx, purpose, user.UserID, codeHash); err != nil {
		return err
	}

	if err := s.mailer.Send(user.Email, subject, body(user.Name, code)); err != nil {
		return ErrMailDelivery
	}

	return nil
}

func (s *UserService) checkCode(ctx context.Context, purpose, userID, code string) error {
	if len(code) != 6 {
		return ErrCodeMismatch
	}

	attempts, err := s.codes.IncrementAttempts(ctx, purpose, userID)
	if err != nil {
		return err
	}
	if attempts > maxCodeAttempts {
		return ErrTooManyAttempts
	}

	codeHash, err := s.codes.GetCodeHash(ctx, purpose, userID)
	if err != nil {
		if errors.Is(err, redisrepo.ErrCodeNotFound) {
			return ErrSessionExpired
		}
		return err
	}

	ok, err := s.hasher.VerifyCode(code, codeHash)
	if err != nil || !ok {
		return ErrCodeMismatch
	}

	return nil
}

// GenerateCode returns a random 6-digit numeric code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
