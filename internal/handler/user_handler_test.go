package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/hashing"
	"storefront/internal/model"
	redisrepo "storefront/internal/repository/redis"
	"storefront/internal/repository/scylla"
	"storefront/internal/service"
	"storefront/internal/util"
)

// stubUserRepo covers only the account paths the handler tests hit.
type stubUserRepo struct {
	scylla.UserRepository
	mu      sync.Mutex
	users   map[string]*model.User
	byEmail map[string]string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

func (s *stubUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.UserID == "" {
		user.UserID = uuid.New().String()
	}
	copied := *user
	s.users[user.UserID] = &copied
	s.byEmail[user.Email] = user.UserID
	return nil
}

func (s *stubUserRepo) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, gocql.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	userID, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return nil, gocql.ErrNotFound
	}
	return s.GetUserByID(ctx, userID)
}

func (s *stubUserRepo) SetEmailVerified(ctx context.Context, userID string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return gocql.ErrNotFound
	}
	user.IsEmailVerified = verified
	return nil
}

type stubCodeStore struct {
	redisrepo.CodeStore
}

func (stubCodeStore) StoreCode(ctx context.Context, purpose, userID, codeHash string) error {
	return nil
}

type stubProductRepo struct {
	scylla.ProductRepository
}

type stubMailer struct{}

func (stubMailer) Send(to, subject, body string) error { return nil }

func newAccountRouter(t *testing.T) (chi.Router, *stubUserRepo) {
	t.Helper()

	cfg := &config.Config{
		Hashing: config.HashingConfig{
			Argon2MemoryCost:  1024,
			Argon2TimeCost:    1,
			Argon2Parallelism: 1,
			Peppers:           []string{"test-pepper"},
		},
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
	}

	users := newStubUserRepo()
	svc := service.NewUserService(users, stubProductRepo{}, stubCodeStore{},
		hashing.NewHasher(cfg), auth.NewTokenManager(cfg), stubMailer{}, cfg)
	h := NewUserHandler(svc, util.Get())

	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	return r, users
}

func postJSON(t *testing.T, router chi.Router, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterResponseShape(t *testing.T) {
	router, _ := newAccountRouter(t)

	rec := postJSON(t, router, "/register", map[string]string{
		"name":     "Nimal Perera",
		"email":    "nimal@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data["user_id"])
	assert.Equal(t, "nimal@example.com", resp.Data["email"])
	assert.Equal(t, false, resp.Data["is_email_verified"])

	// No token before verification, and never a password hash.
	assert.NotContains(t, resp.Data, "token")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestLoginResponseShape(t *testing.T) {
	router, users := newAccountRouter(t)

	rec := postJSON(t, router, "/register", map[string]string{
		"name":     "Nimal Perera",
		"email":    "nimal@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	credentials := map[string]string{"email": "nimal@example.com", "password": "s3cret-pass"}

	// Unverified: flag only, no token.
	rec = postJSON(t, router, "/login", credentials)
	require.Equal(t, http.StatusOK, rec.Code)
	var unverified struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unverified))
	assert.True(t, unverified.Success)
	assert.Equal(t, true, unverified.Data["needs_verification"])
	assert.NotContains(t, unverified.Data, "token")

	userID := users.byEmail["nimal@example.com"]
	require.NoError(t, users.SetEmailVerified(context.Background(), userID, true))

	// Verified: token plus the account.
	rec = postJSON(t, router, "/login", credentials)
	require.Equal(t, http.StatusOK, rec.Code)
	var verified struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
			User  *model.User `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verified))
	assert.True(t, verified.Success)
	assert.NotEmpty(t, verified.Data.Token)
	require.NotNil(t, verified.Data.User)
	assert.Equal(t, userID, verified.Data.User.UserID)

	// Wrong password still maps to 401.
	rec = postJSON(t, router, "/login", map[string]string{"email": "nimal@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
