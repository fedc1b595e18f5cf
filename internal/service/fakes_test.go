package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"storefront/internal/model"
	redisrepo "storefront/internal/repository/redis"
	"storefront/internal/repository/scylla"
)

// ---------- users ----------

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*model.User
	byEmail   map[string]string
	carts     map[string]map[string]int
	wishlists map[string]map[string]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[string]*model.User),
		byEmail:   make(map[string]string),
		carts:     make(map[string]map[string]int),
		wishlists: make(map[string]map[string]bool),
	}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.UserID == "" {
		user.UserID = uuid.New().String()
	}
	copied := *user
	f.users[user.UserID] = &copied
	f.byEmail[user.Email] = user.UserID
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, gocql.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	userID, ok := f.byEmail[email]
	f.mu.Unlock()
	if !ok {
		return nil, gocql.ErrNotFound
	}
	return f.GetUserByID(ctx, userID)
}

func (f *fakeUserRepo) SetEmailVerified(ctx context.Context, userID string, verified bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return gocql.ErrNotFound
	}
	user.IsEmailVerified = verified
	return nil
}

func (f *fakeUserRepo) SetPassword(ctx context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return gocql.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) CountUsers(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) GetCart(ctx context.Context, userID string) ([]model.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []model.CartItem
	for productID, quantity := range f.carts[userID] {
		items = append(items, model.CartItem{ProductID: productID, Quantity: quantity})
	}
	return items, nil
}

func (f *fakeUserRepo) SetCartItem(ctx context.Context, userID, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.carts[userID] == nil {
		f.carts[userID] = make(map[string]int)
	}
	if quantity <= 0 {
		delete(f.carts[userID], productID)
		return nil
	}
	f.carts[userID][productID] = quantity
	return nil
}

func (f *fakeUserRepo) ClearCart(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, userID)
	return nil
}

func (f *fakeUserRepo) GetWishlist(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.wishlists[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeUserRepo) AddWishlistItem(ctx context.Context, userID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.wishlists[userID] == nil {
		f.wishlists[userID] = make(map[string]bool)
	}
	f.wishlists[userID][productID] = true
	return nil
}

func (f *fakeUserRepo) RemoveWishlistItem(ctx context.Context, userID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.wishlists[userID], productID)
	return nil
}

// ---------- products ----------

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*model.Product)}
}

func (f *fakeProductRepo) put(p *model.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *p
	f.products[p.ProductID] = &copied
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	if p.ProductID == "" {
		p.ProductID = uuid.New().String()
	}
	f.put(p)
	return nil
}

func (f *fakeProductRepo) UpdateProduct(ctx context.Context, p *model.Product) error {
	f.put(p)
	return nil
}

func (f *fakeProductRepo) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return nil, gocql.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProductRepo) ListProducts(ctx context.Context) ([]*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var products []*model.Product
	for _, p := range f.products {
		copied := *p
		products = append(products, &copied)
	}
	return products, nil
}

func (f *fakeProductRepo) DeleteProduct(ctx context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, productID)
	return nil
}

func (f *fakeProductRepo) SetStock(ctx context.Context, productID string, stock int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return gocql.ErrNotFound
	}
	p.Stock = stock
	return nil
}

func (f *fakeProductRepo) DecrementStock(ctx context.Context, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return gocql.ErrNotFound
	}
	if p.Stock < quantity {
		return scylla.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

func (f *fakeProductRepo) IncrementStock(ctx context.Context, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return gocql.ErrNotFound
	}
	p.Stock += quantity
	return nil
}

func (f *fakeProductRepo) SetRating(ctx context.Context, productID string, rating float64, reviewCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return gocql.ErrNotFound
	}
	p.Rating = rating
	p.ReviewCount = reviewCount
	return nil
}

func (f *fakeProductRepo) CountProducts(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.products)), nil
}

// ---------- orders ----------

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*model.Order)}
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.OrderID == "" {
		o.OrderID = uuid.New().String()
	}
	copied := *o
	f.orders[o.OrderID] = &copied
	return nil
}

func (f *fakeOrderRepo) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, gocql.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeOrderRepo) ListOrdersByUser(ctx context.Context, userID string) ([]*model.OrderSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var summaries []*model.OrderSummary
	for _, o := range f.orders {
		if o.UserID != userID {
			continue
		}
		summaries = append(summaries, &model.OrderSummary{
			OrderID:   o.OrderID,
			CreatedAt: o.CreatedAt,
			Amount:    o.Amount,
			Status:    o.Status,
			Paid:      o.Paid,
		})
	}
	return summaries, nil
}

func (f *fakeOrderRepo) ListOrders(ctx context.Context) ([]*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []*model.Order
	for _, o := range f.orders {
		copied := *o
		orders = append(orders, &copied)
	}
	return orders, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, orderID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return gocql.ErrNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeOrderRepo) MarkPaid(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return gocql.ErrNotFound
	}
	o.Paid = true
	return nil
}

func (f *fakeOrderRepo) CountOrders(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.orders)), nil
}

func (f *fakeOrderRepo) CountOrdersByStatus(ctx context.Context, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, o := range f.orders {
		if o.Status == status {
			count++
		}
	}
	return count, nil
}

// ---------- reviews ----------

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[string]*model.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[string]*model.Review)}
}

func (f *fakeReviewRepo) CreateReview(ctx context.Context, r *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ReviewID == "" {
		r.ReviewID = uuid.New().String()
	}
	copied := *r
	f.reviews[r.ReviewID] = &copied
	return nil
}

func (f *fakeReviewRepo) GetReview(ctx context.Context, reviewID string) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[reviewID]
	if !ok {
		return nil, gocql.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReviewRepo) ListByProduct(ctx context.Context, productID string) ([]*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var reviews []*model.Review
	for _, r := range f.reviews {
		if r.ProductID == productID {
			copied := *r
			reviews = append(reviews, &copied)
		}
	}
	return reviews, nil
}

func (f *fakeReviewRepo) ListAll(ctx context.Context) ([]*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var reviews []*model.Review
	for _, r := range f.reviews {
		copied := *r
		reviews = append(reviews, &copied)
	}
	return reviews, nil
}

func (f *fakeReviewRepo) SetApproved(ctx context.Context, productID, reviewID string, approved bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[reviewID]
	if !ok {
		return gocql.ErrNotFound
	}
	r.Approved = approved
	return nil
}

func (f *fakeReviewRepo) DeleteReview(ctx context.Context, productID, reviewID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reviews, reviewID)
	return nil
}

// ---------- contact messages ----------

type fakeContactRepo struct {
	mu       sync.Mutex
	messages map[string]*model.ContactMessage
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{messages: make(map[string]*model.ContactMessage)}
}

func (f *fakeContactRepo) CreateMessage(ctx context.Context, m *model.ContactMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.MessageID == "" {
		m.MessageID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = model.ContactStatusNew
	}
	copied := *m
	f.messages[m.MessageID] = &copied
	return nil
}

func (f *fakeContactRepo) GetMessage(ctx context.Context, messageID string) (*model.ContactMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[messageID]
	if !ok {
		return nil, gocql.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeContactRepo) ListMessages(ctx context.Context) ([]*model.ContactMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var messages []*model.ContactMessage
	for _, m := range f.messages {
		copied := *m
		messages = append(messages, &copied)
	}
	return messages, nil
}

func (f *fakeContactRepo) SetStatus(ctx context.Context, messageID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[messageID]
	if !ok {
		return gocql.ErrNotFound
	}
	m.Status = status
	return nil
}

func (f *fakeContactRepo) DeleteMessage(ctx context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, messageID)
	return nil
}

func (f *fakeContactRepo) CountMessages(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.messages)), nil
}

// ---------- checkout sessions ----------

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.CheckoutSession
	attempts map[string]int64
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[string]*model.CheckoutSession),
		attempts: make(map[string]int64),
	}
}

func (f *fakeSessionStore) CreateSession(ctx context.Context, s *model.CheckoutSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.sessions[s.SessionID]; exists {
		return fmt.Errorf("session %s already exists", s.SessionID)
	}
	copied := *s
	f.sessions[s.SessionID] = &copied
	return nil
}

func (f *fakeSessionStore) GetSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, redisrepo.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionStore) UpdateSession(ctx context.Context, s *model.CheckoutSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[s.SessionID]; !ok {
		return redisrepo.ErrSessionNotFound
	}
	copied := *s
	f.sessions[s.SessionID] = &copied
	return nil
}

func (f *fakeSessionStore) ConsumeSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, redisrepo.ErrSessionNotFound
	}
	delete(f.sessions, sessionID)
	return s, nil
}

func (f *fakeSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	delete(f.attempts, sessionID)
	return nil
}

func (f *fakeSessionStore) IncrementAttempts(ctx context.Context, sessionID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[sessionID]++
	return f.attempts[sessionID], nil
}

// expire simulates TTL elapsing.
func (f *fakeSessionStore) expire(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
}

// ---------- codes ----------

type fakeCodeStore struct {
	mu       sync.Mutex
	codes    map[string]string
	attempts map[string]int64
	claimed  map[string]bool
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{
		codes:    make(map[string]string),
		attempts: make(map[string]int64),
		claimed:  make(map[string]bool),
	}
}

func codeStoreKey(purpose, userID string) string {
	return purpose + ":" + userID
}

func (f *fakeCodeStore) StoreCode(ctx context.Context, purpose, userID, codeHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := codeStoreKey(purpose, userID)
	f.codes[key] = codeHash
	delete(f.attempts, key)
	return nil
}

func (f *fakeCodeStore) GetCodeHash(ctx context.Context, purpose, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := f.codes[codeStoreKey(purpose, userID)]
	if !ok {
		return "", redisrepo.ErrCodeNotFound
	}
	return hash, nil
}

func (f *fakeCodeStore) ConsumeCode(ctx context.Context, purpose, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := codeStoreKey(purpose, userID)
	delete(f.codes, key)
	delete(f.attempts, key)
	return nil
}

func (f *fakeCodeStore) IncrementAttempts(ctx context.Context, purpose, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := codeStoreKey(purpose, userID)
	f.attempts[key]++
	return f.attempts[key], nil
}

func (f *fakeCodeStore) ClaimResendSlot(ctx context.Context, purpose, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := codeStoreKey(purpose, userID)
	if f.claimed[key] {
		return redisrepo.ErrResendTooSoon
	}
	f.claimed[key] = true
	return nil
}

// ---------- mailer ----------

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("smtp unavailable")
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeMailer) lastSent() (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMail{}, false
	}
	return f.sent[len(f.sent)-1], true
}
