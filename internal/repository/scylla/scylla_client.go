package scylla

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/util"
)

// PreparedStatements holds the hot-path statements prepared at startup.
type PreparedStatements struct {
	CreateUser        *gocql.Query
	CreateEmailToUser *gocql.Query
	GetUserByID       *gocql.Query
	GetUserByEmail    *gocql.Query
	SetEmailVerified  *gocql.Query

	UpsertCartItem *gocql.Query
	DeleteCartItem *gocql.Query
	GetCart        *gocql.Query
	ClearCart      *gocql.Query

	AddWishlistItem    *gocql.Query
	RemoveWishlistItem *gocql.Query
	GetWishlist        *gocql.Query

	CreateProduct *gocql.Query
	GetProduct    *gocql.Query
	DeleteProduct *gocql.Query
	SetStock      *gocql.Query
	CasStock      *gocql.Query
	SetRating     *gocql.Query

	CreateOrder       *gocql.Query
	CreateOrderByUser *gocql.Query
	GetOrder          *gocql.Query
	GetOrdersByUser   *gocql.Query
	UpdateOrderStatus *gocql.Query
	MarkOrderPaid     *gocql.Query

	CreateReview    *gocql.Query
	GetReview       *gocql.Query
	ListByProduct   *gocql.Query
	ApproveReview   *gocql.Query
	DeleteReview    *gocql.Query
	DeleteReviewRef *gocql.Query

	CreateContact    *gocql.Query
	GetContact       *gocql.Query
	SetContactStatus *gocql.Query
	DeleteContact    *gocql.Query
}

type ScyllaClient struct {
	Session      *gocql.Session
	config       *config.ScyllaConfig
	Prepared     *PreparedStatements
	prepareMutex sync.RWMutex
	isPrepared   bool
}

func NewScyllaClient(cfg *config.Config, logger *zap.Logger) (*ScyllaClient, error) {
	scyllaConfig := cfg.Scylla

	cluster := gocql.NewCluster(scyllaConfig.Nodes...)
	cluster.Keyspace = scyllaConfig.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	cluster.NumConns = 4
	cluster.SocketKeepalive = 30 * time.Second
	cluster.MaxPreparedStmts = 1000
	cluster.MaxRoutingKeyInfo = 1000
	cluster.PageSize = 1000
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		Min:        time.Second,
		Max:        10 * time.Second,
		NumRetries: 3,
	}

	if scyllaConfig.Username != "" && scyllaConfig.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: scyllaConfig.Username,
			Password: scyllaConfig.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create scylla session: %w", err)
	}

	client := &ScyllaClient{
		Session: session,
		config:  &scyllaConfig,
	}

	if err := client.ensureSchema(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	if err := client.prepareStatements(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	util.Info("ScyllaDB client initialized with prepared statements",
		zap.Strings("nodes", scyllaConfig.Nodes),
		zap.String("keyspace", scyllaConfig.Keyspace))

	return client, nil
}

func (s *ScyllaClient) ensureSchema() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_bucket int,
			user_id text,
			name text,
			email text,
			password_hash text,
			is_email_verified boolean,
			is_admin boolean,
			created_at timestamp,
			updated_at timestamp,
			PRIMARY KEY ((user_bucket), user_id))`,
		`CREATE TABLE IF NOT EXISTS users_by_email (
			email text PRIMARY KEY,
			user_bucket int,
			user_id text)`,
		`CREATE TABLE IF NOT EXISTS carts (
			user_id text,
			product_id text,
			quantity int,
			PRIMARY KEY ((user_id), product_id))`,
		`CREATE TABLE IF NOT EXISTS wishlists (
			user_id text,
			product_id text,
			added_at timestamp,
			PRIMARY KEY ((user_id), product_id))`,
		`CREATE TABLE IF NOT EXISTS products (
			product_id text PRIMARY KEY,
			name text,
			description text,
			price double,
			images list<text>,
			category text,
			sub_category text,
			sizes list<text>,
			bestseller boolean,
			stock int,
			rating double,
			review_count int,
			created_at timestamp,
			updated_at timestamp)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_bucket int,
			order_id text,
			user_id text,
			items text,
			amount double,
			delivery_fee double,
			delivery_info text,
			service_type text,
			payment_method text,
			paid boolean,
			status text,
			created_at timestamp,
			updated_at timestamp,
			PRIMARY KEY ((order_bucket), order_id))`,
		`CREATE TABLE IF NOT EXISTS orders_by_user (
			user_id text,
			created_at timestamp,
			order_id text,
			amount double,
			status text,
			paid boolean,
			PRIMARY KEY ((user_id), created_at, order_id))
			WITH CLUSTERING ORDER BY (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			product_id text,
			review_id text,
			user_id text,
			user_name text,
			rating int,
			comment text,
			approved boolean,
			created_at timestamp,
			PRIMARY KEY ((product_id), review_id))`,
		`CREATE TABLE IF NOT EXISTS reviews_by_id (
			review_id text PRIMARY KEY,
			product_id text)`,
		`CREATE TABLE IF NOT EXISTS contact_messages (
			message_id text PRIMARY KEY,
			name text,
			email text,
			subject text,
			message text,
			status text,
			created_at timestamp)`,
	}

	for _, stmt := range tables {
		if err := s.Session.Query(stmt).Exec(); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	util.Info("ScyllaDB schema ensured")
	return nil
}

func (s *ScyllaClient) prepareStatements() error {
	s.prepareMutex.Lock()
	defer s.prepareMutex.Unlock()

	if s.isPrepared {
		return nil
	}

	prepared := &PreparedStatements{}

	prepared.CreateUser = s.Session.Query(`
		INSERT INTO users (
			user_bucket, user_id, name, email, password_hash,
			is_email_verified, is_admin, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.CreateEmailToUser = s.Session.Query(`
		INSERT INTO users_by_email (email, user_bucket, user_id)
		VALUES (?, ?, ?)`)

	prepared.GetUserByID = s.Session.Query(`
		SELECT user_bucket, user_id, name, email, password_hash,
			is_email_verified, is_admin, created_at, updated_at
		FROM users WHERE user_bucket = ? AND user_id = ?`)

	prepared.GetUserByEmail = s.Session.Query(`
		SELECT user_bucket, user_id FROM users_by_email WHERE email = ?`)

	prepared.SetEmailVerified = s.Session.Query(`
		UPDATE users SET is_email_verified = ?, updated_at = ?
		WHERE user_bucket = ? AND user_id = ?`)

	prepared.UpsertCartItem = s.Session.Query(`
		INSERT INTO carts (user_id, product_id, quantity) VALUES (?, ?, ?)`)

	prepared.DeleteCartItem = s.Session.Query(`
		DELETE FROM carts WHERE user_id = ? AND product_id = ?`)

	prepared.GetCart = s.Session.Query(`
		SELECT product_id, quantity FROM carts WHERE user_id = ?`)

	prepared.ClearCart = s.Session.Query(`
		DELETE FROM carts WHERE user_id = ?`)

	prepared.AddWishlistItem = s.Session.Query(`
		INSERT INTO wishlists (user_id, product_id, added_at) VALUES (?, ?, ?)`)

	prepared.RemoveWishlistItem = s.Session.Query(`
		DELETE FROM wishlists WHERE user_id = ? AND product_id = ?`)

	prepared.GetWishlist = s.Session.Query(`
		SELECT product_id FROM wishlists WHERE user_id = ?`)

	prepared.CreateProduct = s.Session.Query(`
		INSERT INTO products (
			product_id, name, description, price, images, category,
			sub_category, sizes, bestseller, stock, rating, review_count,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.GetProduct = s.Session.Query(`
		SELECT product_id, name, description, price, images, category,
			sub_category, sizes, bestseller, stock, rating, review_count,
			created_at, updated_at
		FROM products WHERE product_id = ?`)

	prepared.DeleteProduct = s.Session.Query(`
		DELETE FROM products WHERE product_id = ?`)

	prepared.SetStock = s.Session.Query(`
		UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ?`)

	prepared.CasStock = s.Session.Query(`
		UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`)

	prepared.SetRating = s.Session.Query(`
		UPDATE products SET rating = ?, review_count = ?, updated_at = ?
		WHERE product_id = ?`)

	prepared.CreateOrder = s.Session.Query(`
		INSERT INTO orders (
			order_bucket, order_id, user_id, items, amount, delivery_fee,
			delivery_info, service_type, payment_method, paid, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.CreateOrderByUser = s.Session.Query(`
		INSERT INTO orders_by_user (user_id, created_at, order_id, amount, status, paid)
		VALUES (?, ?, ?, ?, ?, ?)`)

	prepared.GetOrder = s.Session.Query(`
		SELECT order_bucket, order_id, user_id, items, amount, delivery_fee,
			delivery_info, service_type, payment_method, paid, status,
			created_at, updated_at
		FROM orders WHERE order_bucket = ? AND order_id = ?`)

	prepared.GetOrdersByUser = s.Session.Query(`
		SELECT order_id, created_at, amount, status, paid
		FROM orders_by_user WHERE user_id = ?`)

	prepared.UpdateOrderStatus = s.Session.Query(`
		UPDATE orders SET status = ?, updated_at = ?
		WHERE order_bucket = ? AND order_id = ?`)

	prepared.MarkOrderPaid = s.Session.Query(`
		UPDATE orders SET paid = ?, updated_at = ?
		WHERE order_bucket = ? AND order_id = ?`)

	prepared.CreateReview = s.Session.Query(`
		INSERT INTO reviews (
			product_id, review_id, user_id, user_name, rating, comment,
			approved, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.GetReview = s.Session.Query(`
		SELECT product_id FROM reviews_by_id WHERE review_id = ?`)

	prepared.ListByProduct = s.Session.Query(`
		SELECT product_id, review_id, user_id, user_name, rating, comment,
			approved, created_at
		FROM reviews WHERE product_id = ?`)

	prepared.ApproveReview = s.Session.Query(`
		UPDATE reviews SET approved = ? WHERE product_id = ? AND review_id = ?`)

	prepared.DeleteReview = s.Session.Query(`
		DELETE FROM reviews WHERE product_id = ? AND review_id = ?`)

	prepared.DeleteReviewRef = s.Session.Query(`
		DELETE FROM reviews_by_id WHERE review_id = ?`)

	prepared.CreateContact = s.Session.Query(`
		INSERT INTO contact_messages (
			message_id, name, email, subject, message, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)

	prepared.GetContact = s.Session.Query(`
		SELECT message_id, name, email, subject, message, status, created_at
		FROM contact_messages WHERE message_id = ?`)

	prepared.SetContactStatus = s.Session.Query(`
		UPDATE contact_messages SET status = ? WHERE message_id = ?`)

	prepared.DeleteContact = s.Session.Query(`
		DELETE FROM contact_messages WHERE message_id = ?`)

	s.Prepared = prepared
	s.isPrepared = true

	util.Info("ScyllaDB prepared statements created")
	return nil
}

func (s *ScyllaClient) Close() {
	if s.Session != nil {
		s.Session.Close()
		util.Info("ScyllaDB client closed")
	}
}

func (s *ScyllaClient) Query(stmt string, values ...interface{}) *gocql.Query {
	return s.Session.Query(stmt, values...)
}

func (s *ScyllaClient) Batch(typ gocql.BatchType) *gocql.Batch {
	return s.Session.NewBatch(typ)
}

func (s *ScyllaClient) ExecuteBatch(batch *gocql.Batch) error {
	return s.Session.ExecuteBatch(batch)
}

func (s *ScyllaClient) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var clusterName string
	err := s.Session.Query(`SELECT cluster_name FROM system.local`).WithContext(ctx).Scan(&clusterName)
	if err != nil {
		return fmt.Errorf("scylla health check failed: %w", err)
	}

	util.Debug("ScyllaDB health check passed", zap.String("cluster_name", clusterName))
	return nil
}

func (s *ScyllaClient) ScanWithRetry(query *gocql.Query, dest ...interface{}) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		if err := query.Scan(dest...); err != nil {
			lastErr = err
			if err == gocql.ErrNotFound {
				return err
			}
			if i < 2 {
				time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}
