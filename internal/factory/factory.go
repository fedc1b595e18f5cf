package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/analytics"
	"storefront/internal/auth"
	"storefront/internal/bucketing"
	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/handler"
	"storefront/internal/hashing"
	"storefront/internal/mail"
	"storefront/internal/payment"
	redisrepo "storefront/internal/repository/redis"
	"storefront/internal/repository/scylla"
	"storefront/internal/search"
	"storefront/internal/service"
	"storefront/internal/tls"
	"storefront/internal/util"
)

// Factory owns the lifecycle of every application dependency.
type Factory struct {
	config     *config.Config
	tlsManager *tls.Manager

	// Clients
	redisClient      *client.RedisClient
	scyllaClient     *scylla.ScyllaClient
	kafkaProducer    *client.KafkaProducer
	esClient         *client.ESClient
	clickhouseClient *client.ClickHouseClient

	// Managers
	hasher           *hashing.Hasher
	bucketingManager *bucketing.BucketingManager
	tokenManager     *auth.TokenManager
	mailer           mail.Mailer
	gateway          *payment.Gateway
	publisher        *events.Publisher
	recorder         *analytics.Recorder
	productIndex     *search.ProductIndex

	// Repositories
	userRepository    scylla.UserRepository
	productRepository scylla.ProductRepository
	orderRepository   scylla.OrderRepository
	reviewRepository  scylla.ReviewRepository
	contactRepository scylla.ContactRepository
	sessionStore      redisrepo.CheckoutSessionStore
	codeStore         redisrepo.CodeStore
	rateLimiter       redisrepo.RateLimiter

	// Services
	userService      *service.UserService
	productService   *service.ProductService
	checkoutService  *service.CheckoutService
	orderService     *service.OrderService
	reviewService    *service.ReviewService
	contactService   *service.ContactService
	dashboardService *service.DashboardService
	paymentService   *service.PaymentService

	closeOnce sync.Once
}

// NewFactory loads configuration and initializes all clients.
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	f := &Factory{config: cfg}

	if cfg.Server.EnableTLS {
		f.tlsManager = tls.NewManager(cfg)
	}

	if err := f.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	f.initializeManagers()

	util.Info("Factory initialized",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
	)

	return f, nil
}

// initializeClients brings external clients up with health checks.
// Hard dependencies fail startup in production; Kafka is optional
// everywhere.
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	if redisClient, err := client.NewRedisClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
	} else {
		f.redisClient = redisClient
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
		} else {
			util.Info("Redis client initialized and healthy")
		}
	}

	if scyllaClient, err := scylla.NewScyllaClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("scylla: %w", err))
	} else {
		f.scyllaClient = scyllaClient
		if err := f.scyllaClient.HealthCheck(); err != nil {
			initErrors = append(initErrors, fmt.Errorf("scylla health check: %w", err))
		} else {
			util.Info("ScyllaDB client initialized and healthy")
		}
	}

	if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
		util.Warn("Kafka producer initialization failed - proceeding without events", util.ErrorField(err))
	} else {
		f.kafkaProducer = producer
		util.Info("Kafka producer initialized")
	}

	if esClient, err := client.NewElasticsearchClient(f.config, util.Get()); err != nil {
		util.Warn("Elasticsearch initialization failed - proceeding without search", util.ErrorField(err))
	} else {
		f.esClient = esClient
		if err := f.esClient.HealthCheck(); err != nil {
			util.Warn("Elasticsearch unhealthy - proceeding without search", util.ErrorField(err))
			f.esClient = nil
		} else {
			util.Info("Elasticsearch client initialized and healthy")
		}
	}

	if chClient, err := client.NewClickHouseClient(f.config, util.Get()); err != nil {
		util.Warn("ClickHouse initialization failed - proceeding without analytics", util.ErrorField(err))
	} else {
		f.clickhouseClient = chClient
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			util.Warn("ClickHouse unhealthy - proceeding without analytics", util.ErrorField(err))
			f.clickhouseClient = nil
		} else {
			util.Info("ClickHouse client initialized and healthy")
		}
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

func (f *Factory) initializeManagers() {
	f.hasher = hashing.NewHasher(f.config)
	f.bucketingManager = bucketing.NewBucketingManager(f.config)
	f.tokenManager = auth.NewTokenManager(f.config)
	f.mailer = mail.NewSMTPMailer(f.config, util.Get())
	f.gateway = payment.NewGateway(f.config, util.Get())
	f.publisher = events.NewPublisher(f.kafkaProducer, f.config)
	f.recorder = analytics.NewRecorder(f.clickhouseClient)
	f.productIndex = search.NewProductIndex(f.esClient, f.config)

	if f.clickhouseClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := f.recorder.EnsureSchema(ctx); err != nil {
			util.Warn("Failed to ensure analytics schema", util.ErrorField(err))
		}
	}
}

func (f *Factory) Config() *config.Config { return f.config }

func (f *Factory) TLSManager() *tls.Manager { return f.tlsManager }

func (f *Factory) TokenManager() *auth.TokenManager { return f.tokenManager }

// ---------- Repositories ----------

func (f *Factory) UserRepository() scylla.UserRepository {
	if f.userRepository == nil {
		f.userRepository = scylla.NewUserRepository(f.scyllaClient, f.bucketingManager, util.Get())
	}
	return f.userRepository
}

func (f *Factory) ProductRepository() scylla.ProductRepository {
	if f.productRepository == nil {
		f.productRepository = scylla.NewProductRepository(f.scyllaClient, util.Get())
	}
	return f.productRepository
}

func (f *Factory) OrderRepository() scylla.OrderRepository {
	if f.orderRepository == nil {
		f.orderRepository = scylla.NewOrderRepository(f.scyllaClient, f.bucketingManager, util.Get())
	}
	return f.orderRepository
}

func (f *Factory) ReviewRepository() scylla.ReviewRepository {
	if f.reviewRepository == nil {
		f.reviewRepository = scylla.NewReviewRepository(f.scyllaClient, util.Get())
	}
	return f.reviewRepository
}

func (f *Factory) ContactRepository() scylla.ContactRepository {
	if f.contactRepository == nil {
		f.contactRepository = scylla.NewContactRepository(f.scyllaClient, util.Get())
	}
	return f.contactRepository
}

func (f *Factory) SessionStore() redisrepo.CheckoutSessionStore {
	if f.sessionStore == nil {
		f.sessionStore = redisrepo.NewCheckoutSessionStore(f.redisClient, util.Get())
	}
	return f.sessionStore
}

func (f *Factory) CodeStore() redisrepo.CodeStore {
	if f.codeStore == nil {
		f.codeStore = redisrepo.NewCodeStore(f.redisClient, util.Get())
	}
	return f.codeStore
}

func (f *Factory) RateLimiter() redisrepo.RateLimiter {
	if f.rateLimiter == nil {
		f.rateLimiter = redisrepo.NewRateLimiter(f.redisClient, util.Get())
	}
	return f.rateLimiter
}

// ---------- Services ----------

func (f *Factory) UserService() *service.UserService {
	if f.userService == nil {
		f.userService = service.NewUserService(
			f.UserRepository(),
			f.ProductRepository(),
			f.CodeStore(),
			f.hasher,
			f.tokenManager,
			f.mailer,
			f.config,
		)
	}
	return f.userService
}

func (f *Factory) ProductService() *service.ProductService {
	if f.productService == nil {
		f.productService = service.NewProductService(f.ProductRepository(), f.productIndex)
	}
	return f.productService
}

func (f *Factory) CheckoutService() *service.CheckoutService {
	if f.checkoutService == nil {
		f.checkoutService = service.NewCheckoutService(
			f.SessionStore(),
			f.UserRepository(),
			f.ProductRepository(),
			f.OrderRepository(),
			f.hasher,
			f.mailer,
			f.publisher,
			f.recorder,
		)
	}
	return f.checkoutService
}

func (f *Factory) OrderService() *service.OrderService {
	if f.orderService == nil {
		f.orderService = service.NewOrderService(f.OrderRepository(), f.publisher, f.recorder)
	}
	return f.orderService
}

func (f *Factory) ReviewService() *service.ReviewService {
	if f.reviewService == nil {
		f.reviewService = service.NewReviewService(
			f.ReviewRepository(),
			f.ProductRepository(),
			f.UserRepository(),
		)
	}
	return f.reviewService
}

func (f *Factory) ContactService() *service.ContactService {
	if f.contactService == nil {
		f.contactService = service.NewContactService(f.ContactRepository(), f.publisher)
	}
	return f.contactService
}

func (f *Factory) DashboardService() *service.DashboardService {
	if f.dashboardService == nil {
		f.dashboardService = service.NewDashboardService(
			f.UserRepository(),
			f.ProductRepository(),
			f.OrderRepository(),
			f.ContactRepository(),
			f.recorder,
		)
	}
	return f.dashboardService
}

func (f *Factory) PaymentService() *service.PaymentService {
	if f.paymentService == nil {
		f.paymentService = service.NewPaymentService(f.OrderRepository(), f.gateway, f.OrderService())
	}
	return f.paymentService
}

// Handlers builds the full handler set for the router.
func (f *Factory) Handlers() *handler.Handlers {
	logger := util.Get()
	return &handler.Handlers{
		User:      handler.NewUserHandler(f.UserService(), logger),
		Product:   handler.NewProductHandler(f.ProductService(), logger),
		Order:     handler.NewOrderHandler(f.CheckoutService(), f.OrderService(), logger),
		Payment:   handler.NewPaymentHandler(f.PaymentService(), logger),
		Review:    handler.NewReviewHandler(f.ReviewService(), logger),
		Contact:   handler.NewContactHandler(f.ContactService(), logger),
		Dashboard: handler.NewDashboardHandler(f.DashboardService(), logger),
	}
}

// HealthCheck probes every initialized client.
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	} else {
		healthErrors["redis"] = fmt.Errorf("redis client not initialized")
	}

	if f.scyllaClient != nil {
		if err := f.scyllaClient.HealthCheck(); err != nil {
			healthErrors["scylla"] = err
		}
	} else {
		healthErrors["scylla"] = fmt.Errorf("scylla client not initialized")
	}

	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}

	if f.esClient != nil {
		if err := f.esClient.HealthCheck(); err != nil {
			healthErrors["elasticsearch"] = err
		}
	}

	if f.clickhouseClient != nil {
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			healthErrors["clickhouse"] = err
		}
	}

	return healthErrors
}

// Close releases every client. Safe to call more than once.
func (f *Factory) Close() {
	f.closeOnce.Do(func() {
		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Warn("Failed to close Kafka producer", util.ErrorField(err))
			}
		}
		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.Close(); err != nil {
				util.Warn("Failed to close ClickHouse client", util.ErrorField(err))
			}
		}
		if f.esClient != nil {
			f.esClient.Close()
		}
		if f.scyllaClient != nil {
			f.scyllaClient.Close()
		}
		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Warn("Failed to close Redis client", util.ErrorField(err))
			}
		}
		util.Info("Factory closed")
	})
}
