package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"bookexchange-backend/internal/config"
	"bookexchange-backend/internal/infrastructure/cache"
	"bookexchange-backend/internal/infrastructure/database"
	"bookexchange-backend/internal/infrastructure/storage"
	"bookexchange-backend/pkg/jwt"
	"bookexchange-backend/pkg/keylock"

	bookHandler "bookexchange-backend/internal/domains/book/handler"
	bookRepo "bookexchange-backend/internal/domains/book/repository"
	bookService "bookexchange-backend/internal/domains/book/service"
	exchangeHandler "bookexchange-backend/internal/domains/exchange/handler"
	exchangeRepo "bookexchange-backend/internal/domains/exchange/repository"
	exchangeService "bookexchange-backend/internal/domains/exchange/service"
	txnHandler "bookexchange-backend/internal/domains/transaction/handler"
	txnRepo "bookexchange-backend/internal/domains/transaction/repository"
	txnService "bookexchange-backend/internal/domains/transaction/service"
	userHandler "bookexchange-backend/internal/domains/user/handler"
	userRepo "bookexchange-backend/internal/domains/user/repository"
	userService "bookexchange-backend/internal/domains/user/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa toàn bộ dependency graph của application.
// Thứ tự initialization: Config → Infrastructure → Repositories →
// Services → Handlers. Sai thứ tự → nil pointer.
type Container struct {
	// Infrastructure - singleton, shared across domains
	Config      *config.Config
	DB          *database.PostgresDB
	Redis       *cache.RedisClient
	Storage     *storage.MinIOStorage
	AsynqClient *asynq.Client
	JWTManager  *jwt.Manager
	BookLocks   *keylock.KeyLock

	// Repositories
	UserRepo     userRepo.UserRepository
	BookRepo     bookRepo.BookRepository
	ExchangeRepo exchangeRepo.ExchangeRepository
	TxnRepo      txnRepo.TransactionRepository

	// Services
	UserService     userService.UserService
	BookService     bookService.BookService
	ExchangeService exchangeService.ExchangeService
	TxnService      txnService.TransactionService

	// Handlers
	UserHandler     *userHandler.UserHandler
	BookHandler     *bookHandler.BookHandler
	ExchangeHandler *exchangeHandler.ExchangeHandler
	TxnHandler      *txnHandler.TransactionHandler
}

// NewContainer khởi tạo toàn bộ dependency graph
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	log.Println("✅ Database connected")

	// ========================================
	// STEP 3: INITIALIZE REDIS + ASYNQ
	// ========================================
	redisClient := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Connect(context.Background()); err != nil {
		// Redis failure không critical - stats cache và queue degrade
		log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
	} else {
		c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Host,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	c.Redis = redisClient

	// ========================================
	// STEP 4: INITIALIZE STORAGE
	// ========================================
	minioStorage, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		// Storage failure không critical - cover upload sẽ fail riêng lẻ
		log.Printf("⚠️  MinIO connection failed (non-critical): %v", err)
	}
	c.Storage = minioStorage

	c.JWTManager = jwt.NewManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Hour,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Hour,
	)
	c.BookLocks = keylock.New()

	// ========================================
	// STEP 5: REPOSITORIES → SERVICES → HANDLERS
	// ========================================
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresUserRepository(pool)
	c.BookRepo = bookRepo.NewPostgresBookRepository(pool)
	c.ExchangeRepo = exchangeRepo.NewPostgresExchangeRepository(pool)
	c.TxnRepo = txnRepo.NewPostgresTransactionRepository(pool)
}

func (c *Container) initServices() {
	lockWait := c.Config.Exchange.LockWait

	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager)

	var coverStorage bookService.CoverStorage
	if c.Storage != nil {
		coverStorage = c.Storage
	}
	c.BookService = bookService.NewBookService(c.BookRepo, coverStorage, c.BookLocks, lockWait, c.AsynqClient)

	c.ExchangeService = exchangeService.NewExchangeService(
		c.ExchangeRepo,
		c.BookRepo,
		c.TxnRepo,
		c.BookLocks,
		lockWait,
		c.AsynqClient,
	)

	var redisRaw = c.Redis.Client
	c.TxnService = txnService.NewTransactionService(c.TxnRepo, redisRaw)
}

func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.BookHandler = bookHandler.NewBookHandler(c.BookService)
	c.ExchangeHandler = exchangeHandler.NewExchangeHandler(c.ExchangeService)
	c.TxnHandler = txnHandler.NewTransactionHandler(c.TxnService)
}

// Close giải phóng connections theo thứ tự ngược với init
func (c *Container) Close() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close asynq client: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("⚠️  Failed to close redis: %v", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	log.Println("👋 Container closed")
}
