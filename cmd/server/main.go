package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/config"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/crud"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/handlers"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/middleware"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/repository"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/security"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/services"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/httpsecurity"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/metrics"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/mutex"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/ratelimiter"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/sanitizer"
)

const (
	serviceName = "solana-wallet-api"
	version     = "1.0.0"

	csrfStoreSize = 10000
	csrfTokenTTL  = time.Hour
	lockIdleTTL   = 5 * time.Minute
)

// Server represents the main application server
type Server struct {
	httpServer *http.Server
	config     *config.Config

	mongoClient *mongo.Client
	authService services.AuthServiceInterface
	cachedAuth  *services.CachedAuthService

	rateLimiter   *ratelimiter.RateLimiter
	locks         *mutex.KeyedMutex
	csrf          *security.CSRFStore
	pipeline      *security.Middleware
	walletService *services.WalletService
	tokenService  *services.TokenService
	collector     *metrics.MetricsCollector
	prom          *metrics.Prometheus
	router        *handlers.Router

	stopCleanup chan struct{}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := &logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		OutputPaths: cfg.Logging.OutputPaths,
	}
	if err := logger.Initialize(loggerConfig); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.GetLogger()

	log.Info("Starting Solana wallet API server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.Bool("csrf_enabled", cfg.Security.EnableCSRF),
		zap.Int("wallet_creation_limit", cfg.RateLimit.WalletCreation.Requests),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("environment", cfg.Logging.Environment),
	)

	var authService services.AuthServiceInterface
	var mongoClient *mongo.Client
	if cfg.Auth.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.ConnectTimeout)
		mongoClient, authService, err = connectAuth(ctx, cfg)
		cancel()
		if err != nil {
			log.Fatal("Failed to initialize authentication", zap.Error(err))
		}
	}

	server, err := NewServer(cfg, authService, mongoClient)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		log.Fatal("Server failed to start", zap.Error(err))
	}
}

func connectAuth(ctx context.Context, cfg *config.Config) (*mongo.Client, services.AuthServiceInterface, error) {
	client, err := services.Connect(ctx, &cfg.MongoDB)
	if err != nil {
		return nil, nil, err
	}

	authService, err := services.NewAuthService(ctx, client, &cfg.MongoDB, logger.GetLogger())
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	return client, authService, nil
}

// NewServer wires every component. authService may be nil, in which case the
// API is served without API key checks; mongoClient, when set, also backs the
// database health checks.
func NewServer(cfg *config.Config, authService services.AuthServiceInterface, mongoClient *mongo.Client) (*Server, error) {
	log := logger.GetLogger()

	log.Info("Initializing server components")

	collector := metrics.NewMetricsCollector()

	rateLimiter := ratelimiter.New(cfg.RateLimit.Rules(),
		ratelimiter.WithSweepPolicy(ratelimiter.NewProbabilisticSweep(cfg.RateLimit.SweepProbability)),
		ratelimiter.WithFailClosed(cfg.RateLimit.FailClosed),
		ratelimiter.WithLogger(log.Component("ratelimit").Logger),
	)

	prom := metrics.NewPrometheus(rateLimiter.Size)
	recorders := metrics.Recorders{collector, prom}

	// Wallets and tokens share one lock table so both natural keys are
	// serialized by the same sweeper
	locks := mutex.New(lockIdleTTL)
	crudOptions := []crud.Option{
		crud.WithLogger(log.Component("crud")),
		crud.WithKeyedMutex(locks),
		crud.WithWaitRecorder(recorders),
	}

	walletRepo := repository.NewMemoryWalletRepository(nil)
	tokenRepo := repository.NewMemoryTokenRepository(nil)
	audit := services.NewAuditLogger(log)

	walletService := services.NewWalletService(walletRepo, audit, crudOptions...)
	tokenService := services.NewTokenService(tokenRepo, crudOptions...)

	validator := httpsecurity.NewValidator()
	validator.MaxRequestSize = cfg.Security.MaxRequestSize

	pipeline := security.New(security.Config{
		EnableRateLimit:         cfg.Security.EnableRateLimit,
		EnableCORS:              cfg.Security.EnableCORS,
		EnableRequestValidation: cfg.Security.EnableRequestValidation,
		EnableSecurityHeaders:   cfg.Security.EnableSecurityHeaders,
		AllowedOrigins:          cfg.Security.AllowedOrigins,
	}, rateLimiter, validator, log, recorders)

	csrf, err := security.NewCSRFStore(csrfStoreSize, csrfTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize CSRF store: %w", err)
	}

	var cachedAuth *services.CachedAuthService
	if authService != nil {
		log.Debug("Wrapping authentication service with cache",
			zap.Duration("ttl", cfg.Auth.CacheTTL),
			zap.Int("max_size", cfg.Auth.CacheMaxSize),
		)
		cachedAuth, err = services.NewCachedAuthService(authService, cfg.Auth.CacheMaxSize, cfg.Auth.CacheTTL, collector)
		if err != nil {
			csrf.Stop()
			return nil, fmt.Errorf("failed to initialize auth cache: %w", err)
		}
	}

	var dbHealthChecker *services.DatabaseHealthChecker
	if mongoClient != nil {
		dbHealthChecker = services.NewDatabaseHealthChecker(mongoClient, &cfg.MongoDB)
	}

	router := handlers.NewRouter(
		handlers.NewWalletHandler(walletService),
		handlers.NewTokenHandler(tokenService),
		handlers.NewRateLimitHandler(rateLimiter),
		handlers.NewSecurityHandler(audit, csrf, sanitizer.DefaultPasswordPolicy()),
		handlers.NewHealthHandler(version, dbHealthChecker, services.NewRepositoryHealthChecker(walletRepo, tokenRepo)),
		handlers.NewMetricsHandler(serviceName, version, collector, prom, rateLimiter.Size),
	)

	log.Info("Server components initialized successfully")

	return &Server{
		config:        cfg,
		mongoClient:   mongoClient,
		authService:   authService,
		cachedAuth:    cachedAuth,
		rateLimiter:   rateLimiter,
		locks:         locks,
		csrf:          csrf,
		pipeline:      pipeline,
		walletService: walletService,
		tokenService:  tokenService,
		collector:     collector,
		prom:          prom,
		router:        router,
		stopCleanup:   make(chan struct{}),
	}, nil
}

// Engine builds the gin engine with the full middleware stack and routes
func (s *Server) Engine() (*gin.Engine, error) {
	engine := gin.New()

	if err := engine.SetTrustedProxies(s.config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	s.setupMiddleware(engine)
	s.setupRoutes(engine)

	return engine, nil
}

// Start starts the HTTP server with graceful shutdown handling
func (s *Server) Start() error {
	log := logger.GetLogger()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := s.Engine()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:           engine,
		ReadTimeout:       s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second, // Prevent slow header attacks
		MaxHeaderBytes:    1 << 20,
	}

	log.Info("HTTP server configured",
		zap.String("address", s.httpServer.Addr),
		zap.Duration("read_timeout", s.config.Server.ReadTimeout),
		zap.Duration("write_timeout", s.config.Server.WriteTimeout),
		zap.Duration("idle_timeout", s.config.Server.IdleTimeout),
	)

	s.startCleanupRoutines()

	go func() {
		log.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	return s.waitForShutdown()
}

// setupMiddleware configures the engine-wide middleware stack
func (s *Server) setupMiddleware(engine *gin.Engine) {
	// Recovery first so panics in later middleware are logged
	engine.Use(logger.RecoveryMiddleware())
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.MetricsMiddleware(s.collector, s.prom))

	if s.config.Security.EnableCORS {
		engine.Use(middleware.CORSMiddleware(s.config.Security.AllowedOrigins))
	}
}

// apiMiddleware returns the /api chain: authentication first so the security
// pipeline and CSRF check see the caller's key id
func (s *Server) apiMiddleware() []gin.HandlerFunc {
	var chain []gin.HandlerFunc
	if s.cachedAuth != nil {
		chain = append(chain, middleware.AuthMiddleware(s.cachedAuth))
	}
	chain = append(chain, middleware.SecurityMiddleware(s.pipeline, s.config.Security.MaxRequestSize))
	if s.config.Security.EnableCSRF {
		chain = append(chain, middleware.CSRFMiddleware(s.csrf))
	}
	return chain
}

// setupRoutes configures all application routes
func (s *Server) setupRoutes(engine *gin.Engine) {
	// Health and metrics are served without authentication
	s.router.SetupHealthRoutes(engine)
	s.router.SetupMetricsRoutes(engine)
	engine.GET("/status", s.statusHandler)

	s.router.SetupRoutes(engine, s.apiMiddleware()...)

	if s.config.Auth.AdminKey != "" {
		s.router.SetupAdminRoutes(engine,
			middleware.AdminMiddleware(s.config.Auth.AdminKey),
			middleware.SecurityMiddleware(s.pipeline, s.config.Security.MaxRequestSize),
		)
	} else {
		logger.GetLogger().Info("ADMIN_API_KEY not set, rate limit admin routes disabled")
	}
}

// statusHandler provides a short process summary
func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":            serviceName,
		"status":             "running",
		"auth_enabled":       s.cachedAuth != nil,
		"rate_limit_entries": s.rateLimiter.Size(),
		"uptime":             s.collector.GetUptime().String(),
		"version":            version,
	})
}

// startCleanupRoutines starts background cleanup tasks
func (s *Server) startCleanupRoutines() {
	log := logger.GetLogger()

	interval := s.config.RateLimit.CleanupInterval
	if interval <= 0 {
		log.Info("Periodic rate limiter cleanup disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Debug("Starting rate limiter cleanup routine", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				if removed := s.rateLimiter.Cleanup(); removed > 0 {
					log.Debug("Removed expired rate limit entries", zap.Int("removed", removed))
				}
			case <-s.stopCleanup:
				return
			}
		}
	}()

	log.Info("Background cleanup routines started")
}

// waitForShutdown waits for interrupt signal and performs graceful shutdown
func (s *Server) waitForShutdown() error {
	log := logger.GetLogger()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	timeout := s.config.Server.ShutdownTimeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info("Shutting down HTTP server", zap.Duration("timeout", timeout))

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	s.cleanup()

	log.Info("Server gracefully stopped")
	return nil
}

// cleanup stops background goroutines and closes the database connection
func (s *Server) cleanup() {
	log := logger.GetLogger()

	log.Info("Cleaning up services...")

	close(s.stopCleanup)
	s.locks.Stop()
	s.csrf.Stop()

	if s.cachedAuth != nil {
		s.cachedAuth.Stop()
	}

	if s.mongoClient != nil {
		log.Debug("Closing MongoDB connection")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.mongoClient.Disconnect(ctx); err != nil {
			log.Error("Error closing MongoDB connection", zap.Error(err))
		}
		cancel()
	}

	if err := logger.GetLogger().Sync(); err != nil {
		// Don't log this error as logger might be closed
		fmt.Printf("Error syncing logger: %v\n", err)
	}

	log.Info("Cleanup completed")
}
