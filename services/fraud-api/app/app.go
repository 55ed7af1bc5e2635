package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/smartmedishop/fraud-pipeline/pkg/cache"
	"github.com/smartmedishop/fraud-pipeline/pkg/database"
	middleware "github.com/smartmedishop/fraud-pipeline/pkg/middlewares"
	"github.com/smartmedishop/fraud-pipeline/pkg/repositories"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/configs"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/internal/handlers"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/internal/services"
	"go.uber.org/zap"
)

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// It reads configuration from environment variables via configs.Load.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	// Load config
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	// Initialize postgres db
	dbConfig := database.Config{
		PrimaryDSN: cfg.PrimaryDbAddr,
		MaxConns:   cfg.MaxDbCons,
		MinConns:   cfg.MinDbCons,
	}
	if cfg.ReplicaDbAddr != "" {
		dbConfig.ReplicaDSNs = []string{cfg.ReplicaDbAddr}
	}
	db, disconnect, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations on primary
	if err := database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		disconnect()
		return nil, nil, err
	}

	// Behavior profile cache; the pipeline runs without it.
	var redisClient *redis.Client
	redisClose := func() {}
	if cfg.RedisAddr != "" {
		redisClient, redisClose, err = cache.New(ctx, cache.Config{Addr: cfg.RedisAddr})
		if err != nil {
			disconnect()
			return nil, nil, err
		}
	} else {
		logger.Warn("redis_disabled_no_addr_configured")
	}

	// Setup dependencies
	baseHandler := handlers.NewBaseHandler(logger)
	publisher := services.NewAlertPublisher(logger, ctx, cfg)

	txRepo := repositories.NewTransactionRepository()
	userRepo := repositories.NewUserRepository()
	behaviorRepo := repositories.NewBehaviorProfileRepository()
	alertRepo := repositories.NewFraudAlertRepository()

	behavior := services.NewBehaviorAggregator(services.BehaviorAggregatorConfig{
		Logger:      logger,
		DB:          db,
		Repo:        behaviorRepo,
		TxRepo:      txRepo,
		RedisClient: redisClient,
		CacheTTL:    cfg.BehaviorCacheTTL,
	})
	extractor := services.NewFeatureExtractor(services.FeatureExtractorConfig{
		Logger: logger,
		DB:     db,
		TxRepo: txRepo,
	})
	gateway := services.NewRiskModelGateway(services.RiskModelGatewayConfig{
		Logger: logger,
		Cnf:    cfg,
		Remote: services.NewRemoteScorer(logger, cfg),
		Rules:  services.NewRuleEngine(logger),
	})
	emitter := services.NewAlertEmitter(services.AlertEmitterConfig{
		Logger:    logger,
		AlertRepo: alertRepo,
	})
	txService := services.NewTransactionService(services.TransactionServiceConfig{
		Logger:    logger,
		DB:        db,
		TxRepo:    txRepo,
		UserRepo:  userRepo,
		Extractor: extractor,
		Gateway:   gateway,
		Behavior:  behavior,
		Emitter:   emitter,
		Publisher: publisher,
	})
	alertService := services.NewAlertService(services.AlertServiceConfig{
		Logger:    logger,
		DB:        db,
		AlertRepo: alertRepo,
	})

	txHandler := handlers.NewTransactionHandler(logger, txService)
	alertHandler := handlers.NewAlertHandler(logger, alertService)

	// Router
	r := gin.Default()

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.TraceID())
	api.Use(middleware.Metrics())

	txHandler.RegisterRoutes(api)
	alertHandler.RegisterRoutes(api)
	baseHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	cleanup := func() {
		// close db pools
		disconnect()
		// close redis client
		redisClose()
		// close kafka producer
		if publisher != nil {
			publisher.Close()
		}
	}

	return srv, cleanup, nil
}
