// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"referral-service/internal/clock"
	"referral-service/internal/config"
	"referral-service/internal/db"
	billingHandler "referral-service/internal/handlers/billing"
	campaignHandler "referral-service/internal/handlers/campaign"
	couponHandler "referral-service/internal/handlers/coupon"
	customerHandler "referral-service/internal/handlers/customer"
	notifyHandler "referral-service/internal/handlers/notification"
	redemptionHandler "referral-service/internal/handlers/redemption"
	wsHandler "referral-service/internal/handlers/ws"
	"referral-service/internal/middleware"
	"referral-service/internal/notifier"
	"referral-service/internal/pkg/ratelimit"
	"referral-service/internal/pkg/token"
	"referral-service/internal/repository/postgres"
	billingService "referral-service/internal/service/billing"
	campaignService "referral-service/internal/service/campaign"
	couponService "referral-service/internal/service/coupon"
	customerService "referral-service/internal/service/customer"
	notifyService "referral-service/internal/service/notification"
	pointsService "referral-service/internal/service/points"
	redemptionService "referral-service/internal/service/redemption"
	"referral-service/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	httpServer  *http.Server
	pool        *pgxpool.Pool
	redisClient *redis.Client
	dispatcher  *notifier.Dispatcher
	hubCancel   context.CancelFunc
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redisClient = redisClient

	// ----- Token manager -----
	tokens, err := token.NewManager(s.cfg.Token)
	if err != nil {
		return fmt.Errorf("failed to build token manager: %w", err)
	}

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	campaignRepo := postgres.NewCampaignRepository(pool)
	redemptionRepo := postgres.NewRedemptionRepository(pool)
	billRepo := postgres.NewBillRepository(pool)
	notifyRepo := postgres.NewNotificationRepository(pool)

	redemptionStore := postgres.NewRedemptionStore(dbWrapper, couponRepo, customerRepo, redemptionRepo, campaignRepo)
	billStore := postgres.NewBillStore(dbWrapper, billRepo, customerRepo)
	customerStore := postgres.NewCustomerStore(dbWrapper, customerRepo, couponRepo)

	// ----- Event feed -----
	hub := ws.NewHub(logger)
	hubCtx, hubCancel := context.WithCancel(ctx)
	s.hubCancel = hubCancel
	go hub.Run(hubCtx)

	// ----- Notifier -----
	// The session is owned here; the dispatcher only borrows it.
	session := notifier.NewHTTPSession(s.cfg.NotifierURL, s.cfg.NotifierAPIKey, s.cfg.NotifierTimeout)
	if err := session.Connect(ctx); err != nil {
		logger.Warn("message gateway not reachable at startup", zap.Error(err))
	}
	dispatcher := notifier.NewDispatcher(
		session, notifyRepo, clock.SystemClock{}, logger,
		s.cfg.NotifierWorkers, s.cfg.NotifierDelay, s.cfg.NotifierTimeout,
	)
	s.dispatcher = dispatcher

	// ----- Services -----
	pointsEngine := pointsService.NewEngine(customerRepo, logger)
	customerSvc := customerService.NewService(customerStore, pointsEngine, logger)
	campaignSvc := campaignService.NewService(campaignRepo, logger)
	couponSvc := couponService.NewService(couponRepo, campaignRepo, customerRepo, logger)
	workflow := redemptionService.NewWorkflow(redemptionStore, dispatcher, hub, logger)
	billingSvc := billingService.NewService(billStore, campaignRepo, customerRepo, dispatcher, hub, logger)
	notifySvc := notifyService.NewService(notifyRepo, logger)

	// ----- Middleware -----
	authMW := middleware.NewAuthMiddleware(tokens)
	redeemLimiter := ratelimit.NewLimiter(redisClient, int(s.cfg.RedeemRateLimit), s.cfg.RedeemRateWindow)

	s.engine.Use(middleware.RecoveryMiddleware(logger))
	s.engine.Use(middleware.LoggingMiddleware(logger))

	handlers := &Handlers{
		CustomerHandler:   customerHandler.NewCustomerHandler(customerSvc),
		CampaignHandler:   campaignHandler.NewCampaignHandler(campaignSvc),
		CouponHandler:     couponHandler.NewCouponHandler(couponSvc),
		RedemptionHandler: redemptionHandler.NewRedemptionHandler(workflow, redemptionRepo),
		BillingHandler:    billingHandler.NewBillingHandler(billingSvc),
		NotifHandler:      notifyHandler.NewNotificationHandler(notifySvc),
		WSHandler:         wsHandler.NewWSHandler(hub, logger),
		AuthMiddleware:    authMW,
		RedeemRateLimit:   middleware.RateLimitMiddleware(redeemLimiter, logger),
	}

	SetupRouter(s.engine, handlers)

	logger.Info("server starting", zap.String("addr", s.cfg.HTTPAddr))

	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains the HTTP server, stops the event hub and the notifier
// workers, then releases the database and cache connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if s.hubCancel != nil {
		s.hubCancel()
	}
	if s.dispatcher != nil {
		s.dispatcher.Close()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.logger != nil {
		s.logger.Sync()
	}

	return firstErr
}
