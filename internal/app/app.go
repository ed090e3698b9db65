package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/adapter/email"
	mongoadapter "github.com/el-rey08/EDHF-logistics/internal/adapter/mongo"
	natsadapter "github.com/el-rey08/EDHF-logistics/internal/adapter/nats"
	redisadapter "github.com/el-rey08/EDHF-logistics/internal/adapter/redis"
	"github.com/el-rey08/EDHF-logistics/internal/adapter/storage/s3"
	"github.com/el-rey08/EDHF-logistics/internal/config"
	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/handler"
	"github.com/el-rey08/EDHF-logistics/internal/middleware"
	"github.com/el-rey08/EDHF-logistics/internal/otp"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/platform/metrics"
	"github.com/el-rey08/EDHF-logistics/internal/platform/tracer"
	"github.com/el-rey08/EDHF-logistics/internal/router"
	"github.com/el-rey08/EDHF-logistics/internal/session"
	"github.com/el-rey08/EDHF-logistics/internal/usecase"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type App struct {
	cfg            *config.Config
	log            *logger.Logger
	server         *http.Server
	metricsServer  *metrics.Server
	tracerProvider *sdktrace.TracerProvider
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	natsConn       *nats.Conn
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	appLogger, err := logger.New(&logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, OutputFile: cfg.LogFile})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger = appLogger.With(zap.String("service", cfg.ServiceName))
	appLogger.Info("Configuration loaded", zap.String("env", cfg.Env), zap.String("http_port", cfg.HTTP.Port))
	if cfg.InsecureJWTSecret() {
		appLogger.Warn("JWT_SECRET is the built-in default; set a real secret outside development")
	}

	a := &App{cfg: cfg, log: appLogger}
	a.tracerProvider = tracer.Setup(ctx, tracer.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	}, appLogger)

	appMetrics := metrics.NewMetricsManager("edhf")
	a.metricsServer = metrics.NewServer(cfg.MetricsPort, appMetrics.Registry, appLogger)

	appLogger.Info("Initializing MongoDB client...")
	a.mongoClient, err = mongoadapter.NewClient(ctx, cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	db := a.mongoClient.Database(cfg.Mongo.Database)
	appLogger.Info("MongoDB client initialized successfully", zap.String("database", cfg.Mongo.Database))

	appLogger.Info("Initializing Redis client...")
	a.redisClient, err = redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		a.closeStores(ctx)
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	appLogger.Info("Redis client initialized successfully")

	var (
		publisher usecase.Publisher
		feed      usecase.LocationFeed
	)
	if cfg.NATS.URL != "" {
		a.natsConn, err = natsadapter.NewConnection(cfg.NATS, cfg.ServiceName, appLogger)
		if err != nil {
			a.closeStores(ctx)
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		if publisher, err = natsadapter.NewPublisher(a.natsConn); err != nil {
			a.closeStores(ctx)
			return nil, err
		}
		if feed, err = natsadapter.NewSubscriber(a.natsConn); err != nil {
			a.closeStores(ctx)
			return nil, err
		}
	} else {
		appLogger.Warn("NATS_URL is empty: events are not published and live location streaming is off")
	}

	var sender email.Sender
	if cfg.SMTP.Enabled() {
		if sender, err = email.NewSMTPSender(cfg.SMTP, appLogger); err != nil {
			a.closeStores(ctx)
			return nil, err
		}
	} else {
		appLogger.Warn("SMTP is not configured: emails are written to the log instead")
		sender = email.NewLogSender(appLogger)
	}
	mailer := email.NewDispatcher(sender, cfg.SMTP.AdminEmail, appLogger)

	var storage usecase.FileStorage
	if cfg.Minio.Endpoint != "" {
		st, err := s3.NewS3Storage(ctx, cfg.Minio, appLogger)
		if err != nil {
			a.closeStores(ctx)
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		storage = st
	}

	userRepo := mongoadapter.NewUserRepository(db, appLogger)
	riderRepo := mongoadapter.NewRiderRepository(db, appLogger)
	companyRepo := mongoadapter.NewCompanyRepository(db, appLogger)
	deliveryRepo := mongoadapter.NewDeliveryRepository(db, appLogger)
	notificationRepo := mongoadapter.NewNotificationRepository(db, appLogger)
	counterRepo := mongoadapter.NewCounterRepository(db, appLogger)
	revocationRepo := mongoadapter.NewRevocationRepository(db, appLogger)
	locationStore := redisadapter.NewLocationStore(a.redisClient, cfg.Delivery.LocationTTL)

	issuer, err := session.NewIssuer(cfg.JWT.Secret, revocationRepo, session.WithIssuerName(cfg.ServiceName))
	if err != nil {
		a.closeStores(ctx)
		return nil, err
	}
	engine := otp.NewEngine(otp.Config{
		Digits:      cfg.OTP.Digits,
		TTL:         cfg.OTP.TTL,
		Cooldown:    cfg.OTP.Cooldown,
		MaxAttempts: cfg.OTP.MaxAttempts,
		HashCost:    cfg.OTP.HashCost,
	})
	accountCfg := usecase.AccountServiceConfig{
		LoginTTL:     cfg.JWT.LoginTTL,
		VerifyTTL:    cfg.JWT.VerifyTTL,
		EventSubject: cfg.NATS.AccountSubject,
	}

	userSvc := usecase.NewAccountService[*domain.User](userRepo, domain.NewUser, engine, issuer, mailer, accountCfg, appLogger,
		usecase.WithStorage[*domain.User](storage),
		usecase.WithAccountEvents[*domain.User](publisher),
		usecase.WithAccountMetrics[*domain.User](appMetrics),
	)
	riderSvc := usecase.NewAccountService[*domain.Rider](riderRepo, domain.NewRider, engine, issuer, mailer, accountCfg, appLogger,
		usecase.WithPrepare(usecase.RiderPreparer(counterRepo)),
		usecase.WithStorage[*domain.Rider](storage),
		usecase.WithAccountEvents[*domain.Rider](publisher),
		usecase.WithAccountMetrics[*domain.Rider](appMetrics),
	)
	companySvc := usecase.NewAccountService[*domain.Company](companyRepo, domain.NewCompany, engine, issuer, mailer, accountCfg, appLogger,
		usecase.WithStorage[*domain.Company](storage),
		usecase.WithAccountEvents[*domain.Company](publisher),
		usecase.WithAccountMetrics[*domain.Company](appMetrics),
	)

	loc, err := time.LoadLocation(cfg.Delivery.TimeZone)
	if err != nil {
		a.closeStores(ctx)
		return nil, fmt.Errorf("failed to load delivery time zone: %w", err)
	}
	notificationSvc := usecase.NewNotificationService(notificationRepo, appLogger)
	deliverySvc := usecase.NewDeliveryService(deliveryRepo, riderRepo, counterRepo, notificationSvc, mailer, loc, appLogger,
		usecase.WithDeliveryEvents(publisher, cfg.NATS.DeliverySubject),
		usecase.WithDeliveryMetrics(appMetrics),
	)
	riderOpsSvc := usecase.NewRiderService(riderRepo, locationStore, notificationSvc, appLogger,
		usecase.WithRiderMetrics(appMetrics),
		usecase.WithLocationBroadcast(publisher, feed, cfg.NATS.LocationSubject),
	)

	var limiter middleware.Limiter
	switch cfg.RateLimit.Backend {
	case "redis":
		limiter = redisadapter.NewFixedWindowLimiter(a.redisClient, "rl", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	default:
		limiter = middleware.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	mongoClient := a.mongoClient
	handlers := router.Handlers{
		Users:         handler.NewAccountHandler[*domain.User](userSvc, cfg.HTTP.MaxUploadBytes, appLogger),
		Riders:        handler.NewAccountHandler[*domain.Rider](riderSvc, cfg.HTTP.MaxUploadBytes, appLogger),
		Companies:     handler.NewAccountHandler[*domain.Company](companySvc, cfg.HTTP.MaxUploadBytes, appLogger),
		Deliveries:    handler.NewDeliveryHandler(deliverySvc, appLogger),
		RiderOps:      handler.NewRiderHandler(riderOpsSvc, appLogger),
		Notifications: handler.NewNotificationHandler(notificationSvc, appLogger),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"mongo": func(ctx context.Context) error { return mongoadapter.Ping(ctx, mongoClient) },
		}, appLogger),
	}
	mux := router.New(handlers, issuer, limiter, appMetrics, appLogger)

	a.server = &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	appLogger.Info("HTTP server instance created", zap.String("addr", a.server.Addr))
	return a, nil
}

// Run serves until SIGINT or SIGTERM, then shuts everything down.
func (a *App) Run() {
	a.log.Info("Starting application components...")

	go func() {
		if err := a.metricsServer.Start(); err != nil {
			a.log.Error("Metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		a.log.Info("HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	a.log.Info("Received shutdown signal, shutting down application...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout+5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("Error during HTTP server graceful shutdown", zap.Error(err))
	} else {
		a.log.Info("HTTP server stopped successfully")
	}
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		a.log.Error("Error stopping metrics server", zap.Error(err))
	}
	if err := a.tracerProvider.Shutdown(ctx); err != nil {
		a.log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	a.closeStores(ctx)

	a.log.Info("Application shut down successfully")
	_ = a.log.Sync()
}

// closeStores releases NATS, Redis and Mongo, in that order. Nil members are skipped.
func (a *App) closeStores(ctx context.Context) {
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.log.Error("Error draining NATS connection", zap.Error(err))
			a.natsConn.Close()
		} else {
			a.log.Info("NATS connection drained")
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis client", zap.Error(err))
		} else {
			a.log.Info("Redis client closed successfully")
		}
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Error("Error disconnecting from MongoDB", zap.Error(err))
		} else {
			a.log.Info("MongoDB connection closed successfully")
		}
	}
}
