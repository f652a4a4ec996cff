package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/adapter/http/router"
	natsAdapter "github.com/Abdurahmanit/GroupProject/realty-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/adapter/remote"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/adapter/repository/cache"
	mongoRepo "github.com/Abdurahmanit/GroupProject/realty-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/usecase"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/tracer"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(&logger.LoggerConfig{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputFile: cfg.LogOutputFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Application starting...",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_set", cfg.MongoURI != ""),
		zap.String("nats_url", cfg.NATSURL))
	if cfg.InsecureJWTSecret() {
		appLogger.Warn("JWT_SECRET is using the built-in default; set it outside development")
	}

	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	metricsManager := metrics.NewMetricsManager(cfg.ServiceName)
	go func() {
		if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Prometheus metrics server failed", zap.Error(err))
		}
	}()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := mongoClient.Ping(ctxPing, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	db := mongoClient.Database(cfg.MongoDatabase)
	appLogger.Info("Successfully connected and pinged MongoDB.")

	listingRepo, err := mongoRepo.NewListingRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize ListingRepository", zap.Error(err))
	}
	accountRepo, err := mongoRepo.NewAccountRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize AccountRepository", zap.Error(err))
	}
	proxyRepo, err := mongoRepo.NewImageProxyRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize ImageProxyRepository", zap.Error(err))
	}

	ctxRedis, cancelRedis := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelRedis()
	redisClient, err := cache.NewRedisClient(ctxRedis, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	listingCache := cache.NewListingCache(redisClient, cfg.ListingCacheTTL, appLogger)
	appLogger.Info("Redis connected.", zap.String("address", cfg.RedisAddress))

	ctxStorage, cancelStorage := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStorage()
	blobStore, err := s3.NewS3Storage(ctxStorage, s3.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		PublicURL: cfg.MinioPublicURL,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize S3 storage", zap.Error(err))
	}

	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, cfg.ServiceName)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()

	smtpMailer := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPEmail,
		Password: cfg.SMTPPassword,
	}, appLogger)

	transformer := usecase.NewFitTransformer()
	mediaProxy := usecase.NewMediaProxy(proxyRepo, accountRepo, blobStore,
		remote.NewHTTPFetcher(nil, appLogger), natsPublisher,
		usecase.MediaProxyConfig{PublicBaseURL: cfg.PublicBaseURL, DefaultImageURL: cfg.ProfileDefaultImgURL},
		appLogger)
	sanitizer := usecase.NewSanitizer(listingRepo, mediaProxy, appLogger)
	searchEngine := usecase.NewSearchEngine(listingRepo, sanitizer, appLogger)
	listingService := usecase.NewListingService(listingRepo, accountRepo, listingCache, blobStore, transformer,
		natsPublisher, smtpMailer, sanitizer,
		usecase.ListingServiceConfig{MinImages: cfg.GalleryMinImages, MaxImages: cfg.GalleryMaxImages},
		appLogger)
	accountService := usecase.NewAccountService(accountRepo, listingRepo, listingCache, mediaProxy, blobStore,
		transformer, natsPublisher, sanitizer, appLogger)

	mux := router.New(router.Config{
		Listings:  handler.NewListingHandler(listingService, searchEngine, cfg.GalleryMaxImages, metricsManager, appLogger),
		Accounts:  handler.NewAccountHandler(accountService, metricsManager, appLogger),
		Media:     handler.NewMediaHandler(mediaProxy, metricsManager, appLogger),
		JWTSecret: cfg.JWTSecret,
		UploadLimiter: middleware.NewRateLimiter("upload", cfg.UploadRateLimit, cfg.RateLimitWindow,
			"Too many file upload attempts. Please try again later.", appLogger,
			middleware.RedisCounter(redisClient, "upload")),
		UpdateLimiter: middleware.NewRateLimiter("update", cfg.UpdateRateLimit, cfg.RateLimitWindow,
			"Too many update attempts. Please try again later.", appLogger,
			middleware.RedisCounter(redisClient, "update")),
		Metrics:     metricsManager,
		Logger:      appLogger,
		ServiceName: cfg.ServiceName,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Application shutting down...")
}
