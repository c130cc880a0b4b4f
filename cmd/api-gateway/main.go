package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	_ "github.com/tankas-app/tankas-api/api/swagger"
	"github.com/tankas-app/tankas-api/internal/geo"
	"github.com/tankas-app/tankas-api/internal/handler"
	"github.com/tankas-app/tankas-api/internal/middleware"
	"github.com/tankas-app/tankas-api/internal/repository"
	"github.com/tankas-app/tankas-api/internal/router"
	"github.com/tankas-app/tankas-api/internal/service"
	"github.com/tankas-app/tankas-api/pkg/cache"
	"github.com/tankas-app/tankas-api/pkg/config"
	"github.com/tankas-app/tankas-api/pkg/database"
	"github.com/tankas-app/tankas-api/pkg/logger"
	corsmiddleware "github.com/tankas-app/tankas-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tankas-app/tankas-api/pkg/middleware/requestid"
	"github.com/tankas-app/tankas-api/pkg/storage"
)

// @title Tankas API
// @version 1.0.0
// @description Community issue reporting with GPS verified resolution, points and pledges.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logr.Fatal("mongodb unavailable", zap.Error(err))
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		logr.Fatal("failed to ensure mongodb indexes", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.Pinger{
		"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.RateLimit.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, cache and rate limiting disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	var pointsSvc *service.PointsService
	userRepo := repository.NewUserRepository(mongoDB)
	if cfg.Ledger.Enabled {
		ledgerDB, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("points ledger database unavailable", zap.Error(err))
		}
		defer ledgerDB.Close()
		if err := database.MigrateLedger(ctx, ledgerDB); err != nil {
			logr.Fatal("failed to migrate points ledger", zap.Error(err))
		}
		checks["postgres"] = pingSQL(ledgerDB)
		pointsSvc = service.NewPointsService(userRepo, repository.NewLedgerRepository(ledgerDB), metrics, logr)
	} else {
		pointsSvc = service.NewPointsService(userRepo, nil, metrics, logr)
	}

	blobs, err := storage.NewLocalStorage(storage.Options{
		BaseDir:           cfg.Storage.Dir,
		PublicBaseURL:     cfg.Storage.PublicBaseURL,
		MaxFileSize:       cfg.Storage.MaxFileSize,
		AllowedExtensions: cfg.Storage.AllowedExtensions,
		MaxWidth:          cfg.Storage.MaxWidth,
		MaxHeight:         cfg.Storage.MaxHeight,
		JPEGQuality:       cfg.Storage.JPEGQuality,
	})
	if err != nil {
		logr.Fatal("failed to prepare upload storage", zap.Error(err))
	}

	issueRepo := repository.NewIssueRepository(mongoDB)
	pledgeRepo := repository.NewPledgeRepository(mongoDB)
	volunteerRepo := repository.NewVolunteerRepository(mongoDB)
	validate := validator.New()
	gps := geo.NewEXIFExtractor()

	pledgeSvc := service.NewPledgeService(issueRepo, userRepo, pledgeRepo, pointsSvc, cacheSvc, metrics, validate, logr)
	reconciler := service.NewReconciliationService(issueRepo, pledgeSvc, cacheSvc, logr, service.ReconciliationConfig{
		Workers:    cfg.Reconciliation.Workers,
		MaxRetries: cfg.Reconciliation.MaxRetries,
		RetryDelay: cfg.Reconciliation.RetryDelay,
	})
	reconciler.Start(ctx)
	defer reconciler.Stop()
	if scheduled, err := reconciler.Sweep(ctx); err != nil {
		logr.Error("pending distribution sweep failed", zap.Error(err))
	} else if scheduled > 0 {
		logr.Info("pending distributions scheduled", zap.Int("count", scheduled))
	}

	resolutionSvc := service.NewResolutionService(issueRepo, userRepo, blobs, gps, pointsSvc, pledgeSvc, reconciler, cacheSvc, metrics, logr,
		service.ResolutionConfig{MaxDistanceMeters: cfg.Verification.MaxDistanceMeters})
	issueSvc := service.NewIssueService(issueRepo, userRepo, pledgeRepo, blobs, gps, pointsSvc, cacheSvc, validate, logr)
	volunteerSvc := service.NewVolunteerService(issueRepo, userRepo, volunteerRepo, pointsSvc, cacheSvc, validate, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})

	var issueRateLimit gin.HandlerFunc
	if cfg.RateLimit.Enabled && redisClient != nil {
		issueRateLimit = middleware.RateLimit(redisClient, middleware.RateLimitConfig{
			Limit:  cfg.RateLimit.IssueLimit,
			Window: cfg.RateLimit.Window,
			Prefix: cfg.RateLimit.Prefix,
		}, logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.MaxMultipartMemory = cfg.Storage.MaxFileSize + 1<<20

	router.SetupRoutes(r, router.Handlers{
		Issues:     handler.NewIssueHandler(issueSvc, resolutionSvc, cfg.Storage.MaxFileSize),
		Pledges:    handler.NewPledgeHandler(pledgeSvc),
		Volunteers: handler.NewVolunteerHandler(volunteerSvc),
		Points:     handler.NewPointsHandler(pointsSvc),
		Metrics:    handler.NewMetricsHandler(metrics, checks, logr),
	}, router.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		MediaDir:       blobs.Dir(),
		EnableDocs:     cfg.Env != config.EnvProduction,
		Auth:           authSvc,
		IssueRateLimit: issueRateLimit,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown error", zap.Error(err))
	}
}

func pingSQL(db *sqlx.DB) handler.Pinger {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}
