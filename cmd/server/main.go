package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventdesk/backend/config"
	"github.com/eventdesk/backend/internal/auth"
	"github.com/eventdesk/backend/internal/commands"
	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/gateway"
	"github.com/eventdesk/backend/internal/intake"
	"github.com/eventdesk/backend/internal/middleware"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/notify"
	"github.com/eventdesk/backend/internal/submissions"
	"github.com/eventdesk/backend/internal/uploads"
	"github.com/eventdesk/backend/pkg/database"
	"github.com/eventdesk/backend/pkg/redis"
	"github.com/eventdesk/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	// baseCtx parents every session and wizard goroutine; cancelling it
	// on shutdown stops all in-flight conversations.
	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startCtx, startCancel := context.WithTimeout(baseCtx, 30*time.Second)
	defer startCancel()

	pool, err := database.NewPostgresPool(startCtx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()
	if err := database.Migrate(startCtx, pool); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	rdb, err := redis.NewClient(startCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3 *storage.S3
	if cfg.AWS.AccessKeyID != "" || os.Getenv("AWS_ACCESS_KEY_ID") != "" {
		s3, err = storage.NewS3(startCtx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Bucket:               cfg.AWS.AttachmentsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Fatal("init s3", zap.Error(err))
		}
	} else {
		logger.Warn("S3 not configured, attachment uploads disabled")
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	pubsub := gateway.NewRedisPubSub(rdb, logger)
	hub := gateway.NewHub(logger, pubsub, pubsub)
	hub.EnsureChannel("lobby", models.ChannelLobby)
	announceID := hub.EnsureChannel(cfg.Intake.AnnounceChannel, models.ChannelLobby)

	var store events.Store
	switch cfg.Intake.StorageBackend {
	case "postgres":
		store = events.NewPostgresStore(pool)
	default:
		store = events.NewFileStore(cfg.Intake.EventFile)
	}

	subRepo := submissions.NewRepository(pool)
	sink := notify.NewChannelSink(hub, announceID, logger)
	registry := intake.NewRegistry()

	router := commands.NewRouter(commands.Config{
		Hub:          hub,
		Registry:     registry,
		Store:        store,
		Sink:         sink,
		Archive:      subRepo,
		StepTimeout:  time.Duration(cfg.Intake.StepTimeoutSec) * time.Second,
		MediaDomains: cfg.Intake.MediaDomains,
		BaseCtx:      baseCtx,
		Logger:       logger,
	})
	hub.SetMessageHandler(router.Handle)

	eventsHandler := events.NewHandler(store, logger)
	subHandler := submissions.NewHandler(subRepo, logger)
	uploadsHandler := uploads.NewHandler(s3, logger)

	// The gateway token is the same JWT the HTTP API uses; the user row
	// supplies the display name sessions greet applicants with.
	validate := func(token string) (uuid.UUID, string, models.Role, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, "", "", err
		}
		user, err := authRepo.GetByID(baseCtx, claims.UserID)
		if err != nil {
			return uuid.Nil, "", "", err
		}
		return user.ID, user.FullName, user.Role, nil
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.GET("/event", eventsHandler.Get)

		authed := api.Group("", middleware.JWT(jwtService))
		{
			authed.POST("/uploads/presign", uploadsHandler.Presign)
			authed.POST("/uploads", uploadsHandler.Upload)

			admin := authed.Group("", middleware.RequireRole(string(models.RoleAdmin)))
			{
				admin.GET("/submissions", subHandler.List)
				admin.GET("/users", authHandler.List)
				admin.GET("/uploads/download", uploadsHandler.Download)
			}
		}
	}

	r.GET("/ws", gateway.ServeWs(hub, logger, validate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	cancel() // stop in-flight intake sessions and wizards
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if os.Getenv("LOG_LEVEL") == "debug" {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
