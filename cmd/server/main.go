// Package main runs the compatibility quiz HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-quiz/backend/config"
	"github.com/aura-quiz/backend/internal/auth"
	"github.com/aura-quiz/backend/internal/generation"
	"github.com/aura-quiz/backend/internal/middleware"
	"github.com/aura-quiz/backend/internal/quizzes"
	"github.com/aura-quiz/backend/internal/realtime"
	"github.com/aura-quiz/backend/internal/sessions"
	"github.com/aura-quiz/backend/internal/share"
	"github.com/aura-quiz/backend/internal/worker"
	"github.com/aura-quiz/backend/pkg/database"
	"github.com/aura-quiz/backend/pkg/queue"
	"github.com/aura-quiz/backend/pkg/redis"
	"github.com/aura-quiz/backend/pkg/response"
	"github.com/aura-quiz/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Gemini.Validate(); err != nil {
		logger.Fatal("gemini config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	links, err := share.NewLinks(cfg.Share.BaseURL, cfg.Share.QRSize)
	if err != nil {
		logger.Fatal("share links", zap.Error(err))
	}

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ShareBucket:     cfg.AWS.ShareBucket,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled, share cards off", zap.Error(err))
			s3Client = nil
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Quizzes: Postgres behind a Redis read-through cache, questions from Gemini
	quizRepo := quizzes.NewRepository(pool)
	quizStore := quizzes.NewCachedStore(quizRepo, rdb.Client, cfg.Share.CacheTTL, logger)
	generator := generation.NewClient(generation.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: time.Duration(cfg.Gemini.TimeoutSec) * time.Second,
	}, nil, logger)
	quizService := quizzes.NewService(quizStore, generator, logger)

	// Share cards (QR PNG in S3), rendered by the queue worker
	jobQueue := queue.NewQueue(rdb.Client, logger)
	var cards quizzes.CardURLs
	var cardProcessor *worker.ShareCardProcessor
	if s3Client != nil {
		cards = s3Client
		quizService.SetPublisher(share.NewCardPublisher(links, jobQueue, logger))
		cardProcessor = worker.NewShareCardProcessor(links, s3Client, jobQueue, logger)
	}
	quizHandler := quizzes.NewHandler(quizService, links, cards)

	// Lifecycle sessions; every transition is also seen by the realtime hub
	sessionService := sessions.NewService(
		sessions.NewRedisStore(rdb.Client, cfg.Session.TTL),
		sessions.NewLocker(rdb.Client, cfg.Session.GenerationLock, logger).WithWait(cfg.Session.LockWait),
		quizService,
		logger,
		hub,
	)
	sessionHandler := sessions.NewHandler(sessionService, links)

	authHandler := auth.NewHandler(jwtService, logger)

	jwtValidate := func(token string) (string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}
	ownsQuiz := func(ctx context.Context, quizID, userID string) (bool, error) {
		q, err := quizService.Get(ctx, quizID)
		if err != nil {
			return false, err
		}
		return q.IsOwnedBy(userID), nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Guest identity (public; re-issues for a valid bearer token)
	router.POST("/auth/guest", authHandler.Guest)

	// Quizzes: anyone holding the id can read and score; creating needs an identity
	router.POST("/quizzes", middleware.JWT(jwtService), quizHandler.Create)
	quizGroup := router.Group("/quizzes/:id")
	quizGroup.Use(middleware.OptionalJWT(jwtService))
	{
		quizGroup.GET("", quizHandler.GetByID)
		quizGroup.GET("/share", quizHandler.Share)
		quizGroup.GET("/qr.png", quizHandler.QRCode)
		quizGroup.POST("/score", quizHandler.Score)
	}

	// Sessions (JWT required; a session belongs to the guest who started it)
	sessionGroup := router.Group("/sessions")
	sessionGroup.Use(middleware.JWT(jwtService))
	{
		sessionGroup.POST("", sessionHandler.Start)
		sessionGroup.GET("/:id", sessionHandler.Get)
		sessionGroup.GET("/:id/share", sessionHandler.Share)
		sessionGroup.POST("/:id/generate", sessionHandler.Generate)
		sessionGroup.POST("/:id/take", sessionHandler.TakeOwn)
		sessionGroup.POST("/:id/open", sessionHandler.Open)
		sessionGroup.PUT("/:id/answers/:index", sessionHandler.Answer)
		sessionGroup.POST("/:id/submit", sessionHandler.Submit)
		sessionGroup.POST("/:id/reset", sessionHandler.Reset)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate, ownsQuiz))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (share cards to S3)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cardProcessor != nil && cfg.Server.RunWorker {
		go cardProcessor.Run(workerCtx)
		logger.Info("share card worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
