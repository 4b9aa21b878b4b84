package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/joho/godotenv/autoload"

	"uploadgate/internal/auth"
	"uploadgate/internal/cache"
	"uploadgate/internal/config"
	"uploadgate/internal/handler"
	"uploadgate/internal/queue"
	"uploadgate/internal/s3"
	"uploadgate/internal/store"
	"uploadgate/internal/upload"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if cfg.S3Bucket == "" {
		logger.Error("S3_BUCKET is required")
		os.Exit(1)
	}

	policy, err := config.LoadUploadPolicy()
	if err != nil {
		logger.Error("failed to load upload policy", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	gateway, err := s3.NewClient(ctx, s3.Options{
		Region:        cfg.S3Region,
		AccessKey:     cfg.AWSAccessKey,
		SecretKey:     cfg.AWSSecretKey,
		Endpoint:      cfg.S3Endpoint,
		PresignExpiry: policy.PresignExpiry(),
		SSEAlgorithm:  cfg.SSEAlgorithm,
		SSEKMSKeyID:   cfg.SSEKMSKeyID,
	})
	if err != nil {
		logger.Error("failed to build S3 client", "error", err)
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})
	sessionStore := store.NewSessionStore(dynamoClient, cfg.SessionTable)

	var notifier upload.CompletionNotifier
	if cfg.QueueURL != "" {
		notifier = queue.NewNotifier(sqs.NewFromConfig(awsCfg), cfg.QueueURL)
	}

	var listCache upload.Cache
	if cfg.RedisAddr != "" {
		listCache = cache.NewRedisCache(cfg.RedisAddr)
	}

	service := upload.NewService(sessionStore, gateway, notifier, listCache, policy, cfg.S3Bucket, logger)

	reconciler := upload.NewReconciler(ctx, sessionStore, gateway, listCache, policy, logger)
	if policy.CleanupEnabled {
		reconciler.Start()
	}

	apiMux := http.NewServeMux()
	uploadHandler := handler.NewUploadHandler(service, logger)
	uploadHandler.Register(apiMux)

	mux := http.NewServeMux()
	mux.Handle("/api/", auth.Middleware(&auth.Config{APIKey: cfg.APIKey})(apiMux))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if policy.CleanupEnabled {
		if err := reconciler.Shutdown(shutdownCtx); err != nil {
			logger.Error("reconciler forced to shutdown", "error", err)
		}
	}

	logger.Info("server exited")
}
