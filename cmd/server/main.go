package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/shopmate/shopmate/internal/config"
	"github.com/shopmate/shopmate/internal/handlers"
	"github.com/shopmate/shopmate/internal/mailer"
	"github.com/shopmate/shopmate/internal/media"
	"github.com/shopmate/shopmate/internal/middleware"
	"github.com/shopmate/shopmate/internal/repository"
	"github.com/shopmate/shopmate/internal/service"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dynamoClient, err := initDynamoDB(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize DynamoDB")
	}

	redisClient, err := initRedis(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize Redis")
	}

	s3Client, err := initS3(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize S3")
	}

	// Repositories
	userRepo := repository.NewUserRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	productRepo := repository.NewProductRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	credentialRepo := repository.NewCredentialRepository(redisClient, logger)

	// Services
	tokenService, err := service.NewTokenService(&cfg.JWT, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize token service")
	}

	smtpMailer := mailer.New(cfg.SMTP, logger)
	mediaStore := media.NewS3Store(s3Client, cfg.Media, logger)

	otpService := service.NewOTPService(
		credentialRepo,
		userRepo,
		smtpMailer,
		tokenService,
		&cfg.OTP,
		cfg.AdminEmail,
		logger,
	)
	catalogService := service.NewCatalogService(productRepo, mediaStore, logger)

	authHandlers := handlers.NewAuthHandlers(otpService, userRepo, logger)
	productHandlers := handlers.NewProductHandlers(catalogService, logger)
	authMiddleware := middleware.NewAuthMiddleware(tokenService, userRepo, logger)

	router := setupRouter(authHandlers, productHandlers, authMiddleware, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initDynamoDB(cfg *config.Config, logger *logrus.Logger) (*dynamodb.Client, error) {
	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.Endpoint != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:           cfg.DynamoDB.Endpoint,
						SigningRegion: cfg.DynamoDB.Region,
					}, nil
				})),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(cfg.DynamoDB.Region))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	logger.Info("DynamoDB client initialized")
	return client, nil
}

func initRedis(cfg *config.Config, logger *logrus.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Redis client initialized")
	return client, nil
}

func initS3(cfg *config.Config, logger *logrus.Logger) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(cfg.Media.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Media.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Media.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("S3 client initialized")
	return client, nil
}

func setupRouter(
	authHandlers *handlers.AuthHandlers,
	productHandlers *handlers.ProductHandlers,
	authMiddleware *middleware.AuthMiddleware,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	api := router.PathPrefix("/api").Subrouter()

	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(authMiddleware.RequireAdmin(h))
	}

	// Auth
	api.HandleFunc("/user/login", authHandlers.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/user/verify", authHandlers.Verify).Methods("POST", "OPTIONS")
	api.Handle("/user/me", authed(authHandlers.Me)).Methods("GET", "OPTIONS")
	api.Handle("/user/all", admin(authHandlers.ListUsers)).Methods("GET", "OPTIONS")

	// Catalog
	api.Handle("/product/new", admin(productHandlers.Create)).Methods("POST", "OPTIONS")
	api.HandleFunc("/product/all", productHandlers.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/product/{id}", productHandlers.Get).Methods("GET", "OPTIONS")
	api.Handle("/product/{id}", admin(productHandlers.Update)).Methods("PUT")
	api.Handle("/product/{id}", admin(productHandlers.ReplaceImages)).Methods("POST")

	return router
}
