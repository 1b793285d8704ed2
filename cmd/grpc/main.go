package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-bar-service/config"
	"github.com/fekuna/omnipos-bar-service/internal/auth"
	"github.com/fekuna/omnipos-bar-service/internal/broker"
	"github.com/fekuna/omnipos-bar-service/internal/cache"
	"github.com/fekuna/omnipos-bar-service/internal/database"
	"github.com/fekuna/omnipos-bar-service/internal/inventory"
	"github.com/fekuna/omnipos-bar-service/internal/logger"

	invH "github.com/fekuna/omnipos-bar-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-bar-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/omnipos-bar-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-bar-service/internal/inventory/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Initialize Repository
	var invRepo inventory.Repository
	switch cfg.Store.Backend {
	case config.StoreBackendCSV:
		invRepo = invRepoPkg.NewCSVRepository(cfg.Store.InventoryCSV, cfg.Store.RecipesCSV, cfg.Store.MovementsCSV)
		appLogger.Info("Using spreadsheet inventory",
			zap.String("inventory", cfg.Store.InventoryCSV),
			zap.String("recipes", cfg.Store.RecipesCSV))
	default:
		db, err := database.Open(&database.Config{
			Driver:          cfg.Database.Driver,
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := database.EnsureSchema(context.Background(), db); err != nil {
			appLogger.Fatal("Could not prepare database schema", zap.Error(err))
		}
		appLogger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
		invRepo = invRepoPkg.NewSQLRepository(db)
	}

	// 4. Initialize Redis
	var invCache inventory.Cache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		invCache = redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Initialize UseCase
	invUC := invUCPkg.NewInventoryUseCase(invRepo, invCache, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Initialize Kafka Listener
	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		salesListener := invListenerPkg.NewSalesListener(kafkaConsumer, invUC, appLogger)
		go salesListener.Start(ctx)
	}

	// 7. Start gRPC Server
	invHandler := invH.NewInventoryHandler(invUC, appLogger)

	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(auth.ContextInterceptor()),
	)

	invH.RegisterBarInventoryServiceServer(grpcServer, invHandler)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("omnipos.bar.v1.BarInventoryService", healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
