package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/positionkeeping/internal/position/application"
	infracache "github.com/wyfcoding/positionkeeping/internal/position/infrastructure/cache"
	"github.com/wyfcoding/positionkeeping/internal/position/infrastructure/messaging"
	"github.com/wyfcoding/positionkeeping/internal/position/infrastructure/persistence/mysql"
	"github.com/wyfcoding/positionkeeping/internal/position/interfaces/consumer"
	httpapi "github.com/wyfcoding/positionkeeping/internal/position/interfaces/http"
	"github.com/wyfcoding/positionkeeping/pkg/cache"
	"github.com/wyfcoding/positionkeeping/pkg/config"
	"github.com/wyfcoding/positionkeeping/pkg/db"
	"github.com/wyfcoding/positionkeeping/pkg/logger"
	"github.com/wyfcoding/positionkeeping/pkg/metrics"
	"github.com/wyfcoding/positionkeeping/pkg/mq"
	"golang.org/x/sync/errgroup"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/position/config.toml", "path to config file")
	flag.Parse()

	// 1. 配置
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}

	// 2. 日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting position service",
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 指标
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New("position")
		if err := m.Register(); err != nil {
			logger.Fatal(ctx, "register metrics failed", "error", err)
		}
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "start metrics server failed", "error", err)
		}
	}

	// 4. 数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "connect database failed", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(&mysql.PositionModel{}); err != nil {
		logger.Fatal(ctx, "migrate database failed", "error", err)
	}

	// 5. Redis
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "connect redis failed", "error", err)
	}
	defer redisCache.Close()

	// 6. Kafka
	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}

	producer, err := mq.NewProducer(kafkaCfg)
	if err != nil {
		logger.Fatal(ctx, "create kafka producer failed", "error", err)
	}
	defer producer.Close()

	tradeConsumer, err := mq.NewConsumer(kafkaCfg, cfg.Kafka.TradesTopic)
	if err != nil {
		logger.Fatal(ctx, "create kafka consumer failed", "error", err)
	}
	defer tradeConsumer.Close()

	// 7. 组装
	repo := mysql.NewPositionRepository(database.DB)
	positionCache := infracache.NewPositionCache(redisCache)
	publisher := messaging.NewKafkaEventPublisher(producer, cfg.Kafka.PositionsTopic)
	dlq := mq.NewDeadLetterQueue(producer, cfg.Kafka.DeadLetterTopic)

	positionService := application.NewPositionService(repo, positionCache, publisher, m)
	queryService := application.NewPositionQueryService(repo)
	inbound := consumer.NewTradeConsumer(tradeConsumer, dlq, positionService, m)

	// 8. HTTP
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := httpapi.NewPositionHandler(queryService)
	handler.RegisterRoutes(router.Group(""))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 9. 启动
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		logger.Info(gctx, "HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info(gctx, "Trade consumer starting", "topic", cfg.Kafka.TradesTopic)
		return inbound.Run(gctx)
	})

	// 10. 优雅退出
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			logger.Info(gctx, "Shutting down", "signal", sig.String())
		case <-gctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "Service exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Service stopped")
}
