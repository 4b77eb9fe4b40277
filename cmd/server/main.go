package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eshashah22/131-Insight/config"
	"github.com/eshashah22/131-Insight/internal/api/handler"
	"github.com/eshashah22/131-Insight/internal/api/middleware"
	"github.com/eshashah22/131-Insight/internal/api/router"
	"github.com/eshashah22/131-Insight/internal/llm"
	"github.com/eshashah22/131-Insight/internal/metrics"
	"github.com/eshashah22/131-Insight/internal/repository"
	"github.com/eshashah22/131-Insight/internal/service"
	"github.com/eshashah22/131-Insight/pkg/database"
	applogger "github.com/eshashah22/131-Insight/pkg/logger"
	"github.com/eshashah22/131-Insight/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 初始化存储
	var (
		repo  *repository.Repository
		db    *gorm.DB
		mongo *database.MongoConnector
	)
	switch cfg.Database.Driver {
	case config.DriverMongo:
		// 首次请求时才建立连接，连接失败由请求返回 500
		mongo = database.NewMongoConnector(&cfg.Mongo, logger)
		repo = repository.NewMongoRepository(mongo)
	default:
		db, err = database.NewDB(&cfg.Database, logger)
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		logger.Info("数据库连接成功")

		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
		repo = repository.NewRepository(db)
	}

	// 4. 文本补全服务（可选：未配置 API Key 时 AI 功能降级）
	var completer llm.Completer
	llmClient, err := llm.NewClient(&cfg.LLM, logger)
	switch {
	case err == nil:
		completer = llmClient
		logger.Info("文本补全服务已启用", zap.String("model", llmClient.Model()))
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn("未配置 llm.api_key，情感分析将使用关键词降级，摘要接口不可用")
	default:
		logger.Fatal("初始化文本补全客户端失败", zap.Error(err))
	}

	// 5. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var (
		summaryCache service.SummaryCache
		limiter      middleware.RateLimiter
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，摘要缓存与限流将不可用", zap.Error(err))
		rdb = nil
	} else {
		summaryCache = rdb
		limiter = rdb
	}

	// 6. 指标
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 7. 依赖注入: Repository → Service → Handler
	svc := service.NewService(cfg, repo, service.Deps{
		Completer: completer,
		Cache:     summaryCache,
		Metrics:   m,
		Clock:     clockwork.NewRealClock(),
	}, logger)
	checks := map[string]handler.HealthCheck{}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			checks["postgres"] = sqlDB.PingContext
		}
	}
	if rdb != nil {
		checks["redis"] = rdb.Ping
	}
	h := handler.NewHandler(svc, checks)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, limiter, m, reg, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // 摘要请求可能等待上游较久
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭存储连接
	if db != nil {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	}
	if mongo != nil {
		if err := mongo.Close(ctx); err != nil {
			logger.Warn("关闭 MongoDB 连接失败", zap.Error(err))
		}
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
