// Package main 是应用程序入口
//
//	@title			Grocy Backend API
//	@version		1.0
//	@description	杂货电商后端：商品目录、购物车、下单、评价与店主通知
//	@BasePath		/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/grocy-backend/internal/common/cache"
	"github.com/dumeirei/grocy-backend/internal/common/config"
	"github.com/dumeirei/grocy-backend/internal/common/database"
	"github.com/dumeirei/grocy-backend/internal/common/logger"
	"github.com/dumeirei/grocy-backend/internal/common/metrics"
	"github.com/dumeirei/grocy-backend/internal/common/tracing"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/internal/scheduler"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load(os.Getenv("GROCY_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger.GetLogger()); err != nil {
		logger.GetLogger().Error("Server exited with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting Grocy Backend", zap.String("version", version), zap.String("mode", cfg.Server.Mode))
	gin.SetMode(ginMode(cfg.Server.Mode))

	tracer, err := tracing.Init(&tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Mode,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Init(cfg.Metrics.Namespace)
	}

	db, err := database.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}()
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, models.AllModels()...); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	rdb, err := cache.Init(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			log.Warn("Failed to close redis", zap.Error(err))
		}
	}()

	// 收到 SIGINT/SIGTERM 时取消，后台任务与外部集成随之退出
	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ext := newIntegrations(appCtx, cfg, log)
	defer ext.Close()

	deps := &dependencies{
		cfg:      cfg,
		log:      log,
		db:       db,
		rdb:      rdb,
		metrics:  m,
		bot:      ext.bot,
		hub:      ext.hub,
		uploader: ext.uploader,
	}
	svcs := buildServices(deps, ext.channels)

	engine := gin.New()
	setupRouter(engine, deps, svcs)

	sched := scheduler.NewScheduler(log)
	if ext.bot != nil {
		startTelegram(appCtx, cfg, deps, svcs, sched)
	}
	sched.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		sched.Stop()
		return fmt.Errorf("http server: %w", err)
	case <-appCtx.Done():
	}
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	sched.Stop()
	if err := svcs.dispatcher.Shutdown(ctx); err != nil {
		log.Warn("Notification dispatcher did not drain", zap.Error(err))
	}
	if err := tracer.Shutdown(ctx); err != nil {
		log.Warn("Failed to shutdown tracer", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}

// startTelegram 按配置选择长轮询或 webhook 接收机器人更新
func startTelegram(ctx context.Context, cfg *config.Config, deps *dependencies, svcs *services, sched *scheduler.Scheduler) {
	log, bot := deps.log, deps.bot
	if !cfg.Telegram.IsPolling() {
		if cfg.Telegram.WebhookURL == "" {
			log.Warn("Telegram webhook mode without webhook_url, updates must be registered externally")
			return
		}
		if err := bot.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			log.Error("Failed to set telegram webhook", zap.Error(err))
		}
		return
	}

	// getUpdates 与已注册的 webhook 互斥
	if err := bot.DeleteWebhook(ctx); err != nil {
		log.Warn("Failed to delete telegram webhook", zap.Error(err))
	}
	tasks := scheduler.NewTaskHandler(deps.rdb, bot, svcs.store, cfg.Telegram.PollTimeout, log)
	scheduler.SetupTasks(sched, tasks, time.Duration(cfg.Telegram.PollInterval)*time.Second)
}

func ginMode(mode string) string {
	switch mode {
	case "release", "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
