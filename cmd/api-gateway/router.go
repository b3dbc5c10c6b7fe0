package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/dumeirei/grocy-backend/docs"
	"github.com/dumeirei/grocy-backend/internal/common/cache"
	"github.com/dumeirei/grocy-backend/internal/common/config"
	"github.com/dumeirei/grocy-backend/internal/common/crypto"
	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/handler"
	"github.com/dumeirei/grocy-backend/internal/common/jwt"
	"github.com/dumeirei/grocy-backend/internal/common/metrics"
	commonMiddleware "github.com/dumeirei/grocy-backend/internal/common/middleware"
	"github.com/dumeirei/grocy-backend/internal/common/response"
	cartHandler "github.com/dumeirei/grocy-backend/internal/handler/cart"
	catalogHandler "github.com/dumeirei/grocy-backend/internal/handler/catalog"
	orderHandler "github.com/dumeirei/grocy-backend/internal/handler/order"
	reviewHandler "github.com/dumeirei/grocy-backend/internal/handler/review"
	settingsHandler "github.com/dumeirei/grocy-backend/internal/handler/settings"
	storeHandler "github.com/dumeirei/grocy-backend/internal/handler/store"
	uploadHandler "github.com/dumeirei/grocy-backend/internal/handler/upload"
	"github.com/dumeirei/grocy-backend/internal/middleware"
	"github.com/dumeirei/grocy-backend/internal/repository"
	cartService "github.com/dumeirei/grocy-backend/internal/service/cart"
	catalogService "github.com/dumeirei/grocy-backend/internal/service/catalog"
	"github.com/dumeirei/grocy-backend/internal/service/notify"
	orderService "github.com/dumeirei/grocy-backend/internal/service/order"
	reviewService "github.com/dumeirei/grocy-backend/internal/service/review"
	settingsService "github.com/dumeirei/grocy-backend/internal/service/settings"
	storeService "github.com/dumeirei/grocy-backend/internal/service/store"
	uploadService "github.com/dumeirei/grocy-backend/internal/service/upload"
	"github.com/dumeirei/grocy-backend/pkg/oss"
	"github.com/dumeirei/grocy-backend/pkg/telegram"
)

// dependencies 路由构建所需的基础设施
type dependencies struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	rdb      *redis.Client
	metrics  *metrics.Metrics
	bot      *telegram.Client
	hub      *notify.Hub
	uploader oss.Uploader
}

// services 业务服务集合
type services struct {
	settings   *settingsService.SettingsService
	category   *catalogService.CategoryService
	product    *catalogService.ProductService
	cart       *cartService.CartService
	order      *orderService.OrderService
	review     *reviewService.ReviewService
	store      *storeService.StoreService
	upload     *uploadService.UploadService
	dispatcher *notify.Dispatcher
}

// buildServices 初始化仓储与服务，channels 为已创建的通知通道
func buildServices(d *dependencies, channels []notify.Channel) *services {
	cfg := d.cfg

	// 初始化仓储
	userRepo := repository.NewUserRepository(d.db)
	categoryRepo := repository.NewCategoryRepository(d.db)
	productRepo := repository.NewProductRepository(d.db)
	cartRepo := repository.NewCartRepository(d.db)
	orderRepo := repository.NewOrderRepository(d.db)
	reviewRepo := repository.NewReviewRepository(d.db)
	voteRepo := repository.NewReviewVoteRepository(d.db)
	reportRepo := repository.NewReviewReportRepository(d.db)
	auditRepo := repository.NewReviewAuditRepository(d.db)
	settingsRepo := repository.NewSettingsRepository(d.db)
	storeOwnerRepo := repository.NewStoreOwnerRepository(d.db)

	// Telegram 通道需要店主与站点设置来解析会话
	if d.bot != nil {
		resolver := notify.NewOwnerChatResolver(storeOwnerRepo, settingsRepo, cfg.Telegram.DefaultChatID)
		channels = append(channels, notify.NewTelegramChannel(d.bot, resolver))
	}
	dispatcher := notify.NewDispatcher(cfg.Notify.TimeoutDuration(), d.log, d.metrics, channels...)
	d.log.Info("Notification channels registered", zap.Strings("channels", dispatcher.Channels()))

	settingsSvc := settingsService.NewSettingsService(settingsRepo, d.log)

	var bot telegram.Sender
	if d.bot != nil {
		bot = d.bot
	}

	return &services{
		settings: settingsSvc,
		category: catalogService.NewCategoryService(categoryRepo, productRepo, d.log),
		product:  catalogService.NewProductService(productRepo, categoryRepo, &cfg.Business.Catalog, d.log),
		cart:     cartService.NewCartService(cartRepo, productRepo, d.log),
		order: orderService.NewOrderService(orderService.Options{
			DB:          d.db,
			OrderRepo:   orderRepo,
			CartRepo:    cartRepo,
			ProductRepo: productRepo,
			UserRepo:    userRepo,
			Locker:      cache.NewLocker(d.rdb),
			Notifier:    dispatcher,
			Metrics:     d.metrics,
			LockTTL:     cfg.Business.Order.LockTTLDuration(),
			Logger:      d.log,
		}),
		review: reviewService.NewReviewService(reviewService.Options{
			DB:          d.db,
			ReviewRepo:  reviewRepo,
			VoteRepo:    voteRepo,
			ReportRepo:  reportRepo,
			AuditRepo:   auditRepo,
			ProductRepo: productRepo,
			OrderRepo:   orderRepo,
			Policy:      settingsSvc,
			Config:      &cfg.Business.Review,
			Metrics:     d.metrics,
			Logger:      d.log,
		}),
		store: storeService.NewStoreService(storeService.Options{
			Repo:        storeOwnerRepo,
			Hasher:      crypto.NewHasher(cfg.Crypto.BcryptCost),
			Bot:         bot,
			BotUsername: cfg.Telegram.BotUsername,
			Metrics:     d.metrics,
			Logger:      d.log,
		}),
		upload:     uploadService.NewUploadService(d.uploader, cfg.Server.MaxUploadSize, cfg.OSS.UploadDir, d.log),
		dispatcher: dispatcher,
	}
}

// setupRouter 设置路由
func setupRouter(r *gin.Engine, d *dependencies, s *services) {
	cfg := d.cfg
	handler.RegisterValidators()

	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:           cfg.JWT.Secret,
		AccessExpireTime: cfg.JWT.AccessTokenDuration(),
		Issuer:           cfg.JWT.Issuer,
		Leeway:           cfg.JWT.Leeway(),
	})

	// 初始化处理器
	settingsH := settingsHandler.NewHandler(s.settings)
	catalogH := catalogHandler.NewHandler(s.category, s.product, s.upload)
	cartH := cartHandler.NewHandler(s.cart)
	orderH := orderHandler.NewHandler(s.order, d.hub, d.log)
	reviewH := reviewHandler.NewHandler(s.review)
	storeH := storeHandler.NewHandler(s.store, cfg.Telegram.WebhookSecret, d.log)
	uploadH := uploadHandler.NewHandler(s.upload)

	// 探活与指标路径不计入访问日志、指标和追踪
	quiet := []string{"/health", "/ping", "/ready", cfg.Metrics.Path}

	// 全局中间件
	r.Use(middleware.Recovery(d.log))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORS(&cfg.CORS))
	r.Use(d.metrics.Middleware(quiet...))
	if cfg.Tracing.Enabled {
		r.Use(commonMiddleware.Tracing(
			commonMiddleware.WithTracerName(cfg.Tracing.ServiceName),
			commonMiddleware.WithSkipPaths(quiet...),
		))
	}
	r.Use(middleware.AccessLog(d.log, quiet...))

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(d.db, d.rdb))
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, d.metrics.Handler())
	}

	// Swagger 文档
	if !cfg.IsRelease() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var searchLimit, generalLimit, userLimit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		searchLimit = middleware.IPRateLimit(d.rdb, "search", cfg.RateLimit.SearchPerMin, time.Minute)
		generalLimit = middleware.IPRateLimit(d.rdb, "api", cfg.RateLimit.GeneralPerMin, time.Minute)
		userLimit = middleware.UserRateLimit(d.rdb, "user", cfg.RateLimit.UserPerMin, time.Minute)
	}

	// API v1 路由组
	v1 := r.Group("/api/v1")
	if generalLimit != nil {
		v1.Use(generalLimit)
	}
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		{
			settingsH.RegisterRoutes(public)
			catalogH.RegisterRoutes(public, searchLimit)
			reviewH.RegisterRoutes(public)

			// Telegram 回调（校验密钥，不需要认证）
			storeH.RegisterRoutes(public)
		}

		// 用户端接口（需要用户认证）
		user := v1.Group("")
		user.Use(middleware.UserAuth(jwtManager))
		if userLimit != nil {
			user.Use(userLimit)
		}
		{
			cartH.RegisterRoutes(user)
			orderH.RegisterRoutes(user)
			reviewH.RegisterUserRoutes(user)
		}
	}

	// 管理后台 API（需要管理员认证）
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(jwtManager))
	// 表单字段与 multipart 边界额外预留 1MB
	admin.Use(middleware.RequestSizeLimiter(cfg.Server.MaxUploadSize + 1<<20))
	{
		settingsH.RegisterAdminRoutes(admin)
		catalogH.RegisterAdminRoutes(admin)
		orderH.RegisterAdminRoutes(admin)
		reviewH.RegisterAdminRoutes(admin)
		storeH.RegisterAdminRoutes(admin)
		uploadH.RegisterAdminRoutes(admin)
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		response.Fail(c, errors.ErrNotFound.WithMessage("接口不存在"))
	})
}
