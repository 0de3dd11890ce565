package router

import (
	"time"

	"github.com/BulizzesRG/myownpos/internal/config"
	"github.com/BulizzesRG/myownpos/internal/handler"
	"github.com/BulizzesRG/myownpos/internal/infra"
	"github.com/BulizzesRG/myownpos/internal/middleware"
	"github.com/BulizzesRG/myownpos/internal/repository"
	"github.com/BulizzesRG/myownpos/internal/search"
	"github.com/BulizzesRG/myownpos/internal/service"
	"github.com/BulizzesRG/myownpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
//
// rdb may be nil: the product cache and price notifications are then off, index
// maintenance is skipped and filtered listings answer 503.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, searchCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.IsProduction(), cfg.AllowedOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	var (
		index    search.Index
		indexer  service.Indexer
		notifier service.PriceChangeQueue
	)
	if rdb != nil {
		index = search.NewRedisIndex(rdb, cfg.SearchIndexPrefix)
		dispatcher := worker.NewDispatcher(rdb)
		notifier = dispatcher
		if cfg.SearchSyncMode == config.SearchSyncQueue {
			indexer = service.NewQueuedIndexer(dispatcher)
		}
	}
	if indexer == nil {
		indexer = service.NewSyncIndexer(index)
	}
	cache := service.NewRedisProductCache(rdb, cfg.ProductCacheTTL())
	if searchCB == nil {
		searchCB = infra.NewCircuitBreaker(infra.DefaultCBConfig("search"))
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	historyRepo := repository.NewPriceHistoryRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo, historyRepo, indexer, cache)
	priceSvc := service.NewPriceService(productRepo, historyRepo, cache, notifier)
	catalogSvc := service.NewCatalogService(productRepo, index, searchCB, cfg.SearchTimeout())

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc, catalogSvc)
	pricesH := handler.NewPricesHandler(priceSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, searchCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
	}

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		prods := v1.Group("/products")
		{
			prods.GET("", productsH.List)
			prods.POST("", productsH.Create)
			prods.GET("/code/:code", productsH.FindByCode)
			prods.GET("/:id", productsH.Get)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Delete)
			prods.PUT("/:id/prices", pricesH.UpdatePrice)
			prods.GET("/:id/price-history", pricesH.History)
			prods.GET("/:id/price-history.pdf", pricesH.HistoryReport)
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
