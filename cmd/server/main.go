package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/cocreate-backend/internal/cache"
	"github.com/ignatzorin/cocreate-backend/internal/config"
	"github.com/ignatzorin/cocreate-backend/internal/db"
	"github.com/ignatzorin/cocreate-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/cocreate-backend/internal/http/handlers"
	"github.com/ignatzorin/cocreate-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/cocreate-backend/internal/http/router"
	"github.com/ignatzorin/cocreate-backend/internal/logger"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
	"github.com/ignatzorin/cocreate-backend/internal/service"
	"github.com/ignatzorin/cocreate-backend/internal/storage"
	"github.com/ignatzorin/cocreate-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "cocreate"})
	log := logger.WithComponent("main")

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("ошибка миграций: %v", err)
	}

	redisClient, err := db.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("ошибка подключения к redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	limiterStore, err := middleware.NewLimiterStore(redisClient, "cocreate:ratelimit")
	if err != nil {
		log.Fatalf("не удалось создать хранилище rate limit: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	var cacheStore cache.Store
	if redisClient != nil {
		cacheStore = cache.NewRedisStore(redisClient, "cocreate:cache:")
	} else {
		memStore := cache.NewMemoryStore()
		defer memStore.Close()
		cacheStore = memStore
	}
	appCache := cache.New(cacheStore)

	photoStorage, err := storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	productRepo := repository.NewProductRepository(dbConn)
	mediaRepo := repository.NewMediaRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	escrowRepo := repository.NewEscrowRepository(dbConn)
	cartRepo := repository.NewCartRepository(dbConn)
	wishlistRepo := repository.NewWishlistRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn)
	alertRepo := repository.NewAlertRepository(dbConn)
	kitRepo := repository.NewKitRepository(dbConn)
	flagRepo := repository.NewFlagRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Вебсокеты: каждое событие сохраняется как уведомление.
	notificationService := service.NewNotificationService(notificationRepo)
	hub := ws.NewHub(ctx, notificationService)
	go hub.Run()

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	userService := service.NewUserService(userRepo, appCache, hub)
	categoryService := service.NewCategoryService(catalogRepo, appCache, cfg.CategoryCacheTTL)
	alertService := service.NewAlertService(alertRepo, productRepo, hub)
	productService := service.NewProductService(productRepo, mediaRepo, userRepo, photoStorage, alertService)
	orderService := service.NewOrderService(orderRepo, escrowRepo, hub, cfg.TaxRate)
	cartService := service.NewCartService(cartRepo)
	wishlistService := service.NewWishlistService(wishlistRepo)
	projectService := service.NewProjectService(projectRepo, orderRepo)
	kitService := service.NewKitService(kitRepo)
	flagService := service.NewFlagService(flagRepo)
	disputeService := service.NewDisputeService(disputeRepo, orderRepo, hub)

	digestService := service.NewAlertDigestService(alertRepo, hub)
	if err := digestService.Start(cfg.AlertDailySchedule, cfg.AlertWeeklySchedule); err != nil {
		log.Fatalf("не удалось запустить рассылку дайджестов: %v", err)
	}
	defer digestService.Stop()

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Auth:         httpHandlers.NewAuthHandler(authService),
		User:         httpHandlers.NewUserHandler(userService),
		Catalog:      httpHandlers.NewCatalogHandler(categoryService, productService),
		Media:        httpHandlers.NewMediaHandler(productService),
		Order:        httpHandlers.NewOrderHandler(orderService),
		Cart:         httpHandlers.NewCartHandler(cartService),
		Wishlist:     httpHandlers.NewWishlistHandler(wishlistService),
		Project:      httpHandlers.NewProjectHandler(projectService),
		Alert:        httpHandlers.NewAlertHandler(alertService),
		Kit:          httpHandlers.NewKitHandler(kitService),
		Flag:         httpHandlers.NewFlagHandler(flagService),
		Dispute:      httpHandlers.NewDisputeHandler(disputeService),
		Notification: httpHandlers.NewNotificationHandler(notificationService),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
		Health:       httpHandlers.NewHealthHandler(dbConn, redisClient),
	}
	if cfg.IsDevelopment() {
		seedService := service.NewSeedService(userRepo, productRepo, projectRepo, catalogRepo)
		handlers.Seed = httpHandlers.NewSeedHandler(seedService)
	}

	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager, limiterStore)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("ошибка остановки http сервера: %v", err)
		}
		// дожидаемся фонового матчинга алертов, пока открыта база
		if err := goroutine.Wait(shutdownCtx); err != nil {
			log.Warnf("фоновые задачи не завершились: %v", err)
		}
	}()

	log.Infof("HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("сервер завершился с ошибкой: %v", err)
	}
	<-stopped
	log.Info("сервер остановлен")
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.WithComponent("main").Errorf("ошибка закрытия базы: %v", err)
	}
}
