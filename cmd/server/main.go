package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/analytics"
	"github.com/aminasaas/storefront-backend/internal/cart"
	"github.com/aminasaas/storefront-backend/internal/checkout"
	"github.com/aminasaas/storefront-backend/internal/config"
	delivery "github.com/aminasaas/storefront-backend/internal/delivery/http"
	"github.com/aminasaas/storefront-backend/internal/imaging"
	"github.com/aminasaas/storefront-backend/internal/logger"
	"github.com/aminasaas/storefront-backend/internal/messaging/kafka"
	"github.com/aminasaas/storefront-backend/internal/mirror"
	"github.com/aminasaas/storefront-backend/internal/notify"
	"github.com/aminasaas/storefront-backend/internal/repository/postgres"
	"github.com/aminasaas/storefront-backend/internal/seed"
	"github.com/aminasaas/storefront-backend/internal/shop"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Database ---
	db, err := postgres.InitDB(cfg.Database.DSN(), log)
	if err != nil {
		log.Fatal("failed to init database", zap.Error(err))
	}
	defer db.Close()

	productRepo := postgres.NewProductRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	orderLog := postgres.NewOrderLog(db)

	if err := seed.IfEmpty(ctx, log, productRepo); err != nil {
		log.Fatal("failed to seed catalog", zap.Error(err))
	}

	// --- Kafka ---
	pub, sub := kafka.NewBroker(cfg.Kafka.Brokers, log)

	// --- Mirror ---
	mir := mirror.New(log, sub, productRepo, categoryRepo, settingsRepo, cfg.Kafka.ConsumerGroup)
	mir.Start(ctx)

	// --- Cart ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	cartStore := cart.NewStore(log, cart.NewRedisStorage(rdb, cfg.App.Name))

	// --- Checkout pipeline ---
	notifier := notify.NewTelegram(log, cfg.Telegram.BotToken, cfg.Telegram.OperatorChatID)
	tracker := analytics.NewClient(log)
	pipeline := checkout.NewPipeline(log, orderLog, notifier, tracker, cartStore, mir.Settings, cfg.App.Source)

	// --- Facade ---
	facade := shop.New(log, mir, cartStore, pipeline,
		productRepo, categoryRepo, settingsRepo, orderLog,
		pub, tracker, cfg.Admin.DefaultToken)
	facade.Start(ctx)

	// --- Image uploads (optional) ---
	var images imaging.Processor
	if cfg.Cloudinary.URL != "" {
		cld, err := imaging.NewCloudinary(log, cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
		if err != nil {
			log.Fatal("failed to init image processor", zap.Error(err))
		}
		images = cld
	}

	// --- HTTP API ---
	mux := http.NewServeMux()
	delivery.NewHandler(log, facade, images, cfg.Seed.Token).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: delivery.EnableCORS(mux),
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown failed", zap.Error(err))
	}
}
