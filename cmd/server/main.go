package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/arunika0/menu/internal/auth"
	"github.com/arunika0/menu/internal/config"
	"github.com/arunika0/menu/internal/database"
	"github.com/arunika0/menu/internal/events"
	"github.com/arunika0/menu/internal/handler"
	"github.com/arunika0/menu/internal/logger"
	"github.com/arunika0/menu/internal/metrics"
	"github.com/arunika0/menu/internal/middleware"
	"github.com/arunika0/menu/internal/repository"
	"github.com/arunika0/menu/internal/router"
	"github.com/arunika0/menu/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal("open database", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	defer db.Close()

	if cfg.DB.AutoSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.ApplySchema(ctx, db, cfg.DB.Driver)
		cancel()
		if err != nil {
			log.Fatal("apply schema", zap.Error(err))
		}
		log.Info("schema applied")
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable: response cache and login rate limit disabled")
	} else {
		defer rdb.Close()
	}

	files, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.MaxBytes, cfg.Upload.PublicBaseURL)
	if err != nil {
		log.Fatal("init upload store", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.Enabled {
		publisher = events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue)
		consumer := &events.Consumer{
			URL:      cfg.Events.URL,
			Queue:    cfg.Events.Queue,
			AuditLog: cfg.Events.AuditLog,
			Log:      log.Named("catalog-consumer"),
		}
		go consumer.Run(ctx)
	}

	users := repository.NewUserRepo(db)
	restaurants := repository.NewRestaurantRepo(db)
	categories := repository.NewCategoryRepo(db)
	menu := repository.NewMenuRepo(db)

	codec := auth.NewCodec(cfg.Auth.JWTSecret)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	cache := middleware.NewResponseCache(cfg.Cache, rdb)
	notify := &handler.Notifier{Cache: cache, Events: publisher}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Use(echomiddleware.BodyLimit("10M"))
	e.Use(logger.Middleware(log))
	e.Use(metrics.Middleware())

	router.RegisterRoutes(e, router.Deps{
		DB:            db,
		Authenticator: auth.NewAuthenticator(codec),
		Cache:         cache,
		LoginLimiter:  middleware.NewTokenBucket(cfg.RateLimit, rdb),
		Auth:          handler.NewAuthHandler(auth.NewVerifier(users, hasher, codec, cfg.Auth.TokenTTL)),
		Users:         &handler.UserHandler{Users: users, Restaurants: restaurants, Hasher: hasher, Notify: notify},
		Restaurants:   &handler.RestaurantHandler{Restaurants: restaurants, Menu: menu, Files: files, Notify: notify},
		Categories:    &handler.CategoryHandler{Categories: categories, Restaurants: restaurants, Notify: notify},
		Menu:          &handler.MenuHandler{Menu: menu, Categories: categories, Files: files, Notify: notify},
		Upload:        &handler.UploadHandler{Files: files},
		UploadDir:     cfg.Upload.Dir,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
