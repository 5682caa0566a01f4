package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-reservation/internal/config"
	"github.com/iliyamo/hotel-reservation/internal/database"
	"github.com/iliyamo/hotel-reservation/internal/handler"
	"github.com/iliyamo/hotel-reservation/internal/lock"
	"github.com/iliyamo/hotel-reservation/internal/logger"
	"github.com/iliyamo/hotel-reservation/internal/metrics"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/router"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load() // Load environment config
	log := logger.Init(config.LoadLoggerConfig())
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable; rate limit, cache and distributed room lease disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Repositories
	reservations := repository.NewReservationRepo(db)
	rooms := repository.NewRoomRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	stats := repository.NewStatsRepo(db)

	opts := []service.Option{
		service.WithLocker(newRoomLocker(config.LoadLockConfig(), rdb, log)),
		service.WithMetrics(m),
	}
	qcfg := config.LoadQueueConfig()
	if qcfg.URL != "" {
		opts = append(opts, service.WithPublisher(queue.NewPublisher(qcfg.URL, qcfg.Queue)))
	}
	svc := service.NewReservationService(reservations, rooms, users, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if qcfg.URL != "" && qcfg.ConsumerEnabled {
		c := &queue.Consumer{URL: qcfg.URL, Queue: qcfg.Queue, LogFile: qcfg.LogFile}
		go func() {
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("reservation consumer stopped", zap.Error(err))
			}
		}()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLog())
	e.Use(m.Middleware())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, db, m)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	dashboards := handler.NewDashboardHandler(stats, cfg.HotelLocation)
	router.RegisterStaff(e, router.StaffHandlers{
		Reservations: handler.NewReservationHandler(svc, reservations, cfg.HotelLocation),
		Rooms:        handler.NewRoomHandler(rooms),
		Dashboards:   dashboards,
	}, cfg.JWTSecret, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterGuest(e, dashboards, cfg.JWTSecret)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}

// newRoomLocker picks the lease taken before each admission transaction.
// Admissions are serialized by the room row lock in every mode.
func newRoomLocker(cfg config.LockConfig, rdb *redis.Client, log *zap.Logger) lock.RoomLocker {
	switch cfg.Mode {
	case "none":
		return lock.Nop{}
	case "redis":
		if rdb != nil {
			return lock.NewRedis(rdb, cfg.Prefix, cfg.TTL, cfg.Wait)
		}
		log.Warn("ROOM_LOCK_MODE=redis without redis; using in-process lock")
	}
	return lock.NewLocal()
}
