package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/seat-booking-core/internal/config"
	"github.com/iliyamo/seat-booking-core/internal/database"
	"github.com/iliyamo/seat-booking-core/internal/handler"
	"github.com/iliyamo/seat-booking-core/internal/kvstore"
	"github.com/iliyamo/seat-booking-core/internal/logger"
	"github.com/iliyamo/seat-booking-core/internal/middleware"
	"github.com/iliyamo/seat-booking-core/internal/queue"
	"github.com/iliyamo/seat-booking-core/internal/repository"
	"github.com/iliyamo/seat-booking-core/internal/router"
	"github.com/iliyamo/seat-booking-core/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		return err
	}
	db, err := database.Open(database.Config{
		Driver: dialect,
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		Name:   cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("database connected", "driver", dialect)

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	store, err := holdStore(cfg, rdb, log)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := eventPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	if cfg.BookingLogConsumer && cfg.EventBroker == "rabbitmq" {
		consumer := queue.NewBookingConsumer(cfg.RabbitURL, cfg.BookingLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("booking consumer stopped", "err", err)
			}
		}()
	}

	ledger := repository.NewLedger(db, dialect)
	holds := service.NewHoldManager(store, ledger, cfg.HoldTTL, log)
	sessions := service.NewCheckoutCoordinator(store, holds, cfg.SessionTTL, nil, log)
	finalizer := service.NewBookingFinalizer(sessions, holds, ledger, publisher, nil, log)

	seatHandler := handler.NewSeatHandler(holds)
	e := router.NewEcho(log)
	router.RegisterPublic(e, handler.Health(healthChecks(db, rdb)), seatHandler)
	router.RegisterCustomer(e, seatHandler, handler.NewCheckoutHandler(sessions, finalizer), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))
	router.RegisterBookings(e, handler.NewBookingHandler(ledger.Bookings), cfg.JWTSecret)
	router.RegisterOwner(e, handler.NewOwnerSeatHandler(ledger.Seats), cfg.JWTSecret)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "env", cfg.Env, "hold_store", cfg.HoldStore, "event_broker", cfg.EventBroker)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// holdStore picks the ephemeral store.  Without Redis the redis store is
// fatal rather than silently falling back, so an outage never reads as
// "seat free".
func holdStore(cfg config.Config, rdb *redis.Client, log *slog.Logger) (kvstore.Store, error) {
	switch cfg.HoldStore {
	case "memory":
		log.Warn("using in-process hold store; holds are not shared between instances")
		return kvstore.NewMemoryStore(nil), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("HOLD_STORE=redis but redis is unreachable")
		}
		return kvstore.NewRedisStore(rdb), nil
	}
	return nil, errors.New("unsupported HOLD_STORE " + cfg.HoldStore)
}

// eventPublisher returns the configured broker publisher (nil for none)
// and its close function.
func eventPublisher(cfg config.Config, log *slog.Logger) (service.EventPublisher, func(), error) {
	switch cfg.EventBroker {
	case "rabbitmq":
		return queue.NewRabbitPublisher(cfg.RabbitURL), func() {}, nil
	case "kafka":
		p, err := queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {
			if err := p.Close(); err != nil {
				log.Warn("close kafka producer", "err", err)
			}
		}, nil
	case "none", "":
		return nil, func() {}, nil
	}
	return nil, nil, errors.New("unsupported EVENT_BROKER " + cfg.EventBroker)
}

func healthChecks(db *sql.DB, rdb *redis.Client) map[string]handler.Check {
	checks := map[string]handler.Check{
		"database": db.PingContext,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}
