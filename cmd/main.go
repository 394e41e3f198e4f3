package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/pflag"

	"github.com/mateusmacedo/go-rideshare/internal/access"
	"github.com/mateusmacedo/go-rideshare/internal/booking"
	bookingApp "github.com/mateusmacedo/go-rideshare/internal/booking/application"
	"github.com/mateusmacedo/go-rideshare/internal/config"
	"github.com/mateusmacedo/go-rideshare/internal/fare"
	"github.com/mateusmacedo/go-rideshare/internal/ride"
	rideInfra "github.com/mateusmacedo/go-rideshare/internal/ride/infrastructure"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-rideshare/pkg/infrastructure"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/pubsub"
	watermillAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/watermill/adapter"
	zapAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/zaplogger/adapter"
)

func main() {
	cfg, err := config.Load("rideshare", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}

	appLogger, err := zapAdapter.NewZapAppLogger(zapAdapter.Options{AppName: cfg.App.Name, Level: cfg.Log.Level})
	if err != nil {
		panic(err)
	}

	if err := run(cfg, appLogger); err != nil {
		pkgApp.LogError(context.Background(), appLogger, "server stopped with error", err, nil)
		os.Exit(1)
	}
}

func run(cfg config.Config, appLogger pkgApp.AppLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openStorage(cfg.Storage, appLogger)
	if err != nil {
		return err
	}
	defer repos.close()

	eventBus, closeEvents, err := openEventBus(cfg.Events, appLogger)
	if err != nil {
		return err
	}
	defer closeEvents()

	idGenerator := pkgInfra.NewUUIDGenerator()

	rideSlice := ride.NewRideSlice(ride.Dependencies{
		Repository:     repos.rides,
		Ledger:         repos.bookings,
		UnitOfWork:     repos.uow,
		IDGenerator:    idGenerator,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Logger:         appLogger,
	})
	bookingSlice := booking.NewBookingSlice(booking.Dependencies{
		Bookings:       repos.bookings,
		Rides:          repos.rides,
		UnitOfWork:     repos.uow,
		EventBus:       eventBus,
		Retry:          pkgApp.RetryPolicy{MaxRetries: cfg.Booking.MaxRetries, Backoff: cfg.Booking.RetryBackoff},
		IDGenerator:    idGenerator,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Logger:         appLogger,
	})
	fareSlice := fare.NewFareSlice(repos.fares, repos.uow, cfg.HTTP.RequestTimeout, appLogger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	router.Use(access.Middleware(appLogger))
	rideSlice.RegisterRoutes(router)
	bookingSlice.RegisterRoutes(router)
	fareSlice.RegisterRoutes(router)

	if cfg.Audit.Enabled {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}
		if _, err := rideInfra.ScheduleInventoryAudit(scheduler, rideSlice.Auditor(), cfg.Audit.Interval, cfg.HTTP.RequestTimeout, appLogger); err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				pkgApp.LogError(context.Background(), appLogger, "scheduler shutdown failed", err, nil)
			}
		}()
	}

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		pkgApp.LogInfo(ctx, appLogger, "server starting", map[string]interface{}{
			"address": cfg.HTTP.Addr,
			"storage": cfg.Storage.Driver,
			"events":  cfg.Events.Driver,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	pkgApp.LogInfo(context.Background(), appLogger, "shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	pkgApp.LogInfo(context.Background(), appLogger, "server stopped", nil)
	return nil
}

// openEventBus publishes booking events on the configured transport. The
// "none" driver only runs the in-process handlers.
func openEventBus(cfg config.EventsConfig, appLogger pkgApp.AppLogger) (bookingApp.EventBus, func() error, error) {
	if cfg.Driver == pubsub.DriverNone {
		bus := pkgInfra.NewSimpleEventBus[pkgDomain.Event[bookingApp.BookingEventData], bookingApp.BookingEventData](appLogger)
		return bus, func() error { return nil }, nil
	}

	transport, err := pubsub.Open(cfg.Config, false, watermillAdapter.NewWatermillLoggerAdapter(appLogger))
	if err != nil {
		return nil, nil, err
	}
	bus := watermillAdapter.NewWatermillEventBus[pkgDomain.Event[bookingApp.BookingEventData], bookingApp.BookingEventData](
		transport.Publisher, cfg.TopicPrefix, appLogger)
	return bus, transport.Close, nil
}
