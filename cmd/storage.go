package main

import (
	"fmt"

	bookingDomain "github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	bookingInfra "github.com/mateusmacedo/go-rideshare/internal/booking/infrastructure"
	"github.com/mateusmacedo/go-rideshare/internal/config"
	fareDomain "github.com/mateusmacedo/go-rideshare/internal/fare/domain"
	fareInfra "github.com/mateusmacedo/go-rideshare/internal/fare/infrastructure"
	rideDomain "github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	rideInfra "github.com/mateusmacedo/go-rideshare/internal/ride/infrastructure"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/gormdb"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/memstore"
)

// repositories are the stores every slice shares. Repositories built on the
// same backend join each other's transactions through uow.
type repositories struct {
	rides    rideDomain.RideRepository
	bookings bookingDomain.BookingRepository
	fares    fareDomain.SettingsRepository
	uow      pkgApp.UnitOfWork
	close    func() error
}

func openStorage(cfg config.StorageConfig, logger pkgApp.AppLogger) (*repositories, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		store := memstore.NewStore()
		return &repositories{
			rides:    rideInfra.NewInMemoryRideRepository(store, logger),
			bookings: bookingInfra.NewInMemoryBookingRepository(store, logger),
			fares:    fareInfra.NewInMemorySettingsRepository(store),
			uow:      store,
			close:    func() error { return nil },
		}, nil

	case config.StoragePostgres:
		db, err := gormdb.Open(cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		for _, migrate := range []func() error{
			func() error { return rideInfra.AutoMigrate(db) },
			func() error { return bookingInfra.AutoMigrate(db) },
			func() error { return fareInfra.AutoMigrate(db) },
		} {
			if err := migrate(); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return &repositories{
			rides:    rideInfra.NewGormRideRepository(db, logger),
			bookings: bookingInfra.NewGormBookingRepository(db, logger),
			fares:    fareInfra.NewGormSettingsRepository(db),
			uow:      gormdb.NewUnitOfWork(db),
			close:    sqlDB.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
