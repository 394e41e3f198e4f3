package application

import (
	"context"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/access"
	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type createRideHandler struct {
	repository domain.RideRepository
	now        func() time.Time
	logger     pkgApp.AppLogger
}

func NewCreateRideHandler(repo domain.RideRepository, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[CreateRideData], CreateRideData] {
	return &createRideHandler{repository: repo, now: time.Now, logger: logger}
}

func (h *createRideHandler) Handle(ctx context.Context, command pkgDomain.Command[CreateRideData]) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	data := command.Payload()
	if err := access.AuthorizeRole(data.Actor, access.ActionCreateRide, access.RoleDriver); err != nil {
		return err
	}

	driverID := data.Actor.ID
	if data.DriverID != "" && data.DriverID != data.Actor.ID {
		if !data.Actor.IsSuperAdmin() {
			return pkgDomain.ForbiddenError{ActorID: data.Actor.ID, Action: "create ride for another driver"}
		}
		driverID = data.DriverID
	}

	now := h.now()
	ride := domain.Ride{
		ID:                      data.RideID,
		DriverID:                driverID,
		Route:                   data.Route,
		TravelDate:              data.TravelDate,
		StartTime:               data.StartTime,
		Pricing:                 data.Pricing,
		TotalSeats:              data.TotalSeats,
		AvailableSeats:          data.TotalSeats,
		Status:                  domain.StatusOpen,
		ParcelAllowed:           data.ParcelAllowed,
		AvailableSeatsUpdatedAt: now,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := ride.Validate(); err != nil {
		return err
	}

	if err := h.repository.Create(ctx, ride); err != nil {
		pkgApp.LogError(ctx, h.logger, "failed to create ride", err, map[string]interface{}{"ride_id": ride.ID})
		return err
	}

	pkgApp.LogInfo(ctx, h.logger, "ride created", map[string]interface{}{
		"ride_id":     ride.ID,
		"driver_id":   ride.DriverID,
		"total_seats": ride.TotalSeats,
	})
	return nil
}

type updateRideHandler struct {
	repository domain.RideRepository
	uow        pkgApp.UnitOfWork
	now        func() time.Time
	logger     pkgApp.AppLogger
}

func NewUpdateRideHandler(repo domain.RideRepository, uow pkgApp.UnitOfWork, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[UpdateRideData], UpdateRideData] {
	return &updateRideHandler{repository: repo, uow: uow, now: time.Now, logger: logger}
}

func (h *updateRideHandler) Handle(ctx context.Context, command pkgDomain.Command[UpdateRideData]) error {
	data := command.Payload()

	err := h.uow.WithinTx(ctx, func(ctx context.Context) error {
		ride, err := h.repository.FindForUpdate(ctx, data.RideID)
		if err != nil {
			return err
		}
		if err := access.Authorize(data.Actor, ride.DriverID, access.ActionUpdateRide); err != nil {
			return err
		}

		updated, err := ride.Apply(data.Patch, h.now())
		if err != nil {
			return err
		}
		return h.repository.Update(ctx, updated)
	})
	if err != nil {
		pkgApp.LogDebug(ctx, h.logger, "ride update rejected", map[string]interface{}{
			"ride_id": data.RideID,
			"error":   err.Error(),
		})
		return err
	}

	pkgApp.LogInfo(ctx, h.logger, "ride updated", map[string]interface{}{"ride_id": data.RideID})
	return nil
}

type deleteRideHandler struct {
	repository domain.RideRepository
	ledger     domain.BookingLedger
	uow        pkgApp.UnitOfWork
	logger     pkgApp.AppLogger
}

func NewDeleteRideHandler(repo domain.RideRepository, ledger domain.BookingLedger, uow pkgApp.UnitOfWork, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[DeleteRideData], DeleteRideData] {
	return &deleteRideHandler{repository: repo, ledger: ledger, uow: uow, logger: logger}
}

// Handle removes the ride and every booking on it in one transaction.
func (h *deleteRideHandler) Handle(ctx context.Context, command pkgDomain.Command[DeleteRideData]) error {
	data := command.Payload()

	var removed int64
	err := h.uow.WithinTx(ctx, func(ctx context.Context) error {
		ride, err := h.repository.FindForUpdate(ctx, data.RideID)
		if err != nil {
			return err
		}
		if err := access.Authorize(data.Actor, ride.DriverID, access.ActionDeleteRide); err != nil {
			return err
		}

		if removed, err = h.ledger.DeleteByRide(ctx, ride.ID); err != nil {
			return err
		}
		return h.repository.Delete(ctx, ride.ID)
	})
	if err != nil {
		return err
	}

	pkgApp.LogInfo(ctx, h.logger, "ride deleted", map[string]interface{}{
		"ride_id":          data.RideID,
		"bookings_removed": removed,
	})
	return nil
}

type findRideHandler struct {
	repository domain.RideRepository
	logger     pkgApp.AppLogger
}

func NewFindRideHandler(repo domain.RideRepository, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[FindRideData], FindRideData, domain.Ride] {
	return &findRideHandler{repository: repo, logger: logger}
}

func (h *findRideHandler) Handle(ctx context.Context, query pkgDomain.Query[FindRideData]) (domain.Ride, error) {
	if ctx.Err() != nil {
		return domain.Ride{}, ctx.Err()
	}
	return h.repository.FindByID(ctx, query.Payload().RideID)
}

type searchRidesHandler struct {
	repository domain.RideRepository
	logger     pkgApp.AppLogger
}

func NewSearchRidesHandler(repo domain.RideRepository, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[SearchRidesData], SearchRidesData, []domain.Ride] {
	return &searchRidesHandler{repository: repo, logger: logger}
}

func (h *searchRidesHandler) Handle(ctx context.Context, query pkgDomain.Query[SearchRidesData]) ([]domain.Ride, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	rides, err := h.repository.Search(ctx, query.Payload().Criteria)
	if err != nil {
		pkgApp.LogError(ctx, h.logger, "failed to search rides", err, nil)
		return nil, err
	}
	pkgApp.LogDebug(ctx, h.logger, "rides found", map[string]interface{}{"count": len(rides)})
	return rides, nil
}
