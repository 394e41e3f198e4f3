package application

import (
	"context"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/access"
	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	fare "github.com/mateusmacedo/go-rideshare/internal/fare/domain"
	ride "github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type EventBus = pkgApp.EventBus[pkgDomain.Event[BookingEventData], BookingEventData]

// Ledger bundles what the booking handlers share.
type Ledger struct {
	Bookings   domain.BookingRepository
	Rides      ride.RideRepository
	UnitOfWork pkgApp.UnitOfWork
	EventBus   EventBus
	Retry      pkgApp.RetryPolicy
	Now        func() time.Time
	Logger     pkgApp.AppLogger
}

func (l Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

// transact runs fn in one transaction, retrying transient conflicts.
func (l Ledger) transact(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	return pkgApp.RetryTransient(ctx, l.Retry, l.Logger, operation, func(ctx context.Context) error {
		return l.UnitOfWork.WithinTx(ctx, fn)
	})
}

// publish runs after commit. A failed publish is logged and does not undo
// the committed change.
func (l Ledger) publish(ctx context.Context, name string, booking domain.Booking, actorID string) {
	if l.EventBus == nil {
		return
	}
	if err := l.EventBus.Publish(ctx, NewBookingEvent(name, booking, actorID, l.now())); err != nil {
		pkgApp.LogError(ctx, l.Logger, "failed to publish booking event", err, map[string]interface{}{
			"event_name": name,
			"booking_id": booking.ID,
		})
	}
}

type createBookingHandler struct {
	Ledger
}

func NewCreateBookingHandler(ledger Ledger) pkgApp.CommandHandler[pkgDomain.Command[CreateBookingData], CreateBookingData] {
	return &createBookingHandler{Ledger: ledger}
}

// Handle inserts the booking and reserves its seats in one transaction. The
// insert goes first so the unique index rejects duplicates before any seat is
// touched; a failed reservation rolls the insert back.
func (h *createBookingHandler) Handle(ctx context.Context, command pkgDomain.Command[CreateBookingData]) error {
	data := command.Payload()

	passengerID := data.PassengerID
	if passengerID == "" {
		passengerID = data.Actor.ID
	}
	if err := access.Authorize(data.Actor, passengerID, access.ActionCreateBooking); err != nil {
		return err
	}
	if err := domain.ValidateSeats(data.SeatsBooked); err != nil {
		return err
	}

	var booking domain.Booking
	err := h.transact(ctx, "create booking", func(ctx context.Context) error {
		r, err := h.Rides.FindByID(ctx, data.RideID)
		if err != nil {
			return err
		}
		if r.Status != ride.StatusOpen {
			return pkgDomain.ValidationError{Field: "rideId", Msg: "ride is " + string(r.Status) + " and not accepting bookings"}
		}

		amount := fare.ComputeTotal(data.SeatsBooked, r.Pricing.PricePerSeat)
		if err := domain.ValidateAmount(amount); err != nil {
			return err
		}

		now := h.now()
		booking = domain.Booking{
			ID:          data.BookingID,
			RideID:      r.ID,
			PassengerID: passengerID,
			SeatsBooked: data.SeatsBooked,
			Status:      domain.StatusConfirmed,
			TotalAmount: amount,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := h.Bookings.Insert(ctx, booking); err != nil {
			return err
		}
		return h.Rides.Reserve(ctx, r.ID, data.SeatsBooked)
	})
	if err != nil {
		pkgApp.LogDebug(ctx, h.Logger, "booking rejected", map[string]interface{}{
			"ride_id":      data.RideID,
			"passenger_id": passengerID,
			"seats":        data.SeatsBooked,
			"error":        err.Error(),
		})
		return err
	}

	pkgApp.LogInfo(ctx, h.Logger, "booking confirmed", map[string]interface{}{
		"booking_id":   booking.ID,
		"ride_id":      booking.RideID,
		"seats":        booking.SeatsBooked,
		"total_amount": booking.TotalAmount,
	})
	h.publish(ctx, BookingConfirmedEventName, booking, data.Actor.ID)
	return nil
}

type updateBookingHandler struct {
	Ledger
}

func NewUpdateBookingHandler(ledger Ledger) pkgApp.CommandHandler[pkgDomain.Command[UpdateBookingData], UpdateBookingData] {
	return &updateBookingHandler{Ledger: ledger}
}

// Handle applies the patch through the booking state machine and moves the
// resulting seat delta through the ride inventory in the same transaction.
func (h *updateBookingHandler) Handle(ctx context.Context, command pkgDomain.Command[UpdateBookingData]) error {
	data := command.Payload()

	var updated domain.Booking
	err := h.transact(ctx, "update booking", func(ctx context.Context) error {
		current, err := h.Bookings.FindForUpdate(ctx, data.BookingID)
		if err != nil {
			return err
		}
		if err := access.Authorize(data.Actor, current.PassengerID, access.ActionUpdateBooking); err != nil {
			return err
		}

		var pricePerSeat float64
		if data.Patch.SeatsBooked != nil {
			r, err := h.Rides.FindByID(ctx, current.RideID)
			if err != nil {
				return err
			}
			pricePerSeat = r.Pricing.PricePerSeat
		}

		change, err := current.Apply(data.Patch, pricePerSeat, h.now())
		if err != nil {
			return err
		}
		switch {
		case change.SeatDelta > 0:
			err = h.Rides.Reserve(ctx, current.RideID, change.SeatDelta)
		case change.SeatDelta < 0:
			err = h.Rides.Release(ctx, current.RideID, -change.SeatDelta)
		}
		if err != nil {
			return err
		}

		updated = change.Booking
		return h.Bookings.Update(ctx, updated)
	})
	if err != nil {
		return err
	}

	pkgApp.LogInfo(ctx, h.Logger, "booking updated", map[string]interface{}{
		"booking_id": updated.ID,
		"status":     updated.Status,
		"seats":      updated.SeatsBooked,
	})
	name := BookingUpdatedEventName
	if updated.Status == domain.StatusCancelled {
		name = BookingCancelledEventName
	}
	h.publish(ctx, name, updated, data.Actor.ID)
	return nil
}

type cancelBookingHandler struct {
	Ledger
}

func NewCancelBookingHandler(ledger Ledger) pkgApp.CommandHandler[pkgDomain.Command[CancelBookingData], CancelBookingData] {
	return &cancelBookingHandler{Ledger: ledger}
}

// Handle releases the seats of a CONFIRMED booking and removes the record.
// A CANCELLED booking is removed without touching the ride. A COMPLETED
// booking keeps its row since its seats stay consumed and the audit counts
// them.
func (h *cancelBookingHandler) Handle(ctx context.Context, command pkgDomain.Command[CancelBookingData]) error {
	data := command.Payload()

	var cancelled domain.Booking
	err := h.transact(ctx, "cancel booking", func(ctx context.Context) error {
		booking, err := h.Bookings.FindForUpdate(ctx, data.BookingID)
		if err != nil {
			return err
		}
		if err := access.Authorize(data.Actor, booking.PassengerID, access.ActionCancelBooking); err != nil {
			return err
		}

		if booking.Status == domain.StatusConfirmed {
			if err := h.Rides.Release(ctx, booking.RideID, booking.SeatsBooked); err != nil {
				return err
			}
		}
		cancelled = booking
		if booking.Status == domain.StatusCompleted {
			return nil
		}
		return h.Bookings.Delete(ctx, booking.ID)
	})
	if err != nil {
		return err
	}

	released := 0
	if cancelled.Status == domain.StatusConfirmed {
		released = cancelled.SeatsBooked
		cancelled.Status = domain.StatusCancelled
	}
	pkgApp.LogInfo(ctx, h.Logger, "booking cancelled", map[string]interface{}{
		"booking_id":     cancelled.ID,
		"ride_id":        cancelled.RideID,
		"seats_released": released,
	})
	h.publish(ctx, BookingCancelledEventName, cancelled, data.Actor.ID)
	return nil
}

type findBookingHandler struct {
	bookings domain.BookingRepository
}

func NewFindBookingHandler(bookings domain.BookingRepository) pkgApp.QueryHandler[pkgDomain.Query[FindBookingData], FindBookingData, domain.Booking] {
	return &findBookingHandler{bookings: bookings}
}

func (h *findBookingHandler) Handle(ctx context.Context, query pkgDomain.Query[FindBookingData]) (domain.Booking, error) {
	data := query.Payload()
	booking, err := h.bookings.FindByID(ctx, data.BookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := access.Authorize(data.Actor, booking.PassengerID, access.ActionViewBooking); err != nil {
		return domain.Booking{}, err
	}
	return booking, nil
}

type listBookingsHandler struct {
	bookings domain.BookingRepository
	rides    ride.RideRepository
	logger   pkgApp.AppLogger
}

func NewListBookingsHandler(bookings domain.BookingRepository, rides ride.RideRepository, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[ListBookingsData], ListBookingsData, []domain.Booking] {
	return &listBookingsHandler{bookings: bookings, rides: rides, logger: logger}
}

func (h *listBookingsHandler) Handle(ctx context.Context, query pkgDomain.Query[ListBookingsData]) ([]domain.Booking, error) {
	data := query.Payload()
	if err := h.authorize(ctx, data); err != nil {
		return nil, err
	}

	bookings, err := h.bookings.List(ctx, domain.ListFilter{PassengerID: data.PassengerID, RideID: data.RideID})
	if err != nil {
		pkgApp.LogError(ctx, h.logger, "failed to list bookings", err, nil)
		return nil, err
	}
	return bookings, nil
}

// authorize passes when any given filter is one the actor may read: their
// own passenger id, or a ride they drive.
func (h *listBookingsHandler) authorize(ctx context.Context, data ListBookingsData) error {
	if data.PassengerID == "" && data.RideID == "" {
		return access.AuthorizeRole(data.Actor, access.ActionListBookings)
	}

	var err error
	if data.PassengerID != "" {
		if err = access.Authorize(data.Actor, data.PassengerID, access.ActionListBookings); err == nil {
			return nil
		}
	}
	if data.RideID != "" {
		r, findErr := h.rides.FindByID(ctx, data.RideID)
		if findErr != nil {
			return findErr
		}
		err = access.Authorize(data.Actor, r.DriverID, access.ActionListBookings)
	}
	return err
}
