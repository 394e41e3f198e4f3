package infrastructure

import (
	"context"

	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/memstore"
)

type ridePassenger struct {
	rideID      string
	passengerID string
}

type inMemoryBookingRepository struct {
	store    *memstore.Store
	bookings *memstore.Table[string, domain.Booking]
	// unique key (ride, passenger) -> booking id
	pairs  *memstore.Table[ridePassenger, string]
	logger pkgApp.AppLogger
}

func NewInMemoryBookingRepository(store *memstore.Store, logger pkgApp.AppLogger) domain.BookingRepository {
	return &inMemoryBookingRepository{
		store:    store,
		bookings: memstore.NewTable[string, domain.Booking](store),
		pairs:    memstore.NewTable[ridePassenger, string](store),
		logger:   logger,
	}
}

func notFound(id string) error {
	return pkgDomain.NotFoundError{Resource: "booking", ID: id}
}

func keyOf(b domain.Booking) ridePassenger {
	return ridePassenger{rideID: b.RideID, passengerID: b.PassengerID}
}

func (r *inMemoryBookingRepository) Insert(ctx context.Context, booking domain.Booking) error {
	return r.store.Write(ctx, func() error {
		if _, taken := r.pairs.Get(keyOf(booking)); taken {
			return pkgDomain.DuplicateBookingError{RideID: booking.RideID, PassengerID: booking.PassengerID}
		}
		if _, exists := r.bookings.Get(booking.ID); exists {
			return pkgDomain.ValidationError{Field: "id", Msg: "booking " + booking.ID + " already exists"}
		}
		r.bookings.Put(booking.ID, booking)
		r.pairs.Put(keyOf(booking), booking.ID)
		return nil
	})
}

func (r *inMemoryBookingRepository) FindByID(ctx context.Context, id string) (domain.Booking, error) {
	var booking domain.Booking
	err := r.store.Read(ctx, func() error {
		found, ok := r.bookings.Get(id)
		if !ok {
			return notFound(id)
		}
		booking = found
		return nil
	})
	return booking, err
}

func (r *inMemoryBookingRepository) FindForUpdate(ctx context.Context, id string) (domain.Booking, error) {
	return r.FindByID(ctx, id)
}

// Update never moves a booking to another ride or passenger, so the unique
// key is left as is.
func (r *inMemoryBookingRepository) Update(ctx context.Context, booking domain.Booking) error {
	return r.store.Write(ctx, func() error {
		if _, ok := r.bookings.Get(booking.ID); !ok {
			return notFound(booking.ID)
		}
		r.bookings.Put(booking.ID, booking)
		return nil
	})
}

func (r *inMemoryBookingRepository) Delete(ctx context.Context, id string) error {
	return r.store.Write(ctx, func() error {
		booking, ok := r.bookings.Get(id)
		if !ok {
			return notFound(id)
		}
		r.bookings.Delete(id)
		r.pairs.Delete(keyOf(booking))
		return nil
	})
}

func (r *inMemoryBookingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := r.store.Read(ctx, func() error {
		bookings = r.bookings.Filter(func(b domain.Booking) bool {
			return (filter.PassengerID == "" || b.PassengerID == filter.PassengerID) &&
				(filter.RideID == "" || b.RideID == filter.RideID)
		}, newestFirst)
		return nil
	})
	return bookings, err
}

func newestFirst(a, b domain.Booking) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (r *inMemoryBookingRepository) DeleteByRide(ctx context.Context, rideID string) (int64, error) {
	var removed int64
	err := r.store.Write(ctx, func() error {
		for _, b := range r.bookings.Filter(func(b domain.Booking) bool { return b.RideID == rideID }, nil) {
			r.bookings.Delete(b.ID)
			r.pairs.Delete(keyOf(b))
			removed++
		}
		return nil
	})
	return removed, err
}

func (r *inMemoryBookingRepository) ReservedSeatsByRide(ctx context.Context) (map[string]int, error) {
	reserved := make(map[string]int)
	err := r.store.Read(ctx, func() error {
		for _, b := range r.bookings.Filter(func(b domain.Booking) bool { return b.Status.HoldsSeats() }, nil) {
			reserved[b.RideID] += b.SeatsBooked
		}
		return nil
	})
	return reserved, err
}
