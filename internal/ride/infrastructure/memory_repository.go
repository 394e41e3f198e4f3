package infrastructure

import (
	"context"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/memstore"
)

type inMemoryRideRepository struct {
	store  *memstore.Store
	rides  *memstore.Table[string, domain.Ride]
	now    func() time.Time
	logger pkgApp.AppLogger
}

// NewInMemoryRideRepository keeps rides in store. Repositories sharing a
// store share its transactions.
func NewInMemoryRideRepository(store *memstore.Store, logger pkgApp.AppLogger) domain.RideRepository {
	return &inMemoryRideRepository{
		store:  store,
		rides:  memstore.NewTable[string, domain.Ride](store),
		now:    time.Now,
		logger: logger,
	}
}

func notFound(id string) error {
	return pkgDomain.NotFoundError{Resource: "ride", ID: id}
}

func (r *inMemoryRideRepository) Create(ctx context.Context, ride domain.Ride) error {
	return r.store.Write(ctx, func() error {
		if _, exists := r.rides.Get(ride.ID); exists {
			return pkgDomain.ValidationError{Field: "id", Msg: "ride " + ride.ID + " already exists"}
		}
		r.rides.Put(ride.ID, ride)
		return nil
	})
}

func (r *inMemoryRideRepository) FindByID(ctx context.Context, id string) (domain.Ride, error) {
	var ride domain.Ride
	err := r.store.Read(ctx, func() error {
		found, ok := r.rides.Get(id)
		if !ok {
			return notFound(id)
		}
		ride = found
		return nil
	})
	return ride, err
}

// FindForUpdate relies on the store lock held by the enclosing transaction.
func (r *inMemoryRideRepository) FindForUpdate(ctx context.Context, id string) (domain.Ride, error) {
	return r.FindByID(ctx, id)
}

func (r *inMemoryRideRepository) Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.Ride, error) {
	var rides []domain.Ride
	err := r.store.Read(ctx, func() error {
		rides = r.rides.Filter(criteria.Matches, func(a, b domain.Ride) bool {
			if !a.TravelDate.Equal(b.TravelDate) {
				return a.TravelDate.Before(b.TravelDate)
			}
			return a.ID < b.ID
		})
		return nil
	})
	return rides, err
}

func (r *inMemoryRideRepository) Update(ctx context.Context, ride domain.Ride) error {
	return r.store.Write(ctx, func() error {
		if _, ok := r.rides.Get(ride.ID); !ok {
			return notFound(ride.ID)
		}
		r.rides.Put(ride.ID, ride)
		return nil
	})
}

func (r *inMemoryRideRepository) Delete(ctx context.Context, id string) error {
	return r.store.Write(ctx, func() error {
		if !r.rides.Delete(id) {
			return notFound(id)
		}
		return nil
	})
}

func (r *inMemoryRideRepository) Reserve(ctx context.Context, rideID string, seats int) error {
	return r.store.Write(ctx, func() error {
		ride, ok := r.rides.Get(rideID)
		if !ok {
			return notFound(rideID)
		}
		if seats > ride.AvailableSeats {
			return pkgDomain.InsufficientCapacityError{RideID: rideID, Requested: seats, Available: ride.AvailableSeats}
		}

		now := r.now()
		ride.AvailableSeats -= seats
		ride.AvailableSeatsUpdatedAt = now
		ride.UpdatedAt = now
		r.rides.Put(rideID, ride)
		return nil
	})
}

func (r *inMemoryRideRepository) Release(ctx context.Context, rideID string, seats int) error {
	return r.store.Write(ctx, func() error {
		ride, ok := r.rides.Get(rideID)
		if !ok {
			return notFound(rideID)
		}

		ride.AvailableSeats = clampRelease(ctx, r.logger, ride, seats)
		now := r.now()
		ride.AvailableSeatsUpdatedAt = now
		ride.UpdatedAt = now
		r.rides.Put(rideID, ride)
		return nil
	})
}

// clampRelease returns the seat count after giving back seats, capped at the
// ride's total. Hitting the cap means the ledger lost track of a reservation.
func clampRelease(ctx context.Context, logger pkgApp.AppLogger, ride domain.Ride, seats int) int {
	available := ride.AvailableSeats + seats
	if available > ride.TotalSeats {
		pkgApp.LogInvariantViolation(ctx, logger, "availableSeats <= totalSeats", map[string]interface{}{
			"ride_id":         ride.ID,
			"total_seats":     ride.TotalSeats,
			"available_seats": ride.AvailableSeats,
			"released_seats":  seats,
		})
		available = ride.TotalSeats
	}
	return available
}
