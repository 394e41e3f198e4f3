package domain

import "context"

// RideRepository is the ride inventory store. Reserve and Release are each a
// single atomic step; both join the transaction carried by ctx, if any.
type RideRepository interface {
	Create(ctx context.Context, ride Ride) error
	FindByID(ctx context.Context, id string) (Ride, error)
	// FindForUpdate reads the ride and holds it against concurrent writers
	// until the surrounding transaction ends.
	FindForUpdate(ctx context.Context, id string) (Ride, error)
	Search(ctx context.Context, criteria SearchCriteria) ([]Ride, error)
	Update(ctx context.Context, ride Ride) error
	Delete(ctx context.Context, id string) error

	// Reserve takes seats from the ride, failing with NotFoundError or
	// InsufficientCapacityError.
	Reserve(ctx context.Context, rideID string, seats int) error
	// Release gives seats back, never past TotalSeats.
	Release(ctx context.Context, rideID string, seats int) error
}

// BookingLedger is the view of the bookings a ride needs for cascading
// deletes and inventory audits.
type BookingLedger interface {
	DeleteByRide(ctx context.Context, rideID string) (int64, error)
	// ReservedSeatsByRide sums the seats of bookings that still hold
	// inventory, keyed by ride.
	ReservedSeatsByRide(ctx context.Context) (map[string]int, error)
}
