package domain

import (
	"context"
	"time"

	fare "github.com/mateusmacedo/go-rideshare/internal/fare/domain"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) Valid() bool {
	return s == StatusConfirmed || s == StatusCancelled || s == StatusCompleted
}

// Terminal reports whether the status accepts no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// HoldsSeats reports whether a booking in this status still counts against
// the ride's inventory.
func (s Status) HoldsSeats() bool {
	return s == StatusConfirmed || s == StatusCompleted
}

// Booking is a passenger's seats on a ride. At most one exists per
// (RideID, PassengerID).
type Booking struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	RideID      string    `json:"rideId" gorm:"not null;index;uniqueIndex:idx_booking_ride_passenger"`
	PassengerID string    `json:"passengerId" gorm:"not null;index;uniqueIndex:idx_booking_ride_passenger"`
	SeatsBooked int       `json:"seatsBooked"`
	Status      Status    `json:"status" gorm:"type:varchar(16);index"`
	TotalAmount float64   `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ValidateSeats(seats int) error {
	if seats < 1 {
		return pkgDomain.ValidationError{Field: "seatsBooked", Msg: "must be at least 1"}
	}
	return nil
}

func ValidateAmount(amount float64) error {
	if amount < 0 {
		return pkgDomain.ValidationError{Field: "totalAmount", Msg: "must not be negative"}
	}
	return nil
}

// Patch is a requested change to a booking. Nil fields are left untouched.
type Patch struct {
	Status      *Status
	SeatsBooked *int
}

func (p Patch) Empty() bool {
	return p.Status == nil && p.SeatsBooked == nil
}

// Change is the outcome of applying a patch: the new booking and the seats
// the ride must give up (positive) or take back (negative).
type Change struct {
	Booking   Booking
	SeatDelta int
}

// Apply runs the booking state machine. CONFIRMED is the only state that
// accepts changes: it may move to CANCELLED, which returns its seats, or to
// COMPLETED, which keeps them. A seat change re-prices the booking at
// pricePerSeat and is only allowed while CONFIRMED.
func (b Booking) Apply(p Patch, pricePerSeat float64, now time.Time) (Change, error) {
	if p.Empty() {
		return Change{}, pkgDomain.ValidationError{Msg: "patch changes nothing"}
	}
	if b.Status.Terminal() {
		return Change{}, pkgDomain.ValidationError{
			Field: "status",
			Msg:   "booking is " + string(b.Status) + " and accepts no further changes",
		}
	}
	if p.Status != nil && p.SeatsBooked != nil && *p.Status != StatusConfirmed {
		return Change{}, pkgDomain.ValidationError{Msg: "seatsBooked and status cannot change together"}
	}

	next := b
	delta := 0

	if p.SeatsBooked != nil {
		if err := ValidateSeats(*p.SeatsBooked); err != nil {
			return Change{}, err
		}
		amount := fare.ComputeTotal(*p.SeatsBooked, pricePerSeat)
		if err := ValidateAmount(amount); err != nil {
			return Change{}, err
		}
		delta = *p.SeatsBooked - b.SeatsBooked
		next.SeatsBooked = *p.SeatsBooked
		next.TotalAmount = amount
	}

	if p.Status != nil {
		switch *p.Status {
		case StatusConfirmed:
		case StatusCancelled:
			delta = -b.SeatsBooked
		case StatusCompleted:
		default:
			return Change{}, pkgDomain.ValidationError{Field: "status", Msg: "unknown status " + string(*p.Status)}
		}
		next.Status = *p.Status
	}

	next.UpdatedAt = now
	return Change{Booking: next, SeatDelta: delta}, nil
}

type ListFilter struct {
	PassengerID string
	RideID      string
}

type BookingRepository interface {
	// Insert fails with DuplicateBookingError when the passenger already
	// holds a booking on the ride.
	Insert(ctx context.Context, booking Booking) error
	FindByID(ctx context.Context, id string) (Booking, error)
	// FindForUpdate holds the booking against concurrent writers until the
	// surrounding transaction ends.
	FindForUpdate(ctx context.Context, id string) (Booking, error)
	Update(ctx context.Context, booking Booking) error
	Delete(ctx context.Context, id string) error
	// List returns bookings matching every non-empty filter field, newest
	// first.
	List(ctx context.Context, filter ListFilter) ([]Booking, error)

	DeleteByRide(ctx context.Context, rideID string) (int64, error)
	ReservedSeatsByRide(ctx context.Context) (map[string]int, error)
}
