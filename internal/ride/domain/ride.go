package domain

import (
	"strings"
	"time"

	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

const (
	MinSeats = 1
	MaxSeats = 8
)

type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusFull      Status = "FULL"
	StatusOngoing   Status = "ONGOING"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusFull, StatusOngoing, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

type Route struct {
	StartCity   string   `json:"startCity"`
	EndCity     string   `json:"endCity"`
	Checkpoints []string `json:"checkpoints" gorm:"serializer:json"`
}

type Pricing struct {
	PricePerSeat     float64  `json:"pricePerSeat"`
	FullCarPrice     *float64 `json:"fullCarPrice,omitempty"`
	ParcelPricePerKg *float64 `json:"parcelPricePerKg,omitempty"`
}

// Ride is a driver-offered trip. AvailableSeats only moves through
// reservations, releases and total-seat edits, and always stays within
// [0, TotalSeats].
type Ride struct {
	ID                      string    `json:"id" gorm:"primaryKey"`
	DriverID                string    `json:"driverId" gorm:"index;not null"`
	Route                   Route     `json:"route" gorm:"embedded;embeddedPrefix:route_"`
	TravelDate              time.Time `json:"travelDate" gorm:"index"`
	StartTime               string    `json:"startTime"`
	Pricing                 Pricing   `json:"pricing" gorm:"embedded;embeddedPrefix:pricing_"`
	TotalSeats              int       `json:"totalSeats"`
	AvailableSeats          int       `json:"availableSeats"`
	Status                  Status    `json:"status" gorm:"type:varchar(16)"`
	ParcelAllowed           bool      `json:"parcelAllowed"`
	AvailableSeatsUpdatedAt time.Time `json:"availableSeatsUpdatedAt"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// ReservedSeats is the number of seats currently held by bookings.
func (r Ride) ReservedSeats() int {
	return r.TotalSeats - r.AvailableSeats
}

func (r Ride) Validate() error {
	switch {
	case strings.TrimSpace(r.DriverID) == "":
		return pkgDomain.ValidationError{Field: "driverId", Msg: "is required"}
	case strings.TrimSpace(r.Route.StartCity) == "":
		return pkgDomain.ValidationError{Field: "route.startCity", Msg: "is required"}
	case strings.TrimSpace(r.Route.EndCity) == "":
		return pkgDomain.ValidationError{Field: "route.endCity", Msg: "is required"}
	case r.TravelDate.IsZero():
		return pkgDomain.ValidationError{Field: "travelDate", Msg: "is required"}
	case strings.TrimSpace(r.StartTime) == "":
		return pkgDomain.ValidationError{Field: "startTime", Msg: "is required"}
	case r.Pricing.PricePerSeat < 0:
		return pkgDomain.ValidationError{Field: "pricing.pricePerSeat", Msg: "must not be negative"}
	case r.Pricing.FullCarPrice != nil && *r.Pricing.FullCarPrice < 0:
		return pkgDomain.ValidationError{Field: "pricing.fullCarPrice", Msg: "must not be negative"}
	case r.Pricing.ParcelPricePerKg != nil && *r.Pricing.ParcelPricePerKg < 0:
		return pkgDomain.ValidationError{Field: "pricing.parcelPricePerKg", Msg: "must not be negative"}
	case r.TotalSeats < MinSeats || r.TotalSeats > MaxSeats:
		return pkgDomain.ValidationError{Field: "totalSeats", Msg: "must be between 1 and 8"}
	case r.AvailableSeats < 0 || r.AvailableSeats > r.TotalSeats:
		return pkgDomain.ValidationError{Field: "availableSeats", Msg: "must be between 0 and totalSeats"}
	case !r.Status.Valid():
		return pkgDomain.ValidationError{Field: "status", Msg: "unknown status " + string(r.Status)}
	}
	return nil
}

// Patch is an explicit owner or admin edit. Nil fields are left untouched.
type Patch struct {
	Route         *Route
	TravelDate    *time.Time
	StartTime     *string
	Pricing       *Pricing
	TotalSeats    *int
	Status        *Status
	ParcelAllowed *bool
}

// Apply returns the ride with p applied. Changing TotalSeats shifts
// AvailableSeats by the same delta so reservations are preserved; a new total
// below the seats already reserved is rejected.
func (r Ride) Apply(p Patch, now time.Time) (Ride, error) {
	next := r
	if p.Route != nil {
		next.Route = *p.Route
	}
	if p.TravelDate != nil {
		next.TravelDate = *p.TravelDate
	}
	if p.StartTime != nil {
		next.StartTime = *p.StartTime
	}
	if p.Pricing != nil {
		next.Pricing = *p.Pricing
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.ParcelAllowed != nil {
		next.ParcelAllowed = *p.ParcelAllowed
	}
	if p.TotalSeats != nil && *p.TotalSeats != r.TotalSeats {
		reserved := r.ReservedSeats()
		if *p.TotalSeats < reserved {
			return r, pkgDomain.ValidationError{
				Field: "totalSeats",
				Msg:   "cannot drop below the seats already reserved",
			}
		}
		next.TotalSeats = *p.TotalSeats
		next.AvailableSeats = *p.TotalSeats - reserved
		next.AvailableSeatsUpdatedAt = now
	}

	if err := next.Validate(); err != nil {
		return r, err
	}
	next.UpdatedAt = now
	return next, nil
}

// SearchCriteria filters rides. City matches are case-insensitive substring
// matches; From keeps rides travelling on or after that instant.
type SearchCriteria struct {
	StartCity string
	EndCity   string
	From      *time.Time
}

func (c SearchCriteria) Matches(r Ride) bool {
	if c.StartCity != "" && !containsFold(r.Route.StartCity, c.StartCity) {
		return false
	}
	if c.EndCity != "" && !containsFold(r.Route.EndCity, c.EndCity) {
		return false
	}
	if c.From != nil && r.TravelDate.Before(*c.From) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
