package application

import (
	"context"

	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
)

// Discrepancy is a ride whose seat counter disagrees with its bookings.
type Discrepancy struct {
	RideID         string
	TotalSeats     int
	AvailableSeats int
	ReservedSeats  int
}

// Expected is the available count the bookings imply.
func (d Discrepancy) Expected() int {
	return d.TotalSeats - d.ReservedSeats
}

// InventoryAuditor recomputes every active ride's available seats from its
// bookings and logs the rides that disagree. It never repairs anything.
type InventoryAuditor struct {
	rides  domain.RideRepository
	ledger domain.BookingLedger
	logger pkgApp.AppLogger
}

func NewInventoryAuditor(rides domain.RideRepository, ledger domain.BookingLedger, logger pkgApp.AppLogger) *InventoryAuditor {
	return &InventoryAuditor{rides: rides, ledger: ledger, logger: logger}
}

// Audit skips finished and cancelled rides.
func (a *InventoryAuditor) Audit(ctx context.Context) ([]Discrepancy, error) {
	rides, err := a.rides.Search(ctx, domain.SearchCriteria{})
	if err != nil {
		return nil, err
	}
	reserved, err := a.ledger.ReservedSeatsByRide(ctx)
	if err != nil {
		return nil, err
	}

	var found []Discrepancy
	for _, ride := range rides {
		if ride.Status == domain.StatusCompleted || ride.Status == domain.StatusCancelled {
			continue
		}
		d := Discrepancy{
			RideID:         ride.ID,
			TotalSeats:     ride.TotalSeats,
			AvailableSeats: ride.AvailableSeats,
			ReservedSeats:  reserved[ride.ID],
		}
		if d.Expected() == d.AvailableSeats {
			continue
		}
		found = append(found, d)
		pkgApp.LogInvariantViolation(ctx, a.logger, "availableSeats == totalSeats - reservedSeats", map[string]interface{}{
			"ride_id":         d.RideID,
			"total_seats":     d.TotalSeats,
			"available_seats": d.AvailableSeats,
			"reserved_seats":  d.ReservedSeats,
			"expected":        d.Expected(),
		})
	}

	pkgApp.LogDebug(ctx, a.logger, "inventory audit finished", map[string]interface{}{
		"rides_checked": len(rides),
		"discrepancies": len(found),
	})
	return found, nil
}
