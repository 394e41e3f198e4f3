package application

import (
	"context"

	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type bookingEventLogger struct {
	logger pkgApp.AppLogger
}

// NewBookingEventLogger records every booking event in the application log.
func NewBookingEventLogger(logger pkgApp.AppLogger) pkgApp.EventHandler[pkgDomain.Event[BookingEventData], BookingEventData] {
	return &bookingEventLogger{logger: logger}
}

func (h *bookingEventLogger) Handle(ctx context.Context, event pkgDomain.Event[BookingEventData]) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	data := event.Payload()
	pkgApp.LogInfo(ctx, h.logger, "booking event", map[string]interface{}{
		"event_name":   event.EventName(),
		"booking_id":   data.BookingID,
		"ride_id":      data.RideID,
		"passenger_id": data.PassengerID,
		"seats":        data.SeatsBooked,
		"status":       data.Status,
		"actor_id":     data.ActorID,
	})
	return nil
}
