package application

import (
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

const (
	BookingConfirmedEventName = "BookingConfirmed"
	BookingUpdatedEventName   = "BookingUpdated"
	BookingCancelledEventName = "BookingCancelled"
)

// EventNames lists every booking event, e.g. for subscribing to all topics.
var EventNames = []string{BookingConfirmedEventName, BookingUpdatedEventName, BookingCancelledEventName}

type BookingEventData struct {
	BookingID   string        `json:"bookingId"`
	RideID      string        `json:"rideId"`
	PassengerID string        `json:"passengerId"`
	SeatsBooked int           `json:"seatsBooked"`
	Status      domain.Status `json:"status"`
	TotalAmount float64       `json:"totalAmount"`
	ActorID     string        `json:"actorId"`
	OccurredAt  time.Time     `json:"occurredAt"`
}

type bookingEvent struct {
	name string
	data BookingEventData
}

func (e bookingEvent) EventName() string         { return e.name }
func (e bookingEvent) Payload() BookingEventData { return e.data }

func NewBookingEvent(name string, booking domain.Booking, actorID string, at time.Time) pkgDomain.Event[BookingEventData] {
	return bookingEvent{
		name: name,
		data: BookingEventData{
			BookingID:   booking.ID,
			RideID:      booking.RideID,
			PassengerID: booking.PassengerID,
			SeatsBooked: booking.SeatsBooked,
			Status:      booking.Status,
			TotalAmount: booking.TotalAmount,
			ActorID:     actorID,
			OccurredAt:  at,
		},
	}
}
