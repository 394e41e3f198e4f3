package application

import (
	"github.com/mateusmacedo/go-rideshare/internal/access"
	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

const (
	CreateBookingCommandName = "CreateBooking"
	UpdateBookingCommandName = "UpdateBooking"
	CancelBookingCommandName = "CancelBooking"
)

// CreateBookingData requests seats on a ride. PassengerID defaults to the
// actor; only a superadmin may book for someone else.
type CreateBookingData struct {
	Actor       access.Actor
	BookingID   string
	RideID      string
	PassengerID string
	SeatsBooked int
}

type createBookingCommand struct {
	data CreateBookingData
}

func (c createBookingCommand) CommandName() string        { return CreateBookingCommandName }
func (c createBookingCommand) Payload() CreateBookingData { return c.data }

func NewCreateBookingCommand(data CreateBookingData) pkgDomain.Command[CreateBookingData] {
	return createBookingCommand{data: data}
}

type UpdateBookingData struct {
	Actor     access.Actor
	BookingID string
	Patch     domain.Patch
}

type updateBookingCommand struct {
	data UpdateBookingData
}

func (c updateBookingCommand) CommandName() string        { return UpdateBookingCommandName }
func (c updateBookingCommand) Payload() UpdateBookingData { return c.data }

func NewUpdateBookingCommand(data UpdateBookingData) pkgDomain.Command[UpdateBookingData] {
	return updateBookingCommand{data: data}
}

type CancelBookingData struct {
	Actor     access.Actor
	BookingID string
}

type cancelBookingCommand struct {
	data CancelBookingData
}

func (c cancelBookingCommand) CommandName() string        { return CancelBookingCommandName }
func (c cancelBookingCommand) Payload() CancelBookingData { return c.data }

func NewCancelBookingCommand(data CancelBookingData) pkgDomain.Command[CancelBookingData] {
	return cancelBookingCommand{data: data}
}
