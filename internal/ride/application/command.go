package application

import (
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/access"
	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

const (
	CreateRideCommandName = "CreateRide"
	UpdateRideCommandName = "UpdateRide"
	DeleteRideCommandName = "DeleteRide"
)

// CreateRideData describes a new ride. DriverID may only differ from the
// actor when a superadmin creates the ride on a driver's behalf.
type CreateRideData struct {
	Actor         access.Actor
	RideID        string
	DriverID      string
	Route         domain.Route
	TravelDate    time.Time
	StartTime     string
	Pricing       domain.Pricing
	TotalSeats    int
	ParcelAllowed bool
}

type createRideCommand struct {
	data CreateRideData
}

func (c createRideCommand) CommandName() string     { return CreateRideCommandName }
func (c createRideCommand) Payload() CreateRideData { return c.data }

func NewCreateRideCommand(data CreateRideData) pkgDomain.Command[CreateRideData] {
	return createRideCommand{data: data}
}

type UpdateRideData struct {
	Actor  access.Actor
	RideID string
	Patch  domain.Patch
}

type updateRideCommand struct {
	data UpdateRideData
}

func (c updateRideCommand) CommandName() string     { return UpdateRideCommandName }
func (c updateRideCommand) Payload() UpdateRideData { return c.data }

func NewUpdateRideCommand(data UpdateRideData) pkgDomain.Command[UpdateRideData] {
	return updateRideCommand{data: data}
}

type DeleteRideData struct {
	Actor  access.Actor
	RideID string
}

type deleteRideCommand struct {
	data DeleteRideData
}

func (c deleteRideCommand) CommandName() string     { return DeleteRideCommandName }
func (c deleteRideCommand) Payload() DeleteRideData { return c.data }

func NewDeleteRideCommand(data DeleteRideData) pkgDomain.Command[DeleteRideData] {
	return deleteRideCommand{data: data}
}
