package application

import (
	"github.com/mateusmacedo/go-rideshare/internal/access"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

const (
	FindBookingQueryName  = "FindBooking"
	ListBookingsQueryName = "ListBookings"
)

type FindBookingData struct {
	Actor     access.Actor
	BookingID string
}

type findBookingQuery struct {
	data FindBookingData
}

func (q findBookingQuery) QueryName() string        { return FindBookingQueryName }
func (q findBookingQuery) Payload() FindBookingData { return q.data }

func NewFindBookingQuery(data FindBookingData) pkgDomain.Query[FindBookingData] {
	return findBookingQuery{data: data}
}

// ListBookingsData filters by passenger, ride, or both. Without a filter the
// listing is reserved to superadmins.
type ListBookingsData struct {
	Actor       access.Actor
	PassengerID string
	RideID      string
}

type listBookingsQuery struct {
	data ListBookingsData
}

func (q listBookingsQuery) QueryName() string         { return ListBookingsQueryName }
func (q listBookingsQuery) Payload() ListBookingsData { return q.data }

func NewListBookingsQuery(data ListBookingsData) pkgDomain.Query[ListBookingsData] {
	return listBookingsQuery{data: data}
}
