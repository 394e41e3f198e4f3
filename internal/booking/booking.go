// Package booking is the booking ledger slice. It reserves and releases ride
// seats as bookings are created, changed and cancelled.
package booking

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/booking/application"
	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	"github.com/mateusmacedo/go-rideshare/internal/booking/infrastructure"
	ride "github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-rideshare/pkg/infrastructure"
)

type Dependencies struct {
	Bookings       domain.BookingRepository
	Rides          ride.RideRepository
	UnitOfWork     pkgApp.UnitOfWork
	EventBus       application.EventBus
	Retry          pkgApp.RetryPolicy
	IDGenerator    pkgDomain.IDGenerator[string]
	RequestTimeout time.Duration
	Logger         pkgApp.AppLogger
}

type BookingSlice struct {
	httpHandler *infrastructure.BookingHTTPHandler
}

func NewBookingSlice(deps Dependencies) *BookingSlice {
	logger := deps.Logger
	ledger := application.Ledger{
		Bookings:   deps.Bookings,
		Rides:      deps.Rides,
		UnitOfWork: deps.UnitOfWork,
		EventBus:   deps.EventBus,
		Retry:      deps.Retry,
		Logger:     logger,
	}

	buses := infrastructure.Buses{
		Create: pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.CreateBookingData], application.CreateBookingData](logger),
		Update: pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.UpdateBookingData], application.UpdateBookingData](logger),
		Cancel: pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.CancelBookingData], application.CancelBookingData](logger),
		Find:   pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.FindBookingData], application.FindBookingData, domain.Booking](logger),
		List:   pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.ListBookingsData], application.ListBookingsData, []domain.Booking](logger),
	}
	buses.Create.RegisterHandler(application.CreateBookingCommandName, application.NewCreateBookingHandler(ledger))
	buses.Update.RegisterHandler(application.UpdateBookingCommandName, application.NewUpdateBookingHandler(ledger))
	buses.Cancel.RegisterHandler(application.CancelBookingCommandName, application.NewCancelBookingHandler(ledger))
	buses.Find.RegisterHandler(application.FindBookingQueryName, application.NewFindBookingHandler(deps.Bookings))
	buses.List.RegisterHandler(application.ListBookingsQueryName, application.NewListBookingsHandler(deps.Bookings, deps.Rides, logger))

	if deps.EventBus != nil {
		eventLogger := application.NewBookingEventLogger(logger)
		for _, name := range application.EventNames {
			deps.EventBus.RegisterHandler(name, eventLogger)
		}
	}

	return &BookingSlice{
		httpHandler: infrastructure.NewBookingHTTPHandler(buses, deps.IDGenerator, deps.RequestTimeout, logger),
	}
}

func (s *BookingSlice) RegisterRoutes(router chi.Router) {
	s.httpHandler.RegisterRoutes(router)
}
