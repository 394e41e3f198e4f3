// Package ride is the ride inventory slice: ride records, their seat
// counters, and the periodic inventory audit.
package ride

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/ride/application"
	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	"github.com/mateusmacedo/go-rideshare/internal/ride/infrastructure"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-rideshare/pkg/infrastructure"
)

type Dependencies struct {
	Repository     domain.RideRepository
	Ledger         domain.BookingLedger
	UnitOfWork     pkgApp.UnitOfWork
	IDGenerator    pkgDomain.IDGenerator[string]
	RequestTimeout time.Duration
	Logger         pkgApp.AppLogger
}

type RideSlice struct {
	httpHandler *infrastructure.RideHTTPHandler
	auditor     *application.InventoryAuditor
}

func NewRideSlice(deps Dependencies) *RideSlice {
	logger := deps.Logger
	buses := infrastructure.Buses{
		Create: pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.CreateRideData], application.CreateRideData](logger),
		Update: pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.UpdateRideData], application.UpdateRideData](logger),
		Delete: pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.DeleteRideData], application.DeleteRideData](logger),
		Find:   pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.FindRideData], application.FindRideData, domain.Ride](logger),
		Search: pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.SearchRidesData], application.SearchRidesData, []domain.Ride](logger),
	}

	buses.Create.RegisterHandler(application.CreateRideCommandName, application.NewCreateRideHandler(deps.Repository, logger))
	buses.Update.RegisterHandler(application.UpdateRideCommandName, application.NewUpdateRideHandler(deps.Repository, deps.UnitOfWork, logger))
	buses.Delete.RegisterHandler(application.DeleteRideCommandName, application.NewDeleteRideHandler(deps.Repository, deps.Ledger, deps.UnitOfWork, logger))
	buses.Find.RegisterHandler(application.FindRideQueryName, application.NewFindRideHandler(deps.Repository, logger))
	buses.Search.RegisterHandler(application.SearchRidesQueryName, application.NewSearchRidesHandler(deps.Repository, logger))

	return &RideSlice{
		httpHandler: infrastructure.NewRideHTTPHandler(buses, deps.IDGenerator, deps.RequestTimeout, logger),
		auditor:     application.NewInventoryAuditor(deps.Repository, deps.Ledger, logger),
	}
}

func (s *RideSlice) RegisterRoutes(router chi.Router) {
	s.httpHandler.RegisterRoutes(router)
}

func (s *RideSlice) Auditor() *application.InventoryAuditor {
	return s.auditor
}
