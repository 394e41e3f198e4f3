// Package fare holds booking pricing and the independent global fare table.
package fare

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/fare/application"
	"github.com/mateusmacedo/go-rideshare/internal/fare/domain"
	"github.com/mateusmacedo/go-rideshare/internal/fare/infrastructure"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-rideshare/pkg/infrastructure"
)

type FareSlice struct {
	httpHandler *infrastructure.FareHTTPHandler
}

func NewFareSlice(repository domain.SettingsRepository, uow pkgApp.UnitOfWork, requestTimeout time.Duration, logger pkgApp.AppLogger) *FareSlice {
	commandBus := pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.UpdateSettingsData], application.UpdateSettingsData](logger)
	queryBus := pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.GetSettingsData], application.GetSettingsData, domain.Settings](logger)

	commandBus.RegisterHandler(application.UpdateSettingsCommandName, application.NewUpdateSettingsHandler(repository, uow, logger))
	queryBus.RegisterHandler(application.GetSettingsQueryName, application.NewGetSettingsHandler(repository))

	return &FareSlice{
		httpHandler: infrastructure.NewFareHTTPHandler(commandBus, queryBus, requestTimeout, logger),
	}
}

func (s *FareSlice) RegisterRoutes(router chi.Router) {
	s.httpHandler.RegisterRoutes(router)
}
