package infrastructure

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/access"
	"github.com/mateusmacedo/go-rideshare/internal/fare/application"
	"github.com/mateusmacedo/go-rideshare/internal/fare/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-rideshare/pkg/infrastructure"
)

type FareHTTPHandler struct {
	commandBus     pkgApp.CommandBus[pkgDomain.Command[application.UpdateSettingsData], application.UpdateSettingsData]
	queryBus       pkgApp.QueryBus[pkgDomain.Query[application.GetSettingsData], application.GetSettingsData, domain.Settings]
	requestTimeout time.Duration
	logger         pkgApp.AppLogger
}

func NewFareHTTPHandler(
	commandBus pkgApp.CommandBus[pkgDomain.Command[application.UpdateSettingsData], application.UpdateSettingsData],
	queryBus pkgApp.QueryBus[pkgDomain.Query[application.GetSettingsData], application.GetSettingsData, domain.Settings],
	requestTimeout time.Duration,
	logger pkgApp.AppLogger,
) *FareHTTPHandler {
	return &FareHTTPHandler{
		commandBus:     commandBus,
		queryBus:       queryBus,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

type updateFaresRequest struct {
	PricePerKm  *float64 `json:"pricePerKm" validate:"omitempty,gte=0"`
	BaseFare    *float64 `json:"baseFare" validate:"omitempty,gte=0"`
	PlatformFee *float64 `json:"platformFee" validate:"omitempty,gte=0"`
	MinimumFare *float64 `json:"minimumFare" validate:"omitempty,gte=0"`
}

func (h *FareHTTPHandler) HandleGetFares(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()
	h.writeSettings(ctx, w)
}

func (h *FareHTTPHandler) HandleUpdateFares(w http.ResponseWriter, r *http.Request) {
	var req updateFaresRequest
	if err := pkgInfra.DecodeJSON(r, &req); err != nil {
		pkgInfra.WriteError(r.Context(), w, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	command := application.NewUpdateSettingsCommand(application.UpdateSettingsData{
		Actor: access.ActorFromContext(ctx),
		Patch: domain.SettingsPatch{
			PricePerKm:  req.PricePerKm,
			BaseFare:    req.BaseFare,
			PlatformFee: req.PlatformFee,
			MinimumFare: req.MinimumFare,
		},
	})
	if err := h.commandBus.Dispatch(ctx, command); err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}
	h.writeSettings(ctx, w)
}

func (h *FareHTTPHandler) writeSettings(ctx context.Context, w http.ResponseWriter) {
	query := application.NewGetSettingsQuery(application.GetSettingsData{Actor: access.ActorFromContext(ctx)})
	settings, err := h.queryBus.Dispatch(ctx, query)
	if err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}
	pkgInfra.WriteJSON(ctx, w, h.logger, http.StatusOK, settings)
}

func (h *FareHTTPHandler) RegisterRoutes(router chi.Router) {
	router.Get("/fares", h.HandleGetFares)
	router.Put("/fares", h.HandleUpdateFares)
}
