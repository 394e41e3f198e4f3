package infrastructure

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/access"
	"github.com/mateusmacedo/go-rideshare/internal/ride/application"
	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-rideshare/pkg/infrastructure"
)

type Buses struct {
	Create pkgApp.CommandBus[pkgDomain.Command[application.CreateRideData], application.CreateRideData]
	Update pkgApp.CommandBus[pkgDomain.Command[application.UpdateRideData], application.UpdateRideData]
	Delete pkgApp.CommandBus[pkgDomain.Command[application.DeleteRideData], application.DeleteRideData]
	Find   pkgApp.QueryBus[pkgDomain.Query[application.FindRideData], application.FindRideData, domain.Ride]
	Search pkgApp.QueryBus[pkgDomain.Query[application.SearchRidesData], application.SearchRidesData, []domain.Ride]
}

type RideHTTPHandler struct {
	buses          Buses
	idGenerator    pkgDomain.IDGenerator[string]
	requestTimeout time.Duration
	logger         pkgApp.AppLogger
}

func NewRideHTTPHandler(buses Buses, idGenerator pkgDomain.IDGenerator[string], requestTimeout time.Duration, logger pkgApp.AppLogger) *RideHTTPHandler {
	return &RideHTTPHandler{
		buses:          buses,
		idGenerator:    idGenerator,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

type routeDTO struct {
	StartCity   string   `json:"startCity" validate:"required"`
	EndCity     string   `json:"endCity" validate:"required"`
	Checkpoints []string `json:"checkpoints"`
}

func (d routeDTO) toDomain() domain.Route {
	return domain.Route{StartCity: d.StartCity, EndCity: d.EndCity, Checkpoints: d.Checkpoints}
}

type pricingDTO struct {
	PricePerSeat     *float64 `json:"pricePerSeat" validate:"required,gte=0"`
	FullCarPrice     *float64 `json:"fullCarPrice" validate:"omitempty,gte=0"`
	ParcelPricePerKg *float64 `json:"parcelPricePerKg" validate:"omitempty,gte=0"`
}

func (d pricingDTO) toDomain() domain.Pricing {
	return domain.Pricing{
		PricePerSeat:     *d.PricePerSeat,
		FullCarPrice:     d.FullCarPrice,
		ParcelPricePerKg: d.ParcelPricePerKg,
	}
}

type createRideRequest struct {
	DriverID      string     `json:"driverId"`
	Route         routeDTO   `json:"route"`
	TravelDate    time.Time  `json:"travelDate" validate:"required"`
	StartTime     string     `json:"startTime" validate:"required"`
	Pricing       pricingDTO `json:"pricing"`
	TotalSeats    int        `json:"totalSeats" validate:"min=1,max=8"`
	ParcelAllowed bool       `json:"parcelAllowed"`
}

type updateRideRequest struct {
	Route         *routeDTO   `json:"route"`
	TravelDate    *time.Time  `json:"travelDate"`
	StartTime     *string     `json:"startTime" validate:"omitempty,min=1"`
	Pricing       *pricingDTO `json:"pricing"`
	TotalSeats    *int        `json:"totalSeats" validate:"omitempty,min=1,max=8"`
	Status        *string     `json:"status" validate:"omitempty,oneof=OPEN FULL ONGOING CANCELLED COMPLETED"`
	ParcelAllowed *bool       `json:"parcelAllowed"`
}

func (req updateRideRequest) toPatch() domain.Patch {
	patch := domain.Patch{
		TravelDate:    req.TravelDate,
		StartTime:     req.StartTime,
		TotalSeats:    req.TotalSeats,
		ParcelAllowed: req.ParcelAllowed,
	}
	if req.Route != nil {
		route := req.Route.toDomain()
		patch.Route = &route
	}
	if req.Pricing != nil {
		pricing := req.Pricing.toDomain()
		patch.Pricing = &pricing
	}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		patch.Status = &status
	}
	return patch
}

func (h *RideHTTPHandler) HandleCreateRide(w http.ResponseWriter, r *http.Request) {
	var req createRideRequest
	if err := pkgInfra.DecodeJSON(r, &req); err != nil {
		pkgInfra.WriteError(r.Context(), w, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	rideID := h.idGenerator()
	command := application.NewCreateRideCommand(application.CreateRideData{
		Actor:         access.ActorFromContext(ctx),
		RideID:        rideID,
		DriverID:      req.DriverID,
		Route:         req.Route.toDomain(),
		TravelDate:    req.TravelDate,
		StartTime:     req.StartTime,
		Pricing:       req.Pricing.toDomain(),
		TotalSeats:    req.TotalSeats,
		ParcelAllowed: req.ParcelAllowed,
	})
	if err := h.buses.Create.Dispatch(ctx, command); err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}

	h.writeRide(ctx, w, http.StatusCreated, rideID)
}

func (h *RideHTTPHandler) HandleFindRide(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	h.writeRide(ctx, w, http.StatusOK, chi.URLParam(r, "rideID"))
}

func (h *RideHTTPHandler) HandleSearchRides(w http.ResponseWriter, r *http.Request) {
	criteria := domain.SearchCriteria{
		StartCity: strings.TrimSpace(r.URL.Query().Get("startCity")),
		EndCity:   strings.TrimSpace(r.URL.Query().Get("endCity")),
	}
	if raw := r.URL.Query().Get("date"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			pkgInfra.WriteBadRequest(r.Context(), w, h.logger, "date must be YYYY-MM-DD or RFC 3339")
			return
		}
		criteria.From = &from
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	rides, err := h.buses.Search.Dispatch(ctx, application.NewSearchRidesQuery(application.SearchRidesData{Criteria: criteria}))
	if err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}
	pkgInfra.WriteJSON(ctx, w, h.logger, http.StatusOK, pkgInfra.NewListBody(rides))
}

func (h *RideHTTPHandler) HandleUpdateRide(w http.ResponseWriter, r *http.Request) {
	var req updateRideRequest
	if err := pkgInfra.DecodeJSON(r, &req); err != nil {
		pkgInfra.WriteError(r.Context(), w, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	rideID := chi.URLParam(r, "rideID")
	command := application.NewUpdateRideCommand(application.UpdateRideData{
		Actor:  access.ActorFromContext(ctx),
		RideID: rideID,
		Patch:  req.toPatch(),
	})
	if err := h.buses.Update.Dispatch(ctx, command); err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}

	h.writeRide(ctx, w, http.StatusOK, rideID)
}

func (h *RideHTTPHandler) HandleDeleteRide(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	command := application.NewDeleteRideCommand(application.DeleteRideData{
		Actor:  access.ActorFromContext(ctx),
		RideID: chi.URLParam(r, "rideID"),
	})
	if err := h.buses.Delete.Dispatch(ctx, command); err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RideHTTPHandler) writeRide(ctx context.Context, w http.ResponseWriter, status int, rideID string) {
	ride, err := h.buses.Find.Dispatch(ctx, application.NewFindRideQuery(application.FindRideData{RideID: rideID}))
	if err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}
	pkgInfra.WriteJSON(ctx, w, h.logger, status, ride)
}

func (h *RideHTTPHandler) RegisterRoutes(router chi.Router) {
	router.Route("/rides", func(r chi.Router) {
		r.Post("/", h.HandleCreateRide)
		r.Get("/", h.HandleSearchRides)
		r.Get("/{rideID}", h.HandleFindRide)
		r.Patch("/{rideID}", h.HandleUpdateRide)
		r.Delete("/{rideID}", h.HandleDeleteRide)
	})
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
