package infrastructure

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/access"
	"github.com/mateusmacedo/go-rideshare/internal/booking/application"
	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-rideshare/pkg/infrastructure"
)

type Buses struct {
	Create pkgApp.CommandBus[pkgDomain.Command[application.CreateBookingData], application.CreateBookingData]
	Update pkgApp.CommandBus[pkgDomain.Command[application.UpdateBookingData], application.UpdateBookingData]
	Cancel pkgApp.CommandBus[pkgDomain.Command[application.CancelBookingData], application.CancelBookingData]
	Find   pkgApp.QueryBus[pkgDomain.Query[application.FindBookingData], application.FindBookingData, domain.Booking]
	List   pkgApp.QueryBus[pkgDomain.Query[application.ListBookingsData], application.ListBookingsData, []domain.Booking]
}

type BookingHTTPHandler struct {
	buses          Buses
	idGenerator    pkgDomain.IDGenerator[string]
	requestTimeout time.Duration
	logger         pkgApp.AppLogger
}

func NewBookingHTTPHandler(buses Buses, idGenerator pkgDomain.IDGenerator[string], requestTimeout time.Duration, logger pkgApp.AppLogger) *BookingHTTPHandler {
	return &BookingHTTPHandler{
		buses:          buses,
		idGenerator:    idGenerator,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// The amount is always computed, so totalAmount is not accepted from
// clients; unknown fields are rejected by the decoder.
type createBookingRequest struct {
	RideID      string `json:"rideId" validate:"required"`
	SeatsBooked int    `json:"seatsBooked" validate:"min=1"`
	PassengerID string `json:"passengerId"`
}

type updateBookingRequest struct {
	Status      *string `json:"status" validate:"omitempty,oneof=CONFIRMED CANCELLED COMPLETED"`
	SeatsBooked *int    `json:"seatsBooked" validate:"omitempty,min=1"`
}

func (h *BookingHTTPHandler) HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := pkgInfra.DecodeJSON(r, &req); err != nil {
		pkgInfra.WriteError(r.Context(), w, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	actor := access.ActorFromContext(ctx)
	bookingID := h.idGenerator()
	command := application.NewCreateBookingCommand(application.CreateBookingData{
		Actor:       actor,
		BookingID:   bookingID,
		RideID:      req.RideID,
		PassengerID: req.PassengerID,
		SeatsBooked: req.SeatsBooked,
	})
	if err := h.buses.Create.Dispatch(ctx, command); err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}

	h.writeBooking(ctx, w, http.StatusCreated, actor, bookingID)
}

func (h *BookingHTTPHandler) HandleFindBooking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	h.writeBooking(ctx, w, http.StatusOK, access.ActorFromContext(ctx), chi.URLParam(r, "bookingID"))
}

func (h *BookingHTTPHandler) HandleListBookings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	h.listBookings(ctx, w, application.ListBookingsData{
		Actor:       access.ActorFromContext(ctx),
		PassengerID: r.URL.Query().Get("passenger"),
		RideID:      r.URL.Query().Get("ride"),
	})
}

// HandleListMyBookings lists the calling actor's own bookings.
func (h *BookingHTTPHandler) HandleListMyBookings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	actor := access.ActorFromContext(ctx)
	h.listBookings(ctx, w, application.ListBookingsData{Actor: actor, PassengerID: actor.ID})
}

func (h *BookingHTTPHandler) listBookings(ctx context.Context, w http.ResponseWriter, data application.ListBookingsData) {
	bookings, err := h.buses.List.Dispatch(ctx, application.NewListBookingsQuery(data))
	if err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}
	pkgInfra.WriteJSON(ctx, w, h.logger, http.StatusOK, pkgInfra.NewListBody(bookings))
}

func (h *BookingHTTPHandler) HandleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req updateBookingRequest
	if err := pkgInfra.DecodeJSON(r, &req); err != nil {
		pkgInfra.WriteError(r.Context(), w, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	patch := domain.Patch{SeatsBooked: req.SeatsBooked}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		patch.Status = &status
	}

	actor := access.ActorFromContext(ctx)
	bookingID := chi.URLParam(r, "bookingID")
	command := application.NewUpdateBookingCommand(application.UpdateBookingData{
		Actor:     actor,
		BookingID: bookingID,
		Patch:     patch,
	})
	if err := h.buses.Update.Dispatch(ctx, command); err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}

	h.writeBooking(ctx, w, http.StatusOK, actor, bookingID)
}

func (h *BookingHTTPHandler) HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	command := application.NewCancelBookingCommand(application.CancelBookingData{
		Actor:     access.ActorFromContext(ctx),
		BookingID: chi.URLParam(r, "bookingID"),
	})
	if err := h.buses.Cancel.Dispatch(ctx, command); err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHTTPHandler) writeBooking(ctx context.Context, w http.ResponseWriter, status int, actor access.Actor, bookingID string) {
	query := application.NewFindBookingQuery(application.FindBookingData{Actor: actor, BookingID: bookingID})
	booking, err := h.buses.Find.Dispatch(ctx, query)
	if err != nil {
		pkgInfra.WriteError(ctx, w, h.logger, err)
		return
	}
	pkgInfra.WriteJSON(ctx, w, h.logger, status, booking)
}

func (h *BookingHTTPHandler) RegisterRoutes(router chi.Router) {
	router.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.HandleCreateBooking)
		r.Get("/", h.HandleListBookings)
		r.Get("/mine", h.HandleListMyBookings)
		r.Get("/{bookingID}", h.HandleFindBooking)
		r.Patch("/{bookingID}", h.HandleUpdateBooking)
		r.Delete("/{bookingID}", h.HandleCancelBooking)
	})
}
