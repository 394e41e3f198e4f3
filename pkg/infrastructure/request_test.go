package infrastructure

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type seatRequest struct {
	RideID      string `json:"rideId" validate:"required"`
	SeatsBooked int    `json:"seatsBooked" validate:"min=1"`
}

func TestDecodeJSON(t *testing.T) {
	var req seatRequest
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rideId":"r1","seatsBooked":2}`))
	require.NoError(t, DecodeJSON(r, &req))
	assert.Equal(t, seatRequest{RideID: "r1", SeatsBooked: 2}, req)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rideId":"r1","seatsBooked":0}`))
	err := DecodeJSON(r, &seatRequest{})
	assert.True(t, domain.IsValidation(err))
	assert.EqualError(t, err, "seatsBooked: must be at least 1")

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rideId":"r1","seatsBooked":1,"totalAmount":0}`))
	err = DecodeJSON(r, &seatRequest{})
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "totalAmount")

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"seatsBooked":1}`))
	assert.EqualError(t, DecodeJSON(r, &seatRequest{}), "rideId: is required")
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{domain.ValidationError{Msg: "bad"}, http.StatusBadRequest, "ValidationError"},
		{domain.UnauthenticatedError{}, http.StatusUnauthorized, "Unauthenticated"},
		{domain.ForbiddenError{ActorID: "p2"}, http.StatusForbidden, "Forbidden"},
		{domain.NotFoundError{Resource: "ride"}, http.StatusNotFound, "NotFound"},
		{domain.InsufficientCapacityError{}, http.StatusConflict, "InsufficientCapacity"},
		{domain.DuplicateBookingError{}, http.StatusConflict, "DuplicateBooking"},
		{domain.ConflictError{}, http.StatusConflict, "Conflict"},
		{assert.AnError, http.StatusInternalServerError, "InternalError"},
	}
	for _, tc := range cases {
		status, kind := StatusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.kind)
		assert.Equal(t, tc.kind, kind)
	}
}

func TestUUIDGeneratorIssuesDistinctIDs(t *testing.T) {
	next := NewUUIDGenerator()
	first, second := next(), next()
	assert.Len(t, first, 36)
	assert.NotEqual(t, first, second)
}
