package domain

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a ride, booking or setting does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ValidationError reports bad input or a rejected state transition.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

// InsufficientCapacityError is returned when a reservation asks for more seats
// than the ride has left.
type InsufficientCapacityError struct {
	RideID    string
	Requested int
	Available int
}

func (e InsufficientCapacityError) Error() string {
	return fmt.Sprintf("ride %s: requested %d seats, %d available", e.RideID, e.Requested, e.Available)
}

// DuplicateBookingError is returned when the passenger already holds a booking
// on the ride.
type DuplicateBookingError struct {
	RideID      string
	PassengerID string
}

func (e DuplicateBookingError) Error() string {
	return fmt.Sprintf("passenger %s already has a booking on ride %s", e.PassengerID, e.RideID)
}

// ForbiddenError is returned by the authorization guard.
type ForbiddenError struct {
	ActorID string
	Action  string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("actor %q is not allowed to %s", e.ActorID, e.Action)
}

// UnauthenticatedError is returned when a mutation arrives without an actor.
type UnauthenticatedError struct{}

func (UnauthenticatedError) Error() string { return "no authenticated actor" }

// ConflictError is surfaced after transient write conflicts exhausted their
// retries.
type ConflictError struct {
	Msg string
	Err error
}

func (e ConflictError) Error() string {
	if e.Msg == "" {
		return "write conflict"
	}
	return e.Msg
}

func (e ConflictError) Unwrap() error { return e.Err }

// TransientError marks a storage failure worth retrying, such as a
// serialization failure or a deadlock.
type TransientError struct {
	Err error
}

func (e TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e TransientError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsInsufficientCapacity(err error) bool {
	var target InsufficientCapacityError
	return errors.As(err, &target)
}

func IsDuplicateBooking(err error) bool {
	var target DuplicateBookingError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsUnauthenticated(err error) bool {
	var target UnauthenticatedError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsTransient(err error) bool {
	var target TransientError
	return errors.As(err, &target)
}
