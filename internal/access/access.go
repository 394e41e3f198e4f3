// Package access holds the authenticated actor and the capability checks
// every mutating operation runs before touching state.
package access

import (
	"context"
	"strings"

	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type Role string

const (
	RoleUser       Role = "USER"
	RoleDriver     Role = "DRIVER"
	RoleVendor     Role = "VENDOR"
	RoleSuperAdmin Role = "SUPERADMIN"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleUser, RoleDriver, RoleVendor, RoleSuperAdmin:
		return r, true
	default:
		return "", false
	}
}

type Action string

const (
	ActionCreateBooking Action = "create booking"
	ActionViewBooking   Action = "view booking"
	ActionUpdateBooking Action = "update booking"
	ActionCancelBooking Action = "cancel booking"
	ActionListBookings  Action = "list bookings"
	ActionCreateRide    Action = "create ride"
	ActionUpdateRide    Action = "update ride"
	ActionDeleteRide    Action = "delete ride"
	ActionViewFares     Action = "view fares"
	ActionUpdateFares   Action = "update fares"
)

// Actor is the identity supplied by the upstream authentication layer.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (a Actor) IsSuperAdmin() bool { return a.Role == RoleSuperAdmin }

func (a Actor) authenticated() bool { return a.ID != "" }

// Authorize allows the action when the actor owns the resource or is a
// superadmin. No other role overrides ownership.
func Authorize(actor Actor, ownerID string, action Action) error {
	if !actor.authenticated() {
		return domain.UnauthenticatedError{}
	}
	if actor.IsSuperAdmin() || (ownerID != "" && actor.ID == ownerID) {
		return nil
	}
	return domain.ForbiddenError{ActorID: actor.ID, Action: string(action)}
}

// AuthorizeRole allows the action when the actor holds one of roles.
// Superadmin always passes.
func AuthorizeRole(actor Actor, action Action, roles ...Role) error {
	if !actor.authenticated() {
		return domain.UnauthenticatedError{}
	}
	if actor.IsSuperAdmin() {
		return nil
	}
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return domain.ForbiddenError{ActorID: actor.ID, Action: string(action)}
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor attached by Middleware. The zero Actor
// is returned for anonymous requests.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}
