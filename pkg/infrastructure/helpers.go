package infrastructure

import (
	"github.com/google/uuid"

	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// NewUUIDGenerator issues random (v4) UUIDs for rides and bookings.
func NewUUIDGenerator() domain.IDGenerator[string] {
	return func() string {
		return uuid.NewString()
	}
}
