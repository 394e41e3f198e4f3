package domain

import (
	"context"
	"time"

	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// ComputeTotal is the amount owed for a booking: seats times the ride's
// per-seat price. The global fare settings play no part in it.
func ComputeTotal(seats int, pricePerSeat float64) float64 {
	return float64(seats) * pricePerSeat
}

const GlobalConfigType = "GLOBAL"

// Settings is the platform-wide distance-based fare table. It is kept for
// other consumers and is never used to price bookings.
type Settings struct {
	ConfigType  string    `json:"-" gorm:"primaryKey;type:varchar(16)"`
	PricePerKm  float64   `json:"pricePerKm"`
	BaseFare    float64   `json:"baseFare"`
	PlatformFee float64   `json:"platformFee"`
	MinimumFare float64   `json:"minimumFare"`
	UpdatedBy   string    `json:"updatedBy,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Settings) TableName() string { return "fare_settings" }

func DefaultSettings() Settings {
	return Settings{
		ConfigType:  GlobalConfigType,
		PricePerKm:  10,
		BaseFare:    50,
		PlatformFee: 5,
		MinimumFare: 30,
	}
}

type SettingsPatch struct {
	PricePerKm  *float64
	BaseFare    *float64
	PlatformFee *float64
	MinimumFare *float64
}

func (s Settings) Apply(p SettingsPatch, actorID string, now time.Time) (Settings, error) {
	next := s
	fields := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"pricePerKm", p.PricePerKm, &next.PricePerKm},
		{"baseFare", p.BaseFare, &next.BaseFare},
		{"platformFee", p.PlatformFee, &next.PlatformFee},
		{"minimumFare", p.MinimumFare, &next.MinimumFare},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		if *f.src < 0 {
			return s, pkgDomain.ValidationError{Field: f.name, Msg: "must not be negative"}
		}
		*f.dst = *f.src
	}

	next.ConfigType = GlobalConfigType
	next.UpdatedBy = actorID
	next.UpdatedAt = now
	return next, nil
}

// SettingsRepository stores the single GLOBAL settings row. Get returns
// DefaultSettings until something is saved.
type SettingsRepository interface {
	Get(ctx context.Context) (Settings, error)
	GetForUpdate(ctx context.Context) (Settings, error)
	Save(ctx context.Context, settings Settings) error
}
