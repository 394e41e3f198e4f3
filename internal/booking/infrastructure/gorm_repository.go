package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/gormdb"
)

type gormBookingRepository struct {
	db     *gorm.DB
	logger application.AppLogger
}

// NewGormBookingRepository expects db opened with TranslateError so the
// (ride_id, passenger_id) unique index surfaces as gorm.ErrDuplicatedKey.
func NewGormBookingRepository(db *gorm.DB, logger application.AppLogger) domain.BookingRepository {
	return &gormBookingRepository{db: db, logger: logger}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Booking{})
}

func (r *gormBookingRepository) Insert(ctx context.Context, booking domain.Booking) error {
	if err := gormdb.Conn(ctx, r.db).Create(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgDomain.DuplicateBookingError{RideID: booking.RideID, PassengerID: booking.PassengerID}
		}
		application.LogError(ctx, r.logger, "failed to insert booking", err, map[string]interface{}{"booking_id": booking.ID})
		return gormdb.ClassifyError(err)
	}
	return nil
}

func (r *gormBookingRepository) FindByID(ctx context.Context, id string) (domain.Booking, error) {
	return r.first(gormdb.Conn(ctx, r.db), id)
}

func (r *gormBookingRepository) FindForUpdate(ctx context.Context, id string) (domain.Booking, error) {
	return r.first(gormdb.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *gormBookingRepository) first(tx *gorm.DB, id string) (domain.Booking, error) {
	var booking domain.Booking
	if err := tx.Where("id = ?", id).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Booking{}, notFound(id)
		}
		return domain.Booking{}, gormdb.ClassifyError(err)
	}
	return booking, nil
}

func (r *gormBookingRepository) Update(ctx context.Context, booking domain.Booking) error {
	result := gormdb.Conn(ctx, r.db).Model(&domain.Booking{}).
		Where("id = ?", booking.ID).
		UpdateColumns(map[string]interface{}{
			"seats_booked": booking.SeatsBooked,
			"status":       booking.Status,
			"total_amount": booking.TotalAmount,
			"updated_at":   booking.UpdatedAt,
		})
	if result.Error != nil {
		return gormdb.ClassifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(booking.ID)
	}
	return nil
}

func (r *gormBookingRepository) Delete(ctx context.Context, id string) error {
	result := gormdb.Conn(ctx, r.db).Where("id = ?", id).Delete(&domain.Booking{})
	if result.Error != nil {
		return gormdb.ClassifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

func (r *gormBookingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Booking, error) {
	query := gormdb.Conn(ctx, r.db).Model(&domain.Booking{})
	if filter.PassengerID != "" {
		query = query.Where("passenger_id = ?", filter.PassengerID)
	}
	if filter.RideID != "" {
		query = query.Where("ride_id = ?", filter.RideID)
	}

	var bookings []domain.Booking
	if err := query.Order("created_at DESC, id").Find(&bookings).Error; err != nil {
		application.LogError(ctx, r.logger, "failed to list bookings", err, nil)
		return nil, gormdb.ClassifyError(err)
	}
	return bookings, nil
}

func (r *gormBookingRepository) DeleteByRide(ctx context.Context, rideID string) (int64, error) {
	result := gormdb.Conn(ctx, r.db).Where("ride_id = ?", rideID).Delete(&domain.Booking{})
	return result.RowsAffected, gormdb.ClassifyError(result.Error)
}

type rideSeats struct {
	RideID string
	Seats  int
}

func (r *gormBookingRepository) ReservedSeatsByRide(ctx context.Context) (map[string]int, error) {
	var rows []rideSeats
	err := gormdb.Conn(ctx, r.db).Model(&domain.Booking{}).
		Select("ride_id, COALESCE(SUM(seats_booked), 0) AS seats").
		Where("status IN ?", []domain.Status{domain.StatusConfirmed, domain.StatusCompleted}).
		Group("ride_id").
		Scan(&rows).Error
	if err != nil {
		return nil, gormdb.ClassifyError(err)
	}

	reserved := make(map[string]int, len(rows))
	for _, row := range rows {
		reserved[row.RideID] = row.Seats
	}
	return reserved, nil
}
