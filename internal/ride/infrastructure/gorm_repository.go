package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/gormdb"
)

type gormRideRepository struct {
	db     *gorm.DB
	uow    application.UnitOfWork
	now    func() time.Time
	logger application.AppLogger
}

func NewGormRideRepository(db *gorm.DB, logger application.AppLogger) domain.RideRepository {
	return &gormRideRepository{
		db:     db,
		uow:    gormdb.NewUnitOfWork(db),
		now:    time.Now,
		logger: logger,
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Ride{})
}

func (r *gormRideRepository) Create(ctx context.Context, ride domain.Ride) error {
	if err := gormdb.Conn(ctx, r.db).Create(&ride).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgDomain.ValidationError{Field: "id", Msg: "ride " + ride.ID + " already exists"}
		}
		application.LogError(ctx, r.logger, "failed to create ride", err, map[string]interface{}{"ride_id": ride.ID})
		return gormdb.ClassifyError(err)
	}
	return nil
}

func (r *gormRideRepository) FindByID(ctx context.Context, id string) (domain.Ride, error) {
	return r.first(gormdb.Conn(ctx, r.db), id)
}

func (r *gormRideRepository) FindForUpdate(ctx context.Context, id string) (domain.Ride, error) {
	return r.first(gormdb.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *gormRideRepository) first(tx *gorm.DB, id string) (domain.Ride, error) {
	var ride domain.Ride
	if err := tx.Where("id = ?", id).First(&ride).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Ride{}, notFound(id)
		}
		return domain.Ride{}, gormdb.ClassifyError(err)
	}
	return ride, nil
}

func (r *gormRideRepository) Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.Ride, error) {
	query := gormdb.Conn(ctx, r.db).Model(&domain.Ride{})
	if criteria.StartCity != "" {
		query = query.Where("route_start_city ILIKE ?", "%"+criteria.StartCity+"%")
	}
	if criteria.EndCity != "" {
		query = query.Where("route_end_city ILIKE ?", "%"+criteria.EndCity+"%")
	}
	if criteria.From != nil {
		query = query.Where("travel_date >= ?", *criteria.From)
	}

	var rides []domain.Ride
	if err := query.Order("travel_date, id").Find(&rides).Error; err != nil {
		application.LogError(ctx, r.logger, "failed to search rides", err, nil)
		return nil, gormdb.ClassifyError(err)
	}
	return rides, nil
}

func (r *gormRideRepository) Update(ctx context.Context, ride domain.Ride) error {
	result := gormdb.Conn(ctx, r.db).Model(&domain.Ride{ID: ride.ID}).Select("*").Omit("id", "created_at").Updates(&ride)
	if result.Error != nil {
		return gormdb.ClassifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(ride.ID)
	}
	return nil
}

func (r *gormRideRepository) Delete(ctx context.Context, id string) error {
	result := gormdb.Conn(ctx, r.db).Where("id = ?", id).Delete(&domain.Ride{})
	if result.Error != nil {
		return gormdb.ClassifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

// Reserve is one conditional UPDATE, so the capacity check and the decrement
// cannot be split by a concurrent writer. A miss is disambiguated afterwards.
func (r *gormRideRepository) Reserve(ctx context.Context, rideID string, seats int) error {
	now := r.now()
	result := gormdb.Conn(ctx, r.db).Model(&domain.Ride{}).
		Where("id = ? AND available_seats >= ?", rideID, seats).
		UpdateColumns(map[string]interface{}{
			"available_seats":            gorm.Expr("available_seats - ?", seats),
			"available_seats_updated_at": now,
			"updated_at":                 now,
		})
	if result.Error != nil {
		return gormdb.ClassifyError(result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	ride, err := r.FindByID(ctx, rideID)
	if err != nil {
		return err
	}
	return pkgDomain.InsufficientCapacityError{RideID: rideID, Requested: seats, Available: ride.AvailableSeats}
}

// Release locks the row so the clamp against TotalSeats reads the value it
// writes back.
func (r *gormRideRepository) Release(ctx context.Context, rideID string, seats int) error {
	return r.uow.WithinTx(ctx, func(ctx context.Context) error {
		ride, err := r.FindForUpdate(ctx, rideID)
		if err != nil {
			return err
		}

		now := r.now()
		return gormdb.Conn(ctx, r.db).Model(&domain.Ride{}).
			Where("id = ?", rideID).
			UpdateColumns(map[string]interface{}{
				"available_seats":            clampRelease(ctx, r.logger, ride, seats),
				"available_seats_updated_at": now,
				"updated_at":                 now,
			}).Error
	})
}
