package infrastructure

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/gormdb"
)

func newGormRepo(t *testing.T) (*gormRideRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gormdb.OpenDialector(postgres.New(postgres.Config{Conn: sqlDB}), pkgApp.NopLogger{})
	require.NoError(t, err)
	return NewGormRideRepository(db, pkgApp.NopLogger{}).(*gormRideRepository), mock
}

func TestGormReserveIsASingleConditionalUpdate(t *testing.T) {
	repo, mock := newGormRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "rides" SET "available_seats"=available_seats - \$1.* WHERE .*available_seats >= \$5`).
		WithArgs(2, sqlmock.AnyArg(), sqlmock.AnyArg(), "r1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Reserve(context.Background(), "r1", 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReserveMissReportsAvailability(t *testing.T) {
	repo, mock := newGormRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "rides" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "rides" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "total_seats", "available_seats"}).AddRow("r1", 4, 1))

	err := repo.Reserve(context.Background(), "r1", 3)
	assert.EqualError(t, err, "ride r1: requested 3 seats, 1 available")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReserveMissOnUnknownRide(t *testing.T) {
	repo, mock := newGormRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "rides" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "rides" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	assert.True(t, pkgDomain.IsNotFound(repo.Reserve(context.Background(), "ghost", 1)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReleaseLocksRowAndClamps(t *testing.T) {
	repo, mock := newGormRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "rides" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "total_seats", "available_seats"}).AddRow("r1", 4, 3))
	mock.ExpectExec(`UPDATE "rides" SET "available_seats"=\$1`).
		WithArgs(4, sqlmock.AnyArg(), sqlmock.AnyArg(), "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Release(context.Background(), "r1", 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}
