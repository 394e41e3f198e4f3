package gormdb

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mateusmacedo/go-rideshare/pkg/application"
	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := OpenDialector(postgres.New(postgres.Config{Conn: sqlDB}), application.NopLogger{})
	require.NoError(t, err)
	return db, mock
}

func TestClassifyError(t *testing.T) {
	assert.NoError(t, ClassifyError(nil))

	serialization := &pgconn.PgError{Code: "40001"}
	assert.True(t, domain.IsTransient(ClassifyError(serialization)))

	deadlock := &pgconn.PgError{Code: "40P01"}
	assert.True(t, domain.IsTransient(ClassifyError(deadlock)))

	unique := &pgconn.PgError{Code: "23505"}
	assert.False(t, domain.IsTransient(ClassifyError(unique)))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, ClassifyError(plain))
}

func TestUnitOfWorkCommitsAndExposesTx(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	uow := NewUnitOfWork(db)
	err := uow.WithinTx(context.Background(), func(ctx context.Context) error {
		tx, ok := TxFromContext(ctx)
		assert.True(t, ok)
		assert.Same(t, tx, Conn(ctx, db))

		// nested calls join the outer transaction
		return uow.WithinTx(ctx, func(inner context.Context) error {
			innerTx, _ := TxFromContext(inner)
			assert.Same(t, tx, innerTx)
			return nil
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := NewUnitOfWork(db).WithinTx(context.Background(), func(ctx context.Context) error {
		return domain.InsufficientCapacityError{RideID: "r1", Requested: 3, Available: 1}
	})
	assert.True(t, domain.IsInsufficientCapacity(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkClassifiesSerializationFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := NewUnitOfWork(db).WithinTx(context.Background(), func(ctx context.Context) error {
		return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	})
	assert.True(t, domain.IsTransient(err))
}
