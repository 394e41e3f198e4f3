// Package gormdb opens the postgres connection and carries gorm transactions
// through context.Context.
package gormdb

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mateusmacedo/go-rideshare/pkg/application"
	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type ctxKey struct{}

var txKey = ctxKey{}

// Open connects to postgres with error translation enabled so unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string, logger application.AppLogger) (*gorm.DB, error) {
	return OpenDialector(postgres.Open(dsn), logger)
}

func OpenDialector(dialector gorm.Dialector, logger application.AppLogger) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(logger),
		TranslateError: true,
	})
}

type unitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) application.UnitOfWork {
	return &unitOfWork{db: db}
}

// WithinTx runs fn in a transaction stored in ctx. A transaction already in
// ctx is reused.
func (u *unitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
	return ClassifyError(err)
}

func TxFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	return tx, ok
}

// Conn returns the transaction in ctx, or db bound to ctx when there is none.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// postgres SQLSTATEs worth retrying
const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// ClassifyError wraps serialization failures and deadlocks as
// domain.TransientError and leaves every other error untouched.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case serializationFailure, deadlockDetected:
			return domain.TransientError{Err: err}
		}
	}
	return err
}
