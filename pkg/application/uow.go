package application

import "context"

// UnitOfWork runs fn inside a single storage transaction. Calls nested inside
// fn reuse the outer transaction; a non-nil error from fn rolls back every
// write made through ctx.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
