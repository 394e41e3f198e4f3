package domain

// IDGenerator produces new identifiers for aggregates.
type IDGenerator[T any] func() T
