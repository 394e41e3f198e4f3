package domain

// Command asks a slice to change state. Name selects the handler on a bus.
type Command[T any] interface {
	CommandName() string
	Payload() T
}

// Query reads state without changing it.
type Query[T any] interface {
	QueryName() string
	Payload() T
}

// Event reports a committed state change, e.g. a confirmed booking.
type Event[T any] interface {
	EventName() string
	Payload() T
}
