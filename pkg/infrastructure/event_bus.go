package infrastructure

import (
	"context"
	"errors"
	"sync"

	"github.com/mateusmacedo/go-rideshare/pkg/application"
	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// simpleEventBus fans an event out to its handlers, one goroutine each.
type simpleEventBus[E domain.Event[T], T any] struct {
	handlers map[string][]application.EventHandler[E, T]
	mu       sync.RWMutex
	logger   application.AppLogger
}

func NewSimpleEventBus[E domain.Event[T], T any](logger application.AppLogger) application.EventBus[E, T] {
	return &simpleEventBus[E, T]{
		handlers: make(map[string][]application.EventHandler[E, T]),
		logger:   logger,
	}
}

func (bus *simpleEventBus[E, T]) RegisterHandler(eventName string, handler application.EventHandler[E, T]) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[eventName] = append(bus.handlers[eventName], handler)
}

func (bus *simpleEventBus[E, T]) Publish(ctx context.Context, event E) error {
	bus.mu.RLock()
	handlers := append([]application.EventHandler[E, T](nil), bus.handlers[event.EventName()]...)
	bus.mu.RUnlock()

	if len(handlers) == 0 {
		bus.logger.Debug(ctx, "no handler registered for event", map[string]interface{}{
			"event_name": event.EventName(),
		})
		return nil
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(handlers))

	for _, handler := range handlers {
		wg.Add(1)
		go func(h application.EventHandler[E, T]) {
			defer wg.Done()
			if err := h.Handle(ctx, event); err != nil {
				errChan <- err
			}
		}(handler)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(errChan)
		close(done)
	}()

	select {
	case <-ctx.Done():
		bus.logger.Error(ctx, "error publishing event", map[string]interface{}{
			"event_name": event.EventName(),
			"error":      ctx.Err().Error(),
		})
		return ctx.Err()
	case <-done:
	}

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		application.LogError(ctx, bus.logger, "error publishing event", err, map[string]interface{}{
			"event_name": event.EventName(),
		})
		return err
	}

	bus.logger.Debug(ctx, "event published", map[string]interface{}{
		"event_name": event.EventName(),
	})
	return nil
}
