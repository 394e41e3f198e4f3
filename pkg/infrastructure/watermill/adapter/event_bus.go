package adapter

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mateusmacedo/go-rideshare/pkg/application"
	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// WatermillEventBus publishes every event to the topic named after it on any
// watermill publisher (gochannel, kafka, redis streams) and then runs the
// in-process handlers registered for it.
type WatermillEventBus[E domain.Event[D], D any] struct {
	publisher   message.Publisher
	topicPrefix string
	handlers    map[string][]application.EventHandler[E, D]
	mu          sync.RWMutex
	logger      application.AppLogger
}

func NewWatermillEventBus[E domain.Event[D], D any](publisher message.Publisher, topicPrefix string, logger application.AppLogger) *WatermillEventBus[E, D] {
	return &WatermillEventBus[E, D]{
		publisher:   publisher,
		topicPrefix: topicPrefix,
		handlers:    make(map[string][]application.EventHandler[E, D]),
		logger:      logger,
	}
}

func (bus *WatermillEventBus[E, D]) RegisterHandler(eventName string, handler application.EventHandler[E, D]) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[eventName] = append(bus.handlers[eventName], handler)
}

// Topic returns the transport topic used for eventName.
func (bus *WatermillEventBus[E, D]) Topic(eventName string) string {
	return bus.topicPrefix + eventName
}

func (bus *WatermillEventBus[E, D]) Publish(ctx context.Context, event E) error {
	eventName := event.EventName()

	payload, err := application.MarshalPayload(event.Payload())
	if err != nil {
		application.LogError(ctx, bus.logger, "error marshalling event payload", err, map[string]interface{}{
			"event_name": eventName,
		})
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_name", eventName)
	if requestID := middleware.GetReqID(ctx); requestID != "" {
		msg.Metadata.Set("request_id", requestID)
	}
	msg.SetContext(ctx)

	if err := bus.publisher.Publish(bus.Topic(eventName), msg); err != nil {
		application.LogError(ctx, bus.logger, "error publishing event", err, map[string]interface{}{
			"event_name": eventName,
		})
		return err
	}

	bus.mu.RLock()
	handlers := append([]application.EventHandler[E, D](nil), bus.handlers[eventName]...)
	bus.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			application.LogError(ctx, bus.logger, "error handling event", err, map[string]interface{}{
				"event_name": eventName,
			})
			return err
		}
	}

	application.LogDebug(ctx, bus.logger, "event published", map[string]interface{}{
		"event_name": eventName,
		"message_id": msg.UUID,
	})
	return nil
}
