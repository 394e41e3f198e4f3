package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/go-rideshare/pkg/application"
	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type seatEvent struct {
	name string
	data map[string]int
}

func (e seatEvent) EventName() string { return e.name }
func (e seatEvent) Payload() map[string]int { return e.data }

type recordingHandler struct {
	seen []string
	err  error
}

func (h *recordingHandler) Handle(ctx context.Context, event domain.Event[map[string]int]) error {
	h.seen = append(h.seen, event.EventName())
	return h.err
}

func newBus(t *testing.T) (*WatermillEventBus[domain.Event[map[string]int], map[string]int], *gochannel.GoChannel) {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, NewWatermillLoggerAdapter(application.NopLogger{}))
	t.Cleanup(func() { _ = pubSub.Close() })
	return NewWatermillEventBus[domain.Event[map[string]int], map[string]int](pubSub, "rideshare.", application.NopLogger{}), pubSub
}

func TestWatermillEventBusPublishesToTopicAndHandlers(t *testing.T) {
	bus, pubSub := newBus(t)
	handler := &recordingHandler{}
	bus.RegisterHandler("SeatsReleased", handler)

	messages, err := pubSub.Subscribe(context.Background(), "rideshare.SeatsReleased")
	require.NoError(t, err)

	err = bus.Publish(context.Background(), seatEvent{name: "SeatsReleased", data: map[string]int{"seats": 2}})
	require.NoError(t, err)

	select {
	case msg := <-messages:
		var payload map[string]int
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, 2, payload["seats"])
		assert.Equal(t, "SeatsReleased", msg.Metadata.Get("event_name"))
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}

	assert.Equal(t, []string{"SeatsReleased"}, handler.seen)
}

func TestWatermillEventBusReturnsHandlerError(t *testing.T) {
	bus, _ := newBus(t)
	bus.RegisterHandler("SeatsReleased", &recordingHandler{err: errors.New("boom")})

	err := bus.Publish(context.Background(), seatEvent{name: "SeatsReleased", data: map[string]int{}})
	assert.EqualError(t, err, "boom")
}

func TestWatermillEventBusWithoutHandlersStillPublishes(t *testing.T) {
	bus, _ := newBus(t)
	assert.NoError(t, bus.Publish(context.Background(), seatEvent{name: "Unobserved", data: nil}))
	assert.Equal(t, "rideshare.Unobserved", bus.Topic("Unobserved"))
}
