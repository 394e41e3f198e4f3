// Command eventtail subscribes to the booking topics on the configured
// broker and logs every event it receives.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/spf13/pflag"

	bookingApp "github.com/mateusmacedo/go-rideshare/internal/booking/application"
	"github.com/mateusmacedo/go-rideshare/internal/config"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/pubsub"
	watermillAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/watermill/adapter"
	zapAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/zaplogger/adapter"
)

func main() {
	cfg, err := config.Load("eventtail", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}
	if cfg.Events.Driver == pubsub.DriverGoChannel || cfg.Events.Driver == pubsub.DriverNone {
		fmt.Fprintln(os.Stderr, "eventtail needs a broker: set --events-driver to kafka or redis")
		os.Exit(2)
	}

	appLogger, err := zapAdapter.NewZapAppLogger(zapAdapter.Options{AppName: "eventtail", Level: cfg.Log.Level})
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transport, err := pubsub.Open(cfg.Events.Config, true, watermillAdapter.NewWatermillLoggerAdapter(appLogger))
	if err != nil {
		pkgApp.LogError(ctx, appLogger, "failed to open event transport", err, nil)
		os.Exit(1)
	}
	defer transport.Close()

	var wg sync.WaitGroup
	for _, name := range bookingApp.EventNames {
		topic := cfg.Events.TopicPrefix + name
		messages, err := transport.Subscriber.Subscribe(ctx, topic)
		if err != nil {
			pkgApp.LogError(ctx, appLogger, "failed to subscribe", err, map[string]interface{}{"topic": topic})
			os.Exit(1)
		}

		wg.Add(1)
		go func(topic string, messages <-chan *message.Message) {
			defer wg.Done()
			for msg := range messages {
				logEvent(ctx, appLogger, topic, msg)
				msg.Ack()
			}
		}(topic, messages)
	}

	pkgApp.LogInfo(ctx, appLogger, "tailing booking events", map[string]interface{}{
		"driver": cfg.Events.Driver,
		"prefix": cfg.Events.TopicPrefix,
	})
	<-ctx.Done()
	wg.Wait()
}

func logEvent(ctx context.Context, logger pkgApp.AppLogger, topic string, msg *message.Message) {
	var event bookingApp.BookingEventData
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		pkgApp.LogError(ctx, logger, "undecodable event", err, map[string]interface{}{
			"topic":      topic,
			"message_id": msg.UUID,
		})
		return
	}
	pkgApp.LogInfo(ctx, logger, "booking event", map[string]interface{}{
		"topic":      topic,
		"message_id": msg.UUID,
		"booking_id": event.BookingID,
		"ride_id":    event.RideID,
		"status":     event.Status,
		"seats":      event.SeatsBooked,
		"actor_id":   event.ActorID,
	})
}
