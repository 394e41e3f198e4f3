// Package pubsub opens the watermill transport selected by configuration.
package pubsub

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	channelsAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/channels/adapter"
	kafkaAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/kafka/adapter"
	redisAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/redis/adapter"
)

const (
	DriverGoChannel = "gochannel"
	DriverKafka     = "kafka"
	DriverRedis     = "redis"
	// DriverNone keeps events in process; Open rejects it.
	DriverNone = "none"
)

type Config struct {
	Driver        string              `yaml:"driver"`
	ChannelBuffer int64               `yaml:"channel_buffer"`
	Kafka         kafkaAdapter.Config `yaml:"kafka"`
	Redis         redisAdapter.Config `yaml:"redis"`
}

// Transport bundles a publisher and subscriber sharing one backend.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	closers    []func() error
}

func (t *Transport) Close() error {
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open builds the transport. withSubscriber is false for publish-only
// processes so no consumer group is joined needlessly.
func Open(cfg Config, withSubscriber bool, logger watermill.LoggerAdapter) (*Transport, error) {
	switch cfg.Driver {
	case "", DriverGoChannel:
		goChannel := channelsAdapter.NewGoChannelPubSub(cfg.ChannelBuffer, logger)
		return &Transport{
			Publisher:  goChannel,
			Subscriber: goChannel,
			closers:    []func() error{goChannel.Close},
		}, nil

	case DriverKafka:
		publisher, err := kafkaAdapter.NewKafkaPublisher(cfg.Kafka, logger)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		t := &Transport{Publisher: publisher, closers: []func() error{publisher.Close}}
		if withSubscriber {
			subscriber, err := kafkaAdapter.NewKafkaSubscriber(cfg.Kafka, logger)
			if err != nil {
				_ = t.Close()
				return nil, fmt.Errorf("kafka subscriber: %w", err)
			}
			t.Subscriber = subscriber
			t.closers = append(t.closers, subscriber.Close)
		}
		return t, nil

	case DriverRedis:
		client := redisAdapter.NewRedisClient(cfg.Redis)
		t := &Transport{closers: []func() error{client.Close}}
		publisher, err := redisAdapter.NewRedisPublisher(client, logger)
		if err != nil {
			_ = t.Close()
			return nil, fmt.Errorf("redis publisher: %w", err)
		}
		t.Publisher = publisher
		t.closers = append(t.closers, publisher.Close)
		if withSubscriber {
			subscriber, err := redisAdapter.NewRedisSubscriber(client, cfg.Redis, logger)
			if err != nil {
				_ = t.Close()
				return nil, fmt.Errorf("redis subscriber: %w", err)
			}
			t.Subscriber = subscriber
			t.closers = append(t.closers, subscriber.Close)
		}
		return t, nil

	default:
		return nil, fmt.Errorf("unknown event driver %q", cfg.Driver)
	}
}
