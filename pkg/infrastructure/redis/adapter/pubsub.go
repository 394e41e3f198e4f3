package adapter

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
)

func NewRedisPublisher(client redis.UniversalClient, logger watermill.LoggerAdapter) (*redisstream.Publisher, error) {
	return redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, logger)
}

func NewRedisSubscriber(client redis.UniversalClient, cfg Config, logger watermill.LoggerAdapter) (*redisstream.Subscriber, error) {
	return redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: cfg.ConsumerGroup,
		Consumer:      cfg.Consumer,
	}, logger)
}
