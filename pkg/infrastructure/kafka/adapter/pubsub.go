package adapter

import (
	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
)

type Config struct {
	Brokers       []string `yaml:"brokers"`
	ClientID      string   `yaml:"client_id"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

func NewKafkaPublisher(cfg Config, logger watermill.LoggerAdapter) (*kafka.Publisher, error) {
	saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
	if cfg.ClientID != "" {
		saramaConfig.ClientID = cfg.ClientID
	}

	return kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:               cfg.Brokers,
		Marshaler:             kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: saramaConfig,
	}, logger)
}

func NewKafkaSubscriber(cfg Config, logger watermill.LoggerAdapter) (*kafka.Subscriber, error) {
	saramaConfig := kafka.DefaultSaramaSubscriberConfig()
	saramaConfig.Version = sarama.V1_0_0_0
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true
	if cfg.ClientID != "" {
		saramaConfig.ClientID = cfg.ClientID
	}

	return kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.Brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		ConsumerGroup:         cfg.ConsumerGroup,
		OverwriteSaramaConfig: saramaConfig,
		InitializeTopicDetails: &sarama.TopicDetail{
			NumPartitions:     1,
			ReplicationFactor: 1,
		},
	}, logger)
}
