package adapter

import (
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ConsumerGroup string `yaml:"consumer_group"`
	Consumer      string `yaml:"consumer"`
}

func NewRedisClient(cfg Config) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
