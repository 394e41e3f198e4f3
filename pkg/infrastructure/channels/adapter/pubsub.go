package adapter

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewGoChannelPubSub returns an in-process pub/sub. Nothing in the server
// subscribes to it, so outside tests its messages go nowhere; use kafka or
// redis when another process consumes the events.
func NewGoChannelPubSub(bufferSize int64, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: bufferSize,
	}, logger)
}
