package pubsub

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDefaultsToGoChannel(t *testing.T) {
	transport, err := Open(Config{}, true, watermill.NopLogger{})
	require.NoError(t, err)

	assert.NotNil(t, transport.Publisher)
	assert.Same(t, transport.Publisher, transport.Subscriber)
	assert.NoError(t, transport.Close())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "carrier-pigeon"}, false, watermill.NopLogger{})
	assert.EqualError(t, err, `unknown event driver "carrier-pigeon"`)
}
