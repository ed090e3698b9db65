package nats

import (
	"testing"

	"github.com/el-rey08/EDHF-logistics/internal/config"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/stretchr/testify/assert"
)

func TestConstructorsRejectNilConnection(t *testing.T) {
	_, err := NewPublisher(nil)
	assert.Error(t, err)

	_, err = NewSubscriber(nil)
	assert.Error(t, err)
}

func TestNewConnection_Unreachable(t *testing.T) {
	_, err := NewConnection(config.NATSConfig{URL: "nats://127.0.0.1:1"}, "edhf-test", logger.NewNop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nats://127.0.0.1:1")
}
