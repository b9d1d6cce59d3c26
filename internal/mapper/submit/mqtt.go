package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
	"github.com/autopeer-io/rfmapper/pkg/mqtt"
)

var _ core.Submitter = (*MQTTSubmitter)(nil)

// MQTTSubmitter publishes every payload at QoS 1 on a fixed topic. A publish
// still waiting for its acknowledgement after timeout fails with ErrTimeout.
type MQTTSubmitter struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewMQTT returns a submitter publishing on topic through client. A
// non-positive timeout selects DefaultTimeout.
func NewMQTT(client mqtt.Client, topic string, timeout time.Duration) (*MQTTSubmitter, error) {
	if client == nil {
		return nil, errors.New("mqtt client is required")
	}
	if topic == "" {
		return nil, errors.New("telemetry topic is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &MQTTSubmitter{client: client, topic: topic, timeout: timeout}, nil
}

func (m *MQTTSubmitter) Submit(ctx context.Context, p *core.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.client.Publish(ctx, m.topic, 1, false, body); err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w after %s: %v", ErrTimeout, m.timeout, err)
		}
		return fmt.Errorf("%w: publish %s: %v", ErrConnection, m.topic, err)
	}
	return nil
}
