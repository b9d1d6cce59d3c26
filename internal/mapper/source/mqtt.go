package source

import (
	"context"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
	"github.com/autopeer-io/rfmapper/pkg/log"
	"github.com/autopeer-io/rfmapper/pkg/mqtt"
)

// MQTTSource feeds JSON samples published on one topic into a Holder.
type MQTTSource struct {
	*Holder

	kind   core.SourceKind
	topic  string
	client mqtt.Client
	logger log.Logger
}

// NewMQTTSource subscribes to topic at QoS 1. The client must be started.
func NewMQTTSource(ctx context.Context, client mqtt.Client, topic string, kind core.SourceKind, maxAge time.Duration, clk clock.PassiveClock) (*MQTTSource, error) {
	s := &MQTTSource{
		Holder: NewHolder(maxAge, clk),
		kind:   kind,
		topic:  topic,
		client: client,
		logger: log.WithName("source").WithValues("source", kind, "topic", topic),
	}

	if err := client.Subscribe(ctx, topic, 1, s.handle); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return s, nil
}

func (s *MQTTSource) handle(_ context.Context, _ string, payload []byte) {
	sample, err := decodeSample(payload)
	if err != nil {
		s.logger.Debug("Dropping malformed sample", "error", err.Error(), "bytes", len(payload))
		return
	}
	s.Update(sample)
}

// Close unsubscribes from the topic.
func (s *MQTTSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Unsubscribe(ctx, s.topic)
}
