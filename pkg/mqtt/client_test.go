package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"rfmapper/sensors/gps/r1", "rfmapper/sensors/gps/r1", true},
		{"rfmapper/sensors/+/r1", "rfmapper/sensors/rtk/r1", true},
		{"rfmapper/sensors/+/r1", "rfmapper/sensors/rtk/r2", false},
		{"rfmapper/#", "rfmapper/telemetry/r1", true},
		{"rfmapper/+", "rfmapper/telemetry/r1", false},
		{"rfmapper/telemetry/r1", "rfmapper/telemetry/r2", false},
	}

	for _, tt := range tests {
		t.Run(tt.filter+"|"+tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, topicsMatch(tt.filter, tt.topic))
		})
	}
}

func TestTopicFilterStripsSharedPrefix(t *testing.T) {
	assert.Equal(t, "rfmapper/telemetry/+", topicFilter("$share/ingest/rfmapper/telemetry/+"))
	assert.Equal(t, "rfmapper/telemetry/+", topicFilter("rfmapper/telemetry/+"))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)

	_, err = NewClient(&ClientConfig{})
	require.Error(t, err)

	_, err = NewClient(&ClientConfig{BrokerURL: "http://broker:1883"})
	require.Error(t, err)

	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://broker:1883", ClientID: "rfmapper-test"})
	require.NoError(t, err)
	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.Publish(t.Context(), "a/b", 1, false, nil), ErrNotStarted)
}

func TestSetDefaultConfig(t *testing.T) {
	cfg := &ClientConfig{BrokerURL: "tcp://broker:1883"}
	setDefaultConfig(cfg)
	assert.EqualValues(t, 60, cfg.KeepAlive)
	assert.NotZero(t, cfg.ConnectTimeout)
	assert.NotZero(t, cfg.ReconnectBackoff)
}

func TestValidateWillAndBirth(t *testing.T) {
	base := func() *ClientConfig { return &ClientConfig{BrokerURL: "tcp://broker:1883"} }

	cfg := base()
	cfg.Will = &Message{Topic: "rfmapper/v1/online/r1", QoS: 1, Retain: true}
	cfg.Birth = &Message{Topic: "rfmapper/v1/online/r1", QoS: 1, Retain: true}
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Birth = &Message{QoS: 1}
	assert.ErrorContains(t, cfg.Validate(), "birth topic")

	cfg = base()
	cfg.Will = &Message{Topic: "t", QoS: 3}
	assert.ErrorContains(t, cfg.Validate(), "will qos")
}

func TestWillMessage(t *testing.T) {
	c := &pahoClient{cfg: &ClientConfig{}}
	assert.Nil(t, c.willMessage())

	c.cfg.Will = &Message{Topic: "t", Payload: []byte("off"), QoS: 1, Retain: true}
	w := c.willMessage()
	require.NotNil(t, w)
	assert.Equal(t, "t", w.Topic)
	assert.Equal(t, []byte("off"), w.Payload)
	assert.True(t, w.Retain)
}
