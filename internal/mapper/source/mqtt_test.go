package source

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
	"github.com/autopeer-io/rfmapper/pkg/mqtt"
)

type fakeClient struct {
	mu           sync.Mutex
	handlers     map[string]mqtt.MessageHandler
	unsubscribed []string
	subErr       error
}

var _ mqtt.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: map[string]mqtt.MessageHandler{}}
}

func (f *fakeClient) Start(context.Context) error { return nil }
func (f *fakeClient) Disconnect(context.Context)  {}
func (f *fakeClient) Publish(context.Context, string, int, bool, []byte) error {
	return nil
}
func (f *fakeClient) AwaitConnection(context.Context) error { return nil }
func (f *fakeClient) IsConnected() bool                     { return true }

func (f *fakeClient) Subscribe(_ context.Context, topic string, _ int, h mqtt.MessageHandler) error {
	if f.subErr != nil {
		return f.subErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = h
	return nil
}

func (f *fakeClient) Unsubscribe(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	f.unsubscribed = append(f.unsubscribed, topic)
	return nil
}

func (f *fakeClient) deliver(topic string, payload string) {
	f.mu.Lock()
	h := f.handlers[topic]
	f.mu.Unlock()
	h(context.Background(), topic, []byte(payload))
}

func TestMQTTSourceFeedsHolder(t *testing.T) {
	client := newFakeClient()
	topic := "rfmapper/v1/sensors/gps/robot-001"

	src, err := NewMQTTSource(context.Background(), client, topic, core.SourcePosition, 0, nil)
	require.NoError(t, err)
	assert.False(t, src.Ready())

	client.deliver(topic, `{"gps_lat": 40.7128, "gps_lon": -74.006, "gps_alt": 10.5}`)
	require.True(t, src.Ready())
	assert.Equal(t, 40.7128, src.Latest()[core.KeyGPSLat])

	client.deliver(topic, `not json`)
	assert.Equal(t, uint64(1), src.Updates(), "malformed sample dropped")
	assert.Equal(t, -74.006, src.Latest()[core.KeyGPSLon])

	require.NoError(t, src.Close())
	assert.Equal(t, []string{topic}, client.unsubscribed)
}

func TestMQTTSourceSubscribeError(t *testing.T) {
	client := newFakeClient()
	client.subErr = errors.New("broker gone")

	_, err := NewMQTTSource(context.Background(), client, "t", core.SourceCorrection, 0, nil)
	assert.ErrorIs(t, err, client.subErr)
}
