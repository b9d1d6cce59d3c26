package mapper

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
	"github.com/autopeer-io/rfmapper/pkg/log"
	"github.com/autopeer-io/rfmapper/pkg/mqtt"
	"github.com/autopeer-io/rfmapper/pkg/options"
)

type published struct {
	topic   string
	retain  bool
	payload []byte
}

type fakeMQTT struct {
	mu           sync.Mutex
	config       *mqtt.ClientConfig
	startCtx     context.Context
	starts       int
	subscribed   []string
	unsubscribed []string
	published    []published
	disconnected bool
}

var _ mqtt.Client = (*fakeMQTT)(nil)

func (f *fakeMQTT) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCtx = ctx
	f.starts++
	return nil
}

func (f *fakeMQTT) Disconnect(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
}

func (f *fakeMQTT) Publish(_ context.Context, topic string, _ int, retain bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic: topic, retain: retain, payload: payload})
	return nil
}

func (f *fakeMQTT) Subscribe(_ context.Context, topic string, _ int, _ mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, topic)
	return nil
}

func (f *fakeMQTT) Unsubscribe(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topic)
	return nil
}

func (f *fakeMQTT) AwaitConnection(context.Context) error { return nil }
func (f *fakeMQTT) IsConnected() bool                     { return true }

func (f *fakeMQTT) publishedOn(topic string) []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []published
	for _, p := range f.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// newWiredMapper builds a mapper on the option-driven collaborators, with the
// MQTT client replaced by client.
func newWiredMapper(t *testing.T, mo *options.MapperOptions, so *options.SourceOptions, client *fakeMQTT) (*Mapper, *observer.ObservedLogs) {
	t.Helper()

	obs, logs := observer.New(zapcore.DebugLevel)
	submitOpts := options.NewSubmitOptions()
	submitOpts.Transport = options.TransportMQTT
	submitOpts.WriteToLocalFile = false

	c := (&Config{
		MapperOptions: mo,
		SourceOptions: so,
		SubmitOptions: submitOpts,
		Clock:         clocktesting.NewFakeClock(time.Unix(1700000000, 0)),
		Logger:        log.FromZap(zap.New(obs)),
	}).complete()

	s := newSettings(c.MapperOptions)
	w := newWiring(c, s)
	w.newClient = func(mc *mqtt.ClientConfig) (mqtt.Client, error) {
		client.config = mc
		return client, nil
	}
	return newMapper(s, c.Clock, c.Logger, *w.factories()), logs
}

func sensorsOnly() *options.SourceOptions {
	so := options.NewSourceOptions()
	so.Odom.Enabled = false
	return so
}

func TestWiringSharesOneLiveClient(t *testing.T) {
	mo := options.NewMapperOptions()
	mo.MachineID = "robot-001"
	client := &fakeMQTT{}
	m, _ := newWiredMapper(t, mo, sensorsOnly(), client)

	require.NoError(t, m.Start(context.Background()))

	assert.Equal(t, []string{
		"rfmapper/v1/sensors/gps/robot-001",
		"rfmapper/v1/sensors/rtk/robot-001",
	}, client.subscribed)
	assert.Equal(t, 1, client.starts, "sources and submitter share the client")

	require.NotNil(t, client.startCtx)
	assert.NoError(t, client.startCtx.Err(), "client context must outlive Start")

	require.NotNil(t, client.config.Will)
	require.NotNil(t, client.config.Birth)
	assert.Equal(t, "rfmapper/v1/online/robot-001", client.config.Will.Topic)
	assert.Equal(t, "rfmapper/v1/online/robot-001", client.config.Birth.Topic)
	assert.True(t, client.config.Birth.Retain)

	var birth onlineStatus
	require.NoError(t, json.Unmarshal(client.config.Birth.Payload, &birth))
	assert.True(t, birth.Online)
	assert.Equal(t, "robot-001", birth.MachineID)

	require.Eventually(t, func() bool {
		return len(client.publishedOn("rfmapper/v1/telemetry/robot-001")) > 0
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.ErrorIs(t, client.startCtx.Err(), context.Canceled)
	assert.True(t, client.disconnected)
	assert.ElementsMatch(t, client.subscribed, client.unsubscribed)

	offline := client.publishedOn("rfmapper/v1/online/robot-001")
	require.Len(t, offline, 1)
	assert.True(t, offline[0].retain)
	var st onlineStatus
	require.NoError(t, json.Unmarshal(offline[0].payload, &st))
	assert.False(t, st.Online)
	assert.Equal(t, "Shutdown", st.Reason)
}

func TestWiringDisablesSensorsWithoutMachineID(t *testing.T) {
	client := &fakeMQTT{}
	m, logs := newWiredMapper(t, options.NewMapperOptions(), sensorsOnly(), client)

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop() //nolint:errcheck

	assert.Empty(t, client.subscribed)
	entries := logs.FilterMessage("Machine ID is not set in the configuration, source disabled").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	require.Eventually(t, func() bool {
		return len(client.publishedOn("rfmapper/v1/telemetry/Unknown")) > 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWiringOdometryRequiresInterface(t *testing.T) {
	so := options.NewSourceOptions()
	so.GPS.Enabled = false
	so.RTK.Enabled = false
	client := &fakeMQTT{}
	m, _ := newWiredMapper(t, options.NewMapperOptions(), so, client)

	err := m.Start(context.Background())
	require.ErrorIs(t, err, core.ErrConfigurationMissing)
	assert.Equal(t, PhaseNotStarted, m.Status().Phase)
	assert.Zero(t, client.starts, "no client before the submitter is built")
}
