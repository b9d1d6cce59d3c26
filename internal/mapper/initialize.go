package mapper

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
	"github.com/autopeer-io/rfmapper/internal/mapper/source"
	"github.com/autopeer-io/rfmapper/internal/mapper/submit"
	"github.com/autopeer-io/rfmapper/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/rfmapper/pkg/log"
	"github.com/autopeer-io/rfmapper/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/rfmapper/pkg/mqtt/topic"
	"github.com/autopeer-io/rfmapper/pkg/options"
)

// wiring builds the option-driven collaborators. The MQTT client is shared
// by the sensor sources and the mqtt submitter and created on first use.
type wiring struct {
	cfg      *Config
	settings settings
	topics   *mqtttopic.Builder
	logger   log.Logger

	// newClient builds the shared MQTT client. Replaced in tests.
	newClient func(*mqtt.ClientConfig) (mqtt.Client, error)

	mu     sync.Mutex
	client mqtt.Client
}

type onlineStatus struct {
	MachineID string `json:"machine_id"`
	Online    bool   `json:"online"`
	Reason    string `json:"reason,omitempty"`
}

func newWiring(cfg *Config, s settings) *wiring {
	return &wiring{
		cfg:      cfg,
		settings: s,
		topics:    mqtttopic.NewBuilder(cfg.MqttOptions.TopicRoot),
		logger:    cfg.Logger,
		newClient: mqtt.NewClient,
	}
}

func (w *wiring) factories() *Factories {
	so := w.cfg.SourceOptions
	return &Factories{
		Position: func(ctx context.Context) (core.Source, error) {
			return w.sensor(ctx, core.SourcePosition, so.GPS)
		},
		Correction: func(ctx context.Context) (core.Source, error) {
			return w.sensor(ctx, core.SourceCorrection, so.RTK)
		},
		Odometry:  w.odometry,
		Submitter: w.submitter,
		Close:     w.close,
	}
}

// sensor subscribes to {root}/sensors/{kind}/{machineID}. Without a machine
// ID the source is disabled rather than subscribing to every robot.
func (w *wiring) sensor(ctx context.Context, kind core.SourceKind, opts options.SensorOptions) (core.Source, error) {
	if !opts.Enabled {
		return nil, nil
	}
	if w.settings.machineID == "" {
		w.logger.Error(fmt.Errorf("%w: machine-id", core.ErrConfigurationMissing),
			"Machine ID is not set in the configuration, source disabled", "source", kind)
		return nil, nil
	}

	client, err := w.mqttClient(ctx)
	if err != nil {
		return nil, err
	}
	src, err := source.NewMQTTSource(ctx, client, w.topics.Build(paths.Sensor(string(kind)), w.settings.machineID), kind, opts.MaxAge, w.cfg.Clock)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (w *wiring) odometry(_ context.Context) (core.Source, error) {
	opts := w.cfg.SourceOptions.Odom
	if !opts.Enabled {
		return nil, nil
	}
	src, err := source.NewUDPSource(source.UDPConfig{
		Kind:      core.SourceOdometry,
		Interface: w.settings.networkInterface,
		Group:     opts.Group,
		MaxAge:    opts.MaxAge,
		Clock:     w.cfg.Clock,
	})
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (w *wiring) submitter(ctx context.Context) (core.Submitter, error) {
	cfg := &submit.Config{
		Options:    w.cfg.SubmitOptions,
		Credential: w.settings.credential,
	}
	if w.cfg.SubmitOptions.Transport == options.TransportMQTT {
		client, err := w.mqttClient(ctx)
		if err != nil {
			return nil, err
		}
		cfg.MQTT = client
		cfg.Topic = w.topics.Build(paths.Telemetry, w.settings.resolvedMachineID())
	}
	return submit.New(cfg)
}

func (w *wiring) mqttClient(ctx context.Context) (mqtt.Client, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.client != nil {
		return w.client, nil
	}

	id := w.settings.resolvedMachineID()
	mc := w.cfg.MqttOptions.ToClientConfig("rfmapper")
	mc.Will = w.onlineMessage(onlineStatus{MachineID: id, Online: false, Reason: "UnexpectedDisconnect"})
	mc.Birth = w.onlineMessage(onlineStatus{MachineID: id, Online: true})

	client, err := w.newClient(mc)
	if err != nil {
		return nil, fmt.Errorf("failed to create mqtt client: %w", err)
	}
	if err := client.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start mqtt client: %w", err)
	}
	w.client = client
	return client, nil
}

func (w *wiring) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if w.client.IsConnected() {
		m := w.onlineMessage(onlineStatus{MachineID: w.settings.resolvedMachineID(), Online: false, Reason: "Shutdown"})
		if err := w.client.Publish(ctx, m.Topic, int(m.QoS), m.Retain, m.Payload); err != nil {
			w.logger.Error(err, "Failed to publish offline status")
		}
	}
	w.client.Disconnect(ctx)
	w.client = nil
	return nil
}

// onlineMessage is the retained status published on {root}/online/{id}.
func (w *wiring) onlineMessage(st onlineStatus) *mqtt.Message {
	payload, _ := json.Marshal(st)
	return &mqtt.Message{
		Topic:   w.topics.Build(paths.Online, st.MachineID),
		Payload: payload,
		QoS:     1,
		Retain:  true,
	}
}
