package options

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/autopeer-io/rfmapper/pkg/mqtt"
)

var _ IOptions = (*MqttOptions)(nil)

// MqttOptions contains configuration for MQTT client and topics.
type MqttOptions struct {
	Broker   string `json:"broker" mapstructure:"broker"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	ClientID string `json:"client-id" mapstructure:"client-id"`

	// Client behavior
	KeepAlive      time.Duration `json:"keep-alive" mapstructure:"keep-alive"`
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	SessionExpiry  uint32        `json:"session-expiry" mapstructure:"session-expiry"`
	CleanStart     bool          `json:"clean-start" mapstructure:"clean-start"`

	// InsecureSkipVerify controls whether a client verifies the server's certificate chain and host name.
	// This should be used only for testing.
	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`

	// TopicRoot prefixes every topic: {TopicRoot}/{segment}/{machineID}.
	TopicRoot string `json:"topic-root" mapstructure:"topic-root"`
}

// NewMqttOptions creates a new MqttOptions with default values.
func NewMqttOptions() *MqttOptions {
	return &MqttOptions{
		Broker:         "tcp://127.0.0.1:1883",
		KeepAlive:      60 * time.Second,
		ConnectTimeout: 5 * time.Second,
		SessionExpiry:  60,
		CleanStart:     true,
		TopicRoot:      "rfmapper/v1",
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *MqttOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if o.Broker == "" {
		errs = append(errs, errors.New("--mqtt.broker must not be empty"))
	}
	if o.KeepAlive < time.Second || o.KeepAlive.Seconds() > 65535 {
		errs = append(errs, errors.New("--mqtt.keep-alive must be between 1s and 65535s"))
	}
	if o.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("--mqtt.connect-timeout must be positive"))
	}
	return errs
}

// AddFlags adds flags for MqttOptions to the specified FlagSet.
func (o *MqttOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := join(prefixes...)
	fs.StringVar(&o.Broker, p+"mqtt.broker", o.Broker, "The URL of the MQTT broker.")
	fs.StringVar(&o.Username, p+"mqtt.username", o.Username, "The username for MQTT authentication.")
	fs.StringVar(&o.Password, p+"mqtt.password", o.Password, "The password for MQTT authentication.")
	fs.StringVar(&o.ClientID, p+"mqtt.client-id", o.ClientID, "Explicit client ID. Generated when empty.")

	fs.DurationVar(&o.KeepAlive, p+"mqtt.keep-alive", o.KeepAlive, "MQTT keep alive interval.")
	fs.DurationVar(&o.ConnectTimeout, p+"mqtt.connect-timeout", o.ConnectTimeout, "Timeout for establishing the MQTT connection.")
	fs.Uint32Var(&o.SessionExpiry, p+"mqtt.session-expiry", o.SessionExpiry, "MQTT session expiry interval in seconds.")
	fs.BoolVar(&o.CleanStart, p+"mqtt.clean-start", o.CleanStart, "Start a clean MQTT session on the first connection.")
	fs.BoolVar(&o.InsecureSkipVerify, p+"mqtt.insecure-skip-verify", o.InsecureSkipVerify, "If true, skips the TLS certificate verification.")

	fs.StringVar(&o.TopicRoot, p+"mqtt.topic-root", o.TopicRoot, "Root namespace of sensor and telemetry topics.")
}

// ToClientConfig converts the options into a client configuration.
// prefix is used to derive a client ID when none is configured.
func (o *MqttOptions) ToClientConfig(prefix string) *mqtt.ClientConfig {
	clientID := o.ClientID
	if clientID == "" {
		clientID = prefix + "-" + uuid.NewString()[:8]
	}
	return &mqtt.ClientConfig{
		BrokerURL:          o.Broker,
		Username:           o.Username,
		Password:           o.Password,
		ClientID:           clientID,
		KeepAlive:          uint16(o.KeepAlive.Seconds()),
		SessionExpiry:      o.SessionExpiry,
		ConnectTimeout:     o.ConnectTimeout,
		CleanStart:         o.CleanStart,
		InsecureSkipVerify: o.InsecureSkipVerify,
	}
}
