package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MapperOptions)(nil)

// DefaultMapperName is the display label used when no name is configured.
const DefaultMapperName = "RFmapper"

// MapperOptions holds the identity and pacing of the aggregation loop.
type MapperOptions struct {
	// Name is the display/log label of the mapper.
	Name string `json:"name" mapstructure:"name"`

	// Credential is forwarded opaquely to the submission channel.
	Credential string `json:"credential" mapstructure:"credential"`

	// MachineID identifies the robot. Payloads carry "Unknown" when empty.
	MachineID string `json:"machine-id" mapstructure:"machine-id"`

	// NetworkInterface is the interface odometry is received on.
	NetworkInterface string `json:"network-interface" mapstructure:"network-interface"`

	// Interval is the pause between two ticks.
	Interval time.Duration `json:"interval" mapstructure:"interval"`

	// StopGrace is waited on stop before joining the worker.
	StopGrace time.Duration `json:"stop-grace" mapstructure:"stop-grace"`
}

// NewMapperOptions returns MapperOptions with default values.
func NewMapperOptions() *MapperOptions {
	return &MapperOptions{
		Name:      DefaultMapperName,
		Interval:  time.Second,
		StopGrace: time.Second,
	}
}

// Validate checks the pacing values. Identity fields are optional.
func (o *MapperOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if o.Interval <= 0 {
		errs = append(errs, errors.New("--interval must be positive"))
	}
	if o.StopGrace < 0 {
		errs = append(errs, errors.New("--stop-grace must not be negative"))
	}
	return errs
}

// AddFlags adds flags for MapperOptions to the specified FlagSet.
func (o *MapperOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := join(prefixes...)
	fs.StringVar(&o.Name, p+"name", o.Name, "Display and log label of the mapper.")
	fs.StringVar(&o.Credential, p+"credential", o.Credential, "Credential forwarded to the ingestion endpoint.")
	fs.StringVar(&o.MachineID, p+"machine-id", o.MachineID, "Identifier of this robot. Payloads carry \"Unknown\" when empty.")
	fs.StringVar(&o.NetworkInterface, p+"network-interface", o.NetworkInterface, "Network interface odometry is received on.")
	fs.DurationVar(&o.Interval, p+"interval", o.Interval, "Pause between two submissions.")
	fs.DurationVar(&o.StopGrace, p+"stop-grace", o.StopGrace, "Grace delay on stop before waiting for the worker.")
}
