package mapper

import (
	"context"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
	"github.com/autopeer-io/rfmapper/pkg/log"
	"github.com/autopeer-io/rfmapper/pkg/options"
)

// SourceFactory builds one telemetry source. Returning a nil Source with a
// nil error leaves that source not ready for the mapper's lifetime.
type SourceFactory func(ctx context.Context) (core.Source, error)

// SubmitterFactory builds the submission channel.
type SubmitterFactory func(ctx context.Context) (core.Submitter, error)

// Factories build the collaborators of a mapper on Start.
type Factories struct {
	Position   SourceFactory
	Correction SourceFactory
	Odometry   SourceFactory
	Submitter  SubmitterFactory

	// Close releases resources shared by the built collaborators. Optional.
	Close func() error
}

// Config is the configuration of a Mapper.
type Config struct {
	MapperOptions *options.MapperOptions
	SourceOptions *options.SourceOptions
	SubmitOptions *options.SubmitOptions
	MqttOptions   *options.MqttOptions

	// Clock paces the loop and timestamps payloads. Defaults to the wall clock.
	Clock clock.Clock

	// Logger defaults to the global logger named "mapper".
	Logger log.Logger

	// Factories replace the option-driven sources and submitter.
	Factories *Factories
}

// settings is the immutable part of the configuration captured by NewMapper.
type settings struct {
	name             string
	credential       string
	machineID        string
	networkInterface string
	interval         time.Duration
	stopGrace        time.Duration
}

func newSettings(o *options.MapperOptions) settings {
	return settings{
		name:             o.Name,
		credential:       o.Credential,
		machineID:        o.MachineID,
		networkInterface: o.NetworkInterface,
		interval:         o.Interval,
		stopGrace:        o.StopGrace,
	}
}

// resolvedMachineID is the identifier sent with every payload and used in
// topics.
func (s settings) resolvedMachineID() string {
	if s.machineID == "" {
		return core.UnknownMachineID
	}
	return s.machineID
}

// NewMapper validates cfg and returns a mapper in the NotStarted phase.
func (cfg *Config) NewMapper() (*Mapper, error) {
	c := cfg.complete()

	var errs []error
	errs = append(errs, c.MapperOptions.Validate()...)
	if c.Factories == nil {
		errs = append(errs, c.SourceOptions.Validate()...)
		errs = append(errs, c.SubmitOptions.Validate()...)
	}
	if err := utilerrors.NewAggregate(errs); err != nil {
		return nil, err
	}

	s := newSettings(c.MapperOptions)

	factories := c.Factories
	if factories == nil {
		factories = newWiring(c, s).factories()
	}

	return newMapper(s, c.Clock, c.Logger, *factories), nil
}

// complete returns a copy of cfg with defaults applied.
func (cfg *Config) complete() *Config {
	c := *cfg
	if c.MapperOptions == nil {
		c.MapperOptions = options.NewMapperOptions()
	}
	mo := *c.MapperOptions
	if mo.Name == "" {
		mo.Name = options.DefaultMapperName
	}
	c.MapperOptions = &mo

	if c.SourceOptions == nil {
		c.SourceOptions = options.NewSourceOptions()
	}
	if c.SubmitOptions == nil {
		c.SubmitOptions = options.NewSubmitOptions()
	}
	if c.MqttOptions == nil {
		c.MqttOptions = options.NewMqttOptions()
	}
	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}
	if c.Logger == nil {
		c.Logger = log.WithName("mapper")
	}
	return &c
}
