package submit

import (
	"fmt"
	"net/http"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
	"github.com/autopeer-io/rfmapper/pkg/mqtt"
	"github.com/autopeer-io/rfmapper/pkg/options"
)

// Config selects and configures the submission channel.
type Config struct {
	Options    *options.SubmitOptions
	Credential string

	// MQTT and Topic are used by the mqtt transport.
	MQTT  mqtt.Client
	Topic string

	HTTPClient *http.Client
}

// New builds the configured transport, wrapped with local file persistence
// when requested.
func New(cfg *Config) (core.Submitter, error) {
	opts := cfg.Options
	if opts == nil {
		opts = options.NewSubmitOptions()
	}

	var (
		next core.Submitter
		err  error
	)
	switch opts.Transport {
	case options.TransportFabric:
		next, err = newFabric(opts, cfg)
	case options.TransportMQTT:
		next, err = newMQTT(opts, cfg)
	default:
		return nil, fmt.Errorf("unknown submit transport %q", opts.Transport)
	}
	if err != nil {
		return nil, err
	}

	if opts.WriteToLocalFile {
		return NewLocalFile(next, opts.LocalFile), nil
	}
	return next, nil
}

func newFabric(opts *options.SubmitOptions, cfg *Config) (core.Submitter, error) {
	f, err := NewFabric(FabricConfig{
		Endpoint:   opts.Endpoint,
		Method:     opts.Method,
		Credential: cfg.Credential,
		Timeout:    opts.Timeout,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func newMQTT(opts *options.SubmitOptions, cfg *Config) (core.Submitter, error) {
	m, err := NewMQTT(cfg.MQTT, cfg.Topic, opts.Timeout)
	if err != nil {
		return nil, err
	}
	return m, nil
}
