package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/rfmapper/internal/mapper"
	"github.com/autopeer-io/rfmapper/internal/mapper/server"
	"github.com/autopeer-io/rfmapper/pkg/app"
	"github.com/autopeer-io/rfmapper/pkg/log"
	genericoptions "github.com/autopeer-io/rfmapper/pkg/options"
)

type MapperOptions struct {
	genericoptions.MapperOptions `json:",inline" mapstructure:",squash"`

	Source *genericoptions.SourceOptions `json:"source" mapstructure:"source"`
	Submit *genericoptions.SubmitOptions `json:"submit" mapstructure:"submit"`
	MQTT   *genericoptions.MqttOptions   `json:"mqtt" mapstructure:"mqtt"`
	HTTP   *genericoptions.HttpOptions   `json:"http" mapstructure:"http"`
	GRPC   *genericoptions.GrpcOptions   `json:"grpc" mapstructure:"grpc"`
	Log    *log.Options                  `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*MapperOptions)(nil)

func NewMapperOptions() *MapperOptions {
	return &MapperOptions{
		MapperOptions: *genericoptions.NewMapperOptions(),
		Source:        genericoptions.NewSourceOptions(),
		Submit:        genericoptions.NewSubmitOptions(),
		MQTT:          genericoptions.NewMqttOptions(),
		HTTP:          genericoptions.NewHttpOptions(),
		GRPC:          genericoptions.NewGrpcOptions(),
		Log:           log.NewOptions(),
	}
}

func (o *MapperOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}

	o.MapperOptions.AddFlags(fss.FlagSet("Mapper"))
	o.Source.AddFlags(fss.FlagSet("Sources"))
	o.Submit.AddFlags(fss.FlagSet("Submit"))
	o.MQTT.AddFlags(fss.FlagSet("MQTT"))
	o.HTTP.AddFlags(fss.FlagSet("HTTP"))
	o.GRPC.AddFlags(fss.FlagSet("gRPC"))
	o.Log.AddFlags(fss.FlagSet("Log"))
	return fss
}

func (o *MapperOptions) Complete() error {
	if o.Name == "" {
		o.Name = genericoptions.DefaultMapperName
	}
	if o.Log.Name == "" {
		o.Log.Name = "rfmapper"
	}
	return nil
}

func (o *MapperOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.MapperOptions.Validate()...)
	errs = append(errs, o.Source.Validate()...)
	errs = append(errs, o.Submit.Validate()...)
	errs = append(errs, o.MQTT.Validate()...)
	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.GRPC.Validate()...)
	errs = append(errs, o.Log.Validate()...)

	return utilerrors.NewAggregate(errs)
}

// Config builds the mapper configuration.
func (o *MapperOptions) Config() (*mapper.Config, error) {
	mo := o.MapperOptions
	return &mapper.Config{
		MapperOptions: &mo,
		SourceOptions: o.Source,
		SubmitOptions: o.Submit,
		MqttOptions:   o.MQTT,
	}, nil
}

// ServerConfig builds the status server configuration.
func (o *MapperOptions) ServerConfig() *server.Config {
	return &server.Config{
		HttpOptions: o.HTTP,
		GrpcOptions: o.GRPC,
	}
}
