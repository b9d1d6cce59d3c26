package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*GrpcOptions)(nil)

// GrpcOptions configure the gRPC health endpoint.
type GrpcOptions struct {
	// Network with server network.
	Network string `json:"network" mapstructure:"network"`

	// Addr with server address. Empty disables the gRPC server.
	Addr string `json:"addr" mapstructure:"addr"`

	// Timeout with server timeout. Used for graceful shutdown.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewGrpcOptions creates a GrpcOptions object with default parameters.
func NewGrpcOptions() *GrpcOptions {
	return &GrpcOptions{
		Network: "tcp",
		Addr:    "0.0.0.0:8091",
		Timeout: 5 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *GrpcOptions) Validate() []error {
	if o == nil || o.Addr == "" {
		return nil
	}

	var errs []error
	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// AddFlags adds flags related to the gRPC server to the specified FlagSet.
func (o *GrpcOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := join(prefixes...)
	fs.StringVar(&o.Network, p+"grpc.network", o.Network, "Specify the network for the gRPC health server.")
	fs.StringVar(&o.Addr, p+"grpc.addr", o.Addr, "Specify the gRPC health server bind address and port. Empty disables it.")
	fs.DurationVar(&o.Timeout, p+"grpc.timeout", o.Timeout, "Graceful shutdown timeout of the gRPC server.")
}
