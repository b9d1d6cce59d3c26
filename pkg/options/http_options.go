package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HttpOptions)(nil)

// HttpOptions contains configuration items related to the status HTTP server.
type HttpOptions struct {
	// Network with server network.
	Network string `json:"network" mapstructure:"network"`

	// Addr with server address. Empty disables the HTTP server.
	Addr string `json:"addr" mapstructure:"addr"`

	// Timeout bounds request reads/writes and graceful shutdown.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewHttpOptions creates a HttpOptions object with default parameters.
func NewHttpOptions() *HttpOptions {
	return &HttpOptions{
		Network: "tcp",
		Addr:    "0.0.0.0:8080",
		Timeout: 30 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *HttpOptions) Validate() []error {
	if o == nil || o.Addr == "" {
		return nil
	}

	errs := []error{}
	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// AddFlags adds flags related to the HTTP server to the specified FlagSet.
func (o *HttpOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := join(prefixes...)
	fs.StringVar(&o.Network, p+"http.network", o.Network, "Specify the network for the HTTP status server.")
	fs.StringVar(&o.Addr, p+"http.addr", o.Addr, "Specify the HTTP status server bind address and port. Empty disables it.")
	fs.DurationVar(&o.Timeout, p+"http.timeout", o.Timeout, "Timeout for server connections.")
}
