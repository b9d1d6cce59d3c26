// Package options holds the option structs shared by rfmapper commands.
// Every struct can be bound to command-line flags and unmarshalled from a
// config file by viper through its mapstructure tags.
package options

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every option group.
type IOptions interface {
	// Validate returns every problem found in the options.
	Validate() []error

	// AddFlags binds the options to fs. The prefixes are joined in front of each flag name.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// ValidateAddress checks that addr is a host:port pair with a valid port.
// The host may be empty to listen on every interface.
func ValidateAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%q is not a valid address: %w", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("%q has an invalid port %q", addr, port)
	}
	if host != "" && net.ParseIP(host) == nil {
		if _, err := net.LookupHost(host); err != nil {
			return fmt.Errorf("%q has an unresolvable host: %w", addr, err)
		}
	}
	return nil
}

func join(prefixes ...string) string {
	out := ""
	for _, p := range prefixes {
		out += p + "."
	}
	return out
}
