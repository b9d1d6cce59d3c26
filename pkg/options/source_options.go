package options

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SourceOptions)(nil)

// SensorOptions configure one MQTT-fed telemetry source.
type SensorOptions struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// MaxAge marks the source not ready when its last sample is older. 0 disables it.
	MaxAge time.Duration `json:"max-age" mapstructure:"max-age"`
}

// OdomOptions configure the multicast odometry source.
type OdomOptions struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Group is the IPv4 multicast group and port, e.g. 239.255.12.42:7400.
	Group string `json:"group" mapstructure:"group"`

	MaxAge time.Duration `json:"max-age" mapstructure:"max-age"`
}

// SourceOptions configure the three telemetry sources.
type SourceOptions struct {
	GPS  SensorOptions `json:"gps" mapstructure:"gps"`
	RTK  SensorOptions `json:"rtk" mapstructure:"rtk"`
	Odom OdomOptions   `json:"odom" mapstructure:"odom"`
}

// NewSourceOptions returns SourceOptions with every source enabled.
func NewSourceOptions() *SourceOptions {
	return &SourceOptions{
		GPS:  SensorOptions{Enabled: true, MaxAge: 5 * time.Second},
		RTK:  SensorOptions{Enabled: true, MaxAge: 5 * time.Second},
		Odom: OdomOptions{Enabled: true, Group: "239.255.12.42:7400", MaxAge: 2 * time.Second},
	}
}

// Validate checks the odometry group and the staleness windows.
func (o *SourceOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if o.GPS.MaxAge < 0 || o.RTK.MaxAge < 0 || o.Odom.MaxAge < 0 {
		errs = append(errs, errors.New("source max-age must not be negative"))
	}
	if o.Odom.Enabled {
		addr, err := net.ResolveUDPAddr("udp4", o.Odom.Group)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("--source.odom.group: %w", err))
		case !addr.IP.IsMulticast():
			errs = append(errs, fmt.Errorf("--source.odom.group: %s is not a multicast address", addr.IP))
		}
	}
	return errs
}

// AddFlags adds flags for SourceOptions to the specified FlagSet.
func (o *SourceOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := join(prefixes...) + "source."
	fs.BoolVar(&o.GPS.Enabled, p+"gps.enabled", o.GPS.Enabled, "Subscribe to positioning samples.")
	fs.DurationVar(&o.GPS.MaxAge, p+"gps.max-age", o.GPS.MaxAge, "Age after which a positioning sample is stale.")
	fs.BoolVar(&o.RTK.Enabled, p+"rtk.enabled", o.RTK.Enabled, "Subscribe to correction receiver samples.")
	fs.DurationVar(&o.RTK.MaxAge, p+"rtk.max-age", o.RTK.MaxAge, "Age after which a correction sample is stale.")
	fs.BoolVar(&o.Odom.Enabled, p+"odom.enabled", o.Odom.Enabled, "Receive odometry over multicast.")
	fs.StringVar(&o.Odom.Group, p+"odom.group", o.Odom.Group, "Multicast group and port of odometry datagrams.")
	fs.DurationVar(&o.Odom.MaxAge, p+"odom.max-age", o.Odom.MaxAge, "Age after which an odometry sample is stale.")
}
