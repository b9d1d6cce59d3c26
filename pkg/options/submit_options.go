package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SubmitOptions)(nil)

// Submission transports.
const (
	TransportFabric = "fabric"
	TransportMQTT   = "mqtt"
)

// LocalFileOptions configure the rotated JSON-lines copy of every payload.
type LocalFileOptions struct {
	Path       string `json:"path" mapstructure:"path"`
	MaxSizeMB  int    `json:"max-size" mapstructure:"max-size"`
	MaxBackups int    `json:"max-backups" mapstructure:"max-backups"`
	MaxAgeDays int    `json:"max-age" mapstructure:"max-age"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// SubmitOptions configure the submission channel.
type SubmitOptions struct {
	// Transport is either "fabric" (JSON-RPC over HTTP) or "mqtt".
	Transport string `json:"transport" mapstructure:"transport"`

	// Endpoint is the JSON-RPC URL of the fabric node.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// Method is the JSON-RPC method invoked per payload.
	Method string `json:"method" mapstructure:"method"`

	// Timeout bounds one submission.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	WriteToLocalFile bool             `json:"write-to-local-file" mapstructure:"write-to-local-file"`
	LocalFile        LocalFileOptions `json:"local-file" mapstructure:"local-file"`
}

// NewSubmitOptions returns SubmitOptions with default values.
func NewSubmitOptions() *SubmitOptions {
	return &SubmitOptions{
		Transport:        TransportFabric,
		Endpoint:         "http://127.0.0.1:8545",
		Method:           "omp2p_shareData",
		Timeout:          10 * time.Second,
		WriteToLocalFile: true,
		LocalFile: LocalFileOptions{
			Path:       "rfmapper-payloads.jsonl",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// Validate checks the transport and its endpoint.
func (o *SubmitOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	switch o.Transport {
	case TransportFabric:
		u, err := url.Parse(o.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("--submit.endpoint %q must be an http(s) URL", o.Endpoint))
		}
		if o.Method == "" {
			errs = append(errs, fmt.Errorf("--submit.method must not be empty"))
		}
	case TransportMQTT:
	default:
		errs = append(errs, fmt.Errorf("--submit.transport %q is not one of %q, %q", o.Transport, TransportFabric, TransportMQTT))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--submit.timeout must be positive"))
	}
	if o.WriteToLocalFile && o.LocalFile.Path == "" {
		errs = append(errs, fmt.Errorf("--submit.local-file.path is required when writing to a local file"))
	}
	return errs
}

// AddFlags adds flags for SubmitOptions to the specified FlagSet.
func (o *SubmitOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := join(prefixes...) + "submit."
	fs.StringVar(&o.Transport, p+"transport", o.Transport, "Submission transport: fabric or mqtt.")
	fs.StringVar(&o.Endpoint, p+"endpoint", o.Endpoint, "JSON-RPC endpoint of the fabric node.")
	fs.StringVar(&o.Method, p+"method", o.Method, "JSON-RPC method invoked for every payload.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Timeout of a single submission.")
	fs.BoolVar(&o.WriteToLocalFile, p+"write-to-local-file", o.WriteToLocalFile, "Also append every payload to a local file.")
	fs.StringVar(&o.LocalFile.Path, p+"local-file.path", o.LocalFile.Path, "Path of the local payload file.")
	fs.IntVar(&o.LocalFile.MaxSizeMB, p+"local-file.max-size", o.LocalFile.MaxSizeMB, "Size in megabytes before the local file is rotated.")
	fs.IntVar(&o.LocalFile.MaxBackups, p+"local-file.max-backups", o.LocalFile.MaxBackups, "Rotated local files to keep.")
	fs.IntVar(&o.LocalFile.MaxAgeDays, p+"local-file.max-age", o.LocalFile.MaxAgeDays, "Days to keep rotated local files.")
	fs.BoolVar(&o.LocalFile.Compress, p+"local-file.compress", o.LocalFile.Compress, "Gzip rotated local files.")
}
