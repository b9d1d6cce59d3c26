// Copyright 2025 The Autopeer Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

// Options configures the process logger. Flags live under the "log." prefix
// and the same keys are accepted in the config file.
type Options struct {
	// Name is prepended to every logger name, e.g. "rfmapper.source".
	Name string `json:"name,omitempty" mapstructure:"name"`

	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty" mapstructure:"level"`

	// Format is console or json.
	Format string `json:"format,omitempty" mapstructure:"format"`

	// EnableColor colours the level in console output. Ignored for json.
	EnableColor bool `json:"enable-color,omitempty" mapstructure:"enable-color"`

	DisableCaller bool `json:"disable-caller,omitempty" mapstructure:"disable-caller"`

	// CallerSkip is the number of frames between the call site and zap.
	// The package-level helpers need 2.
	CallerSkip int `json:"caller-skip,omitempty" mapstructure:"caller-skip"`

	// OutputPaths are zap sinks: stdout, stderr or file paths.
	OutputPaths []string `json:"output-paths,omitempty" mapstructure:"output-paths"`
}

// NewOptions returns the defaults used by the mapper daemon: plain console
// lines on stderr, which the vehicle's journal collects.
func NewOptions() *Options {
	return &Options{
		Name:        "rfmapper",
		Level:       "info",
		Format:      "console",
		CallerSkip:  2,
		OutputPaths: []string{"stderr"},
	}
}

// Validate reports every invalid field.
func (o *Options) Validate() []error {
	var errs []error

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(o.Level)); err != nil {
		errs = append(errs, fmt.Errorf("--log.level: %w", err))
	}

	if o.Format != "console" && o.Format != "json" {
		errs = append(errs, fmt.Errorf("--log.format must be 'console' or 'json', got %q", o.Format))
	}

	if o.CallerSkip < 0 {
		errs = append(errs, fmt.Errorf("--log.caller-skip must not be negative, got %d", o.CallerSkip))
	}

	for _, p := range o.OutputPaths {
		if p == "" {
			errs = append(errs, fmt.Errorf("--log.output-paths must not contain empty entries"))
			break
		}
	}

	return errs
}

// AddFlags binds the options to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Name, "log.name", o.Name, "Name prepended to every logger.")
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum level to log: debug, info, warn or error.")
	fs.StringVar(&o.Format, "log.format", o.Format, "Output format: console or json.")
	fs.BoolVar(&o.EnableColor, "log.enable-color", o.EnableColor, "Colour levels in console output.")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Omit file:line from log lines.")
	fs.IntVar(&o.CallerSkip, "log.caller-skip", o.CallerSkip, "Stack frames skipped when reporting the caller.")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Log sinks: stdout, stderr or file paths.")
}
