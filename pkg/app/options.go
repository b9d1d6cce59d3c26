package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// CliOptions abstracts configuration options for reading parameters from the command line.
type CliOptions interface {
	// Validate returns an aggregate of every invalid option.
	Validate() error
}

// NamedFlagSetOptions are options that register their flags in named sections
// and can fill in derived values before validation.
type NamedFlagSetOptions interface {
	CliOptions

	// Flags returns the flag sets, one section per option group.
	Flags() cliflag.NamedFlagSets

	// Complete derives values that depend on other options.
	Complete() error
}
