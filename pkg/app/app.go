// Package app builds cobra commands from option structs: flags grouped in
// named sections, an optional config file, and validation before run.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/cli/globalflag"
	"k8s.io/component-base/term"
)

// RunFunc is the entry point of an application once its options are valid.
type RunFunc func() error

// App is the main structure of a cli application.
type App struct {
	name        string
	shortDesc   string
	description string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	args        cobra.PositionalArgs
	noConfig    bool
	commands    []*cobra.Command
	watchers    []ConfigWatcher

	viper *viper.Viper
	cmd   *cobra.Command
}

// Option defines optional parameters for initializing the application structure.
type Option func(*App)

// WithOptions opens the application's function to read from the command line.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc is used to set the application startup callback function option.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithDescription is used to set the description of the application.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithDefaultValidArgs rejects positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithNoConfig disables the --config flag.
func WithNoConfig() Option {
	return func(a *App) {
		a.noConfig = true
	}
}

// WithSubCommands adds subcommands to the root command.
func WithSubCommands(cmds ...*cobra.Command) Option {
	return func(a *App) {
		a.commands = append(a.commands, cmds...)
	}
}

// WithConfigWatcher registers a callback for config file changes.
// The file is only watched when at least one watcher is registered.
func WithConfigWatcher(w ConfigWatcher) Option {
	return func(a *App) {
		a.watchers = append(a.watchers, w)
	}
}

// NewApp creates a new application instance based on the given application name,
// short description, and other options.
func NewApp(name string, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
		viper:     viper.New(),
	}

	for _, o := range opts {
		o(a)
	}

	a.buildCommand()
	return a
}

// Command returns the cobra command of the application.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the application and exits the process on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true
	cmd.Flags().SetNormalizeFunc(cliflag.WordSepNormalizeFunc)

	if a.runFunc != nil {
		cmd.RunE = a.runCommand
	}

	var namedFlagSets cliflag.NamedFlagSets
	if a.options != nil {
		namedFlagSets = a.options.Flags()
	}
	global := namedFlagSets.FlagSet("global")
	if !a.noConfig {
		addConfigFlag(global, a.name)
	}
	globalflag.AddGlobalFlags(global, cmd.Name())

	fs := cmd.Flags()
	for _, name := range namedFlagSets.Order {
		fs.AddFlagSet(namedFlagSets.FlagSets[name])
	}

	cmd.AddCommand(a.commands...)
	setUsageAndHelp(cmd, namedFlagSets)

	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command, _ []string) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}

	if a.options != nil {
		if err := a.options.Complete(); err != nil {
			return fmt.Errorf("failed to complete options: %w", err)
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}

	return a.runFunc()
}

// setUsageAndHelp prints flags grouped by section on the root command only.
func setUsageAndHelp(cmd *cobra.Command, fss cliflag.NamedFlagSets) {
	defaultUsage := cmd.UsageFunc()
	defaultHelp := cmd.HelpFunc()
	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())

	cmd.SetUsageFunc(func(c *cobra.Command) error {
		if c != cmd {
			return defaultUsage(c)
		}
		fmt.Fprintf(c.OutOrStderr(), "Usage:\n  %s\n", c.UseLine())
		if c.HasAvailableSubCommands() {
			fmt.Fprintf(c.OutOrStderr(), "  %s [command]\n", c.CommandPath())
		}
		cliflag.PrintSections(c.OutOrStderr(), fss, cols)
		return nil
	})
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		if c != cmd {
			defaultHelp(c, args)
			return
		}
		fmt.Fprintf(c.OutOrStdout(), "%s\n\n", c.Long)
		_ = c.Usage()
	})
}
