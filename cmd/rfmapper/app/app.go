package app

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/rfmapper/cmd/rfmapper/app/options"
	"github.com/autopeer-io/rfmapper/internal/mapper/server"
	"github.com/autopeer-io/rfmapper/pkg/app"
	"github.com/autopeer-io/rfmapper/pkg/log"
)

const (
	commandName = "rfmapper"
	commandDesc = `The RF mapper runs on a robot. Once per interval it merges the latest
positioning, correction receiver and odometry samples into one payload
and submits it to the data-sharing fabric.`
)

func NewApp() *app.App {
	opts := options.NewMapperOptions()
	application := app.NewApp(
		commandName,
		"Launch the RF mapper",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
		app.WithConfigWatcher(watchLogLevel),
		app.WithSubCommands(newStatusCommand()),
	)
	return application
}

func run(opts *options.MapperOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync() //nolint:errcheck

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		m, err := cfg.NewMapper()
		if err != nil {
			return fmt.Errorf("failed to create mapper: %w", err)
		}

		mgr, err := server.NewManager(opts.ServerConfig(), m)
		if err != nil {
			return fmt.Errorf("failed to create server manager: %w", err)
		}

		return mgr.Start(ctx)
	}
}

// watchLogLevel applies log.level edits of the config file without a restart.
func watchLogLevel(v *viper.Viper, _ fsnotify.Event) {
	level := v.GetString("log.level")
	if level == "" {
		return
	}
	if err := log.SetLevel(level); err != nil {
		log.Error(err, "Ignoring log level from configuration file")
		return
	}
	log.Info("Log level changed", "level", level)
}
