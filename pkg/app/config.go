package app

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autopeer-io/rfmapper/pkg/log"
)

const configFlagName = "config"

// ConfigWatcher is notified when the config file changes on disk.
type ConfigWatcher func(v *viper.Viper, e fsnotify.Event)

func addConfigFlag(fs *pflag.FlagSet, name string) {
	fs.StringP(configFlagName, "c", "", fmt.Sprintf("Read %s configuration from the specified YAML file. Flags override the file.", name))
}

// loadConfig merges flags, environment and the optional config file into opts.
// Precedence, highest first: changed flags, environment, config file, flag defaults.
func (a *App) loadConfig(cmd *cobra.Command) error {
	v := a.viper

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	v.SetEnvPrefix(strings.ReplaceAll(strings.ToUpper(a.name), "-", "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile := v.GetString(configFlagName); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read configuration file %q: %w", cfgFile, err)
		}

		if len(a.watchers) > 0 {
			v.OnConfigChange(func(e fsnotify.Event) {
				log.Info("Configuration file changed", "file", e.Name, "op", e.Op.String())
				for _, w := range a.watchers {
					w(v, e)
				}
			})
			v.WatchConfig()
		}
	}

	if a.options == nil {
		return nil
	}
	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return nil
}
