package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/jsphweid/progdex/config"
	"github.com/jsphweid/progdex/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	cfg      = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "progdex",
	Short: "Harmonic analysis of MIDI performances",
	Long: `progdex quantizes MIDI note events into chord slots, labels each slot with a
Roman numeral in its local key and finds ii-V-I and tritone-substitution progressions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			if _, err := os.Stat(cfgFile); err != nil {
				return errors.Wrap(err, "reading config")
			}
			return LoadConfig(cfgFile)
		}
		return LoadConfig(config.Path())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is progdex.yaml or $PROGDEX_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
}

// LoadConfig reads the config at path, applies --log-level and configures
// the global logger.
func LoadConfig(path string) error {
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	logging.Configure(loaded.Log.Level)
	cfg = loaded
	return nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}
