package cmd

import (
	"fmt"
	"os"

	"coldstore/pkg/config"
	"coldstore/pkg/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string

	// cfg is loaded once per invocation by the root command.
	cfg *config.Config
	v   *viper.Viper
)

var RootCmd = &cobra.Command{
	Use:   "coldstore",
	Short: "Compile table catalogs into storage engine tables",
	Long: `
           _     _     _
  ___ ___ | | __| |___| |_ ___  _ __ ___
 / __/ _ \| |/ _' / __| __/ _ \| '__/ _ \
| (_| (_) | | (_| \__ \ || (_) | | |  __/
 \___\___/|_|\__,_|___/\__\___/|_|  \___|

Compiles declarative table catalogs into typed, indexed tables and
derives the eviction directories of anti-cached tables.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v = config.New(cfgFile)
		bindFlag(cmd, "logging.level", "log-level")
		bindFlag(cmd, "anticache.enabled", "anticache")
		bindFlag(cmd, "anticache.layout", "layout")
		bindFlag(cmd, "anticache.cold_column_limit", "limit")
		bindFlag(cmd, "engine.partitions", "partitions")

		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}
		if err := logging.Init(cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		if used := v.ConfigFileUsed(); used != "" {
			logging.Debug("using config file", "path", used)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

// bindFlag binds a command flag to a config key when the command defines it.
func bindFlag(cmd *cobra.Command, key, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error")+" "+err.Error())
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./coldstore.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")
}
