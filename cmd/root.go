// Package cmd wires the svcreg CLI commands.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/svcreg/internal/config"
	"github.com/zjrosen/svcreg/internal/log"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "svcreg",
	Short:   "A file-backed service definition registry",
	Long: `svcreg manages service definitions stored as flat files in a directory.

Definitions are matched against incoming service identifiers by regular
expression. The registry can watch its directory for external edits and
replicate entries through an in-memory cache or a SQLite store.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .svcreg/config.yaml, then ~/.config/svcreg/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringP("root", "r", "",
		"registry root directory (overrides config)")
	rootCmd.PersistentFlags().String("format", "",
		"definition file format: json or yaml (overrides config)")

	_ = viper.BindPFlag("registry.root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("registry.format", rootCmd.PersistentFlags().Lookup("format"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("registry.root", defaults.Registry.Root)
	viper.SetDefault("registry.format", defaults.Registry.Format)
	viper.SetDefault("registry.watch", defaults.Registry.Watch)
	viper.SetDefault("replication.mode", defaults.Replication.Mode)
	viper.SetDefault("replication.cache_ttl", defaults.Replication.CacheTTL)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .svcreg/config.yaml (current directory)
		// 2. ~/.config/svcreg/config.yaml (user config)
		if _, err := os.Stat(".svcreg/config.yaml"); err == nil {
			viper.SetConfigFile(".svcreg/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "svcreg"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// Missing config anywhere is fine, run on defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			cobra.CheckErr(err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// initLogging starts file logging when --debug or SVCREG_DEBUG is set.
// The returned cleanup is a no-op when logging stays disabled.
func initLogging() (func(), error) {
	debug := debugFlag || cfg.Debug || os.Getenv("SVCREG_DEBUG") != ""
	if !debug {
		return func() {}, nil
	}

	logPath := cfg.LogPath
	if logPath == "" {
		logPath = os.Getenv("SVCREG_LOG")
	}
	if logPath == "" {
		logPath = config.DefaultLogFilePath()
	}
	if logPath == "" {
		logPath = "debug.log"
	}

	cleanup, err := log.Init(logPath)
	if err != nil {
		return nil, err
	}
	log.Info(log.CatConfig, "svcreg starting", "version", version, "logPath", logPath)
	return cleanup, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
