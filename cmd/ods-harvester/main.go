// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ods-harvester CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ods-harvester/internal/config"
	"github.com/pdiddy/ods-harvester/internal/logger"
	"github.com/pdiddy/ods-harvester/internal/secrets"
	"github.com/pdiddy/ods-harvester/internal/store"
	"github.com/pdiddy/ods-harvester/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// appConfig is loaded and validated before any subcommand runs.
	appConfig types.Config

	// appLog is the structured logger built from appConfig.
	appLog logger.Logger = logger.NewNop()

	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets map[string]string
)

// rootCmd is the base command for the ods-harvester CLI.
var rootCmd = &cobra.Command{
	Use:   "ods-harvester",
	Short: "Harvest OpenDataSoft catalogs into a local dataset store",
	Long: `ods-harvester pulls dataset metadata from OpenDataSoft search APIs,
normalizes each dataset's exports and attachments into resources, and merges
them into a local SQLite store. Reruns update datasets and resources in place.

Sources, filters and deployment settings come from ods-harvester.yaml.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		appConfig = cfg

		log, err := logger.New(logger.Config{Level: cfg.Log.Level})
		if err != nil {
			return err
		}
		appLog = log

		s, err := secrets.Load(".secrets/", appLog)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			names := secrets.Names(s)
			sort.Strings(names)
			appLog.Debug("loaded secrets", logger.Strings("names", names))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		appLog.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ods-harvester.yaml or ~/.config/ods-harvester/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides store.path)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides log.level)")

	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ods-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ods-harvester"))
		}
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// openStore opens the configured dataset store.
func openStore() (*store.Store, error) {
	return store.Open(appConfig.Store)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
