// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the powerflow CLI, the ingestion
// agent for the PowerFlow geopolitical intelligence workspace.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rocknruds/powerflow-agents/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the powerflow CLI.
var rootCmd = &cobra.Command{
	Use:   "powerflow",
	Short: "Extract geopolitical-event intelligence from articles into Notion",
	Long: `powerflow ingests unstructured articles into the PowerFlow intelligence
workspace. It fetches clean article text, extracts a structured source and
event record pair with Claude, validates the extraction against the schema,
and writes the two linked records to the Notion Sources and Events
databases after confirmation.

Each operation is a subcommand: ingest, screen, and runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./powerflow.yaml or ~/.config/powerflow/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("powerflow")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "powerflow"))
		}
	}

	viper.SetEnvPrefix("POWERFLOW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
