// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the gamp-engine CLI.
// Implements: prd001-evidence, prd002-scoring, prd003-decision,
//             prd004-consultation, prd005-audit-trail (CLI surface).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/gamp-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the gamp-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "gamp-engine",
	Short: "GAMP 5 software categorization with human-in-the-loop escalation",
	Long: `gamp-engine categorizes computerized-system requirements documents into
GAMP 5 software categories (1, 3, 4, 5) from curated indicator evidence.
Confident decisions are made automatically; anything below the per-category
confidence threshold, or tied between categories, is escalated to a human
reviewer. Every stage transition lands in a hash-chained audit trail.

Each operation is a subcommand: categorize runs documents through the
pipeline, consult lists and resolves escalations, audit inspects and
verifies the trail, and validate scores the engine against documents with
declared categories.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./gamp-engine.yaml or ~/.config/gamp-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("gamp-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "gamp-engine"))
		}
	}

	viper.SetEnvPrefix("GAMP_ENGINE")
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
