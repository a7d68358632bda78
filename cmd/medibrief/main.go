// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the medibrief CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/medibrief/internal/secrets"
	"github.com/pdiddy/medibrief/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds one file per secret.
const secretsDir = ".secrets/"

// rootCmd is the base command for the medibrief CLI.
var rootCmd = &cobra.Command{
	Use:   "medibrief",
	Short: "Turn new medical research into narrated video briefs",
	Long: `medibrief discovers recent papers for each configured specialty, extracts
their text and figures, generates a summary and narration with a language
model, renders a narrated slide video, and publishes it.

Run "medibrief init" to write a starter medibrief.yaml, "medibrief auth" to
authorize publishing, and "medibrief run" to process papers once.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./medibrief.yaml or ~/.config/medibrief/medibrief.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "log at debug level")
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Ignoring .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	configureViper(cfgFile)
}

// configureViper points viper at cfgFile, or at medibrief.yaml in the
// working directory or ~/.config/medibrief, with MEDIBRIEF_ env overrides.
func configureViper(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("medibrief")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "medibrief"))
		}
	}

	viper.SetEnvPrefix("MEDIBRIEF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads, decodes and validates the configuration, then fills
// unset credentials from .secrets/.
func loadConfig() (*types.Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		return nil, &types.ConfigError{Section: "(root)", Msg: fmt.Sprintf("reading config: %v (run medibrief init)", err)}
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())

	if missing := types.MissingSections(viper.AllSettings()); len(missing) > 0 {
		return nil, &types.ConfigError{Section: strings.Join(missing, ", "), Msg: "missing required section"}
	}

	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, &types.ConfigError{Section: "(root)", Msg: fmt.Sprintf("decoding: %v", err)}
	}

	s, err := secrets.Load(secretsDir, nil)
	if err != nil {
		return nil, err
	}
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
	}
	secrets.Apply(s, &cfg)

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
