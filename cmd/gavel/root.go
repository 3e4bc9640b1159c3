// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	gavellog "github.com/teradata-labs/gavel/internal/log"
	"github.com/teradata-labs/gavel/internal/version"
	"github.com/teradata-labs/gavel/pkg/criteria"
	"github.com/teradata-labs/gavel/pkg/judge"
)

var (
	cfgFile string
	config  *Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "gavel",
	Short:   "Gavel - Resilient LLM-as-judge evaluation",
	Long:    `Gavel scores and compares LLM responses with a judge model, failing over across providers and degrading gracefully when they misbehave.`,
	Version: version.Get(),
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $GAVEL_DATA_DIR/gavel.yaml)")
	rootCmd.PersistentFlags().StringSlice("providers", nil, "judge provider priority order (anthropic, openai, bedrock, mock)")
	rootCmd.PersistentFlags().String("provider", "", "preferred provider for this call")
	rootCmd.PersistentFlags().StringP("output", "o", "yaml", "output format (yaml, json)")

	// LLM flags
	rootCmd.PersistentFlags().String("anthropic-key", "", "Anthropic API key (or ANTHROPIC_API_KEY)")
	rootCmd.PersistentFlags().String("anthropic-model", "claude-sonnet-4-5-20250929", "Anthropic judge model")
	rootCmd.PersistentFlags().String("openai-key", "", "OpenAI API key (or OPENAI_API_KEY)")
	rootCmd.PersistentFlags().String("openai-model", "gpt-4o", "OpenAI judge model")
	rootCmd.PersistentFlags().Float64("temperature", 0.0, "judge temperature")
	rootCmd.PersistentFlags().Int("max-tokens", 4096, "maximum tokens per judge request")

	// Database flags
	rootCmd.PersistentFlags().String("db", "", "SQLite history path (empty: $GAVEL_DATA_DIR/gavel.db)")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("providers", rootCmd.PersistentFlags().Lookup("providers"))
	_ = viper.BindPFlag("llm.anthropic_api_key", rootCmd.PersistentFlags().Lookup("anthropic-key"))
	_ = viper.BindPFlag("llm.anthropic_model", rootCmd.PersistentFlags().Lookup("anthropic-model"))
	_ = viper.BindPFlag("llm.openai_api_key", rootCmd.PersistentFlags().Lookup("openai-key"))
	_ = viper.BindPFlag("llm.openai_model", rootCmd.PersistentFlags().Lookup("openai-model"))
	_ = viper.BindPFlag("llm.temperature", rootCmd.PersistentFlags().Lookup("temperature"))
	_ = viper.BindPFlag("llm.max_tokens", rootCmd.PersistentFlags().Lookup("max-tokens"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	config, err = LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}

// buildService assembles the judge service from the loaded config.
func buildService(ctx context.Context, cmd *cobra.Command) (*judge.Service, *zap.Logger, error) {
	logger, err := setupLogger()
	if err != nil {
		return nil, nil, err
	}

	svc, err := judge.NewService(ctx, config.serviceConfig(logger))
	if err != nil {
		return nil, nil, err
	}
	return svc, logger, nil
}

func setupLogger() (*zap.Logger, error) {
	return gavellog.Setup(config.Logging.Level, config.Logging.Format)
}

// resolveCriteria applies flag and config precedence: explicit file, then
// profile name.
func resolveCriteria(file, profile string) (*criteria.EvaluationCriteria, error) {
	if file == "" {
		file = config.Criteria.File
	}
	if file != "" {
		return criteria.LoadFile(file)
	}
	if profile == "" {
		profile = config.Criteria.Profile
	}
	if profile == "" {
		profile = criteria.ProfileDefault
	}
	return criteria.Profile(profile)
}

// render writes v to stdout in the requested format.
func render(cmd *cobra.Command, v interface{}) error {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", format)
	}
}
