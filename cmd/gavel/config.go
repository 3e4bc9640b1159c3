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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/teradata-labs/gavel/pkg/breaker"
	"github.com/teradata-labs/gavel/pkg/cache"
	"github.com/teradata-labs/gavel/pkg/health"
	"github.com/teradata-labs/gavel/pkg/judge"
	"github.com/teradata-labs/gavel/pkg/llm"
	"github.com/teradata-labs/gavel/pkg/retry"
	"github.com/teradata-labs/gavel/pkg/timeout"
)

// DefaultConfigFileName is the name of the config file (gavel.yaml).
const DefaultConfigFileName = "gavel"

// Config holds all configuration for the gavel CLI.
// Priority: CLI flags > config file > env vars > defaults
type Config struct {
	// Providers is the judge backend priority order.
	Providers []string `mapstructure:"providers"`

	// LLM provider configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Resilience pipeline configuration
	Resilience ResilienceConfig `mapstructure:"resilience"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// Database configuration (verdict history)
	Database DatabaseConfig `mapstructure:"database"`

	// Criteria configuration
	Criteria CriteriaConfig `mapstructure:"criteria"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// LLMConfig holds per-provider client settings.
type LLMConfig struct {
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	AnthropicModel  string `mapstructure:"anthropic_model"`

	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	OpenAIModel  string `mapstructure:"openai_model"`

	BedrockModelID string `mapstructure:"bedrock_model_id"`
	BedrockRegion  string `mapstructure:"bedrock_region"`
	BedrockProfile string `mapstructure:"bedrock_profile"`

	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`

	// Client-side request pacing, applied before the retry engine.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// ResilienceConfig holds the retry, breaker, health, and timeout knobs.
type ResilienceConfig struct {
	Retry struct {
		MaxAttempts       int     `mapstructure:"max_attempts"`
		BaseDelayMS       int     `mapstructure:"base_delay_ms"`
		MaxDelayMS        int     `mapstructure:"max_delay_ms"`
		BackoffMultiplier float64 `mapstructure:"backoff_multiplier"`
		Jitter            bool    `mapstructure:"jitter"`
	} `mapstructure:"retry"`

	Breaker struct {
		FailureThreshold       int `mapstructure:"failure_threshold"`
		RecoveryTimeoutSeconds int `mapstructure:"recovery_timeout_seconds"`
		SuccessThreshold       int `mapstructure:"success_threshold"`
	} `mapstructure:"breaker"`

	Health struct {
		CheckIntervalSeconds int `mapstructure:"check_interval_seconds"`
		IdleTimeoutSeconds   int `mapstructure:"idle_timeout_seconds"`
	} `mapstructure:"health"`

	Timeout struct {
		RequestSeconds int `mapstructure:"request_seconds"`
		ConnectSeconds int `mapstructure:"connect_seconds"`
	} `mapstructure:"timeout"`

	CachingEnabled    bool `mapstructure:"caching_enabled"`
	SimplifiedEnabled bool `mapstructure:"simplified_enabled"`
	RetryAfterSeconds int  `mapstructure:"retry_after_seconds"`
}

// CacheConfig bounds the verdict cache.
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
	MaxSize    int `mapstructure:"max_size"`
}

// DatabaseConfig locates the SQLite history store.
type DatabaseConfig struct {
	// Path is the SQLite database path. Empty disables history.
	Path string `mapstructure:"path"`
}

// CriteriaConfig selects the evaluation criteria.
type CriteriaConfig struct {
	// Profile is the builtin profile name used when no file is given.
	Profile string `mapstructure:"profile"`
	// File is an optional JSON criteria document overriding Profile.
	File string `mapstructure:"file"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetGavelDataDir returns the data directory, respecting GAVEL_DATA_DIR.
func GetGavelDataDir() string {
	if dir := os.Getenv("GAVEL_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gavel"
	}
	return filepath.Join(home, ".gavel")
}

// LoadConfig reads the config file and environment, applies defaults, and
// unmarshals the result.
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(GetGavelDataDir())
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/gavel/")
		viper.SetConfigName(DefaultConfigFileName)
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	viper.SetEnvPrefix("GAVEL")
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("providers", []string{"anthropic", "openai", "bedrock"})

	viper.SetDefault("llm.anthropic_model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("llm.openai_model", "gpt-4o")
	viper.SetDefault("llm.bedrock_model_id", "anthropic.claude-sonnet-4-5-20250929-v1:0")
	viper.SetDefault("llm.bedrock_region", "us-east-1")
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.timeout_seconds", 120)
	viper.SetDefault("llm.requests_per_minute", 50)
	viper.SetDefault("llm.burst", 10)

	viper.SetDefault("resilience.retry.max_attempts", 3)
	viper.SetDefault("resilience.retry.base_delay_ms", 1000)
	viper.SetDefault("resilience.retry.max_delay_ms", 30000)
	viper.SetDefault("resilience.retry.backoff_multiplier", 2.0)
	viper.SetDefault("resilience.retry.jitter", true)

	viper.SetDefault("resilience.breaker.failure_threshold", 5)
	viper.SetDefault("resilience.breaker.recovery_timeout_seconds", 60)
	viper.SetDefault("resilience.breaker.success_threshold", 1)

	viper.SetDefault("resilience.health.check_interval_seconds", 60)
	viper.SetDefault("resilience.health.idle_timeout_seconds", 600)

	viper.SetDefault("resilience.timeout.request_seconds", 30)
	viper.SetDefault("resilience.timeout.connect_seconds", 10)

	viper.SetDefault("resilience.caching_enabled", true)
	viper.SetDefault("resilience.simplified_enabled", true)
	viper.SetDefault("resilience.retry_after_seconds", 300)

	viper.SetDefault("cache.ttl_seconds", 3600)
	viper.SetDefault("cache.max_size", 1000)

	viper.SetDefault("database.path", filepath.Join(GetGavelDataDir(), "gavel.db"))

	viper.SetDefault("criteria.profile", "default")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// serviceConfig converts the CLI config into the judge service config.
func (c *Config) serviceConfig(logger *zap.Logger) judge.Config {
	limiter := llm.NewRateLimiter(llm.RateLimiterConfig{
		RequestsPerMinute: c.LLM.RequestsPerMinute,
		Burst:             c.LLM.Burst,
		Logger:            logger,
	})

	return judge.Config{
		Providers: c.Providers,
		Provider: judge.ProviderConfig{
			AnthropicAPIKey: c.LLM.AnthropicAPIKey,
			AnthropicModel:  c.LLM.AnthropicModel,
			OpenAIAPIKey:    c.LLM.OpenAIAPIKey,
			OpenAIModel:     c.LLM.OpenAIModel,
			BedrockModelID:  c.LLM.BedrockModelID,
			BedrockRegion:   c.LLM.BedrockRegion,
			BedrockProfile:  c.LLM.BedrockProfile,
			MaxTokens:       c.LLM.MaxTokens,
			Temperature:     c.LLM.Temperature,
			RequestTimeout:  time.Duration(c.LLM.TimeoutSeconds) * time.Second,
			RateLimiter:     limiter,
		},
		Retry: retry.Config{
			MaxAttempts:       c.Resilience.Retry.MaxAttempts,
			BaseDelay:         time.Duration(c.Resilience.Retry.BaseDelayMS) * time.Millisecond,
			MaxDelay:          time.Duration(c.Resilience.Retry.MaxDelayMS) * time.Millisecond,
			BackoffMultiplier: c.Resilience.Retry.BackoffMultiplier,
			JitterEnabled:     c.Resilience.Retry.Jitter,
		},
		Breaker: breaker.Config{
			FailureThreshold: c.Resilience.Breaker.FailureThreshold,
			RecoveryTimeout:  time.Duration(c.Resilience.Breaker.RecoveryTimeoutSeconds) * time.Second,
			SuccessThreshold: c.Resilience.Breaker.SuccessThreshold,
		},
		Health: health.Config{
			CheckInterval: time.Duration(c.Resilience.Health.CheckIntervalSeconds) * time.Second,
			IdleTimeout:   time.Duration(c.Resilience.Health.IdleTimeoutSeconds) * time.Second,
		},
		Cache: cache.Config{
			TTL:     time.Duration(c.Cache.TTLSeconds) * time.Second,
			MaxSize: c.Cache.MaxSize,
		},
		DefaultTimeout: timeout.Config{
			RequestTimeout: time.Duration(c.Resilience.Timeout.RequestSeconds) * time.Second,
			ConnectTimeout: time.Duration(c.Resilience.Timeout.ConnectSeconds) * time.Second,
		},
		CachingEnabled:    c.Resilience.CachingEnabled,
		SimplifiedEnabled: c.Resilience.SimplifiedEnabled,
		RetryAfter:        time.Duration(c.Resilience.RetryAfterSeconds) * time.Second,
		HistoryPath:       c.Database.Path,
		Logger:            logger,
	}
}
