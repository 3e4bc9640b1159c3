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
package judge

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/gavel/pkg/engine"
	"github.com/teradata-labs/gavel/pkg/llm"
	"github.com/teradata-labs/gavel/pkg/llm/anthropic"
	"github.com/teradata-labs/gavel/pkg/llm/bedrock"
	"github.com/teradata-labs/gavel/pkg/llm/mock"
	"github.com/teradata-labs/gavel/pkg/llm/openai"
	"github.com/teradata-labs/gavel/pkg/types"
)

// Provider names accepted by BuildBackends.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderBedrock   = "bedrock"
	ProviderMock      = "mock"
)

// ProviderConfig holds the per-provider client settings the CLI and config
// file supply.
type ProviderConfig struct {
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	BedrockModelID  string
	BedrockRegion   string
	BedrockProfile  string
	MaxTokens       int
	Temperature     float64
	RequestTimeout  time.Duration
	RateLimiter     *llm.RateLimiter
	Logger          *zap.Logger
}

// BuildBackends constructs one Backend per requested provider name, in
// order. Unknown names are an error; so is a provider whose credentials are
// missing.
func BuildBackends(ctx context.Context, names []string, cfg ProviderConfig) ([]Backend, error) {
	eng := engine.New(cfg.Logger)

	backends := make([]Backend, 0, len(names))
	for _, name := range names {
		provider, err := buildProvider(ctx, name, cfg)
		if err != nil {
			return nil, fmt.Errorf("build %s backend: %w", name, err)
		}
		backends = append(backends, NewBackend(provider, eng))
	}
	return backends, nil
}

func buildProvider(ctx context.Context, name string, cfg ProviderConfig) (types.LLMProvider, error) {
	switch name {
	case ProviderAnthropic:
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.AnthropicModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.RequestTimeout,
			RateLimiter: cfg.RateLimiter,
		})
	case ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.RequestTimeout,
			RateLimiter: cfg.RateLimiter,
		})
	case ProviderBedrock:
		return bedrock.NewClient(ctx, bedrock.Config{
			ModelID:     cfg.BedrockModelID,
			Region:      cfg.BedrockRegion,
			Profile:     cfg.BedrockProfile,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			RateLimiter: cfg.RateLimiter,
		})
	case ProviderMock:
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
