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
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("GAVEL_DATA_DIR", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, []string{"anthropic", "openai", "bedrock"}, cfg.Providers)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.LLM.AnthropicModel)
	assert.Equal(t, 3, cfg.Resilience.Retry.MaxAttempts)
	assert.Equal(t, 5, cfg.Resilience.Breaker.FailureThreshold)
	assert.Equal(t, 3600, cfg.Cache.TTLSeconds)
	assert.True(t, cfg.Resilience.CachingEnabled)
	assert.Equal(t, "default", cfg.Criteria.Profile)
}

func TestLoadConfigFromFile(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	t.Setenv("GAVEL_DATA_DIR", dir)

	path := filepath.Join(dir, "gavel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
providers: [mock]
llm:
  temperature: 0.5
resilience:
  retry:
    max_attempts: 7
database:
  path: ""
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"mock"}, cfg.Providers)
	assert.InDelta(t, 0.5, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 7, cfg.Resilience.Retry.MaxAttempts)
	assert.Empty(t, cfg.Database.Path, "history can be disabled")
	assert.Equal(t, 5, cfg.Resilience.Breaker.FailureThreshold, "unset keys keep defaults")
}

func TestServiceConfigConversion(t *testing.T) {
	viper.Reset()
	t.Setenv("GAVEL_DATA_DIR", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	svcCfg := cfg.serviceConfig(nil)
	assert.Equal(t, time.Second, svcCfg.Retry.BaseDelay)
	assert.Equal(t, 30*time.Second, svcCfg.Retry.MaxDelay)
	assert.Equal(t, time.Minute, svcCfg.Breaker.RecoveryTimeout)
	assert.Equal(t, 30*time.Second, svcCfg.DefaultTimeout.RequestTimeout)
	assert.Equal(t, time.Hour, svcCfg.Cache.TTL)
	assert.Equal(t, 300*time.Second, svcCfg.RetryAfter)
	assert.NotNil(t, svcCfg.Provider.RateLimiter)
}

func newRenderCommand(format string) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	cmd.Flags().String("output", format, "")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestRenderFormats(t *testing.T) {
	payload := map[string]interface{}{"score": 4}

	cmd, buf := newRenderCommand("json")
	require.NoError(t, render(cmd, payload))
	assert.JSONEq(t, `{"score": 4}`, buf.String())

	cmd, buf = newRenderCommand("yaml")
	require.NoError(t, render(cmd, payload))
	assert.Contains(t, buf.String(), "score: 4")

	cmd, _ = newRenderCommand("xml")
	assert.Error(t, render(cmd, payload))
}
