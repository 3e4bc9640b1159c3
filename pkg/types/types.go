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
// Package types defines the shared data types exchanged between the judge
// backends, the execution pipeline, and callers.
package types

import (
	"context"
	"fmt"
)

// Message is a single turn of a judge conversation.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage captures token accounting for a single judge call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens,omitempty"`
}

// LLMResponse is the standardized response every provider client returns.
type LLMResponse struct {
	Content    string `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason,omitempty"`
	Usage      Usage  `json:"usage"`
}

// LLMProvider is the capability every judge provider client implements.
// Implementations must be safe for concurrent use.
type LLMProvider interface {
	// Chat sends messages to the provider and returns its response.
	Chat(ctx context.Context, messages []Message) (*LLMResponse, error)

	// Name returns the provider name ("anthropic", "openai", "bedrock", "mock").
	Name() string

	// Model returns the model identifier in use.
	Model() string
}

// Comparison winners.
const (
	WinnerA   = "A"
	WinnerB   = "B"
	WinnerTie = "tie"
)

// EvaluationVerdict is a single-criterion judgment.
type EvaluationVerdict struct {
	Score      int     `json:"score"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// ComparisonVerdict is a pairwise judgment between two responses.
type ComparisonVerdict struct {
	Winner     string  `json:"winner"` // "A", "B", or "tie"
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// Validate checks that the verdict's winner is one of the accepted values.
func (v *ComparisonVerdict) Validate() error {
	switch v.Winner {
	case WinnerA, WinnerB, WinnerTie:
		return nil
	default:
		return fmt.Errorf("invalid winner %q (want %q, %q, or %q)", v.Winner, WinnerA, WinnerB, WinnerTie)
	}
}
