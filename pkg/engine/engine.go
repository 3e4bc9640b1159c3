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
// Package engine builds judge prompts and turns free-form judge output into
// validated verdicts. Parse failures never propagate as errors; the engine
// degrades to a neutral fallback verdict instead.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teradata-labs/gavel/pkg/criteria"
)

// Engine is stateless apart from its logger; construct once and share.
type Engine struct {
	logger *zap.Logger
}

// New creates an engine. A nil logger defaults to a no-op logger.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// BuildEvaluationPrompt builds the single-criterion judge prompt.
func (e *Engine) BuildEvaluationPrompt(prompt, response, criteriaLabel string) string {
	var b strings.Builder

	b.WriteString("You are an expert evaluator judging the quality of a response to a prompt.\n\n")
	fmt.Fprintf(&b, "Evaluation criterion: %s\n\n", criteriaLabel)
	fmt.Fprintf(&b, "## Prompt\n%s\n\n", prompt)
	fmt.Fprintf(&b, "## Response\n%s\n\n", response)
	b.WriteString("Score the response from 1 (poor) to 5 (excellent) on the criterion above.\n\n")
	b.WriteString("Respond with ONLY a JSON object, no text before or after:\n")
	b.WriteString(`{"score": <1-5>, "reasoning": "<why>", "confidence": <0.0-1.0>}`)
	b.WriteString("\n")

	return b.String()
}

// BuildComparisonPrompt builds the pairwise comparison judge prompt.
func (e *Engine) BuildComparisonPrompt(prompt, responseA, responseB string) string {
	var b strings.Builder

	b.WriteString("You are an expert evaluator comparing two responses to the same prompt.\n\n")
	fmt.Fprintf(&b, "## Prompt\n%s\n\n", prompt)
	fmt.Fprintf(&b, "## Response A\n%s\n\n", responseA)
	fmt.Fprintf(&b, "## Response B\n%s\n\n", responseB)
	b.WriteString("Decide which response better answers the prompt, or declare a tie.\n\n")
	b.WriteString("Respond with ONLY a JSON object, no text before or after:\n")
	b.WriteString(`{"winner": "A" | "B" | "tie", "reasoning": "<why>", "confidence": <0.0-1.0>}`)
	b.WriteString("\n")

	return b.String()
}

// BuildMultiCriteriaPrompt enumerates every criterion with its weight as a
// percentage, scale, guidance, and examples, then demands a JSON-only
// response in the exact shape the parser expects.
func (e *Engine) BuildMultiCriteriaPrompt(prompt, response string, crit *criteria.EvaluationCriteria) string {
	var b strings.Builder

	b.WriteString("You are an expert evaluator scoring a response against multiple criteria.\n\n")
	fmt.Fprintf(&b, "## Prompt\n%s\n\n", prompt)
	fmt.Fprintf(&b, "## Response\n%s\n\n", response)
	b.WriteString("## Criteria\n\n")

	for i, d := range crit.Criteria {
		fmt.Fprintf(&b, "%d. %s (weight %.0f%%, scale %d-%d)\n", i+1, d.Name, d.Weight*100, d.ScaleMin, d.ScaleMax)
		if d.Description != "" {
			fmt.Fprintf(&b, "   %s\n", d.Description)
		}
		if d.EvaluationPrompt != "" {
			fmt.Fprintf(&b, "   Guidance: %s\n", d.EvaluationPrompt)
		}
		if len(d.Examples) > 0 {
			scores := make([]int, 0, len(d.Examples))
			for s := range d.Examples {
				scores = append(scores, s)
			}
			sort.Ints(scores)
			for _, s := range scores {
				fmt.Fprintf(&b, "   Score %d example: %s\n", s, d.Examples[s])
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Instructions\n\n")
	b.WriteString("Respond with ONLY a JSON object, no text before or after, in exactly this shape:\n\n")
	b.WriteString("{\n")
	b.WriteString("  \"criterion_scores\": [\n")
	b.WriteString("    {\"criterion_name\": \"<name>\", \"score\": <int>, \"reasoning\": \"<why>\", \"confidence\": <0.0-1.0>}\n")
	b.WriteString("  ],\n")
	b.WriteString("  \"overall_reasoning\": \"<summary>\",\n")
	b.WriteString("  \"strengths\": [\"...\"],\n")
	b.WriteString("  \"weaknesses\": [\"...\"],\n")
	b.WriteString("  \"suggestions\": [\"...\"]\n")
	b.WriteString("}\n\n")
	fmt.Fprintf(&b, "criterion_scores must contain one entry for each of: %s\n", strings.Join(crit.Names(), ", "))

	return b.String()
}
