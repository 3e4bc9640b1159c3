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
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/gavel/pkg/criteria"
	"github.com/teradata-labs/gavel/pkg/types"
)

// Wire shapes of judge output.
type multiCriteriaWire struct {
	CriterionScores []struct {
		CriterionName string   `json:"criterion_name"`
		Score         *float64 `json:"score"`
		Reasoning     string   `json:"reasoning"`
		Confidence    *float64 `json:"confidence"`
	} `json:"criterion_scores"`
	OverallReasoning string   `json:"overall_reasoning"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	Suggestions      []string `json:"suggestions"`
}

type evaluationWire struct {
	Score      *float64 `json:"score"`
	Reasoning  string   `json:"reasoning"`
	Confidence *float64 `json:"confidence"`
}

type comparisonWire struct {
	Winner     string   `json:"winner"`
	Reasoning  string   `json:"reasoning"`
	Confidence *float64 `json:"confidence"`
}

// ParseMultiCriteria turns raw judge output into a MultiCriteriaResult. It
// never fails: unparseable output yields the neutral fallback result with
// metadata.parsingError set.
func (e *Engine) ParseMultiCriteria(raw string, crit *criteria.EvaluationCriteria, judgeModel string, started time.Time) *criteria.MultiCriteriaResult {
	result := criteria.NewResult(crit, judgeModel)

	payload, ok := extractJSON(raw)
	if !ok {
		e.logger.Warn("no JSON object in judge output, using fallback scores",
			zap.String("judge_model", judgeModel),
			zap.Int("raw_len", len(raw)))
		return e.fallbackResult(result, crit, started)
	}

	var wire multiCriteriaWire
	if err := json.Unmarshal([]byte(payload), &wire); err != nil || len(wire.CriterionScores) == 0 {
		e.logger.Warn("judge output JSON missing criterion_scores, using fallback scores",
			zap.String("judge_model", judgeModel))
		return e.fallbackResult(result, crit, started)
	}

	scores := make([]*criteria.CriterionScore, 0, len(wire.CriterionScores))
	for _, item := range wire.CriterionScores {
		if item.CriterionName == "" || item.Score == nil || item.Reasoning == "" {
			e.logger.Warn("skipping incomplete criterion score entry",
				zap.String("criterion", item.CriterionName))
			continue
		}

		def := crit.Find(item.CriterionName)
		if def == nil {
			// Judges occasionally invent or rename criteria. Accept the
			// score under a synthetic definition with an equal weight.
			e.logger.Warn("judge scored unknown criterion",
				zap.String("criterion", item.CriterionName))
			def = &criteria.CriterionDefinition{
				Name:     item.CriterionName,
				Weight:   1.0 / float64(len(crit.Criteria)),
				ScaleMin: criteria.DefaultScaleMin,
				ScaleMax: criteria.DefaultScaleMax,
			}
		}

		score := int(math.Round(*item.Score))
		if score < def.ScaleMin || score > def.ScaleMax {
			e.logger.Warn("judge score outside scale, clamping",
				zap.String("criterion", item.CriterionName),
				zap.Float64("raw_score", *item.Score),
				zap.Int("scale_min", def.ScaleMin),
				zap.Int("scale_max", def.ScaleMax))
			score = clampInt(score, def.ScaleMin, def.ScaleMax)
		}

		confidence := 0.5
		if item.Confidence != nil {
			confidence = *item.Confidence
			if confidence < 0 || confidence > 1 {
				e.logger.Warn("judge confidence outside [0,1], clamping",
					zap.String("criterion", item.CriterionName),
					zap.Float64("raw_confidence", confidence))
				confidence = clampFloat(confidence, 0, 1)
			}
		}

		cs, err := criteria.NewScore(def, score, item.Reasoning, confidence)
		if err != nil {
			e.logger.Warn("rejecting criterion score", zap.Error(err))
			continue
		}
		scores = append(scores, cs)
	}

	if len(scores) == 0 {
		return e.fallbackResult(result, crit, started)
	}

	result.SetScores(scores)
	result.OverallReasoning = wire.OverallReasoning
	result.Strengths = wire.Strengths
	result.Weaknesses = wire.Weaknesses
	result.Suggestions = wire.Suggestions
	result.Duration = time.Since(started)

	if missing := result.MissingCriteria(); len(missing) > 0 {
		e.logger.Warn("judge omitted requested criteria",
			zap.Strings("missing", missing))
		result.Metadata["missingCriteria"] = missing
	}
	return result
}

// fallbackResult fills one neutral score per requested criterion.
func (e *Engine) fallbackResult(result *criteria.MultiCriteriaResult, crit *criteria.EvaluationCriteria, started time.Time) *criteria.MultiCriteriaResult {
	scores := make([]*criteria.CriterionScore, 0, len(crit.Criteria))
	for i := range crit.Criteria {
		d := &crit.Criteria[i]
		neutral := (d.ScaleMin + d.ScaleMax) / 2
		cs, err := criteria.NewScore(d, neutral,
			fmt.Sprintf("Fallback score for %s due to parsing issues", d.Name), 0.1)
		if err != nil {
			continue
		}
		scores = append(scores, cs)
	}
	result.SetScores(scores)
	result.Metadata["parsingError"] = true
	result.Duration = time.Since(started)
	return result
}

// ParseEvaluation turns raw judge output into a single-criterion verdict.
// The second return value reports whether the output actually parsed; on
// failure a neutral verdict is returned.
func (e *Engine) ParseEvaluation(raw string) (*types.EvaluationVerdict, bool) {
	payload, ok := extractJSON(raw)
	if ok {
		var wire evaluationWire
		if err := json.Unmarshal([]byte(payload), &wire); err == nil && wire.Score != nil {
			score := clampInt(int(math.Round(*wire.Score)), 1, 5)
			confidence := 0.5
			if wire.Confidence != nil {
				confidence = clampFloat(*wire.Confidence, 0, 1)
			}
			return &types.EvaluationVerdict{
				Score:      score,
				Reasoning:  wire.Reasoning,
				Confidence: confidence,
			}, true
		}
	}

	e.logger.Warn("unparseable evaluation verdict, using neutral fallback",
		zap.Int("raw_len", len(raw)))
	return &types.EvaluationVerdict{
		Score:      3,
		Reasoning:  "Fallback score due to parsing issues",
		Confidence: 0.1,
	}, false
}

// ParseComparison turns raw judge output into a comparison verdict. On
// failure a tie with low confidence is returned.
func (e *Engine) ParseComparison(raw string) (*types.ComparisonVerdict, bool) {
	payload, ok := extractJSON(raw)
	if ok {
		var wire comparisonWire
		if err := json.Unmarshal([]byte(payload), &wire); err == nil {
			if winner, valid := normalizeWinner(wire.Winner); valid {
				confidence := 0.5
				if wire.Confidence != nil {
					confidence = clampFloat(*wire.Confidence, 0, 1)
				}
				return &types.ComparisonVerdict{
					Winner:     winner,
					Reasoning:  wire.Reasoning,
					Confidence: confidence,
				}, true
			}
		}
	}

	e.logger.Warn("unparseable comparison verdict, using tie fallback",
		zap.Int("raw_len", len(raw)))
	return &types.ComparisonVerdict{
		Winner:     types.WinnerTie,
		Reasoning:  "Fallback verdict due to parsing issues",
		Confidence: 0.1,
	}, false
}

func normalizeWinner(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "a", "response a":
		return types.WinnerA, true
	case "b", "response b":
		return types.WinnerB, true
	case "tie", "draw", "equal":
		return types.WinnerTie, true
	default:
		return "", false
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
