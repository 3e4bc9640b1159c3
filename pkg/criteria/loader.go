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
package criteria

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/xeipuuv/gojsonschema"
)

// profileSchema validates user-supplied profile documents before decoding.
const profileSchema = `{
	"type": "object",
	"required": ["criteria"],
	"properties": {
		"name": {"type": "string"},
		"description": {"type": "string"},
		"normalize_weights": {"type": "boolean"},
		"criteria": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"weight": {"type": "number", "exclusiveMinimum": 0},
					"scale_min": {"type": "integer"},
					"scale_max": {"type": "integer"},
					"evaluation_prompt": {"type": "string"},
					"domain_specific": {"type": "boolean"},
					"requires_context": {"type": "boolean"},
					"examples": {"type": "object"}
				}
			}
		}
	}
}`

// profileDoc is the wire shape of a profile document. Example keys arrive as
// JSON strings and are converted to integer scores.
type profileDoc struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	NormalizeWeights *bool  `json:"normalize_weights"`
	Criteria         []struct {
		Name             string                 `json:"name"`
		Description      string                 `json:"description"`
		Weight           *float64               `json:"weight"`
		ScaleMin         *int                   `json:"scale_min"`
		ScaleMax         *int                   `json:"scale_max"`
		EvaluationPrompt string                 `json:"evaluation_prompt"`
		DomainSpecific   bool                   `json:"domain_specific"`
		RequiresContext  bool                   `json:"requires_context"`
		Examples         map[string]string      `json:"examples"`
		Metadata         map[string]interface{} `json:"metadata"`
	} `json:"criteria"`
}

// Parse decodes and validates a JSON profile document. Parsing errors are
// returned to the caller, never swallowed.
func Parse(data []byte) (*EvaluationCriteria, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(profileSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate criteria profile: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("invalid criteria profile: %s", result.Errors()[0].String())
	}

	var doc profileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode criteria profile: %w", err)
	}

	defs := make([]CriterionDefinition, 0, len(doc.Criteria))
	for _, c := range doc.Criteria {
		def := CriterionDefinition{
			Name:             c.Name,
			Description:      c.Description,
			Weight:           1,
			EvaluationPrompt: c.EvaluationPrompt,
			DomainSpecific:   c.DomainSpecific,
			RequiresContext:  c.RequiresContext,
			Metadata:         c.Metadata,
		}
		if c.Weight != nil {
			def.Weight = *c.Weight
		}
		if c.ScaleMin != nil {
			def.ScaleMin = *c.ScaleMin
		}
		if c.ScaleMax != nil {
			def.ScaleMax = *c.ScaleMax
		}
		if len(c.Examples) > 0 {
			def.Examples = make(map[int]string, len(c.Examples))
			for k, v := range c.Examples {
				score, err := strconv.Atoi(k)
				if err != nil {
					return nil, fmt.Errorf("criterion %s: example key %q is not a score", c.Name, k)
				}
				def.Examples[score] = v
			}
		}
		defs = append(defs, def)
	}

	normalize := true
	if doc.NormalizeWeights != nil {
		normalize = *doc.NormalizeWeights
	}
	return New(doc.Name, doc.Description, defs, normalize)
}

// LoadFile reads and parses a profile document from disk.
func LoadFile(path string) (*EvaluationCriteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read criteria profile: %w", err)
	}
	return Parse(data)
}
