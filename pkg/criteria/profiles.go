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
	"fmt"
	"sort"
)

// Builtin profile names.
const (
	ProfileBalanced  = "balanced"
	ProfileBasic     = "basic"
	ProfileTechnical = "technical"
	ProfileCreative  = "creative"
	ProfileDefault   = "default"
)

// Profile returns a builtin criteria profile by name. Each call returns a
// fresh value, so callers may not mutate shared state.
func Profile(name string) (*EvaluationCriteria, error) {
	switch name {
	case ProfileBasic:
		return New(ProfileBasic, "Quick quality check", []CriterionDefinition{
			{Name: "accuracy", Description: "Factual correctness of the response", Weight: 1},
			{Name: "clarity", Description: "How clearly the response communicates", Weight: 1},
			{Name: "helpfulness", Description: "How well the response serves the asker", Weight: 1},
		}, true)

	case ProfileBalanced, ProfileDefault:
		return New(name, "General-purpose evaluation", []CriterionDefinition{
			{Name: "accuracy", Description: "Factual correctness of the response", Weight: 0.3},
			{Name: "completeness", Description: "Coverage of what the prompt asked for", Weight: 0.25},
			{Name: "clarity", Description: "How clearly the response communicates", Weight: 0.25},
			{Name: "helpfulness", Description: "How well the response serves the asker", Weight: 0.2},
		}, true)

	case ProfileTechnical:
		return New(ProfileTechnical, "Technical content evaluation", []CriterionDefinition{
			{Name: "accuracy", Description: "Technical correctness, no factual errors", Weight: 0.4},
			{Name: "depth", Description: "Depth of technical detail and rigor", Weight: 0.3, DomainSpecific: true},
			{Name: "completeness", Description: "Edge cases and caveats addressed", Weight: 0.2},
			{Name: "clarity", Description: "Accessible to the target audience", Weight: 0.1},
		}, true)

	case ProfileCreative:
		return New(ProfileCreative, "Creative writing evaluation", []CriterionDefinition{
			{Name: "originality", Description: "Novelty and inventiveness", Weight: 0.35, DomainSpecific: true},
			{Name: "coherence", Description: "Internal consistency of the piece", Weight: 0.25},
			{Name: "engagement", Description: "How compelling the writing is", Weight: 0.25},
			{Name: "style", Description: "Craft, voice, and language quality", Weight: 0.15},
		}, true)

	default:
		return nil, fmt.Errorf("unknown criteria profile %q (have %v)", name, ProfileNames())
	}
}

// ProfileNames returns the builtin profile names, sorted.
func ProfileNames() []string {
	names := []string{ProfileBalanced, ProfileBasic, ProfileCreative, ProfileDefault, ProfileTechnical}
	sort.Strings(names)
	return names
}
