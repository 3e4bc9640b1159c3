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
	"regexp"
	"strings"
)

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	backtickRe    = regexp.MustCompile("`(\\{[^`]*\\})`")
	markerRe      = regexp.MustCompile(`(?i)(?:JSON|Response|Output|Result)\s*:`)
)

// extractJSON pulls the first valid JSON object out of free-form judge
// output. Judges wrap JSON in prose, code fences, and labels despite the
// prompt's instructions, so several strategies are tried in order.
func extractJSON(raw string) (string, bool) {
	// 1. Balanced-brace scan from the first '{'.
	if obj, ok := balancedBraces(raw, strings.Index(raw, "{")); ok {
		return obj, true
	}

	// 2. Fenced code block or single backticks.
	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		if isValidObject(m[1]) {
			return m[1], true
		}
	}
	if m := backtickRe.FindStringSubmatch(raw); m != nil {
		if isValidObject(m[1]) {
			return m[1], true
		}
	}

	// 3. Explicit markers, then balanced braces from the next '{'.
	if loc := markerRe.FindStringIndex(raw); loc != nil {
		rest := raw[loc[1]:]
		if obj, ok := balancedBraces(rest, strings.Index(rest, "{")); ok {
			return obj, true
		}
	}

	// 4. Line-buffered fallback: accumulate from the first line starting
	// with '{' until the braces balance.
	if obj, ok := lineBuffered(raw); ok {
		return obj, true
	}

	return "", false
}

// balancedBraces scans from start (an index of '{') and returns the
// substring where the brace count returns to zero, if it parses as JSON.
// Braces inside string literals are ignored.
func balancedBraces(s string, start int) (string, bool) {
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := s[start : i+1]
				if isValidObject(candidate) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}

// lineBuffered accumulates lines starting from the first line that begins
// with '{' until opening and closing braces balance.
func lineBuffered(raw string) (string, bool) {
	var buf strings.Builder
	collecting := false
	depth := 0

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if !collecting {
			if !strings.HasPrefix(trimmed, "{") {
				continue
			}
			collecting = true
		}
		buf.WriteString(line)
		buf.WriteString("\n")
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth <= 0 {
			candidate := strings.TrimSpace(buf.String())
			if isValidObject(candidate) {
				return candidate, true
			}
			return "", false
		}
	}
	return "", false
}

func isValidObject(s string) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil
}
