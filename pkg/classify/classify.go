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
// Package classify maps raw provider errors onto a fixed taxonomy that the
// retry engine, circuit breaker, and orchestrator branch on.
package classify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Category is the error taxonomy. Every error crossing a component boundary
// is classified into exactly one category.
type Category string

const (
	CategoryAuthentication Category = "authentication"
	CategoryRateLimit      Category = "rate_limit"
	CategoryNetwork        Category = "network"
	CategoryTimeout        Category = "timeout"
	CategoryUser           Category = "user"
	CategorySystem         Category = "system"
	CategoryTransient      Category = "transient"
	CategoryPermanent      Category = "permanent"
	CategoryUnknown        Category = "unknown"
)

// Severity drives alerting, not control flow.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Classification is the structured result of classifying one error.
type Classification struct {
	Category         Category `json:"category"`
	Severity         Severity `json:"severity"`
	Retryable        bool     `json:"retryable"`
	UserMessage      string   `json:"user_message"`
	SuggestedAction  string   `json:"suggested_action"`
	TechnicalDetails string   `json:"technical_details"`
	CorrelationID    string   `json:"correlation_id,omitempty"`
}

// HTTPError is the typed error provider clients return for non-2xx responses.
// Carrying the status code lets the classifier skip message parsing.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// Classifier turns raw errors into Classifications. It is pure and safe for
// concurrent use; construct once and share.
type Classifier struct {
	patterns   map[Category][]*regexp.Regexp
	statusCode *regexp.Regexp
}

// NewClassifier compiles the category pattern sets.
func NewClassifier() *Classifier {
	compile := func(exprs ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(exprs))
		for _, e := range exprs {
			out = append(out, regexp.MustCompile(e))
		}
		return out
	}

	return &Classifier{
		patterns: map[Category][]*regexp.Regexp{
			CategoryAuthentication: compile(
				`(?i)unauthorized`,
				`(?i)authentication`,
				`(?i)invalid.{0,10}(api.?key|token|credential)`,
				`(?i)forbidden`,
				`(?i)access denied`,
			),
			CategoryRateLimit: compile(
				`(?i)rate.?limit`,
				`(?i)too many requests`,
				`(?i)quota exceeded`,
				`(?i)throttl`,
			),
			CategoryTimeout: compile(
				`(?i)timed?.?out`,
				`(?i)deadline exceeded`,
				`(?i)request took too long`,
			),
			CategoryNetwork: compile(
				`(?i)connection (refused|reset|closed|aborted)`,
				`(?i)no such host`,
				`(?i)broken pipe`,
				`(?i)network is unreachable`,
				`(?i)dns`,
				`(?i)\bEOF\b`,
			),
			CategorySystem: compile(
				`(?i)internal server error`,
				`(?i)service.{0,20}unavailable`,
				`(?i)bad gateway`,
				`(?i)gateway timeout`,
				`(?i)server error`,
			),
			CategoryTransient: compile(
				`(?i)temporar(y|ily)`,
				`(?i)try again`,
				`(?i)overloaded`,
				`(?i)capacity`,
			),
			CategoryUser: compile(
				`(?i)invalid (input|request|argument|parameter)`,
				`(?i)bad request`,
				`(?i)validation`,
				`(?i)malformed`,
			),
		},
		statusCode: regexp.MustCompile(`\b([1-5]\d{2})\b`),
	}
}

// Classify maps err to a Classification. The correlation id, when supplied,
// is carried through verbatim for log stitching.
func (c *Classifier) Classify(err error, correlationID string) Classification {
	if err == nil {
		return Classification{Category: CategoryUnknown, Severity: SeverityLow}
	}

	cat := c.categorize(err)
	cls := Classification{
		Category:         cat,
		Severity:         severityFor(cat),
		Retryable:        retryableFor(cat),
		UserMessage:      userMessageFor(cat),
		SuggestedAction:  suggestedActionFor(cat),
		TechnicalDetails: err.Error(),
		CorrelationID:    correlationID,
	}
	return cls
}

func (c *Classifier) categorize(err error) Category {
	// Typed errors first.
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CategoryTimeout
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if cat, ok := categoryForStatus(httpErr.StatusCode); ok {
			return cat
		}
	}

	msg := err.Error()

	// Category pattern sets, most specific first. System is checked before
	// transient so "service temporarily unavailable" lands on system.
	order := []Category{
		CategoryRateLimit,
		CategoryAuthentication,
		CategoryTimeout,
		CategoryNetwork,
		CategorySystem,
		CategoryTransient,
		CategoryUser,
	}
	for _, cat := range order {
		for _, re := range c.patterns[cat] {
			if re.MatchString(msg) {
				return cat
			}
		}
	}

	// Status codes embedded in the message text.
	if m := c.statusCode.FindStringSubmatch(msg); m != nil {
		code, _ := strconv.Atoi(m[1])
		if cat, ok := categoryForStatus(code); ok {
			return cat
		}
	}

	return CategoryUnknown
}

func categoryForStatus(code int) (Category, bool) {
	switch {
	case code == 401 || code == 403:
		return CategoryAuthentication, true
	case code == 429:
		return CategoryRateLimit, true
	case code == 408 || code == 504:
		return CategoryTimeout, true
	case code >= 500:
		return CategorySystem, true
	case code >= 400:
		return CategoryUser, true
	default:
		return CategoryUnknown, false
	}
}

func severityFor(cat Category) Severity {
	switch cat {
	case CategoryAuthentication:
		return SeverityCritical
	case CategorySystem:
		return SeverityHigh
	case CategoryRateLimit, CategoryTimeout:
		return SeverityMedium
	case CategoryNetwork, CategoryUser:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

func retryableFor(cat Category) bool {
	switch cat {
	case CategoryRateLimit, CategoryNetwork, CategoryTimeout, CategorySystem, CategoryTransient, CategoryUnknown:
		return true
	default:
		return false
	}
}

func userMessageFor(cat Category) string {
	switch cat {
	case CategoryAuthentication:
		return "Authentication with the judge service failed. Check the configured credentials."
	case CategoryRateLimit:
		return "The judge service is rate limiting requests. Please retry later."
	case CategoryNetwork:
		return "A network problem prevented reaching the judge service."
	case CategoryTimeout:
		return "The judge service did not respond in time."
	case CategoryUser:
		return "The request was rejected as invalid. Check the inputs."
	case CategorySystem:
		return "The judge service reported an internal error."
	case CategoryTransient:
		return "The judge service is temporarily unavailable."
	case CategoryPermanent:
		return "The request cannot be served."
	default:
		return "An unexpected error occurred while contacting the judge service."
	}
}

func suggestedActionFor(cat Category) string {
	switch cat {
	case CategoryAuthentication:
		return "verify API keys and account permissions"
	case CategoryRateLimit:
		return "reduce request frequency and retry later"
	case CategoryNetwork:
		return "check connectivity and DNS, then retry"
	case CategoryTimeout:
		return "retry with a longer timeout or a smaller request"
	case CategoryUser:
		return "fix the request inputs before retrying"
	case CategorySystem:
		return "retry; escalate if the provider outage persists"
	case CategoryTransient:
		return "retry after a short delay"
	case CategoryPermanent:
		return "do not retry; the failure is not recoverable"
	default:
		return "inspect logs and retry once"
	}
}
