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
// Package cache is the fingerprint-keyed verdict cache the orchestrator
// falls back to when every backend fails.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// keyPayload is the canonical form digested into a cache key. Field order is
// fixed by the struct, so equal requests always produce equal keys.
type keyPayload struct {
	Prompt     string   `json:"prompt"`
	Responses  []string `json:"responses"`
	Criteria   string   `json:"criteria"`
	JudgeModel string   `json:"judge_model"`
	Operation  string   `json:"operation"`
}

// Key derives the deterministic cache key for a request. The prompt is
// normalized (trimmed, lowercased) so cosmetic whitespace differences share
// an entry. The key is a hex SHA-256 digest and carries no plaintext.
func Key(prompt string, responses []string, criteriaFingerprint, judgeModel, operation string) string {
	payload := keyPayload{
		Prompt:     strings.ToLower(strings.TrimSpace(prompt)),
		Responses:  responses,
		Criteria:   criteriaFingerprint,
		JudgeModel: judgeModel,
		Operation:  operation,
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

type entry struct {
	value        interface{}
	createdAt    time.Time
	expiresAt    time.Time
	accessCount  int64
	lastAccessed time.Time
}

// Config holds the cache bounds.
type Config struct {
	// TTL bounds entry lifetime (default 1h). Zero uses the default;
	// negative disables expiry.
	TTL time.Duration
	// MaxSize bounds the entry count (default 1000).
	MaxSize int
}

// Stats is a snapshot of cache occupancy.
type Stats struct {
	Size         int           `json:"size"`
	MaxSize      int           `json:"max_size"`
	ExpiredCount int64         `json:"expired_count"`
	TTL          time.Duration `json:"ttl"`
}

// Cache is a bounded, TTL-expiring, LRU-evicting in-memory store. Safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
	expired int64
}

// New creates a cache, applying defaults for zero-valued config fields.
func New(cfg Config) *Cache {
	if cfg.TTL == 0 {
		cfg.TTL = time.Hour
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	return &Cache{
		entries: make(map[string]*entry),
		ttl:     cfg.TTL,
		maxSize: cfg.MaxSize,
	}
}

// Get returns the stored value for key, or nil if absent or expired.
// Expired entries are deleted on access.
func (c *Cache) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.expired++
		return nil
	}
	e.accessCount++
	e.lastAccessed = time.Now()
	return e.value
}

// Put stores value under key, evicting the least recently accessed entry
// when the cache is full.
func (c *Cache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	e := &entry{
		value:        value,
		createdAt:    now,
		lastAccessed: now,
	}
	if c.ttl > 0 {
		e.expiresAt = now.Add(c.ttl)
	}
	c.entries[key] = e
}

// evictOldest removes the entry with the smallest lastAccessed timestamp.
// Caller holds the lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.lastAccessed.Before(oldest) {
			oldestKey = k
			oldest = e.lastAccessed
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Clear empties the store.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// GetStats returns a snapshot of cache occupancy.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:         len(c.entries),
		MaxSize:      c.maxSize,
		ExpiredCount: c.expired,
		TTL:          c.ttl,
	}
}
