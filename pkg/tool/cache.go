// Copyright 2026 Warpcore
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
package tool

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/warpcore/warp/internal/csync"
	"github.com/warpcore/warp/pkg/types"
)

// defaultUncacheable lists tool names excluded from caching by default
// because their operation has observable side effects. Cacheable also
// excludes every tool that is not ReadOnly or reports Mutating; this set
// blocks these names even when a tool by that name reports otherwise.
var defaultUncacheable = map[string]bool{
	"exec":  true,
	"bash":  true,
	"write": true,
	"edit":  true,
}

// CacheEntry is a single memoized tool result, keyed by canonical argument hash.
type CacheEntry struct {
	Key      string
	Result   types.ToolResult
	Success  bool
	CachedAt time.Time
	TTL      time.Duration
	Hits     int
}

func (e CacheEntry) expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.Sub(e.CachedAt) > e.TTL
}

// Cache stores ToolResults keyed by (tool name, canonical argument hash).
// entries is a csync.Map so concurrent Dispatch goroutines from
// DispatchBatch's parallel lane can look up and insert without a
// hand-rolled RWMutex, matching spec §5's fine-grained locking requirement.
type Cache struct {
	entries *csync.Map[string, *CacheEntry]
	ttl     time.Duration
	maxSize int
}

// NewCache creates a cache with the given default TTL (0 = no expiry) and a
// soft cap on cacheable result size in bytes.
func NewCache(ttl time.Duration, maxResultSize int) *Cache {
	return &Cache{entries: csync.NewMap[string, *CacheEntry](), ttl: ttl, maxSize: maxResultSize}
}

// Cacheable reports whether a tool is eligible for caching: it must be
// ReadOnly, not Mutating, and not named in defaultUncacheable.
func Cacheable(t Tool) bool {
	if !t.ReadOnly() || t.Mutating() {
		return false
	}
	if defaultUncacheable[t.Name()] {
		return false
	}
	return true
}

// CanonicalKey computes a stable hash of a tool call's arguments. Arguments
// are JSON-marshaled with sorted map keys; array element order is
// significant, matching spec §9's documented limitation (cache keying is
// order-sensitive, which is an open, deliberately unresolved question).
func CanonicalKey(toolName string, args map[string]any) string {
	canon := canonicalize(args)
	b, _ := json.Marshal(canon)
	sum := sha256.Sum256(append([]byte(toolName+"\x00"), b...))
	return hex.EncodeToString(sum[:])
}

func canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(val))
		for _, k := range keys {
			out[k] = canonicalize(val[k])
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = canonicalize(e)
		}
		return out
	default:
		return val
	}
}

// Lookup returns the cached entry for key, if live, bumping its hit count.
func (c *Cache) Lookup(key string) (types.ToolResult, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return types.ToolResult{}, false
	}
	if e.expired(time.Now()) {
		c.entries.Delete(key)
		return types.ToolResult{}, false
	}
	e.Hits++
	return e.Result, true
}

// Insert stores a successful result under key, subject to the size cap.
func (c *Cache) Insert(key string, result types.ToolResult) {
	if c.maxSize > 0 && len(result.Output) > c.maxSize {
		return
	}
	c.entries.Set(key, &CacheEntry{
		Key:      key,
		Result:   result,
		Success:  true,
		CachedAt: time.Now(),
		TTL:      c.ttl,
	})
}

// Hits returns the hit counter for a key, used by tests to assert cache behavior.
func (c *Cache) Hits(key string) int {
	if e, ok := c.entries.Get(key); ok {
		return e.Hits
	}
	return 0
}
