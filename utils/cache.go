package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/cppla/htmlfilter/metrics"
	"github.com/cppla/htmlfilter/sanitizer"
)

const (
	defaultCacheTTL = time.Hour
	// CachePrefix namespaces every key this service writes to redis.
	CachePrefix = "cache:htmlfilter:"
)

// rulesetDigest changes whenever a whitelist pattern changes, so cached
// results produced by older rules are never served.
var rulesetDigest = func() string {
	h := sha256.New()
	for _, r := range sanitizer.DefaultWhitelist().Rules() {
		h.Write([]byte(r.Name))
		h.Write([]byte{0})
		h.Write([]byte(r.Pattern()))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}()

// HashInput returns the hex sha256 of s.
func HashInput(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CacheKey builds the key for a stage result of input.
func CacheKey(stage string, ugc bool, input string) string {
	var b strings.Builder
	b.WriteString(CachePrefix)
	b.WriteString(rulesetDigest)
	b.WriteByte(':')
	b.WriteString(stage)
	if ugc {
		b.WriteString(":ugc")
	}
	b.WriteByte(':')
	b.WriteString(HashInput(input))
	return b.String()
}

// ResultCache is an in-process LRU in front of an optional redis.
type ResultCache struct {
	local *lru.Cache[string, []byte]
	rc    *redis.Client
	ttl   time.Duration
}

// NewResultCache creates a cache holding size entries locally. rc may be nil.
func NewResultCache(size int, rc *redis.Client, ttl time.Duration) (*ResultCache, error) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	local, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{local: local, rc: rc, ttl: ttl}, nil
}

// GetBytes returns cached bytes for a key.
func (c *ResultCache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if b, ok := c.local.Get(key); ok {
		metrics.CacheHit("lru")
		return b, true
	}
	if c.rc == nil {
		metrics.CacheMiss()
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			Sugar.Debugf("cache get key=%s err=%v", key, err)
		}
		metrics.CacheMiss()
		return nil, false
	}
	c.local.Add(key, b)
	metrics.CacheHit("redis")
	return b, true
}

// SetBytes stores bytes locally and in redis.
func (c *ResultCache) SetBytes(ctx context.Context, key string, b []byte) {
	c.local.Add(key, b)
	if c.rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, c.ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// GetJSON decodes a cached value into v.
func (c *ResultCache) GetJSON(ctx context.Context, key string, v any) bool {
	b, ok := c.GetBytes(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

// SetJSON marshals v and stores the JSON bytes.
func (c *ResultCache) SetJSON(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.SetBytes(ctx, key, b)
}

// Purge empties the local cache and deletes redis keys under CachePrefix.
// It returns the number of redis keys removed.
func (c *ResultCache) Purge(ctx context.Context) int {
	c.local.Purge()
	if c.rc == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var (
		cursor  uint64
		removed int
	)
	for i := 0; i < 10; i++ { // limit rounds to avoid long loops
		keys, cur, err := c.rc.Scan(ctx, cursor, CachePrefix+"*", 1000).Result()
		if err != nil {
			Sugar.Warnf("cache purge scan failed: %v", err)
			break
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := c.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err == nil {
				removed += len(keys)
			}
		}
		if cursor == 0 {
			break
		}
	}
	return removed
}

// Len returns the number of locally cached entries.
func (c *ResultCache) Len() int {
	return c.local.Len()
}
