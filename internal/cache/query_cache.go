// Package cache stores successful query answers in Redis, scoped per caller.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"library-ai-workers/internal/aiquery"
	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/common/metrics"
)

const (
	adminScope = "admin"
	userScope  = "user"
	scanCount  = 100
	hashHexLen = sha256.Size * 2

	lookupHit   = "hit"
	lookupMiss  = "miss"
	lookupError = "error"
)

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// QueryCache reads and writes answers under prefix:user:<callerID>:<sha256(query)>
// or prefix:admin:<sha256(query)>. Admin answers share one scope since they see
// every user's books.
type QueryCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

func NewQueryCache(client redis.UniversalClient, prefix string, ttl time.Duration, log logger.Logger) *QueryCache {
	if prefix == "" {
		prefix = "aiquery"
	}
	return &QueryCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.ForComponent(log, "query-cache"),
	}
}

// Key builds the cache key for one question. Case and runs of whitespace do not
// change the key.
func (c *QueryCache) Key(query, callerID string, isAdmin bool) string {
	sum := sha256.Sum256([]byte(normalizeQuery(query)))
	return fmt.Sprintf("%s:%s:%s", c.prefix, scope(callerID, isAdmin), hex.EncodeToString(sum[:]))
}

// Get returns (nil, nil) on a miss.
func (c *QueryCache) Get(ctx context.Context, key string) (*aiquery.AiQueryResponse, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewCacheOperationFailedError("get", err)
	}

	var resp aiquery.AiQueryResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, apperrors.NewCacheOperationFailedError("decode", err)
	}
	return &resp, nil
}

func (c *QueryCache) Set(ctx context.Context, key string, resp *aiquery.AiQueryResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return apperrors.NewCacheOperationFailedError("encode", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return apperrors.NewCacheOperationFailedError("set", err)
	}
	return nil
}

// Invalidate drops the owner's cached answers and every admin answer, since
// admin queries aggregate over all owners. It returns the number of keys removed.
func (c *QueryCache) Invalidate(ctx context.Context, ownerID string) (int, error) {
	owned, err := c.deleteMatching(ctx, ownerPattern(c.prefix, ownerID))
	if err != nil {
		return owned, err
	}
	admin, err := c.InvalidateAdmin(ctx)
	return owned + admin, err
}

func (c *QueryCache) InvalidateAdmin(ctx context.Context) (int, error) {
	return c.deleteMatching(ctx, fmt.Sprintf("%s:%s:*", c.prefix, adminScope))
}

func (c *QueryCache) deleteMatching(ctx context.Context, pattern string) (int, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, apperrors.NewCacheOperationFailedError("scan", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	removed, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, apperrors.NewCacheOperationFailedError("delete", err)
	}

	metrics.QueryCacheInvalidatedKeys.Add(float64(removed))
	c.logger.Info("cached answers invalidated", map[string]interface{}{
		"pattern": pattern,
		"removed": removed,
	})
	return int(removed), nil
}

func scope(callerID string, isAdmin bool) string {
	if isAdmin {
		return adminScope
	}
	return userScope + ":" + callerID
}

// ownerPattern matches exactly one hash segment after the owner id, so an id
// that is a prefix of another (u1 vs u1:x) does not match the longer one.
func ownerPattern(prefix, ownerID string) string {
	return fmt.Sprintf("%s:%s:%s:%s", prefix, userScope, escapeGlob(ownerID), strings.Repeat("?", hashHexLen))
}

// escapeGlob quotes the characters Redis MATCH treats as wildcards.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// CachedProcessor serves repeated questions from the cache. Only successful
// responses are stored; cache failures are logged and the query runs uncached.
type CachedProcessor struct {
	next   aiquery.Processor
	cache  *QueryCache
	logger logger.Logger
}

func NewCachedProcessor(next aiquery.Processor, cache *QueryCache, log logger.Logger) *CachedProcessor {
	return &CachedProcessor{
		next:   next,
		cache:  cache,
		logger: logger.ForComponent(log, "cached-processor"),
	}
}

func (p *CachedProcessor) ProcessQuery(ctx context.Context, query, callerID string, isAdmin bool) *aiquery.AiQueryResponse {
	key := p.cache.Key(query, callerID, isAdmin)

	cached, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.QueryCacheLookups.WithLabelValues(lookupError).Inc()
		p.logger.Warn("cache lookup failed", map[string]interface{}{"key": key, "error": err.Error()})
	case cached != nil:
		metrics.QueryCacheLookups.WithLabelValues(lookupHit).Inc()
		p.logger.Debug("cache hit", map[string]interface{}{"key": key})
		return cached
	default:
		metrics.QueryCacheLookups.WithLabelValues(lookupMiss).Inc()
	}

	resp := p.next.ProcessQuery(ctx, query, callerID, isAdmin)
	if resp == nil || !resp.Success {
		return resp
	}

	if err := p.cache.Set(ctx, key, resp); err != nil {
		p.logger.Warn("cache store failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return resp
}
