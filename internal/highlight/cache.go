package highlight

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	gocache "github.com/patrickmn/go-cache"
)

// Default expiration settings for [NewCache].
const (
	DefaultCacheExpiration      = 5 * time.Minute
	DefaultCacheCleanupInterval = 10 * time.Minute
)

// Cache memoizes [Highlight] results
// on the identity of the source text and configuration.
//
// Configurations are compared by pointer,
// so a Config must not be modified once it's been used with a Cache.
// Spans returned by the cache are shared and must not be modified.
//
// Compiled lexers are cached per configuration with the same expiration,
// so configurations that are no longer used are eventually released.
type Cache struct {
	spans  *gocache.Cache // key -> spansEntry
	lexers *gocache.Cache // config pointer -> lexerEntry
}

// Entries hold on to their configuration
// so that its address isn't reused while they're cached.
type (
	spansEntry struct {
		cfg   *Config
		spans []Span
	}

	lexerEntry struct {
		cfg   *Config
		lexer *Lexer
	}
)

// NewCache builds a cache whose entries expire after the given duration.
// Expired entries are purged every cleanup interval.
func NewCache(expiration, cleanup time.Duration) *Cache {
	return &Cache{
		spans:  gocache.New(expiration, cleanup),
		lexers: gocache.New(expiration, cleanup),
	}
}

// Highlight returns the layered spans for src under cfg,
// computing them only if they aren't already cached.
func (c *Cache) Highlight(src string, cfg *Config) []Span {
	key := spansKey(src, cfg)
	if v, ok := c.spans.Get(key); ok {
		if e, ok := v.(spansEntry); ok && e.cfg == cfg {
			return e.spans
		}
	}

	spans := c.lexer(cfg).Lex(src)
	c.spans.SetDefault(key, spansEntry{cfg: cfg, spans: spans})
	return spans
}

// Len reports the number of cached span sets, including expired ones
// that haven't been purged yet.
func (c *Cache) Len() int {
	return c.spans.ItemCount()
}

// Flush drops all cached entries.
func (c *Cache) Flush() {
	c.spans.Flush()
	c.lexers.Flush()
}

func (c *Cache) lexer(cfg *Config) *Lexer {
	key := configKey(cfg)
	if v, ok := c.lexers.Get(key); ok {
		if e, ok := v.(lexerEntry); ok && e.cfg == cfg {
			// Keep lexers for configurations in use alive.
			c.lexers.SetDefault(key, e)
			return e.lexer
		}
	}

	// Concurrent misses may compile the same configuration twice.
	// Either result is valid.
	l := NewLexer(cfg)
	c.lexers.SetDefault(key, lexerEntry{cfg: cfg, lexer: l})
	return l
}

func configKey(cfg *Config) string {
	return fmt.Sprintf("%p", cfg)
}

func spansKey(src string, cfg *Config) string {
	return fmt.Sprintf("%p:%d:%s", cfg, len(src),
		strconv.FormatUint(xxhash.Sum64String(src), 16))
}
