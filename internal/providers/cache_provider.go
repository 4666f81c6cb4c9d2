package providers

import (
	"errors"
	"ntpbg/internal/structures"
	"unsafe"

	"github.com/coocood/freecache"
)

// CacheProviderInterface caches image bytes by file path.
type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// CacheProvider keeps served images in a freecache segment. Entries larger
// than 1/1024 of the cache are rejected by freecache and served from disk.
type CacheProvider struct {
	cache  *freecache.Cache
	ttl    int
	logger Logger
}

// NewCacheProvider sizes the cache in MB. A zero TTL keeps images until they
// are evicted; component updates write new file paths so stale keys age out.
func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Image cache disabled")
		return &noopCache{}
	}

	ttl := 0
	if conf.Cache.TTL > 0 {
		ttl = max(int(conf.Cache.TTL.Seconds()), 1)
	}
	c := freecache.NewCache(conf.Cache.Size * 1024 * 1024)
	logger.Infof(TypeApp, "Image cache initialized: %dMB, TTL=%ds, max image %d bytes", conf.Cache.Size, ttl, maxEntrySize(conf.Cache.Size))

	return &CacheProvider{cache: c, ttl: ttl, logger: logger}
}

func maxEntrySize(sizeMB int) int {
	return sizeMB * 1024 * 1024 / 1024
}

// pathKey views a file path as bytes without copying; freecache copies keys
// on Set and only reads them on Get.
func pathKey(path string) []byte {
	if path == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(path), len(path))
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(pathKey(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) Set(key string, value []byte) {
	err := c.cache.Set(pathKey(key), value, c.ttl)
	if errors.Is(err, freecache.ErrLargeEntry) {
		c.logger.Debugf(TypeApp, "Image %s (%d bytes) too large for cache", key, len(value))
	}
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
