package services

import (
	"fmt"
	"ntpbg/internal/providers"
	"os"
	"sync"
)

type ImagePrefetcherInterface interface {
	Prefetch(path string)
	Load(path string) ([]byte, error)
	Wait()
}

// ImagePrefetcher warms the image cache with files that are likely to be
// requested next. Entries larger than the cache segment limit are silently
// not cached and served from disk.
type ImagePrefetcher struct {
	cache    providers.CacheProviderInterface
	logger   providers.Logger
	inflight sync.Map
	wg       sync.WaitGroup
}

func NewImagePrefetcher(cache providers.CacheProviderInterface, logger providers.Logger) ImagePrefetcherInterface {
	return &ImagePrefetcher{cache: cache, logger: logger}
}

// Prefetch reads path into the cache in the background. Concurrent requests
// for the same path collapse into one read.
func (p *ImagePrefetcher) Prefetch(path string) {
	if path == "" {
		return
	}
	if _, ok := p.cache.Get(path); ok {
		return
	}
	if _, loaded := p.inflight.LoadOrStore(path, struct{}{}); loaded {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inflight.Delete(path)
		if _, err := p.read(path); err != nil {
			p.logger.Warnf(providers.TypeApp, "Prefetch of %s failed: %s", path, err)
			return
		}
		p.logger.Debugf(providers.TypeApp, "Prefetched %s", path)
	}()
}

// Load returns the file content, from the cache when possible.
func (p *ImagePrefetcher) Load(path string) ([]byte, error) {
	if data, ok := p.cache.Get(path); ok {
		return data, nil
	}
	return p.read(path)
}

func (p *ImagePrefetcher) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	p.cache.Set(path, data)
	return data, nil
}

// Wait blocks until running prefetches finish.
func (p *ImagePrefetcher) Wait() {
	p.wg.Wait()
}
