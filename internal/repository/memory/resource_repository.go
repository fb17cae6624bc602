package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// ResourceRepository keeps recently fetched resource bodies keyed by URL.
// Once the byte budget is exceeded new entries are not stored.
type ResourceRepository struct {
	cache    *cache.Cache
	maxBytes int64

	mu   sync.Mutex
	used int64
}

func NewResourceRepository(ttl time.Duration, maxBytes int64) *ResourceRepository {
	// purge expired bodies twice per TTL
	c := cache.New(ttl, ttl/2)
	r := &ResourceRepository{
		cache:    c,
		maxBytes: maxBytes,
	}
	c.OnEvicted(func(_ string, v interface{}) {
		r.mu.Lock()
		r.used -= int64(len(v.([]byte)))
		r.mu.Unlock()
	})
	return r
}

func (r *ResourceRepository) Save(url string, data []byte) {
	size := int64(len(data))
	r.mu.Lock()
	if r.maxBytes > 0 && r.used+size > r.maxBytes {
		r.mu.Unlock()
		return
	}
	r.used += size
	r.mu.Unlock()

	if old, found := r.cache.Get(url); found {
		r.mu.Lock()
		r.used -= int64(len(old.([]byte)))
		r.mu.Unlock()
	}
	r.cache.Set(url, data, cache.DefaultExpiration)
}

func (r *ResourceRepository) Get(url string) ([]byte, bool) {
	if x, found := r.cache.Get(url); found {
		return x.([]byte), true
	}
	return nil, false
}

func (r *ResourceRepository) Delete(url string) {
	r.cache.Delete(url)
}

func (r *ResourceRepository) Len() int {
	return r.cache.ItemCount()
}

func (r *ResourceRepository) UsedBytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}
