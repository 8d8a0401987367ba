package mapbox

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by
// coordinates rounded to four decimal places (about 11 m), so repeated fixes
// from a reporter standing on the same beach share one lookup.
type CachedGeocoder struct {
	inner   domain.Geocoder
	metrics *observability.Metrics

	mu         sync.Mutex
	maxEntries int
	order      *list.List // front is most recently used
	items      map[string]*list.Element
}

type cacheItem struct {
	key   string
	place domain.Place
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:      inner,
		metrics:    metrics,
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[string]*list.Element),
	}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, fix domain.Coordinates) (domain.Place, error) {
	key := fmt.Sprintf("%.4f,%.4f", fix.Latitude, fix.Longitude)
	if place, ok := c.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return place, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	place, err := c.inner.ReverseGeocode(ctx, fix)
	if err != nil {
		return place, err
	}
	// Empty answers are not cached so a later fix can still find a place.
	if place.Address != "" {
		c.put(key, place)
	}
	return place, nil
}

// Len reports the number of cached places.
func (c *CachedGeocoder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *CachedGeocoder) get(key string) (domain.Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return domain.Place{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem).place, true
}

func (c *CachedGeocoder) put(key string, place domain.Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheItem).place = place
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&cacheItem{key: key, place: place})

	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheItem).key)
	}
}
