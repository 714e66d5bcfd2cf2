package preview

import (
	"math"
	"sync"

	"heavensgate/internal/raycast"
)

// Cache size limits; eviction trims back to the target in one pass
const (
	stripCacheMaxSize    = 512
	stripCacheTargetSize = 384
	maxCachedHeight      = 512
)

// StripKey identifies a rendered wall strip. Keys are quantized by the cache
// before lookup, so callers can pass raw slice values.
type StripKey struct {
	TextureKey string
	Side       raycast.HitSide
	Height     int     // strip height in pixels
	TexU       float64 // [0,1] across the wall face
}

// StripCache stores rendered wall strips so neighbouring columns that land on
// the same texel column and a similar height share one image. It is safe for
// concurrent use.
type StripCache[T any] struct {
	mutex sync.RWMutex
	cache map[StripKey]T
	order []StripKey // insertion order for eviction
}

// NewStripCache creates an empty strip cache
func NewStripCache[T any]() *StripCache[T] {
	return &StripCache[T]{
		cache: make(map[StripKey]T, stripCacheMaxSize),
		order: make([]StripKey, 0, stripCacheMaxSize),
	}
}

// QuantizeStripKey snaps TexU to 1/16 steps and Height to 2, 4 or 8 pixel
// steps depending on its size, clamped to [2, 512]. Strips taller than the
// cap share one image and are scaled at draw time.
func QuantizeStripKey(key StripKey) StripKey {
	key.TexU = math.Floor(key.TexU*16) / 16
	if key.TexU >= 1 {
		key.TexU = 15.0 / 16
	}
	if key.TexU < 0 {
		key.TexU = 0
	}

	var step int
	switch {
	case key.Height < 64:
		step = 2
	case key.Height < 256:
		step = 4
	default:
		step = 8
	}
	key.Height = ((key.Height + step/2) / step) * step
	if key.Height < 2 {
		key.Height = 2
	}
	if key.Height > maxCachedHeight {
		key.Height = maxCachedHeight
	}
	return key
}

// GetOrCreate returns the cached strip for key, building it with create on a
// miss. create receives the quantized key so the image matches what is cached.
func (sc *StripCache[T]) GetOrCreate(key StripKey, create func(StripKey) T) T {
	key = QuantizeStripKey(key)

	sc.mutex.RLock()
	if v, ok := sc.cache[key]; ok {
		sc.mutex.RUnlock()
		return v
	}
	sc.mutex.RUnlock()

	v := create(key)

	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	// Another goroutine may have stored it while we were building.
	if existing, ok := sc.cache[key]; ok {
		return existing
	}

	if len(sc.cache) >= stripCacheMaxSize {
		evict := len(sc.order) - stripCacheTargetSize
		if evict > 0 {
			for _, k := range sc.order[:evict] {
				delete(sc.cache, k)
			}
			sc.order = append(sc.order[:0:0], sc.order[evict:]...)
		}
	}

	sc.cache[key] = v
	sc.order = append(sc.order, key)
	return v
}

// Len returns the number of cached strips
func (sc *StripCache[T]) Len() int {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return len(sc.cache)
}

// Clear drops every cached strip
func (sc *StripCache[T]) Clear() {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	sc.cache = make(map[StripKey]T, stripCacheMaxSize)
	sc.order = sc.order[:0]
}
