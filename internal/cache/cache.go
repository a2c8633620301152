// Package cache is a small in-process TTL store used to memoize third-party
// API calls. Entries expire lazily on read; there is no size bound and no
// background eviction.
package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/civicconnect/civic-services/internal/metrics"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is used when a cache is created without a lifetime.
const DefaultTTL = time.Hour

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a named TTL key-value store safe for concurrent use.
type Cache struct {
	name       string
	defaultTTL time.Duration

	mu    sync.Mutex
	items map[string]entry

	now func() time.Time
}

// New creates a cache. A non-positive defaultTTL means DefaultTTL.
func New(name string, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		name:       name,
		defaultTTL: defaultTTL,
		items:      make(map[string]entry),
		now:        time.Now,
	}
}

func (c *Cache) Name() string { return c.name }

// Get returns the value for key if present and not expired. An expired
// entry is removed and reported absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if item.expiresAt.Before(c.now()) {
		delete(c.items, key)
		return nil, false
	}
	return item.value, true
}

// Set stores value under key for the cache's default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key until now+ttl.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]entry)
}

// Len counts stored entries, including expired ones not yet read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Key builds a memoization key from a prefix, the function name, the
// positional arguments and the keyword arguments sorted by name:
//
//	prefix:name:arg1:arg2:k1:v1:k2:v2
func Key(prefix, name string, args []any, kwargs map[string]any) string {
	parts := []string{prefix, name}
	for _, arg := range args {
		parts = append(parts, fmt.Sprint(arg))
	}

	names := make([]string, 0, len(kwargs))
	for k := range kwargs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s:%v", k, kwargs[k]))
	}

	return strings.Join(parts, ":")
}

// Remember returns the cached value for key, or calls fn and caches its
// result. Errors and empty results are never cached.
func Remember[T any](c *Cache, key string, fn func() (T, error)) (T, error) {
	if cached, ok := c.Get(key); ok {
		if value, ok := cached.(T); ok {
			logrus.Debugf("Cache hit for %s", key)
			metrics.RecordCacheLookup(c.name, true)
			return value, nil
		}
	}

	logrus.Debugf("Cache miss for %s", key)
	metrics.RecordCacheLookup(c.name, false)

	result, err := fn()
	if err != nil {
		return result, err
	}

	if !isEmpty(result) {
		c.Set(key, result)
	}
	return result, nil
}

func isEmpty(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}

	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	case reflect.Struct:
		return rv.IsZero()
	default:
		return false
	}
}
