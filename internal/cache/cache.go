// Package cache keeps short lived lookups, such as the next free row of an
// export sheet, that would otherwise cost a remote call each time.
package cache

import "time"

// Cache is a keyed store of computed values.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge()
	Size() int
}

// Option configures an LRUCache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}
