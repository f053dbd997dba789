package covercache

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"
)

// DefaultMaxCached is the number of covers kept before eviction starts.
const DefaultMaxCached = 50

// Option configures a Coordinator.
type Option func(*options)

type options struct {
	maxCached int
	fs        billy.Basic
	resampler Resampler
	log       *slog.Logger
}

// WithMaxCached sets the eviction threshold. It panics if n < 1.
func WithMaxCached(n int) Option {
	if n < 1 {
		panic("covercache: max cached must be positive")
	}
	return func(o *options) { o.maxCached = n }
}

// WithFS sets the filesystem used to check that a source exists.
// Unless WithResampler is also given, the default resampler reads from it too.
func WithFS(fs billy.Basic) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithResampler replaces the resampler used on cache misses.
func WithResampler(r Resampler) Option {
	return func(o *options) {
		if r != nil {
			o.resampler = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
