package covercache

import "sync/atomic"

// Stats is a snapshot of coordinator counters.
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Joined    uint64 `json:"joined"`
	Fallbacks uint64 `json:"fallbacks"`
	Failures  uint64 `json:"failures"`
	Evictions uint64 `json:"evictions"`
}

type counters struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	joined    atomic.Uint64
	fallbacks atomic.Uint64
	failures  atomic.Uint64
	evictions atomic.Uint64
}

func (c *counters) snapshot(entries int) Stats {
	return Stats{
		Entries:   entries,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Joined:    c.joined.Load(),
		Fallbacks: c.fallbacks.Load(),
		Failures:  c.failures.Load(),
		Evictions: c.evictions.Load(),
	}
}
