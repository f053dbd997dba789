package covercache

// Consistency exposes the full map and ledger check to tests.
func (c *Coordinator[K, R]) Consistency() error {
	return c.consistency()
}

// InFlight returns the number of loads that have not committed yet.
func (c *Coordinator[K, R]) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}
