package optimistic

import "sync"

// Counter is a displayed count shared between views, such as the number of
// comments on a review.
type Counter struct {
	mu sync.Mutex
	n  int
}

func NewCounter(n int) *Counter {
	return &Counter{n: max(0, n)}
}

// Add adjusts the count by delta, never below zero, and returns the result.
func (c *Counter) Add(delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = max(0, c.n+delta)
	return c.n
}

func (c *Counter) Set(n int) {
	c.mu.Lock()
	c.n = max(0, n)
	c.mu.Unlock()
}

func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
