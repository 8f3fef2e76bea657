package monitor

import "time"

// Counter counts failures toward Limit. With a positive Window only failures
// newer than Window count; with a zero Window every failure since start or
// since the limit was last reached counts.
type Counter struct {
	Limit  int
	Window time.Duration

	seen []time.Time
}

// Add records a failure at now and reports the resulting count. When the count
// reaches Limit, reached is true and the counter starts over.
func (c *Counter) Add(now time.Time) (count int, reached bool) {
	c.expire(now)
	c.seen = append(c.seen, now)
	count = len(c.seen)
	if c.Limit > 0 && count >= c.Limit {
		c.seen = c.seen[:0]
		return count, true
	}
	return count, false
}

// Count reports the failures currently inside the window.
func (c *Counter) Count(now time.Time) int {
	c.expire(now)
	return len(c.seen)
}

// Reset discards every recorded failure.
func (c *Counter) Reset() {
	c.seen = c.seen[:0]
}

func (c *Counter) expire(now time.Time) {
	if c.Window <= 0 || len(c.seen) == 0 {
		return
	}
	cutoff := now.Add(-c.Window)
	drop := 0
	for drop < len(c.seen) && !c.seen[drop].After(cutoff) {
		drop++
	}
	if drop > 0 {
		c.seen = append(c.seen[:0], c.seen[drop:]...)
	}
}
