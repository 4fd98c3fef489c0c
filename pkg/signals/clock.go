package signals

import "time"

// FrequencyClock is the periodic gate limiting how often a signal or
// message may be emitted, independently of value changes.
type FrequencyClock struct {
	// Interval between ticks. 0 means the clock is always due.
	Interval time.Duration

	// Now can be overridden for tests and offline replay. nil means
	// time.Now.
	Now func() time.Time

	lastTick time.Time
}

// NewFrequencyClock builds a clock from a maximum emission frequency in Hz.
// A frequency of 0 (or below) yields an unthrottled clock.
func NewFrequencyClock(maxFrequency float64) FrequencyClock {
	if maxFrequency <= 0 {
		return FrequencyClock{}
	}
	return FrequencyClock{Interval: time.Duration(float64(time.Second) / maxFrequency)}
}

// Tick records a fire at the current time without testing whether the
// clock was due. Lets a send that happened outside the gate count against
// the next interval.
func (c *FrequencyClock) Tick() {
	if c.Now != nil {
		c.lastTick = c.Now()
		return
	}
	c.lastTick = time.Now()
}

// ShouldTick reports whether the clock is due and re-arms it when it is.
// A clock that never fired is always due.
func (c *FrequencyClock) ShouldTick() bool {
	if c.Interval == 0 {
		return true
	}
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	if c.lastTick.IsZero() || now.Sub(c.lastTick) >= c.Interval {
		c.lastTick = now
		return true
	}
	return false
}
