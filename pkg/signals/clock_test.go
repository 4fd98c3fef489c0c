package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyClockUnthrottled(t *testing.T) {
	clock := NewFrequencyClock(0)
	for i := 0; i < 5; i++ {
		assert.True(t, clock.ShouldTick())
	}
}

func TestFrequencyClockInterval(t *testing.T) {
	now := time.Now()
	clock := NewFrequencyClock(10) // 100ms interval
	clock.Now = func() time.Time { return now }
	assert.Equal(t, 100*time.Millisecond, clock.Interval)

	// First call is always due, then the clock is armed
	assert.True(t, clock.ShouldTick())
	assert.False(t, clock.ShouldTick())

	// Not due before the interval elapsed
	now = now.Add(99 * time.Millisecond)
	assert.False(t, clock.ShouldTick())

	// Due again once elapsed, and re-armed from that point
	now = now.Add(1 * time.Millisecond)
	assert.True(t, clock.ShouldTick())
	assert.False(t, clock.ShouldTick())
}

func TestFrequencyClockTickArms(t *testing.T) {
	now := time.Now()
	clock := NewFrequencyClock(10)
	clock.Now = func() time.Time { return now }

	// An out-of-gate fire counts against the next interval
	clock.Tick()
	assert.False(t, clock.ShouldTick())
	now = now.Add(100 * time.Millisecond)
	assert.True(t, clock.ShouldTick())
}
