package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAutoBillFiresOnce(t *testing.T) {
	s := Session{BookingType: BookingTimer, StartTime: t0, DurationMinutes: 1}
	var latch AutoBillLatch

	fired := 0
	for sec := 0; sec <= 120; sec++ {
		if latch.Observe(Compute(s, t0.Add(time.Duration(sec)*time.Second), RateCard{}, nil)) {
			fired++
			assert.Equal(t, 60, sec)
		}
	}
	assert.Equal(t, 1, fired)
	assert.True(t, latch.Fired())
}

func TestAutoBillIgnoresOtherModes(t *testing.T) {
	var latch AutoBillLatch
	est := Compute(Session{BookingType: BookingSet, StartTime: t0}, t0.Add(time.Hour), RateCard{}, nil)
	assert.False(t, latch.Observe(est))
}

func TestLatchSetReset(t *testing.T) {
	set := NewLatchSet()
	s := Session{BookingType: BookingTimer, StartTime: t0, DurationMinutes: 1}
	expired := Compute(s, t0.Add(2*time.Minute), RateCard{}, nil)

	assert.True(t, set.Observe(1, expired))
	assert.False(t, set.Observe(1, expired))
	assert.True(t, set.Observe(2, expired))

	set.Reset(1)
	assert.True(t, set.Observe(1, expired))

	set.Arm(3)
	assert.False(t, set.Observe(3, expired))

	set.Forget(1)
	assert.True(t, set.Observe(1, expired))
}
