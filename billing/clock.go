package billing

import "time"

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Useful for tests and for replaying a bill.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Config carries the tunables of the billing rules.
type Config struct {
	// EarlyExitSlackMinutes is how far below the booked time a timer session has to end
	// before the early-exit choice is offered.
	EarlyExitSlackMinutes int
	// ConflictGrace is how far back a pending reservation still counts as upcoming.
	ConflictGrace time.Duration
}

func DefaultConfig() Config {
	return Config{
		EarlyExitSlackMinutes: 1,
		ConflictGrace:         15 * time.Minute,
	}
}

// Estimator binds Compute to a clock and a config.
type Estimator struct {
	clock Clock
	cfg   Config
}

func NewEstimator(clock Clock, cfg Config) *Estimator {
	if clock == nil {
		clock = RealClock{}
	}
	return &Estimator{clock: clock, cfg: cfg}
}

func (e *Estimator) Now() time.Time { return e.clock.Now() }

func (e *Estimator) Config() Config { return e.cfg }

// Estimate computes the figures for s at the clock's current instant.
func (e *Estimator) Estimate(s Session, rates RateCard) Estimate {
	return Compute(s, e.clock.Now(), rates, nil)
}

// EarlyExit reports the early-exit options for s at the clock's current instant.
func (e *Estimator) EarlyExit(s Session, rates RateCard) (Options, bool) {
	return EarlyExit(s, e.clock.Now(), rates, e.cfg)
}
