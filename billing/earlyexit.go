package billing

import (
	"errors"
	"time"
)

type Choice string

const (
	ChoiceActual Choice = "actual"
	ChoiceFull   Choice = "full"
)

var ErrEarlyExitChoiceRequired = errors.New("early exit: choose actual or full billing")

// Option is one of the two ways to bill an early exit.
type Option struct {
	Choice  Choice  `json:"choice"`
	Label   string  `json:"label"`
	Minutes int     `json:"minutes"`
	Cost    float64 `json:"cost"`
}

type Options struct {
	ElapsedMinutes int    `json:"elapsed_minutes"`
	BookedMinutes  int    `json:"booked_minutes"`
	Actual         Option `json:"actual"`
	Full           Option `json:"full"`
}

// EarlyExit reports whether a timer session is ending noticeably before its booked time
// and, if so, the two billing options. Set and frame sessions never qualify.
func EarlyExit(s Session, now time.Time, rates RateCard, cfg Config) (Options, bool) {
	if s.BookingType != BookingTimer {
		return Options{}, false
	}
	elapsed := CeilMinutes(ElapsedSeconds(s.StartTime, now))
	if s.DurationMinutes <= elapsed+cfg.EarlyExitSlackMinutes {
		return Options{}, false
	}
	return Options{
		ElapsedMinutes: elapsed,
		BookedMinutes:  s.DurationMinutes,
		Actual: Option{
			Choice:  ChoiceActual,
			Label:   "Actual Time",
			Minutes: elapsed,
			Cost:    Round2(float64(elapsed) * rates.PricePerMinute),
		},
		Full: Option{
			Choice:  ChoiceFull,
			Label:   "Full Booking",
			Minutes: s.DurationMinutes,
			Cost:    Round2(float64(s.DurationMinutes) * rates.PricePerMinute),
		},
	}, true
}

// Resolve turns an explicit choice into the billing-minutes override for Compute.
// There is no default: an empty or unknown choice is an error.
func (o Options) Resolve(c Choice) (int, error) {
	switch c {
	case ChoiceActual:
		return o.Actual.Minutes, nil
	case ChoiceFull:
		return o.Full.Minutes, nil
	}
	return 0, ErrEarlyExitChoiceRequired
}
