package billing

import (
	"math"
	"time"
)

// Estimate is everything the dashboard shows for a running session. It is re-derived on
// every call and never written back to the session.
type Estimate struct {
	BookingType      BookingType `json:"booking_type"`
	ElapsedSeconds   int64       `json:"elapsed_seconds"`
	RemainingSeconds *int64      `json:"remaining_seconds,omitempty"`
	OvertimeSeconds  int64       `json:"overtime_seconds"`
	Expired          bool        `json:"expired"`
	Display          string      `json:"display"`
	BillingMinutes   int         `json:"billing_minutes"`
	TableCost        float64     `json:"table_cost"`
	FoodCost         float64     `json:"food_cost"`
	GrandTotal       float64     `json:"grand_total"`
	AdvancePayment   float64     `json:"advance_payment"`
	Payable          float64     `json:"payable"`
	FullyPaid        bool        `json:"fully_paid"`
}

// Compute is the pure estimator. billingMinutesOverride replaces the timer-mode billing
// minutes for one bill (the early-exit choice); it is ignored for set and frame sessions.
func Compute(s Session, now time.Time, rates RateCard, billingMinutesOverride *int) Estimate {
	est := Estimate{BookingType: s.BookingType}
	est.ElapsedSeconds = ElapsedSeconds(s.StartTime, now)

	switch s.BookingType {
	case BookingFrame:
		// elapsed is informational only
		est.Display = FormatClock(est.ElapsedSeconds, '+')

	case BookingSet:
		est.BillingMinutes = CeilMinutes(est.ElapsedSeconds)
		est.Display = FormatClock(est.ElapsedSeconds, '+')

	default:
		// timer, and anything unrecognised degrades to timer rules
		booked := int64(max(s.DurationMinutes, 0)) * 60
		remaining := booked - est.ElapsedSeconds
		if s.StartTime.IsZero() {
			remaining = booked
		}
		if remaining > 0 {
			est.RemainingSeconds = &remaining
			est.Display = FormatClock(remaining, '-')
		} else {
			zero := int64(0)
			est.RemainingSeconds = &zero
			est.Expired = true
			est.OvertimeSeconds = -remaining
			est.Display = FormatClock(est.OvertimeSeconds, '+')
		}

		est.BillingMinutes = max(s.DurationMinutes, 0)
		if billingMinutesOverride != nil {
			est.BillingMinutes = max(*billingMinutesOverride, 0)
		}
	}

	price(&est, s.BookingType, s.FrameCount, rates, s.Cart, s.AdvancePayment)
	return est
}

// Price computes the money figures for a bill whose billing minutes (or frames) are
// already known, e.g. a bill posted with explicit inputs instead of a live session.
func Price(bt BookingType, billingMinutes, frameCount int, rates RateCard, cart Cart, advance float64) Estimate {
	est := Estimate{BookingType: bt}
	if bt != BookingFrame {
		est.BillingMinutes = max(billingMinutes, 0)
	}
	price(&est, bt, frameCount, rates, cart, advance)
	return est
}

func price(est *Estimate, bt BookingType, frameCount int, rates RateCard, cart Cart, advance float64) {
	if bt == BookingFrame {
		est.TableCost = float64(max(frameCount, 0)) * rates.FrameCharge
	} else {
		est.TableCost = float64(est.BillingMinutes) * rates.PricePerMinute
	}
	est.TableCost = Round2(est.TableCost)
	est.FoodCost = Round2(cart.Total())
	est.GrandTotal = Round2(est.TableCost + est.FoodCost)
	est.AdvancePayment = Round2(math.Max(advance, 0))
	est.Payable, est.FullyPaid = Settle(est.GrandTotal, est.AdvancePayment)
}

// ElapsedSeconds is now-start floored at zero. A zero start time counts as not started.
func ElapsedSeconds(start, now time.Time) int64 {
	if start.IsZero() {
		return 0
	}
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// CeilMinutes rounds a second count up to whole minutes.
func CeilMinutes(seconds int64) int {
	if seconds <= 0 {
		return 0
	}
	return int((seconds + 59) / 60)
}

// Settle applies an advance payment to a total.
func Settle(total, advance float64) (payable float64, fullyPaid bool) {
	payable = Round2(math.Max(0, total-advance))
	return payable, advance > 0 && payable == 0
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
