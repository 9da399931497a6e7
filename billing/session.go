// Package billing turns a table session snapshot into elapsed time, remaining time and
// money figures. Nothing in here touches the database or the wall clock directly; callers
// pass the current instant (or a Clock) and the table's rate card.
package billing

import (
	"errors"
	"time"
)

type BookingType string

const (
	// BookingTimer is a fixed countdown billed for the booked minutes.
	BookingTimer BookingType = "timer"
	// BookingSet is the stopwatch mode, billed per started minute.
	BookingSet BookingType = "set"
	// BookingFrame is billed per frame played.
	BookingFrame BookingType = "frame"
)

var ErrUnknownBookingType = errors.New("unknown booking type")

// ParseBookingType accepts the three booking modes. An empty string means timer.
func ParseBookingType(s string) (BookingType, error) {
	switch BookingType(s) {
	case BookingTimer, BookingSet, BookingFrame:
		return BookingType(s), nil
	case "":
		return BookingTimer, nil
	}
	return "", ErrUnknownBookingType
}

// Session is the snapshot the estimator works on. Only one of DurationMinutes and
// FrameCount is meaningful, depending on BookingType.
type Session struct {
	BookingType     BookingType
	StartTime       time.Time
	DurationMinutes int
	FrameCount      int
	Cart            Cart
	AdvancePayment  float64
}

// RateCard holds the per-table prices.
type RateCard struct {
	PricePerMinute float64
	FrameCharge    float64
}

// NewRateCard normalizes nullable rates coming from the API; nil or negative means 0.
func NewRateCard(pricePerMinute, frameCharge *float64) RateCard {
	var rc RateCard
	if pricePerMinute != nil && *pricePerMinute > 0 {
		rc.PricePerMinute = *pricePerMinute
	}
	if frameCharge != nil && *frameCharge > 0 {
		rc.FrameCharge = *frameCharge
	}
	return rc
}
