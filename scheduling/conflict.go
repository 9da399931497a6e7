// Package scheduling answers the two questions asked before a table is promised to someone:
// is a pending reservation about to need this table, and should this booking be queued at all.
package scheduling

import (
	"errors"
	"time"

	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/models"
)

var (
	// ErrTableAvailable means a free table must be booked directly instead of queued.
	ErrTableAvailable = errors.New("a table is free, book it directly instead of queueing")
	ErrNoTables       = errors.New("no tables for this game")
	ErrTableNotFound  = errors.New("table not found")
)

// Conflict is advisory: the caller may still proceed.
type Conflict struct {
	Reservation  models.Reservation `json:"reservation"`
	ProjectedEnd time.Time          `json:"projected_end"`
}

// FindConflict returns the earliest pending reservation for tableID that falls inside the
// projected session [start, start+duration), ignoring reservations older than now-grace.
func FindConflict(tableID uint, start time.Time, durationMinutes int, now time.Time, reservations []models.Reservation, grace time.Duration) *Conflict {
	projectedEnd := start.Add(time.Duration(max(durationMinutes, 0)) * time.Minute)
	cutoff := now.Add(-grace)

	var found *models.Reservation
	for i := range reservations {
		r := &reservations[i]
		if r.TableID != tableID || r.Status != models.ReservationPending {
			continue
		}
		if !r.ReservationTime.Before(projectedEnd) || !r.ReservationTime.After(cutoff) {
			continue
		}
		if found == nil || r.ReservationTime.Before(found.ReservationTime) {
			found = r
		}
	}
	if found == nil {
		return nil
	}
	return &Conflict{Reservation: *found, ProjectedEnd: projectedEnd}
}

// CheckQueueEligibility refuses to queue while the chosen table, or any table of the game
// when no table was chosen, is available. Occupied and maintenance tables both count as taken.
func CheckQueueEligibility(tables []models.Table, gameID uint, tableID *uint) error {
	if tableID != nil {
		for _, t := range tables {
			if t.ID == *tableID {
				if t.Status == models.TableAvailable {
					return ErrTableAvailable
				}
				return nil
			}
		}
		return ErrTableNotFound
	}

	seen := false
	for _, t := range tables {
		if t.GameID != gameID {
			continue
		}
		seen = true
		if t.Status == models.TableAvailable {
			return ErrTableAvailable
		}
	}
	if !seen {
		return ErrNoTables
	}
	return nil
}

// EstimatedFreeAt is when a running session is expected to release its table. Only timer
// sessions have a known end; the others could end at any moment.
func EstimatedFreeAt(s models.ActiveSession, now time.Time) time.Time {
	if s.BookingType != string(billing.BookingTimer) || s.StartTime.IsZero() {
		return now
	}
	end := s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
	if end.Before(now) {
		return now
	}
	return end
}
