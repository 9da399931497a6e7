package services

import (
	"context"
	"time"

	"github.com/yeremiapane/snooker-cafe/metrics"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/utils"
)

// ReservationMonitor starts sessions for reservations whose time has come, as long as
// their table is free.
type ReservationMonitor struct {
	Reservations *ReservationService
	Sessions     *SessionService
	StopChan     chan struct{}
	Interval     time.Duration
}

func NewReservationMonitor(reservations *ReservationService, sessions *SessionService, interval time.Duration) *ReservationMonitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &ReservationMonitor{
		Reservations: reservations,
		Sessions:     sessions,
		StopChan:     make(chan struct{}),
		Interval:     interval,
	}
}

func (m *ReservationMonitor) Start() {
	go func() {
		ticker := time.NewTicker(m.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.RunOnce(context.Background())
			case <-m.StopChan:
				return
			}
		}
	}()
}

func (m *ReservationMonitor) Stop() {
	close(m.StopChan)
}

// RunOnce starts every due reservation it can and returns the new sessions.
func (m *ReservationMonitor) RunOnce(ctx context.Context) []*models.ActiveSession {
	due, err := m.Reservations.Due(ctx)
	if err != nil {
		utils.ErrorLogger.Printf("Reservation scan failed: %v", err)
		return nil
	}

	var started []*models.ActiveSession
	for _, r := range due {
		id := r.ID
		session, err := m.Sessions.Start(ctx, StartRequest{
			TableID:         r.TableID,
			BookingType:     r.BookingType,
			DurationMinutes: r.DurationMinutes,
			CustomerID:      r.CustomerID,
			CustomerName:    r.CustomerName,
			ReservationID:   &id,
			Force:           true,
			Source:          "reservation",
		})
		if err != nil {
			// an occupied table keeps the reservation pending until it frees up
			utils.InfoLogger.Debugf("Reservation #%d not started: %v", r.ID, err)
			continue
		}
		metrics.ReservationsTriggered.Inc()
		utils.InfoLogger.Printf("Reservation #%d started session %d on table %d", r.ID, session.ID, r.TableID)
		started = append(started, session)
	}
	return started
}
