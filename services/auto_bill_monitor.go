package services

import (
	"context"
	"errors"
	"time"

	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/metrics"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/utils"
)

// AutoBillMonitor bills timer sessions when their booked time runs out. The in-memory
// latch makes each session fire once per process; the auto_billed column makes it once
// across processes.
type AutoBillMonitor struct {
	Sessions *SessionService
	Latches  *billing.LatchSet
	StopChan chan struct{}
	Interval time.Duration
}

func NewAutoBillMonitor(sessions *SessionService, interval time.Duration) *AutoBillMonitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &AutoBillMonitor{
		Sessions: sessions,
		Latches:  billing.NewLatchSet(),
		StopChan: make(chan struct{}),
		Interval: interval,
	}
}

func (m *AutoBillMonitor) Start() {
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

func (m *AutoBillMonitor) Stop() {
	close(m.StopChan)
}

// RunOnce scans running sessions and returns the bills it produced.
func (m *AutoBillMonitor) RunOnce(ctx context.Context) []*models.Bill {
	sessions, err := m.Sessions.Running(ctx)
	if err != nil {
		utils.ErrorLogger.Printf("Auto-bill scan failed: %v", err)
		return nil
	}
	metrics.RunningSessions.Set(float64(len(sessions)))

	var bills []*models.Bill
	for _, s := range sessions {
		if s.BookingType != string(billing.BookingTimer) {
			continue
		}
		if s.AutoBilled {
			m.Latches.Arm(s.ID)
			continue
		}

		rates := billing.RateCard{PricePerMinute: s.Table.PricePerMinute, FrameCharge: s.Table.FrameCharge}
		est := m.Sessions.est.Estimate(s.Snapshot(0), rates)
		if !est.Expired {
			// time may have been added since the last tick
			m.Latches.Reset(s.ID)
			continue
		}
		if !m.Latches.Observe(s.ID, est) {
			continue
		}

		bill, err := m.Sessions.AutoBill(ctx, s.ID)
		if err != nil {
			if errors.Is(err, ErrAlreadyAutoBilled) || errors.Is(err, ErrSessionNotRunning) {
				continue
			}
			utils.ErrorLogger.WithField("session", s.ID).Printf("Auto-bill failed: %v", err)
			m.Latches.Forget(s.ID)
			continue
		}
		utils.InfoLogger.WithField("session", s.ID).
			Printf("Auto-billed table %d after %d minutes: %s", s.TableID, s.DurationMinutes, bill.BillNumber)
		m.Latches.Forget(s.ID)
		bills = append(bills, bill)
	}
	return bills
}
