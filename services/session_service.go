package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/metrics"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/scheduling"
	"github.com/yeremiapane/snooker-cafe/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionService runs the table session lifecycle: start, patch, estimate, stop.
type SessionService struct {
	db           *gorm.DB
	est          *billing.Estimator
	bills        *BillingService
	queue        *QueueService
	reservations *ReservationService
}

type StartRequest struct {
	TableID         uint         `json:"table_id" binding:"required"`
	BookingType     string       `json:"booking_type"`
	DurationMinutes int          `json:"duration_minutes"`
	FrameCount      int          `json:"frame_count"`
	CustomerID      *uint        `json:"customer_id"`
	CustomerName    string       `json:"customer_name"`
	FoodOrders      billing.Cart `json:"food_orders"`
	// Force starts the session even when a pending reservation overlaps it.
	Force bool `json:"force"`

	ReservationID *uint  `json:"-"`
	Source        string `json:"-"`
}

// SessionView is a session plus its live figures, as served to dashboards.
type SessionView struct {
	Session   models.ActiveSession `json:"session"`
	Table     models.Table         `json:"table"`
	Estimate  billing.Estimate     `json:"estimate"`
	EarlyExit *billing.Options     `json:"early_exit,omitempty"`
}

// Start opens a session on a free table.
func (s *SessionService) Start(ctx context.Context, req StartRequest) (*models.ActiveSession, error) {
	bt, err := billing.ParseBookingType(req.BookingType)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if bt == billing.BookingTimer && req.DurationMinutes <= 0 {
		return nil, invalid("timer booking needs duration_minutes > 0")
	}
	if req.FrameCount < 0 || req.DurationMinutes < 0 {
		return nil, invalid("negative duration or frame count")
	}
	if bt == billing.BookingFrame && req.FrameCount == 0 {
		req.FrameCount = 1
	}
	if req.Source == "" {
		req.Source = "walk_in"
	}

	db := s.db.WithContext(ctx)
	now := s.est.Now()

	var table models.Table
	if err := db.First(&table, req.TableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	if table.Status != models.TableAvailable {
		return nil, ErrTableBusy
	}

	if req.CustomerID != nil {
		var customer models.Customer
		if err := db.First(&customer, *req.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCustomerNotFound
			}
			return nil, err
		}
		if req.CustomerName == "" {
			req.CustomerName = customer.Name
		}
	}

	var pending []models.Reservation
	if err := db.Where("table_id = ? AND status = ?", table.ID, models.ReservationPending).Find(&pending).Error; err != nil {
		return nil, err
	}
	if req.ReservationID != nil {
		pending = withoutReservation(pending, *req.ReservationID)
	}
	if conflict := scheduling.FindConflict(table.ID, now, projectedMinutes(bt, req.DurationMinutes), now, pending, s.est.Config().ConflictGrace); conflict != nil {
		if !req.Force {
			metrics.ConflictsDetected.WithLabelValues("false").Inc()
			return nil, &ConflictError{Conflict: *conflict}
		}
		metrics.ConflictsDetected.WithLabelValues("true").Inc()
		utils.InfoLogger.Printf("Table %d started over reservation #%d", table.ID, conflict.Reservation.ID)
	}

	session := models.ActiveSession{
		TableID:         table.ID,
		GameID:          table.GameID,
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		ReservationID:   req.ReservationID,
		BookingType:     string(bt),
		StartTime:       now,
		DurationMinutes: req.DurationMinutes,
		FrameCount:      req.FrameCount,
		FoodOrders:      req.FoodOrders,
		Status:          models.SessionRunning,
		Version:         1,
	}
	if bt != billing.BookingTimer {
		session.DurationMinutes = 0
	}
	if bt != billing.BookingFrame {
		session.FrameCount = 0
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Table{}).
			Where("id = ? AND status = ?", table.ID, models.TableAvailable).
			Update("status", models.TableOccupied)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTableBusy
		}
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if req.ReservationID != nil {
			res := tx.Model(&models.Reservation{}).
				Where("id = ? AND status = ?", *req.ReservationID, models.ReservationPending).
				Update("status", models.ReservationActive)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrReservationClosed
			}
			if err := recordChange(tx, "reservations", *req.ReservationID, models.ActionUpdate); err != nil {
				return err
			}
		}
		if err := recordChange(tx, "tables", table.ID, models.ActionUpdate); err != nil {
			return err
		}
		return recordChange(tx, "active_sessions", session.ID, models.ActionInsert)
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsStarted.WithLabelValues(string(bt), req.Source).Inc()
	utils.InfoLogger.Printf("Session %d started on table %d (%s, source=%s)", session.ID, table.ID, bt, req.Source)
	return &session, nil
}

// Get loads one session regardless of status.
func (s *SessionService) Get(ctx context.Context, id uint) (*models.ActiveSession, error) {
	var session models.ActiveSession
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Running lists every running session with its table.
func (s *SessionService) Running(ctx context.Context) ([]models.ActiveSession, error) {
	var sessions []models.ActiveSession
	err := s.db.WithContext(ctx).
		Preload("Table").
		Where("status = ?", models.SessionRunning).
		Order("table_id").
		Find(&sessions).Error
	return sessions, err
}

// Views returns the running sessions with live estimates.
func (s *SessionService) Views(ctx context.Context) ([]SessionView, error) {
	sessions, err := s.Running(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		v, err := s.view(ctx, &sessions[i], sessions[i].Table)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// View returns one session with its live estimate.
func (s *SessionService) View(ctx context.Context, id uint) (*SessionView, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, session.TableID).Error; err != nil {
		return nil, err
	}
	return s.view(ctx, session, table)
}

func (s *SessionService) view(ctx context.Context, session *models.ActiveSession, table models.Table) (*SessionView, error) {
	advance, err := advanceFor(s.db.WithContext(ctx), session.ReservationID)
	if err != nil {
		return nil, err
	}
	snapshot := session.Snapshot(advance)
	rates := billing.RateCard{PricePerMinute: table.PricePerMinute, FrameCharge: table.FrameCharge}

	v := &SessionView{Session: *session, Table: table}
	if session.Status == models.SessionRunning {
		v.Estimate = s.est.Estimate(snapshot, rates)
		if opts, ok := s.est.EarlyExit(snapshot, rates); ok {
			v.EarlyExit = &opts
		}
	}
	return v, nil
}

type CartAdjust struct {
	MenuItemID uint `json:"menu_item_id"`
	Delta      int  `json:"delta"`
}

// PatchRequest is a set of independent field patches. Absolute fields replace, Add* and
// CartAdjust are relative. OpSeq is the sequence number of the dashboard named by ClientID;
// the session remembers the highest one per client.
type PatchRequest struct {
	DurationMinutes *int          `json:"duration_minutes"`
	FrameCount      *int          `json:"frame_count"`
	FoodOrders      *billing.Cart `json:"food_orders"`
	AddMinutes      int           `json:"add_minutes"`
	AddFrames       int           `json:"add_frames"`
	CartAdjust      []CartAdjust  `json:"cart_adjust"`
	ClientID        string        `json:"client_id"`
	OpSeq           int64         `json:"op_seq"`
}

// Patch applies field-level updates to a running session and bumps its version.
func (s *SessionService) Patch(ctx context.Context, id uint, req PatchRequest) (*models.ActiveSession, error) {
	var session models.ActiveSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if session.Status != models.SessionRunning {
			return ErrSessionNotRunning
		}

		if req.OpSeq > 0 && req.ClientID == "" {
			return invalid("op_seq needs a client_id")
		}
		if req.DurationMinutes != nil {
			if *req.DurationMinutes < 0 {
				return invalid("duration_minutes must not be negative")
			}
			session.DurationMinutes = *req.DurationMinutes
		}
		if req.AddMinutes != 0 {
			session.DurationMinutes = max(session.DurationMinutes+req.AddMinutes, 0)
		}
		if req.FrameCount != nil {
			if *req.FrameCount < 0 {
				return invalid("frame_count must not be negative")
			}
			session.FrameCount = *req.FrameCount
		}
		if req.AddFrames != 0 {
			session.FrameCount = max(session.FrameCount+req.AddFrames, 0)
		}
		if req.FoodOrders != nil {
			for _, line := range *req.FoodOrders {
				if line.Quantity < 0 || line.UnitPrice < 0 {
					return invalid("food order for menu item %d has a negative quantity or price", line.MenuItemID)
				}
			}
			session.FoodOrders = *req.FoodOrders
		}
		for _, adj := range req.CartAdjust {
			cart, err := adjustCart(tx, session.FoodOrders, adj)
			if err != nil {
				return err
			}
			session.FoodOrders = cart
		}

		session.Version++
		if req.OpSeq > 0 {
			session.AppliedSeqs = session.AppliedSeqs.Record(req.ClientID, req.OpSeq)
		}
		if err := tx.Omit(clause.Associations).Save(&session).Error; err != nil {
			return err
		}
		return recordChange(tx, "active_sessions", session.ID, models.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// adjustCart adds or removes menu items. New lines take name and price from the menu.
func adjustCart(tx *gorm.DB, cart billing.Cart, adj CartAdjust) (billing.Cart, error) {
	if adj.Delta == 0 {
		return cart, nil
	}
	if adj.Delta < 0 || cart.Quantity(adj.MenuItemID) > 0 {
		return cart.Adjust(adj.MenuItemID, adj.Delta), nil
	}

	var item models.MenuItem
	if err := tx.First(&item, adj.MenuItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}
	if !item.Available {
		return nil, invalid("%s is not available", item.Name)
	}
	return cart.Add(billing.CartItem{MenuItemID: item.ID, Name: item.Name, UnitPrice: item.Price}, adj.Delta), nil
}

type StopRequest struct {
	ActiveID      uint   `json:"active_id" binding:"required"`
	SkipBill      bool   `json:"skip_bill"`
	BillingChoice string `json:"billing_choice"`
	PaymentMethod string `json:"payment_method"`
	AllowNegative bool   `json:"allow_negative"`
}

type StopResult struct {
	Session  models.ActiveSession  `json:"session"`
	Bill     *models.Bill          `json:"bill,omitempty"`
	Promoted *models.ActiveSession `json:"promoted,omitempty"`
}

// Stop ends a session. With SkipBill the table is released without a bill (cancellation);
// otherwise a bill is produced, which for an early timer exit needs an explicit choice.
func (s *SessionService) Stop(ctx context.Context, req StopRequest) (*StopResult, error) {
	method, err := billing.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, invalid("%v", err)
	}

	result := &StopResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := runningSession(tx, req.ActiveID)
		if err != nil {
			return err
		}

		if req.SkipBill {
			if session.ReservationID != nil {
				if err := s.reservations.cancelTx(tx, *session.ReservationID, true); err != nil && !errors.Is(err, ErrReservationClosed) {
					return err
				}
			}
			result.Session = *session
			return s.end(tx, &result.Session, models.SessionReleased)
		}

		bill, err := s.bills.billSession(tx, session, sessionBill{
			choice:        billing.Choice(req.BillingChoice),
			method:        method,
			allowNegative: req.AllowNegative,
		})
		if err != nil {
			return err
		}
		result.Bill = bill
		result.Session = *session
		return s.end(tx, &result.Session, models.SessionBilled)
	})
	if err != nil {
		return nil, err
	}

	s.afterEnd(ctx, result)
	return result, nil
}

// AutoBill bills an expired timer session for its full booked time. The auto_billed flag
// is claimed with a conditional update so a session is auto-billed at most once even with
// several workers.
func (s *SessionService) AutoBill(ctx context.Context, id uint) (*models.Bill, error) {
	result := &StopResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ActiveSession{}).
			Where("id = ? AND status = ? AND auto_billed = ?", id, models.SessionRunning, false).
			Update("auto_billed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyAutoBilled
		}

		session, err := runningSession(tx, id)
		if err != nil {
			return err
		}
		bill, err := s.bills.billSession(tx, session, sessionBill{method: billing.MethodCash, auto: true})
		if err != nil {
			return err
		}
		result.Bill = bill
		result.Session = *session
		return s.end(tx, &result.Session, models.SessionBilled)
	})
	if err != nil {
		return nil, err
	}

	metrics.AutoBills.Inc()
	s.afterEnd(ctx, result)
	return result.Bill, nil
}

func runningSession(tx *gorm.DB, id uint) (*models.ActiveSession, error) {
	var session models.ActiveSession
	if err := tx.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Status != models.SessionRunning {
		return nil, ErrSessionNotRunning
	}
	return &session, nil
}

// end closes the session row and frees its table.
func (s *SessionService) end(tx *gorm.DB, session *models.ActiveSession, status string) error {
	now := s.est.Now()
	session.Status = status
	session.EndedAt = &now
	session.Version++
	if err := tx.Omit(clause.Associations).Save(session).Error; err != nil {
		return err
	}

	if status == models.SessionBilled && session.ReservationID != nil {
		err := tx.Model(&models.Reservation{}).
			Where("id = ?", *session.ReservationID).
			Update("status", models.ReservationCompleted).Error
		if err != nil {
			return err
		}
		if err := recordChange(tx, "reservations", *session.ReservationID, models.ActionUpdate); err != nil {
			return err
		}
	}

	if err := tx.Model(&models.Table{}).
		Where("id = ?", session.TableID).
		Update("status", models.TableAvailable).Error; err != nil {
		return err
	}
	if err := recordChange(tx, "tables", session.TableID, models.ActionUpdate); err != nil {
		return err
	}
	return recordChange(tx, "active_sessions", session.ID, models.ActionUpdate)
}

// afterEnd runs once the stop transaction committed: metrics, logs, queue promotion.
func (s *SessionService) afterEnd(ctx context.Context, result *StopResult) {
	if result.Bill != nil {
		observeBill(result.Bill)
	}
	metrics.SessionsStopped.WithLabelValues(result.Session.Status).Inc()
	utils.InfoLogger.Printf("Session %d on table %d ended (%s)", result.Session.ID, result.Session.TableID, result.Session.Status)

	promoted, err := s.queue.PromoteNext(ctx, result.Session.TableID)
	if err != nil {
		utils.ErrorLogger.Printf("Queue promotion for table %d failed: %v", result.Session.TableID, err)
		return
	}
	result.Promoted = promoted
}

func withoutReservation(rs []models.Reservation, id uint) []models.Reservation {
	out := rs[:0:0]
	for _, r := range rs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
