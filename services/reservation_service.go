package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/metrics"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/scheduling"
	"github.com/yeremiapane/snooker-cafe/utils"
	"gorm.io/gorm"
)

// ReservationService books tables ahead of time and holds their advance payments.
type ReservationService struct {
	db      *gorm.DB
	est     *billing.Estimator
	wallets *WalletService
}

type CreateReservationRequest struct {
	TableID         uint      `json:"table_id" binding:"required"`
	CustomerID      *uint     `json:"customer_id"`
	CustomerName    string    `json:"customer_name"`
	Phone           string    `json:"phone"`
	ReservationTime time.Time `json:"reservation_time" binding:"required"`
	DurationMinutes int       `json:"duration_minutes"`
	BookingType     string    `json:"booking_type"`
	Notes           string    `json:"notes"`
	AdvanceAmount   float64   `json:"advance_amount"`
	AdvanceMethod   string    `json:"advance_method"`
	AllowNegative   bool      `json:"allow_negative"`
	Force           bool      `json:"force"`
}

// Create stores a pending reservation. A legacy advance tag in the notes is moved into the
// structured advance fields; a WALLET advance is taken from the customer's wallet.
func (r *ReservationService) Create(ctx context.Context, req CreateReservationRequest) (*models.Reservation, error) {
	bt, err := billing.ParseBookingType(req.BookingType)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if req.DurationMinutes < 0 || req.AdvanceAmount < 0 {
		return nil, invalid("negative duration or advance")
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = DefaultOpenMinutes
	}

	db := r.db.WithContext(ctx)
	var table models.Table
	if err := db.First(&table, req.TableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
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
		if req.Phone == "" {
			req.Phone = customer.Phone
		}
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, invalid("customer_name is required")
	}

	res := models.Reservation{
		TableID:         table.ID,
		CustomerID:      req.CustomerID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Phone:           req.Phone,
		ReservationTime: req.ReservationTime,
		DurationMinutes: req.DurationMinutes,
		BookingType:     string(bt),
		Status:          models.ReservationPending,
		Notes:           req.Notes,
		AdvanceAmount:   billing.Round2(req.AdvanceAmount),
		AdvanceMethod:   req.AdvanceMethod,
	}
	res.NormalizeAdvance()
	if res.AdvanceAmount > 0 {
		method, err := billing.ParsePaymentMethod(res.AdvanceMethod)
		if err != nil {
			return nil, invalid("%v", err)
		}
		res.AdvanceMethod = string(method)
	} else {
		res.AdvanceMethod = ""
	}
	if res.AdvanceMethod == string(billing.MethodWallet) && res.CustomerID == nil {
		return nil, ErrCustomerRequired
	}

	var pending []models.Reservation
	if err := db.Where("table_id = ? AND status = ?", table.ID, models.ReservationPending).Find(&pending).Error; err != nil {
		return nil, err
	}
	if conflict := r.overlap(res, pending); conflict != nil {
		if !req.Force {
			metrics.ConflictsDetected.WithLabelValues("false").Inc()
			return nil, &ConflictError{Conflict: *conflict}
		}
		metrics.ConflictsDetected.WithLabelValues("true").Inc()
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&res).Error; err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		if res.AdvanceMethod == string(billing.MethodWallet) {
			ref := fmt.Sprintf("RES-%d", res.ID)
			if err := debit(tx, *res.CustomerID, res.AdvanceAmount, models.WalletAdvance, ref, req.AllowNegative); err != nil {
				return err
			}
		}
		return recordChange(tx, "reservations", res.ID, models.ActionInsert)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Reservation #%d for table %d at %s (advance %.2f %s)",
		res.ID, res.TableID, res.ReservationTime.Format(time.RFC3339), res.AdvanceAmount, res.AdvanceMethod)
	return &res, nil
}

// overlap checks a new reservation against the pending ones in both directions: a later
// one that starts inside the new window, or an earlier one still running when it starts.
func (r *ReservationService) overlap(res models.Reservation, pending []models.Reservation) *scheduling.Conflict {
	bt, _ := billing.ParseBookingType(res.BookingType)
	now := r.est.Now()
	grace := r.est.Config().ConflictGrace

	var later, earlier []models.Reservation
	for _, p := range pending {
		if p.ReservationTime.Before(res.ReservationTime) {
			earlier = append(earlier, p)
		} else {
			later = append(later, p)
		}
	}
	if c := scheduling.FindConflict(res.TableID, res.ReservationTime, projectedMinutes(bt, res.DurationMinutes), now, later, grace); c != nil {
		return c
	}
	for _, p := range earlier {
		pbt, _ := billing.ParseBookingType(p.BookingType)
		if c := scheduling.FindConflict(p.TableID, p.ReservationTime, projectedMinutes(pbt, p.DurationMinutes), now, []models.Reservation{res}, grace); c != nil {
			return &scheduling.Conflict{Reservation: p, ProjectedEnd: c.ProjectedEnd}
		}
	}
	return nil
}

// Get loads one reservation.
func (r *ReservationService) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).First(&res, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// List returns reservations by time, filtered by status and table when given.
func (r *ReservationService) List(ctx context.Context, status string, tableID uint) ([]models.Reservation, error) {
	q := r.db.WithContext(ctx).Order("reservation_time")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if tableID != 0 {
		q = q.Where("table_id = ?", tableID)
	}
	var out []models.Reservation
	err := q.Find(&out).Error
	return out, err
}

// Cancel cancels a pending reservation and refunds a wallet advance.
func (r *ReservationService) Cancel(ctx context.Context, id uint) (*models.Reservation, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.cancelTx(tx, id, false)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// cancelTx cancels inside the caller's transaction. allowActive also cancels a reservation
// whose session already started, used when that session is released without a bill.
func (r *ReservationService) cancelTx(tx *gorm.DB, id uint, allowActive bool) error {
	var res models.Reservation
	if err := tx.First(&res, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		return err
	}

	statuses := []string{models.ReservationPending}
	if allowActive {
		statuses = append(statuses, models.ReservationActive)
	}
	upd := tx.Model(&models.Reservation{}).
		Where("id = ? AND status IN ?", id, statuses).
		Update("status", models.ReservationCancelled)
	if upd.Error != nil {
		return upd.Error
	}
	if upd.RowsAffected == 0 {
		return ErrReservationClosed
	}

	if res.AdvanceMethod == string(billing.MethodWallet) && res.AdvanceAmount > 0 && res.CustomerID != nil {
		if err := credit(tx, *res.CustomerID, res.AdvanceAmount, models.WalletRefund, fmt.Sprintf("RES-%d", res.ID)); err != nil {
			return err
		}
	}
	return recordChange(tx, "reservations", res.ID, models.ActionUpdate)
}

type CheckConflictRequest struct {
	TableID         uint       `json:"table_id" binding:"required"`
	Start           *time.Time `json:"start"`
	DurationMinutes int        `json:"duration_minutes"`
	BookingType     string     `json:"booking_type"`
}

// CheckConflict runs the conflict check without booking anything. A nil result means no
// pending reservation is in the way.
func (r *ReservationService) CheckConflict(ctx context.Context, req CheckConflictRequest) (*scheduling.Conflict, error) {
	bt, err := billing.ParseBookingType(req.BookingType)
	if err != nil {
		return nil, invalid("%v", err)
	}
	now := r.est.Now()
	start := now
	if req.Start != nil {
		start = *req.Start
	}

	var pending []models.Reservation
	if err := r.db.WithContext(ctx).
		Where("table_id = ? AND status = ?", req.TableID, models.ReservationPending).
		Find(&pending).Error; err != nil {
		return nil, err
	}
	return scheduling.FindConflict(req.TableID, start, projectedMinutes(bt, req.DurationMinutes), now, pending, r.est.Config().ConflictGrace), nil
}

// Due lists pending reservations whose time has come and that are still inside the grace
// window. Older ones are left for staff to resolve.
func (r *ReservationService) Due(ctx context.Context) ([]models.Reservation, error) {
	now := r.est.Now()
	var out []models.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND reservation_time <= ? AND reservation_time > ?",
			models.ReservationPending, now, now.Add(-r.est.Config().ConflictGrace)).
		Order("reservation_time").
		Find(&out).Error
	return out, err
}
