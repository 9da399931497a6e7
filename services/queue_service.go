package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/metrics"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/scheduling"
	"github.com/yeremiapane/snooker-cafe/utils"
	"gorm.io/gorm"
)

// QueueService keeps the walk-in waiting list.
type QueueService struct {
	db       *gorm.DB
	est      *billing.Estimator
	sessions *SessionService
}

type AddQueueRequest struct {
	GameID          uint   `json:"game_id" binding:"required"`
	TableID         *uint  `json:"table_id"`
	CustomerID      *uint  `json:"customer_id"`
	CustomerName    string `json:"customer_name" binding:"required"`
	Phone           string `json:"phone"`
	BookingType     string `json:"booking_type"`
	DurationMinutes int    `json:"duration_minutes"`
	FrameCount      int    `json:"frame_count"`
	Force           bool   `json:"force"`
}

type QueueView struct {
	models.QueueEntry
	Position        int       `json:"position"`
	EstimatedFreeAt time.Time `json:"estimated_free_at"`
}

// Add puts a customer in the queue. Queueing is refused outright while a suitable table
// is free; an overlapping reservation is advisory and can be overridden with Force.
func (q *QueueService) Add(ctx context.Context, req AddQueueRequest) (*QueueView, error) {
	bt, err := billing.ParseBookingType(req.BookingType)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if bt == billing.BookingTimer && req.DurationMinutes <= 0 {
		return nil, invalid("timer booking needs duration_minutes > 0")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, invalid("customer_name is required")
	}

	db := q.db.WithContext(ctx)
	var tables []models.Table
	if err := db.Where("game_id = ?", req.GameID).Find(&tables).Error; err != nil {
		return nil, err
	}
	if err := scheduling.CheckQueueEligibility(tables, req.GameID, req.TableID); err != nil {
		switch {
		case errors.Is(err, scheduling.ErrTableNotFound):
			return nil, ErrTableNotFound
		case errors.Is(err, scheduling.ErrNoTables):
			return nil, invalid("no tables for game %d", req.GameID)
		}
		return nil, err
	}

	now := q.est.Now()
	tableID, freeAt, err := q.nextFree(ctx, tables, req.TableID)
	if err != nil {
		return nil, err
	}

	var pending []models.Reservation
	if err := db.Where("table_id = ? AND status = ?", tableID, models.ReservationPending).Find(&pending).Error; err != nil {
		return nil, err
	}
	if conflict := scheduling.FindConflict(tableID, freeAt, projectedMinutes(bt, req.DurationMinutes), now, pending, q.est.Config().ConflictGrace); conflict != nil {
		if !req.Force {
			metrics.ConflictsDetected.WithLabelValues("false").Inc()
			return nil, &ConflictError{Conflict: *conflict}
		}
		metrics.ConflictsDetected.WithLabelValues("true").Inc()
	}

	entry := models.QueueEntry{
		Token:           newQueueToken(),
		GameID:          req.GameID,
		TableID:         req.TableID,
		CustomerID:      req.CustomerID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Phone:           req.Phone,
		BookingType:     string(bt),
		DurationMinutes: req.DurationMinutes,
		FrameCount:      req.FrameCount,
		Status:          models.QueueWaiting,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("create queue entry: %w", err)
		}
		return recordChange(tx, "queue_entries", entry.ID, models.ActionInsert)
	})
	if err != nil {
		return nil, err
	}

	var ahead int64
	if err := db.Model(&models.QueueEntry{}).
		Where("game_id = ? AND status = ? AND id < ?", entry.GameID, models.QueueWaiting, entry.ID).
		Count(&ahead).Error; err != nil {
		return nil, fmt.Errorf("queue position: %w", err)
	}

	utils.InfoLogger.Printf("Queue %s added for game %d", entry.Token, entry.GameID)
	return &QueueView{QueueEntry: entry, Position: int(ahead) + 1, EstimatedFreeAt: freeAt}, nil
}

// nextFree picks the table a queued booking will most likely get and when it frees up.
func (q *QueueService) nextFree(ctx context.Context, tables []models.Table, tableID *uint) (uint, time.Time, error) {
	now := q.est.Now()
	var running []models.ActiveSession
	ids := make([]uint, 0, len(tables))
	for _, t := range tables {
		ids = append(ids, t.ID)
	}
	if err := q.db.WithContext(ctx).
		Where("table_id IN ? AND status = ?", ids, models.SessionRunning).
		Find(&running).Error; err != nil {
		return 0, time.Time{}, err
	}

	var bestID uint
	var best time.Time
	for _, s := range running {
		if tableID != nil && s.TableID != *tableID {
			continue
		}
		at := scheduling.EstimatedFreeAt(s, now)
		if bestID == 0 || at.Before(best) {
			bestID, best = s.TableID, at
		}
	}
	if bestID == 0 {
		if tableID != nil {
			return *tableID, now, nil
		}
		return tables[0].ID, now, nil
	}
	return bestID, best, nil
}

// List returns waiting entries in arrival order, optionally for one game.
func (q *QueueService) List(ctx context.Context, gameID uint) ([]QueueView, error) {
	db := q.db.WithContext(ctx).Where("status = ?", models.QueueWaiting).Order("id")
	if gameID != 0 {
		db = db.Where("game_id = ?", gameID)
	}
	var entries []models.QueueEntry
	if err := db.Find(&entries).Error; err != nil {
		return nil, err
	}

	positions := make(map[uint]int)
	views := make([]QueueView, 0, len(entries))
	for _, e := range entries {
		positions[e.GameID]++
		views = append(views, QueueView{QueueEntry: e, Position: positions[e.GameID]})
	}
	return views, nil
}

// Cancel removes a waiting entry.
func (q *QueueService) Cancel(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.QueueEntry{}).
			Where("id = ? AND status = ?", id, models.QueueWaiting).
			Update("status", models.QueueCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrQueueEntryNotFound
		}
		return recordChange(tx, "queue_entries", id, models.ActionUpdate)
	})
}

// PromoteNext starts a session for the first waiting entry that fits a freed table.
// Entries whose booking would run into a pending reservation are left waiting.
func (q *QueueService) PromoteNext(ctx context.Context, tableID uint) (*models.ActiveSession, error) {
	db := q.db.WithContext(ctx)
	var table models.Table
	if err := db.First(&table, tableID).Error; err != nil {
		return nil, err
	}
	if table.Status != models.TableAvailable {
		return nil, nil
	}

	var entries []models.QueueEntry
	err := db.Where("status = ? AND (table_id = ? OR (table_id IS NULL AND game_id = ?))",
		models.QueueWaiting, table.ID, table.GameID).
		Order("id").
		Find(&entries).Error
	if err != nil || len(entries) == 0 {
		return nil, err
	}

	var pending []models.Reservation
	if err := db.Where("table_id = ? AND status = ?", table.ID, models.ReservationPending).Find(&pending).Error; err != nil {
		return nil, err
	}

	now := q.est.Now()
	for _, e := range entries {
		bt, _ := billing.ParseBookingType(e.BookingType)
		if c := scheduling.FindConflict(table.ID, now, projectedMinutes(bt, e.DurationMinutes), now, pending, q.est.Config().ConflictGrace); c != nil {
			utils.InfoLogger.Printf("Queue %s skipped for table %d: reservation #%d due at %s",
				e.Token, table.ID, c.Reservation.ID, c.Reservation.ReservationTime.Format("15:04"))
			continue
		}

		session, err := q.sessions.Start(ctx, StartRequest{
			TableID:         table.ID,
			BookingType:     e.BookingType,
			DurationMinutes: e.DurationMinutes,
			FrameCount:      e.FrameCount,
			CustomerID:      e.CustomerID,
			CustomerName:    e.CustomerName,
			Force:           true,
			Source:          "queue",
		})
		if err != nil {
			if errors.Is(err, ErrTableBusy) {
				return nil, nil
			}
			return nil, err
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.QueueEntry{}).
				Where("id = ? AND status = ?", e.ID, models.QueueWaiting).
				Updates(map[string]interface{}{
					"status":     models.QueueAssigned,
					"table_id":   table.ID,
					"session_id": session.ID,
				})
			if res.Error != nil {
				return res.Error
			}
			return recordChange(tx, "queue_entries", e.ID, models.ActionUpdate)
		})
		if err != nil {
			return session, err
		}
		utils.InfoLogger.Printf("Queue %s promoted to table %d (session %d)", e.Token, table.ID, session.ID)
		return session, nil
	}
	return nil, nil
}

func newQueueToken() string {
	return "Q-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
}
