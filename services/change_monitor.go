package services

import (
	"time"

	"github.com/yeremiapane/snooker-cafe/live"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/utils"
	"gorm.io/gorm"
)

// Broadcaster is the part of live.Hub the monitors publish to.
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

// ChangeMonitor drains the db_changes outbox and pushes each change to the dashboards.
type ChangeMonitor struct {
	DB        *gorm.DB
	Hub       Broadcaster
	StopChan  chan struct{}
	Interval  time.Duration
	Retention time.Duration
}

func NewChangeMonitor(db *gorm.DB, hub Broadcaster, interval time.Duration) *ChangeMonitor {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ChangeMonitor{
		DB:        db,
		Hub:       hub,
		StopChan:  make(chan struct{}),
		Interval:  interval,
		Retention: time.Hour,
	}
}

func (cm *ChangeMonitor) Start() {
	go func() {
		ticker := time.NewTicker(cm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cm.RunOnce()
			case <-cm.StopChan:
				return
			}
		}
	}()
}

func (cm *ChangeMonitor) Stop() {
	close(cm.StopChan)
}

// RunOnce processes up to 100 pending changes in order and returns how many it handled.
func (cm *ChangeMonitor) RunOnce() int {
	var changes []models.DBChange

	tx := cm.DB.Begin()
	if err := tx.Where("processed = ?", false).
		Order("id ASC").
		Limit(100).
		Find(&changes).Error; err != nil {
		tx.Rollback()
		utils.ErrorLogger.Printf("Error fetching changes: %v", err)
		return 0
	}
	if len(changes) == 0 {
		tx.Rollback()
		return 0
	}

	ids := make([]uint, 0, len(changes))
	for _, change := range changes {
		ids = append(ids, change.ID)
	}
	if err := tx.Model(&models.DBChange{}).
		Where("id IN ?", ids).
		Update("processed", true).Error; err != nil {
		tx.Rollback()
		utils.ErrorLogger.Printf("Error marking changes as processed: %v", err)
		return 0
	}
	if err := tx.Commit().Error; err != nil {
		utils.ErrorLogger.Printf("Error committing processed changes: %v", err)
		return 0
	}

	for _, change := range changes {
		utils.InfoLogger.Debugf("Processing change: table=%s, action=%s, record_id=%d",
			change.TableName, change.ActionType, change.RecordID)

		switch change.TableName {
		case "tables":
			cm.processTableChange(change)
		case "active_sessions":
			cm.processSessionChange(change)
		case "bills":
			cm.processBillChange(change)
		case "queue_entries":
			cm.processRecordChange(change, &models.QueueEntry{}, live.EventQueueUpdate)
		case "reservations":
			cm.processRecordChange(change, &models.Reservation{}, live.EventReservationUpdate)
		case "customers":
			cm.processRecordChange(change, &models.Customer{}, live.EventWalletUpdate)
		}
	}

	if cm.Retention > 0 {
		cm.DB.Where("processed = ? AND changed_at < ?", true, time.Now().Add(-cm.Retention)).
			Delete(&models.DBChange{})
	}
	return len(changes)
}

func (cm *ChangeMonitor) processTableChange(change models.DBChange) {
	var table models.Table
	if err := cm.DB.First(&table, change.RecordID).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching table %d: %v", change.RecordID, err)
		return
	}
	cm.Hub.Broadcast(live.EventTableUpdate, table)
}

func (cm *ChangeMonitor) processSessionChange(change models.DBChange) {
	var session models.ActiveSession
	if err := cm.DB.First(&session, change.RecordID).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching session %d: %v", change.RecordID, err)
		return
	}

	switch {
	case change.ActionType == models.ActionInsert:
		cm.Hub.Broadcast(live.EventSessionStart, session)
	case session.Status == models.SessionRunning:
		cm.Hub.Broadcast(live.EventSessionUpdate, session)
	default:
		cm.Hub.Broadcast(live.EventSessionStop, session)
	}
}

func (cm *ChangeMonitor) processBillChange(change models.DBChange) {
	var bill models.Bill
	if err := cm.DB.Preload("Items").First(&bill, change.RecordID).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching bill %d: %v", change.RecordID, err)
		return
	}
	if bill.AutoGenerated {
		cm.Hub.Broadcast(live.EventAutoBill, bill)
		return
	}
	cm.Hub.Broadcast(live.EventBillCreated, bill)
}

func (cm *ChangeMonitor) processRecordChange(change models.DBChange, dest interface{}, event string) {
	if err := cm.DB.First(dest, change.RecordID).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching %s %d: %v", change.TableName, change.RecordID, err)
		return
	}
	cm.Hub.Broadcast(event, dest)
}
