package services

import (
	"time"

	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/models"
	"gorm.io/gorm"
)

// Services wires the domain services together. Sessions and the queue call each other
// (a stopped session promotes the queue, a promoted entry starts a session).
type Services struct {
	Sessions     *SessionService
	Bills        *BillingService
	Queue        *QueueService
	Reservations *ReservationService
	Wallets      *WalletService
}

// DefaultOpenMinutes is the projected length of a stopwatch or frame booking when checking
// it against reservations, since those modes have no booked duration.
const DefaultOpenMinutes = 60

func New(db *gorm.DB, est *billing.Estimator) *Services {
	wallets := &WalletService{db: db}
	bills := &BillingService{db: db, est: est, wallets: wallets}
	sessions := &SessionService{db: db, est: est, bills: bills}
	queue := &QueueService{db: db, est: est, sessions: sessions}
	reservations := &ReservationService{db: db, est: est, wallets: wallets}
	sessions.queue = queue
	sessions.reservations = reservations

	return &Services{
		Sessions:     sessions,
		Bills:        bills,
		Queue:        queue,
		Reservations: reservations,
		Wallets:      wallets,
	}
}

// recordChange writes an outbox row for the change monitor, inside the caller's transaction.
func recordChange(tx *gorm.DB, table string, id uint, action string) error {
	return tx.Create(&models.DBChange{
		TableName:  table,
		RecordID:   int64(id),
		ActionType: action,
		ChangedAt:  time.Now(),
	}).Error
}

// projectedMinutes is the duration used for conflict checks.
func projectedMinutes(bt billing.BookingType, durationMinutes int) int {
	if bt == billing.BookingTimer {
		return durationMinutes
	}
	return DefaultOpenMinutes
}
