package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/metrics"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/utils"
	"gorm.io/gorm"
)

// BillingService turns sessions (or explicit figures) into persisted bills.
type BillingService struct {
	db      *gorm.DB
	est     *billing.Estimator
	wallets *WalletService
}

// CreateBillRequest mirrors POST /bills/create. Rates are nullable and default to zero.
type CreateBillRequest struct {
	TableID           uint               `json:"table_id"`
	CustomerID        *uint              `json:"customer_id"`
	BookingType       string             `json:"booking_type"`
	SessionDuration   int                `json:"session_duration"`
	TablePricePerMin  *float64           `json:"table_price_per_min"`
	FrameCharges      *float64           `json:"frame_charges"`
	FrameCount        int                `json:"frame_count"`
	SelectedMenuItems []billing.CartItem `json:"selected_menu_items"`
	AdvancePayment    float64            `json:"advance_payment"`
	PaymentMethod     string             `json:"payment_method"`
	AllowNegative     bool               `json:"allow_negative"`
}

// Create stores a bill from explicit inputs.
func (b *BillingService) Create(ctx context.Context, req CreateBillRequest) (*models.Bill, error) {
	bt, err := billing.ParseBookingType(req.BookingType)
	if err != nil {
		return nil, invalid("%v", err)
	}
	method, err := billing.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if req.SessionDuration < 0 || req.FrameCount < 0 || req.AdvancePayment < 0 {
		return nil, invalid("negative duration, frame count or advance")
	}
	for _, item := range req.SelectedMenuItems {
		if item.Quantity < 0 || item.UnitPrice < 0 {
			return nil, invalid("menu item %d has a negative quantity or price", item.MenuItemID)
		}
	}

	rates := billing.NewRateCard(req.TablePricePerMin, req.FrameCharges)
	cart := billing.Cart(req.SelectedMenuItems)
	est := billing.Price(bt, req.SessionDuration, req.FrameCount, rates, cart, req.AdvancePayment)

	bill := newBill(bt, est, rates, req.FrameCount, method, cart)
	bill.TableID = req.TableID
	bill.CustomerID = req.CustomerID

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return b.persist(tx, bill, cart, req.AllowNegative)
	})
	if err != nil {
		return nil, err
	}
	observeBill(bill)
	return bill, nil
}

// Get loads a bill with its items.
func (b *BillingService) Get(ctx context.Context, id uint) (*models.Bill, error) {
	var bill models.Bill
	if err := b.db.WithContext(ctx).Preload("Items").First(&bill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}
	return &bill, nil
}

// List returns the latest bills, optionally for one table.
func (b *BillingService) List(ctx context.Context, tableID uint, limit int) ([]models.Bill, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := b.db.WithContext(ctx).Preload("Items").Order("id DESC").Limit(limit)
	if tableID != 0 {
		q = q.Where("table_id = ?", tableID)
	}
	var bills []models.Bill
	err := q.Find(&bills).Error
	return bills, err
}

// sessionBill describes how a running session should be billed.
type sessionBill struct {
	choice        billing.Choice
	method        billing.PaymentMethod
	allowNegative bool
	auto          bool
}

// billSession computes and stores the bill for a running session inside tx. An early exit
// without a choice returns *EarlyExitError.
func (b *BillingService) billSession(tx *gorm.DB, session *models.ActiveSession, opts sessionBill) (*models.Bill, error) {
	var table models.Table
	if err := tx.First(&table, session.TableID).Error; err != nil {
		return nil, fmt.Errorf("load table %d: %w", session.TableID, err)
	}
	rates := billing.RateCard{PricePerMinute: table.PricePerMinute, FrameCharge: table.FrameCharge}

	advance, err := advanceFor(tx, session.ReservationID)
	if err != nil {
		return nil, err
	}
	snapshot := session.Snapshot(advance)
	now := b.est.Now()

	var override *int
	var choice billing.Choice
	if !opts.auto {
		if exitOpts, early := billing.EarlyExit(snapshot, now, rates, b.est.Config()); early {
			minutes, err := exitOpts.Resolve(opts.choice)
			if err != nil {
				return nil, &EarlyExitError{Options: exitOpts}
			}
			override = &minutes
			choice = opts.choice
		}
	}

	est := billing.Compute(snapshot, now, rates, override)
	bt := snapshot.BookingType
	bill := newBill(bt, est, rates, session.FrameCount, opts.method, session.FoodOrders)
	bill.SessionID = &session.ID
	bill.TableID = session.TableID
	bill.CustomerID = session.CustomerID
	bill.ReservationID = session.ReservationID
	bill.BillingChoice = string(choice)
	bill.AutoGenerated = opts.auto

	if err := b.persist(tx, bill, session.FoodOrders, opts.allowNegative); err != nil {
		return nil, err
	}
	return bill, nil
}

func newBill(bt billing.BookingType, est billing.Estimate, rates billing.RateCard, frames int, method billing.PaymentMethod, cart billing.Cart) *models.Bill {
	bill := &models.Bill{
		BookingType:      string(bt),
		SessionDuration:  est.BillingMinutes,
		TablePricePerMin: rates.PricePerMinute,
		FrameCharges:     rates.FrameCharge,
		TableCharges:     est.TableCost,
		FoodCharges:      est.FoodCost,
		TotalAmount:      est.GrandTotal,
		AdvancePayment:   est.AdvancePayment,
		Payable:          est.Payable,
		FullyPaid:        est.FullyPaid,
		PaymentMethod:    string(method),
	}
	if bt == billing.BookingFrame {
		bill.FrameCount = frames
	}
	for _, line := range cart {
		if line.Quantity <= 0 {
			continue
		}
		bill.Items = append(bill.Items, models.BillItem{
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
			Subtotal:   billing.Round2(line.UnitPrice * float64(line.Quantity)),
		})
	}
	return bill
}

// persist writes the bill and its items, takes stock out of inventory and charges the
// wallet when paying by wallet.
func (b *BillingService) persist(tx *gorm.DB, bill *models.Bill, cart billing.Cart, allowNegative bool) error {
	bill.BillNumber = newBillNumber(b.est)
	if err := tx.Create(bill).Error; err != nil {
		return fmt.Errorf("create bill: %w", err)
	}

	for _, line := range cart {
		if line.Quantity <= 0 || line.MenuItemID == 0 {
			continue
		}
		err := tx.Model(&models.MenuItem{}).
			Where("id = ?", line.MenuItemID).
			Update("stock", gorm.Expr("CASE WHEN stock >= ? THEN stock - ? ELSE 0 END", line.Quantity, line.Quantity)).Error
		if err != nil {
			return fmt.Errorf("update stock for menu item %d: %w", line.MenuItemID, err)
		}
	}

	if bill.PaymentMethod == string(billing.MethodWallet) && bill.Payable > 0 {
		if bill.CustomerID == nil {
			return ErrCustomerRequired
		}
		if err := debit(tx, *bill.CustomerID, bill.Payable, models.WalletBill, bill.BillNumber, allowNegative); err != nil {
			return err
		}
	}

	return recordChange(tx, "bills", bill.ID, models.ActionInsert)
}

// observeBill runs after the bill's transaction committed.
func observeBill(bill *models.Bill) {
	metrics.BillsCreated.WithLabelValues(bill.BookingType, bill.PaymentMethod).Inc()
	metrics.BilledAmount.Add(bill.TotalAmount)
	utils.InfoLogger.WithField("bill", bill.BillNumber).
		Printf("Bill created: table=%d total=%.2f payable=%.2f", bill.TableID, bill.TotalAmount, bill.Payable)
}

func newBillNumber(est *billing.Estimator) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("BILL-%s-%s", est.Now().Format("20060102"), id)
}

// advanceFor is the advance paid against the reservation a session came from.
func advanceFor(tx *gorm.DB, reservationID *uint) (float64, error) {
	if reservationID == nil {
		return 0, nil
	}
	var r models.Reservation
	if err := tx.First(&r, *reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return r.AdvanceAmount, nil
}
