package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/models"
	"gorm.io/gorm"
)

// WalletService handles member wallet balances. Balances are changed with a single
// UPDATE ... SET balance = balance +/- ? so concurrent payments cannot lose writes.
type WalletService struct {
	db *gorm.DB
}

// TopUp credits a wallet.
func (w *WalletService) TopUp(ctx context.Context, customerID uint, amount float64, reference string) (*models.Customer, error) {
	if amount <= 0 {
		return nil, invalid("top-up amount must be positive")
	}
	var customer models.Customer
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := credit(tx, customerID, amount, models.WalletTopUp, reference); err != nil {
			return err
		}
		return tx.First(&customer, customerID).Error
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// Transactions lists a customer's wallet history, newest first.
func (w *WalletService) Transactions(ctx context.Context, customerID uint) ([]models.WalletTransaction, error) {
	var txs []models.WalletTransaction
	err := w.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id DESC").
		Find(&txs).Error
	return txs, err
}

// debit takes amount from the wallet. Without allowNegative an underfunded wallet yields
// *InsufficientFundsError and nothing changes.
func debit(tx *gorm.DB, customerID uint, amount float64, kind, reference string, allowNegative bool) error {
	amount = billing.Round2(amount)
	if amount <= 0 {
		return nil
	}

	q := tx.Model(&models.Customer{}).Where("id = ?", customerID)
	if !allowNegative {
		q = q.Where("wallet_balance >= ?", amount)
	}
	res := q.Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var c models.Customer
		if err := tx.First(&c, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}
		return &InsufficientFundsError{Balance: c.WalletBalance, Required: amount}
	}
	return logWallet(tx, customerID, -amount, kind, reference)
}

func credit(tx *gorm.DB, customerID uint, amount float64, kind, reference string) error {
	amount = billing.Round2(amount)
	if amount <= 0 {
		return nil
	}
	res := tx.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("wallet_balance", gorm.Expr("wallet_balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCustomerNotFound
	}
	return logWallet(tx, customerID, amount, kind, reference)
}

func logWallet(tx *gorm.DB, customerID uint, amount float64, kind, reference string) error {
	var c models.Customer
	if err := tx.First(&c, customerID).Error; err != nil {
		return err
	}
	if err := tx.Create(&models.WalletTransaction{
		CustomerID: customerID,
		Amount:     amount,
		Kind:       kind,
		Reference:  reference,
		Balance:    c.WalletBalance,
	}).Error; err != nil {
		return err
	}
	return recordChange(tx, "customers", customerID, models.ActionUpdate)
}
