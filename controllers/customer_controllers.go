package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
	"gorm.io/gorm"
)

type CustomerController struct {
	DB             *gorm.DB
	Wallets        *services.WalletService
	CurrencySymbol string
}

func NewCustomerController(db *gorm.DB, wallets *services.WalletService, currency string) *CustomerController {
	return &CustomerController{DB: db, Wallets: wallets, CurrencySymbol: currency}
}

// GetAllCustomers -> ?q= matches name or phone
func (cc *CustomerController) GetAllCustomers(c *gin.Context) {
	q := cc.DB.Order("name")
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		like := "%" + term + "%"
		q = q.Where("name LIKE ? OR phone LIKE ?", like, like)
	}
	var customers []models.Customer
	if err := q.Find(&customers).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of customers", customers)
}

func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var existing int64
	if err := cc.DB.Model(&models.Customer{}).Where("phone = ?", req.Phone).Count(&existing).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to check customer phone: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if existing > 0 {
		utils.RespondError(c, http.StatusConflict, errors.New("a customer with this phone already exists"))
		return
	}

	customer := models.Customer{Name: strings.TrimSpace(req.Name), Phone: strings.TrimSpace(req.Phone)}
	if err := cc.DB.Create(&customer).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.Printf("Customer created: %s", customer.Name)
	utils.RespondJSON(c, http.StatusCreated, "Customer created successfully", customer)
}

func (cc *CustomerController) GetCustomerByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var customer models.Customer
	if err := cc.DB.First(&customer, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, services.ErrCustomerNotFound)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer detail", customer)
}

// TopUpWallet -> POST /customers/:id/wallet/topup
func (cc *CustomerController) TopUpWallet(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Amount    float64 `json:"amount" binding:"required"`
		Reference string  `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	customer, err := cc.Wallets.TopUp(c.Request.Context(), id, req.Amount, req.Reference)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Wallet of customer %d topped up by %s", id, utils.FormatCurrency(cc.CurrencySymbol, req.Amount))
	utils.RespondJSON(c, http.StatusOK, "Wallet topped up", customer)
}

// GetWallet -> balance plus history
func (cc *CustomerController) GetWallet(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var customer models.Customer
	if err := cc.DB.First(&customer, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, services.ErrCustomerNotFound)
		return
	}
	txs, err := cc.Wallets.Transactions(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Wallet", gin.H{
		"customer":        customer,
		"balance":         customer.WalletBalance,
		"balance_display": utils.FormatCurrency(cc.CurrencySymbol, customer.WalletBalance),
		"transactions":    txs,
	})
}
