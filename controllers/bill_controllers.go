package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
)

type BillController struct {
	Bills          *services.BillingService
	CurrencySymbol string
	UPIPayeeID     string
	UPIPayeeName   string
}

func NewBillController(bills *services.BillingService, currency, upiID, upiName string) *BillController {
	return &BillController{Bills: bills, CurrencySymbol: currency, UPIPayeeID: upiID, UPIPayeeName: upiName}
}

type billResponse struct {
	*models.Bill
	TotalDisplay   string `json:"total_display"`
	PayableDisplay string `json:"payable_display"`
}

func (bc *BillController) present(b *models.Bill) billResponse {
	return billResponse{
		Bill:           b,
		TotalDisplay:   utils.FormatCurrency(bc.CurrencySymbol, b.TotalAmount),
		PayableDisplay: utils.FormatCurrency(bc.CurrencySymbol, b.Payable),
	}
}

// CreateBill -> POST /bills/create with explicit figures
func (bc *BillController) CreateBill(c *gin.Context) {
	var req services.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	bill, err := bc.Bills.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Bill created successfully", bc.present(bill))
}

// GetBills -> ?table_id= &limit=
func (bc *BillController) GetBills(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	bills, err := bc.Bills.List(c.Request.Context(), queryUint(c, "table_id"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]billResponse, 0, len(bills))
	for i := range bills {
		out = append(out, bc.present(&bills[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of bills", out)
}

func (bc *BillController) GetBillByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	bill, err := bc.Bills.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill detail", bc.present(bill))
}

// GetUPIQR -> PNG QR code for the bill's payable amount
func (bc *BillController) GetUPIQR(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if bc.UPIPayeeID == "" {
		utils.RespondError(c, http.StatusServiceUnavailable, errors.New("UPI payee is not configured"))
		return
	}
	bill, err := bc.Bills.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if bill.Payable <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("bill has nothing left to pay"))
		return
	}

	png, err := qrcode.Encode(UPIPaymentURI(bc.UPIPayeeID, bc.UPIPayeeName, bill.Payable, bill.BillNumber), qrcode.Medium, 256)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// UPIPaymentURI builds the upi://pay deep link understood by UPI apps.
func UPIPaymentURI(payeeID, payeeName string, amount float64, note string) string {
	v := url.Values{}
	v.Set("pa", payeeID)
	v.Set("pn", payeeName)
	v.Set("am", fmt.Sprintf("%.2f", amount))
	v.Set("cu", "INR")
	v.Set("tn", note)
	return "upi://pay?" + v.Encode()
}
