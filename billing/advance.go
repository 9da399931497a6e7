package billing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "CASH"
	MethodUPI    PaymentMethod = "UPI"
	MethodWallet PaymentMethod = "WALLET"
)

// ParsePaymentMethod is case-insensitive. Empty means cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodCash, MethodUPI, MethodWallet:
		return m, nil
	case "":
		return MethodCash, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// AdvancePayment is money paid against a reservation before the session starts.
type AdvancePayment struct {
	Amount float64       `json:"amount"`
	Method PaymentMethod `json:"method"`
}

// Older reservations carry the advance inside the free-text notes, e.g. "[PAID_UPI: 200]".
// ADVANCE and HALF are historical modes and map to cash.
var advanceTag = regexp.MustCompile(`\[PAID_(CASH|UPI|WALLET|ADVANCE|HALF):\s*([0-9]+(?:\.[0-9]+)?)\s*\]`)

// ParseAdvanceTag extracts the first advance tag from notes.
func ParseAdvanceTag(notes string) (AdvancePayment, bool) {
	m := advanceTag.FindStringSubmatch(notes)
	if m == nil {
		return AdvancePayment{}, false
	}
	amount, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return AdvancePayment{}, false
	}
	method := PaymentMethod(m[1])
	if method != MethodUPI && method != MethodWallet {
		method = MethodCash
	}
	return AdvancePayment{Amount: amount, Method: method}, true
}

// StripAdvanceTag removes every advance tag from notes.
func StripAdvanceTag(notes string) string {
	return strings.TrimSpace(advanceTag.ReplaceAllString(notes, ""))
}

// FormatAdvanceTag renders the legacy tag, for exports that still expect it.
func FormatAdvanceTag(a AdvancePayment) string {
	return fmt.Sprintf("[PAID_%s: %s]", a.Method, strconv.FormatFloat(a.Amount, 'f', -1, 64))
}
