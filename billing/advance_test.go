package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdvanceTag(t *testing.T) {
	tests := []struct {
		notes  string
		want   AdvancePayment
		wantOK bool
	}{
		{"birthday party [PAID_UPI: 200]", AdvancePayment{Amount: 200, Method: MethodUPI}, true},
		{"[PAID_WALLET:150.50]", AdvancePayment{Amount: 150.5, Method: MethodWallet}, true},
		{"[PAID_CASH: 100] corner table", AdvancePayment{Amount: 100, Method: MethodCash}, true},
		{"[PAID_ADVANCE: 300]", AdvancePayment{Amount: 300, Method: MethodCash}, true},
		{"[PAID_HALF: 250]", AdvancePayment{Amount: 250, Method: MethodCash}, true},
		{"paid 200 by upi", AdvancePayment{}, false},
		{"[PAID_CARD: 10]", AdvancePayment{}, false},
		{"", AdvancePayment{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseAdvanceTag(tt.notes)
		assert.Equal(t, tt.wantOK, ok, tt.notes)
		assert.Equal(t, tt.want, got, tt.notes)
	}
}

func TestAdvanceTagFormatAndStrip(t *testing.T) {
	tag := FormatAdvanceTag(AdvancePayment{Amount: 120.5, Method: MethodUPI})
	assert.Equal(t, "[PAID_UPI: 120.5]", tag)

	got, ok := ParseAdvanceTag("window seat " + tag)
	require.True(t, ok)
	assert.Equal(t, 120.5, got.Amount)

	assert.Equal(t, "window seat", StripAdvanceTag("window seat "+tag))
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("upi")
	require.NoError(t, err)
	assert.Equal(t, MethodUPI, m)

	m, err = ParsePaymentMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodCash, m)

	_, err = ParsePaymentMethod("card")
	assert.Error(t, err)
}
