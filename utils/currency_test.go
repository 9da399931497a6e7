package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "₹0.00"},
		{999, "₹999.00"},
		{1000, "₹1,000.00"},
		{123456.789, "₹1,23,456.79"},
		{1234567.5, "₹12,34,567.50"},
		{-250, "-₹250.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency("₹", tt.amount))
	}
}
