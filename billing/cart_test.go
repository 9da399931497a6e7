package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCartAddMerges(t *testing.T) {
	tea := CartItem{MenuItemID: 7, Name: "Tea", UnitPrice: 15}
	c := Cart{}.Add(tea, 1).Add(tea, 2)
	assert.Len(t, c, 1)
	assert.Equal(t, 3, c.Quantity(7))
	assert.InDelta(t, 45.0, c.Total(), 0.001)
}

func TestCartAdjustRemovesAtZero(t *testing.T) {
	c := Cart{{MenuItemID: 1, Name: "Chips", UnitPrice: 30, Quantity: 1}}
	c = c.Adjust(1, -1)
	assert.Empty(t, c)
	assert.Equal(t, 0.0, c.Total())
}

func TestCartDoesNotMutateReceiver(t *testing.T) {
	orig := Cart{{MenuItemID: 1, Name: "Chips", UnitPrice: 30, Quantity: 2}}
	_ = orig.Adjust(1, 5)
	_ = orig.Add(CartItem{MenuItemID: 2, UnitPrice: 10}, 1)
	assert.Equal(t, 2, orig[0].Quantity)
	assert.Len(t, orig, 1)
}

func TestCartRoundTrip(t *testing.T) {
	orig := Cart{
		{MenuItemID: 1, Name: "Tea", UnitPrice: 15, Quantity: 2},
		{MenuItemID: 2, Name: "Sandwich", UnitPrice: 80, Quantity: 1},
	}
	s := Session{BookingType: BookingSet, StartTime: t0, Cart: orig}
	before := Compute(s, t0.Add(time.Minute), RateCard{}, nil).FoodCost

	edited := orig.Adjust(2, 3).Adjust(2, -3)
	assert.Equal(t, orig, edited)

	s.Cart = edited
	assert.Equal(t, before, Compute(s, t0.Add(time.Minute), RateCard{}, nil).FoodCost)
}

func TestCartIgnoresBadLines(t *testing.T) {
	c := Cart{
		{MenuItemID: 1, UnitPrice: -5, Quantity: 2},
		{MenuItemID: 2, UnitPrice: 10, Quantity: 0},
		{MenuItemID: 3, UnitPrice: 10, Quantity: 1},
	}
	assert.InDelta(t, 10.0, c.Total(), 0.001)
}
