package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/snooker-cafe/billing"
)

func TestReconcileReplaysUnacknowledged(t *testing.T) {
	local := State{SessionID: 1, Version: 3, Acks: Acks{"desk": 1}, DurationMinutes: 70}
	pending := []Op{
		{Client: "desk", Seq: 2, Kind: OpAddMinutes, Amount: 5},
		{Client: "desk", Seq: 3, Kind: OpAddMinutes, Amount: 5},
	}
	// server applied op 2 but not op 3 yet
	remote := State{SessionID: 1, Version: 4, Acks: Acks{"desk": 2}, DurationMinutes: 65}

	merged, still := Reconcile(local, remote, pending)
	assert.Equal(t, 70, merged.DurationMinutes)
	assert.Equal(t, int64(4), merged.Version)
	assert.Equal(t, []Op{{Client: "desk", Seq: 3, Kind: OpAddMinutes, Amount: 5}}, still)
}

func TestReconcileIgnoresStaleSnapshot(t *testing.T) {
	local := State{SessionID: 1, Version: 5, DurationMinutes: 90}
	pending := []Op{{Seq: 7, Kind: OpAddMinutes, Amount: 30}}
	remote := State{SessionID: 1, Version: 4, DurationMinutes: 60}

	merged, still := Reconcile(local, remote, pending)
	assert.Equal(t, local, merged)
	assert.Equal(t, pending, still)
}

func TestReconcileAllAcknowledged(t *testing.T) {
	local := State{Version: 2, FrameCount: 4}
	pending := []Op{{Client: "desk", Seq: 1, Kind: OpAddFrames, Amount: 1}}
	remote := State{Version: 3, Acks: Acks{"desk": 1}, FrameCount: 4}

	merged, still := Reconcile(local, remote, pending)
	assert.Equal(t, remote, merged)
	assert.Empty(t, still)
}

func TestReconcileRemoteChangeFromElsewhere(t *testing.T) {
	// another dashboard added food; ours added a frame that is not acknowledged yet
	tea := billing.CartItem{MenuItemID: 3, Name: "Tea", UnitPrice: 20}
	local := State{Version: 2, FrameCount: 3}
	pending := []Op{{Seq: 1, Kind: OpAddFrames, Amount: 1}}
	remote := State{Version: 3, FrameCount: 2, Cart: billing.Cart{}.Add(tea, 1)}

	merged, still := Reconcile(local, remote, pending)
	assert.Equal(t, 3, merged.FrameCount)
	assert.Equal(t, 1, merged.Cart.Quantity(3))
	assert.Len(t, still, 1)
}

func TestReconcileAcksArePerClient(t *testing.T) {
	// the bar dashboard is far ahead in its own numbering; the desk's op 3 is still in flight
	local := State{Version: 2, Acks: Acks{"desk": 2}, DurationMinutes: 65}
	pending := []Op{{Client: "desk", Seq: 3, Kind: OpAddMinutes, Amount: 5}}
	remote := State{Version: 3, Acks: Acks{"desk": 2, "bar": 10}, DurationMinutes: 70}

	merged, still := Reconcile(local, remote, pending)
	assert.Equal(t, 75, merged.DurationMinutes)
	assert.Equal(t, pending, still)
}

func TestAcksRecord(t *testing.T) {
	acks := Acks{"desk": 3}
	next := acks.Record("desk", 1).Record("bar", 7)
	assert.Equal(t, Acks{"desk": 3, "bar": 7}, next)
	assert.Equal(t, Acks{"desk": 3}, acks)
	assert.True(t, next.Covers("bar", 7))
	assert.False(t, next.Covers("tv", 1))
}

func TestApplyCart(t *testing.T) {
	tea := billing.CartItem{MenuItemID: 3, Name: "Tea", UnitPrice: 20}
	s := Apply(State{}, Op{Kind: OpCartAdjust, Amount: 2, CartItem: tea})
	assert.Equal(t, 2, s.Cart.Quantity(3))
	s = Apply(s, Op{Kind: OpCartAdjust, Amount: -2, CartItem: tea})
	assert.Empty(t, s.Cart)

	s = Apply(State{DurationMinutes: 5}, Op{Kind: OpAddMinutes, Amount: -10})
	assert.Equal(t, 0, s.DurationMinutes)
}
