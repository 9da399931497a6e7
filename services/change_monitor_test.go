package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/snooker-cafe/live"
	"github.com/yeremiapane/snooker-cafe/models"
)

type recorder struct {
	mu     sync.Mutex
	events []string
	data   []interface{}
}

func (r *recorder) Broadcast(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.data = append(r.data, data)
}

func TestChangeMonitorBroadcastsOutbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hub := &recorder{}
	monitor := NewChangeMonitor(f.db, hub, time.Second)

	session, err := f.svc.Sessions.Start(ctx, StartRequest{TableID: f.tables[0].ID, BookingType: "set"})
	require.NoError(t, err)
	assert.Equal(t, 2, monitor.RunOnce())
	assert.ElementsMatch(t, []string{live.EventTableUpdate, live.EventSessionStart}, hub.events)

	// drained rows are not sent again
	assert.Zero(t, monitor.RunOnce())

	hub.events = nil
	f.clock.Advance(5 * time.Minute)
	_, err = f.svc.Sessions.Stop(ctx, StopRequest{ActiveID: session.ID})
	require.NoError(t, err)
	monitor.RunOnce()
	assert.Contains(t, hub.events, live.EventBillCreated)
	assert.Contains(t, hub.events, live.EventSessionStop)
	assert.Contains(t, hub.events, live.EventTableUpdate)

	var pending int64
	f.db.Model(&models.DBChange{}).Where("processed = ?", false).Count(&pending)
	assert.Zero(t, pending)
}

func TestChangeMonitorAutoBillEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hub := &recorder{}
	monitor := NewChangeMonitor(f.db, hub, time.Second)

	_, err := f.svc.Sessions.Start(ctx, StartRequest{TableID: f.tables[0].ID, BookingType: "timer", DurationMinutes: 5})
	require.NoError(t, err)
	f.clock.Advance(6 * time.Minute)
	require.Len(t, NewAutoBillMonitor(f.svc.Sessions, time.Second).RunOnce(ctx), 1)

	monitor.RunOnce()
	assert.Contains(t, hub.events, live.EventAutoBill)
	assert.NotContains(t, hub.events, live.EventBillCreated)
}

func TestWalletTopUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Wallets.TopUp(ctx, f.member.ID, 250, "counter")
	require.NoError(t, err)
	assert.Equal(t, 750.0, c.WalletBalance)

	_, err = f.svc.Wallets.TopUp(ctx, f.member.ID, -5, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Wallets.TopUp(ctx, 999, 10, "")
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	txs, err := f.svc.Wallets.Transactions(ctx, f.member.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 750.0, txs[0].Balance)
}

func TestCreateBillFromInputs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bill, err := f.svc.Bills.Create(ctx, CreateBillRequest{
		TableID:           f.tables[0].ID,
		BookingType:       "frame",
		FrameCount:        3,
		FrameCharges:      ptr(50.0),
		SelectedMenuItems: nil,
		AdvancePayment:    100,
	})
	require.NoError(t, err)
	assert.InDelta(t, 150.0, bill.TotalAmount, 0.001)
	assert.InDelta(t, 50.0, bill.Payable, 0.001)
	assert.Equal(t, 3, bill.FrameCount)
	assert.Regexp(t, `^BILL-20240301-[0-9A-F]{8}$`, bill.BillNumber)

	// missing rates count as zero
	bill, err = f.svc.Bills.Create(ctx, CreateBillRequest{TableID: f.tables[0].ID, BookingType: "set", SessionDuration: 30})
	require.NoError(t, err)
	assert.Equal(t, 0.0, bill.TotalAmount)
	assert.False(t, bill.FullyPaid)

	got, err := f.svc.Bills.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, bill.BillNumber, got.BillNumber)

	_, err = f.svc.Bills.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrBillNotFound)

	list, err := f.svc.Bills.List(ctx, f.tables[0].ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.svc.Bills.Create(ctx, CreateBillRequest{BookingType: "set", PaymentMethod: "WALLET", SessionDuration: 10, TablePricePerMin: ptr(1.0)})
	assert.ErrorIs(t, err, ErrCustomerRequired)
}
