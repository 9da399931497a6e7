package board

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/reconcile"
	"github.com/yeremiapane/snooker-cafe/services"
)

// entry is one running session as the board sees it.
type entry struct {
	session  models.ActiveSession
	table    models.Table
	advance  float64
	remote   reconcile.State
	local    reconcile.State
	pending  []reconcile.Op
	estimate billing.Estimate
}

// AutoBillSignal is raised once when a timer session runs out on the board.
type AutoBillSignal struct {
	SessionID uint
	TableID   uint
	TableName string
	Estimate  billing.Estimate
}

// Board holds the local view of the floor. clientID names this dashboard to the server,
// which acknowledges op sequences per client.
type Board struct {
	client   *Client
	clientID string

	mu      sync.Mutex
	tables  []models.Table
	entries map[uint]*entry // session id -> entry
	latches *billing.LatchSet
	seq     int64
}

func New(client *Client, clientID string) *Board {
	return &Board{
		client:   client,
		clientID: clientID,
		entries:  make(map[uint]*entry),
		latches:  billing.NewLatchSet(),
	}
}

// Poll refreshes tables and running sessions. Local edits the server has not acknowledged
// yet are replayed on top of the fresh snapshot.
func (b *Board) Poll(ctx context.Context) error {
	tables, err := b.client.Tables(ctx)
	if err != nil {
		return err
	}
	views, err := b.client.ActiveTables(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tables = tables
	seen := make(map[uint]bool, len(views))
	for _, v := range views {
		id := v.Session.ID
		seen[id] = true
		remote := stateOf(v.Session)

		e, ok := b.entries[id]
		if !ok {
			b.entries[id] = &entry{
				session:  v.Session,
				table:    v.Table,
				advance:  v.Estimate.AdvancePayment,
				remote:   remote,
				local:    remote,
				estimate: v.Estimate,
			}
			continue
		}
		if remote.Version < e.remote.Version {
			continue
		}
		e.session = v.Session
		e.table = v.Table
		e.advance = v.Estimate.AdvancePayment
		e.remote = remote
		e.local, e.pending = reconcile.Reconcile(e.local, remote, e.pending)
	}

	for id := range b.entries {
		if !seen[id] {
			delete(b.entries, id)
			b.latches.Forget(id)
		}
	}
	return nil
}

// Tick recomputes every estimate at now and returns the sessions that just ran out.
func (b *Board) Tick(now time.Time) []AutoBillSignal {
	b.mu.Lock()
	defer b.mu.Unlock()

	var signals []AutoBillSignal
	for id, e := range b.entries {
		rates := billing.RateCard{PricePerMinute: e.table.PricePerMinute, FrameCharge: e.table.FrameCharge}
		e.estimate = billing.Compute(snapshot(e), now, rates, nil)

		if !e.estimate.Expired {
			b.latches.Reset(id)
			continue
		}
		if b.latches.Observe(id, e.estimate) {
			signals = append(signals, AutoBillSignal{
				SessionID: id,
				TableID:   e.table.ID,
				TableName: e.table.Name,
				Estimate:  e.estimate,
			})
		}
	}
	sort.Slice(signals, func(i, j int) bool { return signals[i].TableID < signals[j].TableID })
	return signals
}

// AddMinutes extends a timer on the board right away and sends the change. When the send
// fails the edit is dropped and the board falls back to the last confirmed state.
func (b *Board) AddMinutes(ctx context.Context, sessionID uint, minutes int) error {
	b.mu.Lock()
	e, ok := b.entries[sessionID]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("session %d is not on the board", sessionID)
	}
	b.seq++
	op := reconcile.Op{Client: b.clientID, Seq: b.seq, Kind: reconcile.OpAddMinutes, Amount: minutes}
	e.local = reconcile.Apply(e.local, op)
	e.pending = append(e.pending, op)
	b.mu.Unlock()

	_, err := b.client.Patch(ctx, sessionID, services.PatchRequest{AddMinutes: minutes, ClientID: b.clientID, OpSeq: op.Seq})
	if err == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.entries[sessionID]; ok {
		e.pending = dropOp(e.pending, op.Seq)
		e.local, e.pending = reconcile.Reconcile(e.remote, e.remote, e.pending)
	}
	return err
}

// Row is one line of the printed board.
type Row struct {
	TableID    uint
	TableName  string
	Status     string
	SessionID  uint
	Customer   string
	Booking    string
	Clock      string
	GrandTotal float64
	Pending    int
}

// Rows lists every table, with session figures for the occupied ones.
func (b *Board) Rows() []Row {
	b.mu.Lock()
	defer b.mu.Unlock()

	byTable := make(map[uint]*entry, len(b.entries))
	for _, e := range b.entries {
		byTable[e.session.TableID] = e
	}

	rows := make([]Row, 0, len(b.tables))
	for _, t := range b.tables {
		row := Row{TableID: t.ID, TableName: t.Name, Status: t.Status}
		if e, ok := byTable[t.ID]; ok {
			row.Status = models.TableOccupied
			row.SessionID = e.session.ID
			row.Customer = e.session.CustomerName
			row.Booking = e.session.BookingType
			row.Clock = e.estimate.Display
			row.GrandTotal = e.estimate.GrandTotal
			row.Pending = len(e.pending)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TableID < rows[j].TableID })
	return rows
}

// Render prints the board as aligned columns.
func (b *Board) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tSTATUS\tCUSTOMER\tMODE\tCLOCK\tTOTAL\t")
	for _, r := range b.Rows() {
		if r.SessionID == 0 {
			fmt.Fprintf(tw, "%s\t%s\t\t\t\t\t\n", r.TableName, r.Status)
			continue
		}
		mark := ""
		if r.Pending > 0 {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s%s\t%.2f\t\n", r.TableName, r.Status, r.Customer, r.Booking, r.Clock, mark, r.GrandTotal)
	}
	return tw.Flush()
}

func stateOf(s models.ActiveSession) reconcile.State {
	return reconcile.State{
		SessionID:       s.ID,
		Version:         s.Version,
		Acks:            s.AppliedSeqs,
		DurationMinutes: s.DurationMinutes,
		FrameCount:      s.FrameCount,
		Cart:            s.FoodOrders,
	}
}

func snapshot(e *entry) billing.Session {
	s := e.session
	s.DurationMinutes = e.local.DurationMinutes
	s.FrameCount = e.local.FrameCount
	s.FoodOrders = e.local.Cart
	return s.Snapshot(e.advance)
}

func dropOp(ops []reconcile.Op, seq int64) []reconcile.Op {
	out := ops[:0:0]
	for _, op := range ops {
		if op.Seq != seq {
			out = append(out, op)
		}
	}
	return out
}
