// Package reconcile merges a polled session snapshot with mutations the dashboard has
// already applied locally but the backend has not confirmed yet.
package reconcile

import "github.com/yeremiapane/snooker-cafe/billing"

// Acks maps a dashboard's client id to the highest op sequence the server stored for it.
// Sequences are only comparable within one client.
type Acks map[string]int64

// Covers reports whether op seq from client was already stored.
func (a Acks) Covers(client string, seq int64) bool {
	return seq <= a[client]
}

// Record returns a copy of a with seq stored for client. Older sequences never lower the
// stored one.
func (a Acks) Record(client string, seq int64) Acks {
	out := make(Acks, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	if seq > out[client] {
		out[client] = seq
	}
	return out
}

// State is the mutable part of a session as seen by a dashboard.
type State struct {
	SessionID       uint         `json:"id"`
	Version         int64        `json:"version"`
	Acks            Acks         `json:"applied_seqs"`
	DurationMinutes int          `json:"duration_minutes"`
	FrameCount      int          `json:"frame_count"`
	Cart            billing.Cart `json:"food_orders"`
}

type OpKind string

const (
	OpAddMinutes OpKind = "add_minutes"
	OpAddFrames  OpKind = "add_frames"
	OpCartAdjust OpKind = "cart_adjust"
)

// Op is one local mutation. Seq increases per dashboard (Client) and is echoed back by the
// server in that client's Acks entry once the mutation is stored.
type Op struct {
	Client   string           `json:"client_id"`
	Seq      int64            `json:"seq"`
	Kind     OpKind           `json:"kind"`
	Amount   int              `json:"amount"`
	CartItem billing.CartItem `json:"cart_item,omitempty"`
}

// Apply returns s with op applied.
func Apply(s State, op Op) State {
	switch op.Kind {
	case OpAddMinutes:
		s.DurationMinutes = max(s.DurationMinutes+op.Amount, 0)
	case OpAddFrames:
		s.FrameCount = max(s.FrameCount+op.Amount, 0)
	case OpCartAdjust:
		if op.Amount > 0 {
			s.Cart = s.Cart.Add(op.CartItem, op.Amount)
		} else {
			s.Cart = s.Cart.Adjust(op.CartItem.MenuItemID, op.Amount)
		}
	}
	return s
}

// Reconcile decides what the dashboard shows after a poll.
//
// A remote snapshot older than what the dashboard already holds is discarded. Otherwise the
// remote state wins, ops the server has acknowledged for their own client are dropped and the
// rest are replayed on top of it. The returned slice is the ops still waiting for acknowledgement.
func Reconcile(local, remote State, pending []Op) (State, []Op) {
	if remote.Version < local.Version {
		return local, pending
	}

	merged := remote
	var still []Op
	for _, op := range pending {
		if remote.Acks.Covers(op.Client, op.Seq) {
			continue
		}
		merged = Apply(merged, op)
		still = append(still, op)
	}
	return merged, still
}
