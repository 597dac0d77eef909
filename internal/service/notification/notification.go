// Package notification turns domain events into emails.
package notification

import (
	"context"
	"slices"
	"sync"
)

// Kind identifies the event that triggers a notification.
type Kind string

const (
	KindItemApproved     Kind = "item_approved"
	KindItemRejected     Kind = "item_rejected"
	KindLotteryWon       Kind = "lottery_won"
	KindLotteryLost      Kind = "lottery_lost"
	KindPaymentSubmitted Kind = "payment_submitted"
	KindPaymentApproved  Kind = "payment_approved"
	KindPaymentRejected  Kind = "payment_rejected"
	KindItemShipped      Kind = "item_shipped"
)

// Event carries what a template needs to describe a state change.
type Event struct {
	Kind           Kind
	UserIDs        []string
	NotifyAdmin    bool
	ItemID         string
	ItemTitle      string
	PaymentID      string
	Amount         int64
	Note           string
	TrackingNumber string
}

// Notifier delivers events. Implementations never fail the caller: delivery
// problems are logged and counted.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Nop drops every event.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, Event) {}

// Recorder keeps events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify records ev.
func (r *Recorder) Notify(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.UserIDs = slices.Clone(ev.UserIDs)
	r.events = append(r.events, ev)
}

// Events returns the recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// OfKind returns the recorded events of kind k.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

var (
	_ Notifier = Nop{}
	_ Notifier = (*Recorder)(nil)
)
