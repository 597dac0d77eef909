package notification

import (
	"context"
	"errors"
	"testing"
	"time"
)

// gated blocks every delivery until release is closed.
type gated struct {
	release chan struct{}
	rec     Recorder
	ctxErr  chan error
}

func newGated() *gated {
	return &gated{release: make(chan struct{}), ctxErr: make(chan error, 16)}
}

func (g *gated) Notify(ctx context.Context, ev Event) {
	<-g.release
	g.ctxErr <- ctx.Err()
	g.rec.Notify(ctx, ev)
}

func TestDispatcherDoesNotBlockCaller(t *testing.T) {
	g := newGated()
	d := NewDispatcher(g, 1, 4)

	done := make(chan struct{})
	go func() {
		d.Notify(context.Background(), Event{Kind: KindItemApproved, ItemID: "item-1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a slow notifier")
	}

	close(g.release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := g.rec.Events(); len(got) != 1 || got[0].ItemID != "item-1" {
		t.Fatalf("unexpected deliveries %+v", got)
	}
}

func TestDispatcherOutlivesRequestContext(t *testing.T) {
	g := newGated()
	d := NewDispatcher(g, 1, 4)

	ctx, cancel := context.WithCancel(context.Background())
	d.Notify(ctx, Event{Kind: KindLotteryWon, UserIDs: []string{"u1"}})
	cancel()
	close(g.release)

	if err := <-g.ctxErr; err != nil {
		t.Fatalf("delivery saw canceled context: %v", err)
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	rec := &Recorder{}
	d := NewDispatcher(rec, 2, 16)
	for range 10 {
		d.Notify(context.Background(), Event{Kind: KindItemShipped})
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := len(rec.Events()); n != 10 {
		t.Fatalf("expected 10 deliveries, got %d", n)
	}

	d.Notify(context.Background(), Event{Kind: KindItemShipped})
	if n := len(rec.Events()); n != 10 {
		t.Fatalf("event accepted after Close, got %d", n)
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	g := newGated()
	d := NewDispatcher(g, 1, 1)

	// One event is held by the worker and one fills the queue. Wait for the
	// worker to pick up the first so the queue slot is free for the second.
	d.Notify(context.Background(), Event{Kind: KindPaymentSubmitted, ItemID: "first"})
	deadline := time.Now().Add(time.Second)
	for len(d.queue) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("worker never picked up the first event")
		}
		time.Sleep(time.Millisecond)
	}
	d.Notify(context.Background(), Event{Kind: KindPaymentSubmitted, ItemID: "second"})
	d.Notify(context.Background(), Event{Kind: KindPaymentSubmitted, ItemID: "dropped"})

	close(g.release)
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got := g.rec.Events()
	if len(got) != 2 || got[0].ItemID != "first" || got[1].ItemID != "second" {
		t.Fatalf("unexpected deliveries %+v", got)
	}
}

func TestDispatcherCloseTimeout(t *testing.T) {
	g := newGated()
	d := NewDispatcher(g, 1, 1)
	d.Notify(context.Background(), Event{Kind: KindItemApproved})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	close(g.release)
}
