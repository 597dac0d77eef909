package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/service/draw"
	"github.com/freebies-japan/api/internal/service/item"
	"github.com/freebies-japan/api/internal/service/notification"
	"github.com/freebies-japan/api/internal/service/request"
)

func dueItem(id string, deadline time.Time, requests int) item.Item {
	return item.Item{
		ID:              id,
		DonorID:         "donor",
		Title:           "Item " + id,
		Kind:            item.KindFree,
		Status:          item.StatusAvailable,
		LotteryDeadline: &deadline,
		RequestCount:    requests,
	}
}

func TestRunOnceDrawsDueItems(t *testing.T) {
	items := item.NewMockItemService()
	requests := request.NewMockRequestService(items)
	drawer := draw.NewService(draw.NewMemoryStore(items, requests), &notification.Recorder{}, 1)

	past := time.Now().UTC().Add(-time.Hour)
	items.Put(dueItem("due", past, 2))
	items.Put(dueItem("empty", past, 0))
	items.Put(dueItem("later", time.Now().UTC().Add(time.Hour), 0))
	for _, uid := range []string{"u1", "u2"} {
		requests.Put(request.Request{ItemID: "due", UserID: uid, Status: request.StatusPending})
	}

	s, err := New(items, drawer, "@every 1h", "Asia/Tokyo", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sum := s.RunOnce(context.Background())
	if sum != (Summary{Drawn: 1, Skipped: 1}) {
		t.Fatalf("unexpected summary %+v", sum)
	}

	it, _ := items.Get(context.Background(), "due")
	if it.Status != item.StatusDrawn || len(it.WinnerIDs) != 1 {
		t.Fatalf("unexpected item %+v", it)
	}
	res, err := drawer.Get(context.Background(), "due")
	if err != nil || res.DrawnBy != actor.SystemUID {
		t.Fatalf("unexpected result %+v (%v)", res, err)
	}
	if later, _ := items.Get(context.Background(), "later"); later.Status != item.StatusAvailable {
		t.Fatalf("item before its deadline was drawn: %+v", later)
	}

	empty, _ := items.Get(context.Background(), "empty")
	if empty.Status != item.StatusAvailable || empty.LotteryDeadline != nil {
		t.Fatalf("expected empty lottery to lapse, got %+v", empty)
	}

	// A second run finds nothing left to draw.
	if sum := s.RunOnce(context.Background()); sum != (Summary{}) {
		t.Fatalf("unexpected second summary %+v", sum)
	}
}

func TestRunOnceNotBlockedByEmptyLotteries(t *testing.T) {
	items := item.NewMockItemService()
	requests := request.NewMockRequestService(items)
	drawer := draw.NewService(draw.NewMemoryStore(items, requests), &notification.Recorder{}, 1)

	now := time.Now().UTC()
	for i := range BatchSize + 1 {
		items.Put(dueItem(fmt.Sprintf("empty-%02d", i), now.Add(-48*time.Hour+time.Duration(i)*time.Minute), 0))
	}
	items.Put(dueItem("wanted", now.Add(-time.Hour), 1))
	requests.Put(request.Request{ItemID: "wanted", UserID: "u1", Status: request.StatusPending})

	s, err := New(items, drawer, "@hourly", "UTC", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	first := s.RunOnce(context.Background())
	if first != (Summary{Skipped: BatchSize}) {
		t.Fatalf("unexpected first summary %+v", first)
	}
	second := s.RunOnce(context.Background())
	if second != (Summary{Drawn: 1, Skipped: 1}) {
		t.Fatalf("unexpected second summary %+v", second)
	}
	if it, _ := items.Get(context.Background(), "wanted"); it.Status != item.StatusDrawn {
		t.Fatalf("expected wanted item drawn, got %+v", it)
	}
	if due, _ := items.ListDueLotteries(context.Background(), time.Now().UTC(), BatchSize); len(due) != 0 {
		t.Fatalf("expected no due items left, got %d", len(due))
	}
}

type failingDraws struct{ calls int }

func (f *failingDraws) Draw(context.Context, actor.Actor, string, draw.Params) (*draw.Result, error) {
	f.calls++
	return nil, errors.New("firestore unavailable")
}

func (f *failingDraws) Get(context.Context, string) (*draw.Result, error) {
	return nil, draw.ErrNotFound
}

func TestRunOnceCountsFailures(t *testing.T) {
	items := item.NewMockItemService()
	past := time.Now().UTC().Add(-time.Minute)
	items.Put(dueItem("a", past, 1))
	items.Put(dueItem("b", past, 1))

	draws := &failingDraws{}
	s, err := New(items, draws, "*/15 * * * *", "UTC", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sum := s.RunOnce(context.Background()); sum != (Summary{Failed: 2}) || draws.calls != 2 {
		t.Fatalf("unexpected summary %+v after %d calls", sum, draws.calls)
	}
}

type brokenLister struct{}

func (brokenLister) ListDueLotteries(context.Context, time.Time, int) ([]item.Item, error) {
	return nil, errors.New("query failed")
}

func (brokenLister) LapseLottery(context.Context, string, time.Time) error {
	return errors.New("update failed")
}

func TestRunOnceListError(t *testing.T) {
	draws := &failingDraws{}
	s, err := New(brokenLister{}, draws, "@hourly", "UTC", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sum := s.RunOnce(context.Background()); sum != (Summary{}) || draws.calls != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New(brokenLister{}, &failingDraws{}, "not a schedule", "UTC", nil); err == nil {
		t.Fatal("expected schedule error")
	}
	if _, err := New(brokenLister{}, &failingDraws{}, "@hourly", "Mars/Olympus", nil); err == nil {
		t.Fatal("expected timezone error")
	}
}

func TestStartStop(t *testing.T) {
	s, err := New(brokenLister{}, &failingDraws{}, "@hourly", "UTC", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
