package draw

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/service/item"
	"github.com/freebies-japan/api/internal/service/notification"
	"github.com/freebies-japan/api/internal/service/request"
	"github.com/freebies-japan/api/internal/testutil"
)

func TestFirestoreDraw(t *testing.T) {
	client := testutil.NewFirestoreClient(t)
	ctx := context.Background()
	items := item.NewFirestoreStore(client)
	requests := request.NewFirestoreStore(client)

	it, err := items.Create(ctx, actor.User("donor"), item.CreateParams{Title: "Crib", Kind: item.KindFree})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := items.Review(ctx, actor.System(), it.ID, item.ReviewParams{Approve: true}); err != nil {
		t.Fatalf("review: %v", err)
	}
	for i := range 7 {
		if _, err := requests.Create(ctx, actor.User(fmt.Sprintf("user-%02d", i)), it.ID, request.CreateParams{}); err != nil {
			t.Fatalf("request: %v", err)
		}
	}

	store := NewFirestoreStore(client)
	store.pageSize = 3
	ids, err := store.Participants(ctx, it.ID)
	if err != nil || len(ids) != 7 || ids[0] != "user-00" || ids[6] != "user-06" {
		t.Fatalf("unexpected participants %v, %v", ids, err)
	}

	svc := NewService(store, &notification.Recorder{}, 2)
	res, err := svc.Draw(ctx, actor.User("donor"), it.ID, Params{Seed: seed("7")})
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(res.Winners) != 2 || res.ParticipantCount != 7 {
		t.Fatalf("unexpected result %+v", res)
	}

	again, err := svc.Draw(ctx, actor.User("donor"), it.ID, Params{})
	if err != nil || !again.Replayed || again.Seed != "7" || again.DonorID != "donor" {
		t.Fatalf("unexpected replay %+v, %v", again, err)
	}

	pending, err := store.Participants(ctx, it.ID)
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected all requests resolved, got %v, %v", pending, err)
	}
	got, _ := items.Get(ctx, it.ID)
	if got.Status != item.StatusDrawn || len(got.WinnerIDs) != 2 {
		t.Fatalf("unexpected item %+v", got)
	}
}

func TestFirestoreCommitRejectsWithdrawnWinner(t *testing.T) {
	client := testutil.NewFirestoreClient(t)
	ctx := context.Background()
	items := item.NewFirestoreStore(client)
	requests := request.NewFirestoreStore(client)

	it, err := items.Create(ctx, actor.User("donor"), item.CreateParams{Title: "Desk", Kind: item.KindFree})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := items.Review(ctx, actor.System(), it.ID, item.ReviewParams{Approve: true}); err != nil {
		t.Fatalf("review: %v", err)
	}
	for _, uid := range []string{"user-a", "user-b"} {
		if _, err := requests.Create(ctx, actor.User(uid), it.ID, request.CreateParams{}); err != nil {
			t.Fatalf("request: %v", err)
		}
	}
	if _, err := requests.Withdraw(ctx, actor.User("user-a"), it.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := requests.Create(ctx, actor.User("user-c"), it.ID, request.CreateParams{}); err != nil {
		t.Fatalf("request: %v", err)
	}

	store := NewFirestoreStore(client)
	now := time.Now().UTC()
	_, err = store.Commit(ctx, &Result{ItemID: it.ID, Winners: []string{"user-a"}, ParticipantCount: 2, DrawnAt: now, DrawnBy: "donor"})
	if !errors.Is(err, ErrParticipantsChanged) {
		t.Fatalf("expected ErrParticipantsChanged, got %v", err)
	}
	if _, err := store.GetResult(ctx, it.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("nothing should be committed, got %v", err)
	}

	res, err := store.Commit(ctx, &Result{ItemID: it.ID, Winners: []string{"user-b"}, ParticipantCount: 2, DrawnAt: now, DrawnBy: "donor"})
	if err != nil || res.DonorID != "donor" {
		t.Fatalf("unexpected commit %+v, %v", res, err)
	}
	r, err := requests.Get(ctx, it.ID, "user-b")
	if err != nil || r.Status != request.StatusSelected {
		t.Fatalf("unexpected winner request %+v, %v", r, err)
	}
}
