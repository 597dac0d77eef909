package item

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freebies-japan/api/internal/platform/pagination"
	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/testutil"
)

func TestFirestoreItemLifecycle(t *testing.T) {
	store := NewFirestoreStore(testutil.NewFirestoreClient(t))
	ctx := context.Background()
	admin := actor.Actor{UID: "admin", Admin: true}

	deadline := time.Now().Add(time.Hour)
	it, err := store.Create(ctx, actor.User("donor"), CreateParams{
		Title:           "Kotatsu",
		Kind:            KindFree,
		Condition:       ConditionGood,
		Prefecture:      "Tokyo",
		LotteryDeadline: &deadline,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, it.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Kotatsu" || got.Status != StatusPendingReview || got.LotteryDeadline == nil {
		t.Fatalf("unexpected item %+v", got)
	}

	if _, err := store.Review(ctx, admin, it.ID, ReviewParams{Approve: true}); err != nil {
		t.Fatalf("review: %v", err)
	}

	page, err := store.List(ctx, ListParams{Prefecture: "Tokyo"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != it.ID {
		t.Fatalf("unexpected page %+v", page)
	}

	if _, err := store.Withdraw(ctx, actor.User("other"), it.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFirestoreListByDonorPagination(t *testing.T) {
	store := NewFirestoreStore(testutil.NewFirestoreClient(t))
	ctx := context.Background()
	donor := actor.User("donor")

	for _, title := range []string{"one", "two", "three"} {
		if _, err := store.Create(ctx, donor, CreateParams{Title: title, Kind: KindPremium, Price: 100}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	first, err := store.ListByDonor(ctx, "donor", pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Items) != 2 || first.NextCursor == "" {
		t.Fatalf("unexpected first page %+v", first)
	}
	second, err := store.ListByDonor(ctx, "donor", pagination.Params{Limit: 2, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(second.Items) != 1 || second.NextCursor != "" {
		t.Fatalf("unexpected second page %+v", second)
	}
}
