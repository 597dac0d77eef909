package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	applog "github.com/freebies-japan/api/internal/platform/logging"
	"github.com/freebies-japan/api/internal/platform/pagination"
	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/service/item"
)

// Doc maps to the Firestore document structure of
// items/{itemId}/requests/{userId}.
type Doc struct {
	ItemID    string    `firestore:"item_id"`
	UserID    string    `firestore:"user_id"`
	ItemTitle string    `firestore:"item_title"`
	Message   string    `firestore:"message"`
	Status    string    `firestore:"status"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func toDoc(r *Request) Doc {
	return Doc{
		ItemID:    r.ItemID,
		UserID:    r.UserID,
		ItemTitle: r.ItemTitle,
		Message:   r.Message,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func fromSnapshot(doc *firestore.DocumentSnapshot) (*Request, error) {
	var d Doc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode request %s: %w", doc.Ref.Path, err)
	}
	return &Request{
		ItemID:    d.ItemID,
		UserID:    d.UserID,
		ItemTitle: d.ItemTitle,
		Message:   d.Message,
		Status:    Status(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

// FirestoreStore implements Service using Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) itemRef(itemID string) *firestore.DocumentRef {
	return s.client.Collection(item.Collection).Doc(itemID)
}

func (s *FirestoreStore) requestRef(itemID, userID string) *firestore.DocumentRef {
	return s.itemRef(itemID).Collection(Subcollection).Doc(userID)
}

func audit(ctx context.Context, action, userID, itemID string, err error) {
	applog.AuditResult(ctx, applog.AuditEvent{
		Action:       action,
		ActorID:      userID,
		ResourceType: "request",
		ResourceID:   itemID + "/" + userID,
	}, err, categorizeError)
}

// Create enters the caller into the item's lottery and bumps the item's
// request count in the same transaction.
func (s *FirestoreStore) Create(ctx context.Context, a actor.Actor, itemID string, params CreateParams) (*Request, error) {
	itemRef := s.itemRef(itemID)
	reqRef := s.requestRef(itemID, a.UID)
	var result *Request

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		it, err := item.GetTx(tx, itemRef)
		if err != nil {
			return err
		}
		existing, err := tx.Get(reqRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		now := time.Now().UTC()
		if err := CheckRequestable(it, a.UID, now); err != nil {
			return err
		}

		r := &Request{
			ItemID:    itemID,
			UserID:    a.UID,
			ItemTitle: it.Title,
			Message:   params.Message,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if existing != nil && existing.Exists() {
			prev, err := fromSnapshot(existing)
			if err != nil {
				return err
			}
			if prev.Active() {
				return ErrAlreadyRequested
			}
			r.CreatedAt = prev.CreatedAt
		}

		if err := tx.Set(reqRef, toDoc(r)); err != nil {
			return err
		}
		if err := tx.Update(itemRef, []firestore.Update{
			{Path: "request_count", Value: firestore.Increment(1)},
			{Path: "updated_at", Value: now},
		}); err != nil {
			return err
		}
		result = r
		return nil
	})
	audit(ctx, "create", a.UID, itemID, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Withdraw cancels the caller's pending request.
func (s *FirestoreStore) Withdraw(ctx context.Context, a actor.Actor, itemID string) (*Request, error) {
	itemRef := s.itemRef(itemID)
	reqRef := s.requestRef(itemID, a.UID)
	var result *Request

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		it, err := item.GetTx(tx, itemRef)
		if err != nil {
			return err
		}
		doc, err := tx.Get(reqRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		r, err := fromSnapshot(doc)
		if err != nil {
			return err
		}
		if r.Status != StatusPending || it.Status != item.StatusAvailable {
			return ErrNotWithdrawable
		}

		now := time.Now().UTC()
		r.Status = StatusWithdrawn
		r.UpdatedAt = now
		if err := tx.Set(reqRef, toDoc(r)); err != nil {
			return err
		}
		if err := tx.Update(itemRef, []firestore.Update{
			{Path: "request_count", Value: firestore.Increment(-1)},
			{Path: "updated_at", Value: now},
		}); err != nil {
			return err
		}
		result = r
		return nil
	})
	audit(ctx, "withdraw", a.UID, itemID, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get retrieves one user's request for an item.
func (s *FirestoreStore) Get(ctx context.Context, itemID, userID string) (*Request, error) {
	doc, err := s.requestRef(itemID, userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fromSnapshot(doc)
}

// ListForItem returns the item's requests ordered by user ID. Only the donor
// and admins may list them.
func (s *FirestoreStore) ListForItem(ctx context.Context, a actor.Actor, itemID string, params pagination.Params) (pagination.Page[Request], error) {
	cursor, err := pagination.DecodeTyped(params.Cursor, CursorType)
	if err != nil {
		return pagination.Page[Request]{}, err
	}
	doc, err := s.itemRef(itemID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return pagination.Page[Request]{}, item.ErrNotFound
		}
		return pagination.Page[Request]{}, err
	}
	it, err := item.FromSnapshot(doc)
	if err != nil {
		return pagination.Page[Request]{}, err
	}
	if !a.CanManage(it.DonorID) {
		return pagination.Page[Request]{}, ErrForbidden
	}

	reqs, err := collect(s.itemRef(itemID).Collection(Subcollection).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx))
	if err != nil {
		return pagination.Page[Request]{}, err
	}
	return pagination.Paginate(reqs, cursor, params.PageSize(), CursorType, func(r Request) string { return r.UserID }), nil
}

// ListMine returns the user's requests across all items, newest first.
func (s *FirestoreStore) ListMine(ctx context.Context, userID string, params pagination.Params) (pagination.Page[Request], error) {
	cursor, err := pagination.DecodeTyped(params.Cursor, CursorType)
	if err != nil {
		return pagination.Page[Request]{}, err
	}
	limit := params.PageSize()
	q := s.client.CollectionGroup(Subcollection).
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Desc)
	if cursor.Value != "" {
		snap, err := s.requestRef(cursor.Value, userID).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return pagination.Page[Request]{}, pagination.ErrInvalidCursor
			}
			return pagination.Page[Request]{}, err
		}
		q = q.StartAfter(snap)
	}

	reqs, err := collect(q.Limit(limit + 1).Documents(ctx))
	if err != nil {
		return pagination.Page[Request]{}, err
	}
	return pagination.Trim(reqs, limit, CursorType, func(r Request) string { return r.ItemID }), nil
}

func collect(iter *firestore.DocumentIterator) ([]Request, error) {
	defer iter.Stop()
	var out []Request
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		r, err := fromSnapshot(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
}

// Compile-time interface check
var _ Service = (*FirestoreStore)(nil)
