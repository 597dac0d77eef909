package payment

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

// firestorePayment maps to Firestore document structure.
type firestorePayment struct {
	ItemID      string     `firestore:"item_id"`
	ItemTitle   string     `firestore:"item_title"`
	BuyerID     string     `firestore:"buyer_id"`
	Amount      int64      `firestore:"amount"`
	Method      string     `firestore:"method"`
	Reference   string     `firestore:"reference"`
	ReceiptPath string     `firestore:"receipt_path"`
	Status      string     `firestore:"status"`
	Note        string     `firestore:"note"`
	ReviewedBy  string     `firestore:"reviewed_by"`
	ReviewedAt  *time.Time `firestore:"reviewed_at"`
	CreatedAt   time.Time  `firestore:"created_at"`
	UpdatedAt   time.Time  `firestore:"updated_at"`
}

func toFirestore(p *Payment) firestorePayment {
	return firestorePayment{
		ItemID:      p.ItemID,
		ItemTitle:   p.ItemTitle,
		BuyerID:     p.BuyerID,
		Amount:      p.Amount,
		Method:      string(p.Method),
		Reference:   p.Reference,
		ReceiptPath: p.ReceiptPath,
		Status:      string(p.Status),
		Note:        p.Note,
		ReviewedBy:  p.ReviewedBy,
		ReviewedAt:  p.ReviewedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromSnapshot(doc *firestore.DocumentSnapshot) (*Payment, error) {
	var fp firestorePayment
	if err := doc.DataTo(&fp); err != nil {
		return nil, fmt.Errorf("decode payment %s: %w", doc.Ref.ID, err)
	}
	return &Payment{
		ID:          doc.Ref.ID,
		ItemID:      fp.ItemID,
		ItemTitle:   fp.ItemTitle,
		BuyerID:     fp.BuyerID,
		Amount:      fp.Amount,
		Method:      Method(fp.Method),
		Reference:   fp.Reference,
		ReceiptPath: fp.ReceiptPath,
		Status:      Status(fp.Status),
		Note:        fp.Note,
		ReviewedBy:  fp.ReviewedBy,
		ReviewedAt:  fp.ReviewedAt,
		CreatedAt:   fp.CreatedAt,
		UpdatedAt:   fp.UpdatedAt,
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

func (s *FirestoreStore) col() *firestore.CollectionRef {
	return s.client.Collection(Collection)
}

func audit(ctx context.Context, action, actorID, paymentID string, err error) {
	applog.AuditResult(ctx, applog.AuditEvent{
		Action:       action,
		ActorID:      actorID,
		ResourceType: "payment",
		ResourceID:   paymentID,
	}, err, categorizeError)
}

// Submit records a deposit and reserves the item in one transaction.
func (s *FirestoreStore) Submit(ctx context.Context, a actor.Actor, itemID string, params SubmitParams) (*Payment, error) {
	ref := s.col().NewDoc()
	itemRef := s.client.Collection(item.Collection).Doc(itemID)
	var result *Payment

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		it, err := item.GetTx(tx, itemRef)
		if err != nil {
			return err
		}
		p, err := NewPayment(ref.ID, it, a.UID, params, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := tx.Create(ref, toFirestore(p)); err != nil {
			return err
		}
		if err := tx.Set(itemRef, item.ToDoc(it)); err != nil {
			return err
		}
		result = p
		return nil
	})
	audit(ctx, "submit", a.UID, ref.ID, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get retrieves a payment visible to a.
func (s *FirestoreStore) Get(ctx context.Context, a actor.Actor, paymentID string) (*Payment, error) {
	doc, err := s.col().Doc(paymentID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p, err := fromSnapshot(doc)
	if err != nil {
		return nil, err
	}
	if !CanView(p, a) {
		return nil, ErrForbidden
	}
	return p, nil
}

// ListMine returns the buyer's payments, newest first.
func (s *FirestoreStore) ListMine(ctx context.Context, buyerID string, params pagination.Params) (pagination.Page[Payment], error) {
	return s.page(ctx, s.col().Where("buyer_id", "==", buyerID), params)
}

// ListAll returns all payments, optionally filtered by status, newest first.
func (s *FirestoreStore) ListAll(ctx context.Context, params ListParams) (pagination.Page[Payment], error) {
	q := s.col().Query
	if params.Status != "" {
		q = q.Where("status", "==", string(params.Status))
	}
	return s.page(ctx, q, params.Params)
}

func (s *FirestoreStore) page(ctx context.Context, q firestore.Query, params pagination.Params) (pagination.Page[Payment], error) {
	cursor, err := pagination.DecodeTyped(params.Cursor, CursorType)
	if err != nil {
		return pagination.Page[Payment]{}, err
	}
	limit := params.PageSize()
	q = q.OrderBy("created_at", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
	if cursor.Value != "" {
		snap, err := s.col().Doc(cursor.Value).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return pagination.Page[Payment]{}, pagination.ErrInvalidCursor
			}
			return pagination.Page[Payment]{}, err
		}
		q = q.StartAfter(snap)
	}

	iter := q.Limit(limit + 1).Documents(ctx)
	defer iter.Stop()
	var out []Payment
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return pagination.Page[Payment]{}, err
		}
		p, err := fromSnapshot(doc)
		if err != nil {
			return pagination.Page[Payment]{}, err
		}
		out = append(out, *p)
	}
	return pagination.Trim(out, limit, CursorType, func(p Payment) string { return p.ID }), nil
}

// Approve marks the payment approved and the item sold.
func (s *FirestoreStore) Approve(ctx context.Context, a actor.Actor, paymentID string) (*Payment, error) {
	return s.decide(ctx, "approve", a, paymentID, Decision{To: StatusApproved})
}

// Reject marks the payment rejected and releases the item.
func (s *FirestoreStore) Reject(ctx context.Context, a actor.Actor, paymentID, reason string) (*Payment, error) {
	return s.decide(ctx, "reject", a, paymentID, Decision{To: StatusRejected, Reason: reason})
}

// Cancel withdraws the buyer's pending payment and releases the item.
func (s *FirestoreStore) Cancel(ctx context.Context, a actor.Actor, paymentID string) (*Payment, error) {
	return s.decide(ctx, "cancel", a, paymentID, Decision{To: StatusCancelled})
}

func (s *FirestoreStore) decide(ctx context.Context, action string, a actor.Actor, paymentID string, d Decision) (*Payment, error) {
	ref := s.col().Doc(paymentID)
	var result *Payment

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		p, err := fromSnapshot(doc)
		if err != nil {
			return err
		}
		itemRef := s.client.Collection(item.Collection).Doc(p.ItemID)
		it, err := item.GetTx(tx, itemRef)
		if err != nil {
			return err
		}
		if err := d.Apply(p, it, a, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Set(ref, toFirestore(p)); err != nil {
			return err
		}
		if err := tx.Set(itemRef, item.ToDoc(it)); err != nil {
			return err
		}
		result = p
		return nil
	})
	audit(ctx, action, a.UID, paymentID, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Compile-time interface check
var _ Service = (*FirestoreStore)(nil)
