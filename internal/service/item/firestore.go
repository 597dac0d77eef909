package item

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
)

// Collection is the Firestore collection holding items.
const Collection = "items"

// Doc maps to the Firestore document structure. It is exported so that the
// request, lottery and payment stores can update items inside their own
// transactions.
type Doc struct {
	DonorID         string     `firestore:"donor_id"`
	Title           string     `firestore:"title"`
	Description     string     `firestore:"description"`
	Category        string     `firestore:"category"`
	Condition       string     `firestore:"condition"`
	Prefecture      string     `firestore:"prefecture"`
	City            string     `firestore:"city"`
	ImagePaths      []string   `firestore:"image_paths"`
	Kind            string     `firestore:"kind"`
	Price           int64      `firestore:"price"`
	Status          string     `firestore:"status"`
	LotteryDeadline *time.Time `firestore:"lottery_deadline"`
	RequestCount    int        `firestore:"request_count"`
	WinnerIDs       []string   `firestore:"winner_ids"`
	ReservedBy      string     `firestore:"reserved_by"`
	BuyerID         string     `firestore:"buyer_id"`
	ReviewNote      string     `firestore:"review_note"`
	TrackingNumber  string     `firestore:"tracking_number"`
	CreatedAt       time.Time  `firestore:"created_at"`
	UpdatedAt       time.Time  `firestore:"updated_at"`
}

// ToDoc converts it for storage.
func ToDoc(it *Item) Doc {
	return Doc{
		DonorID:         it.DonorID,
		Title:           it.Title,
		Description:     it.Description,
		Category:        it.Category,
		Condition:       string(it.Condition),
		Prefecture:      it.Prefecture,
		City:            it.City,
		ImagePaths:      it.ImagePaths,
		Kind:            string(it.Kind),
		Price:           it.Price,
		Status:          string(it.Status),
		LotteryDeadline: it.LotteryDeadline,
		RequestCount:    it.RequestCount,
		WinnerIDs:       it.WinnerIDs,
		ReservedBy:      it.ReservedBy,
		BuyerID:         it.BuyerID,
		ReviewNote:      it.ReviewNote,
		TrackingNumber:  it.TrackingNumber,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}
}

// FromSnapshot decodes an item document.
func FromSnapshot(doc *firestore.DocumentSnapshot) (*Item, error) {
	var d Doc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", doc.Ref.ID, err)
	}
	return &Item{
		ID:              doc.Ref.ID,
		DonorID:         d.DonorID,
		Title:           d.Title,
		Description:     d.Description,
		Category:        d.Category,
		Condition:       Condition(d.Condition),
		Prefecture:      d.Prefecture,
		City:            d.City,
		ImagePaths:      d.ImagePaths,
		Kind:            Kind(d.Kind),
		Price:           d.Price,
		Status:          Status(d.Status),
		LotteryDeadline: d.LotteryDeadline,
		RequestCount:    d.RequestCount,
		WinnerIDs:       d.WinnerIDs,
		ReservedBy:      d.ReservedBy,
		BuyerID:         d.BuyerID,
		ReviewNote:      d.ReviewNote,
		TrackingNumber:  d.TrackingNumber,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

// GetTx reads an item inside a transaction.
func GetTx(tx *firestore.Transaction, ref *firestore.DocumentRef) (*Item, error) {
	doc, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return FromSnapshot(doc)
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

// Create stores a new item awaiting review.
func (s *FirestoreStore) Create(ctx context.Context, a actor.Actor, params CreateParams) (*Item, error) {
	now := time.Now().UTC()
	ref := s.col().NewDoc()
	audit := applog.AuditEvent{Action: "create", ActorID: a.UID, ResourceType: "item", ResourceID: ref.ID}

	if err := ValidateCreate(&params, a.UID, now); err != nil {
		applog.AuditResult(ctx, audit, err, CategorizeError)
		return nil, err
	}

	it := &Item{
		ID:          ref.ID,
		DonorID:     a.UID,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		Condition:   params.Condition,
		Prefecture:  params.Prefecture,
		City:        params.City,
		ImagePaths:  params.ImagePaths,
		Kind:        params.Kind,
		Price:       params.Price,
		Status:      StatusPendingReview,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if params.LotteryDeadline != nil {
		d := params.LotteryDeadline.UTC()
		it.LotteryDeadline = &d
	}

	_, err := ref.Create(ctx, ToDoc(it))
	applog.AuditResult(ctx, audit, err, CategorizeError)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return it, nil
}

// Get retrieves an item by ID.
func (s *FirestoreStore) Get(ctx context.Context, itemID string) (*Item, error) {
	doc, err := s.col().Doc(itemID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return FromSnapshot(doc)
}

// List returns available items, newest first.
func (s *FirestoreStore) List(ctx context.Context, params ListParams) (pagination.Page[Item], error) {
	q := s.col().Where("status", "==", string(StatusAvailable))
	if params.Kind != "" {
		q = q.Where("kind", "==", string(params.Kind))
	}
	if params.Category != "" {
		q = q.Where("category", "==", params.Category)
	}
	if params.Prefecture != "" {
		q = q.Where("prefecture", "==", params.Prefecture)
	}
	return s.page(ctx, q, params.Params)
}

// ListByDonor returns every item donated by donorID, newest first.
func (s *FirestoreStore) ListByDonor(ctx context.Context, donorID string, params pagination.Params) (pagination.Page[Item], error) {
	return s.page(ctx, s.col().Where("donor_id", "==", donorID), params)
}

func (s *FirestoreStore) page(ctx context.Context, q firestore.Query, params pagination.Params) (pagination.Page[Item], error) {
	cursor, err := pagination.DecodeTyped(params.Cursor, CursorType)
	if err != nil {
		return pagination.Page[Item]{}, err
	}
	limit := params.PageSize()
	q = q.OrderBy("created_at", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
	if cursor.Value != "" {
		snap, err := s.col().Doc(cursor.Value).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return pagination.Page[Item]{}, pagination.ErrInvalidCursor
			}
			return pagination.Page[Item]{}, err
		}
		q = q.StartAfter(snap)
	}

	items, err := collect(q.Limit(limit+1).Documents(ctx))
	if err != nil {
		return pagination.Page[Item]{}, err
	}
	return pagination.Trim(items, limit, CursorType, func(it Item) string { return it.ID }), nil
}

// Update edits listing details using a transaction.
func (s *FirestoreStore) Update(ctx context.Context, a actor.Actor, itemID string, params UpdateParams) (*Item, error) {
	return s.mutate(ctx, "update", a, itemID, func(it *Item, now time.Time) error {
		return ApplyUpdate(it, a, params, now)
	})
}

// Withdraw takes the item off the market.
func (s *FirestoreStore) Withdraw(ctx context.Context, a actor.Actor, itemID string) (*Item, error) {
	return s.mutate(ctx, "withdraw", a, itemID, func(it *Item, now time.Time) error {
		return ApplyWithdraw(it, a, now)
	})
}

// Review approves or rejects a pending item.
func (s *FirestoreStore) Review(ctx context.Context, a actor.Actor, itemID string, params ReviewParams) (*Item, error) {
	return s.mutate(ctx, "review", a, itemID, func(it *Item, now time.Time) error {
		return ApplyReview(it, a, params, now)
	})
}

// UpdateDelivery records shipping progress.
func (s *FirestoreStore) UpdateDelivery(ctx context.Context, a actor.Actor, itemID string, params DeliveryParams) (*Item, error) {
	return s.mutate(ctx, "delivery", a, itemID, func(it *Item, now time.Time) error {
		return ApplyDelivery(it, a, params, now)
	})
}

func (s *FirestoreStore) mutate(
	ctx context.Context,
	action string,
	a actor.Actor,
	itemID string,
	apply func(it *Item, now time.Time) error,
) (*Item, error) {
	ref := s.col().Doc(itemID)
	var result *Item

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		it, err := GetTx(tx, ref)
		if err != nil {
			return err
		}
		if err := apply(it, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Set(ref, ToDoc(it)); err != nil {
			return err
		}
		result = it
		return nil
	})
	applog.AuditResult(ctx, applog.AuditEvent{
		Action:       action,
		ActorID:      a.UID,
		ResourceType: "item",
		ResourceID:   itemID,
	}, err, CategorizeError)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListDueLotteries returns free available items whose deadline has passed.
func (s *FirestoreStore) ListDueLotteries(ctx context.Context, now time.Time, limit int) ([]Item, error) {
	q := s.col().
		Where("kind", "==", string(KindFree)).
		Where("status", "==", string(StatusAvailable)).
		Where("lottery_deadline", "<=", now.UTC()).
		OrderBy("lottery_deadline", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return collect(q.Documents(ctx))
}

// LapseLottery clears the deadline of a due lottery without requests.
func (s *FirestoreStore) LapseLottery(ctx context.Context, itemID string, now time.Time) error {
	_, err := s.mutate(ctx, "lapse_lottery", actor.System(), itemID, func(it *Item, _ time.Time) error {
		return ApplyLapse(it, now)
	})
	return err
}

func collect(iter *firestore.DocumentIterator) ([]Item, error) {
	defer iter.Stop()
	var items []Item
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		it, err := FromSnapshot(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
}

// Compile-time interface check
var _ Service = (*FirestoreStore)(nil)
