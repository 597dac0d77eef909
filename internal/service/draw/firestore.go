package draw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/freebies-japan/api/internal/service/item"
	"github.com/freebies-japan/api/internal/service/request"
)

// resultDoc maps to lotteries/{itemId}.
type resultDoc struct {
	DonorID          string    `firestore:"donor_id"`
	Winners          []string  `firestore:"winners"`
	ParticipantCount int       `firestore:"participant_count"`
	Seed             string    `firestore:"seed"`
	DrawnAt          time.Time `firestore:"drawn_at"`
	DrawnBy          string    `firestore:"drawn_by"`
}

func decodeResult(doc *firestore.DocumentSnapshot) (*Result, error) {
	var d resultDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode lottery %s: %w", doc.Ref.ID, err)
	}
	return &Result{
		ItemID:           doc.Ref.ID,
		DonorID:          d.DonorID,
		Winners:          d.Winners,
		ParticipantCount: d.ParticipantCount,
		Seed:             d.Seed,
		DrawnAt:          d.DrawnAt,
		DrawnBy:          d.DrawnBy,
	}, nil
}

// FirestoreStore implements Store using Firestore.
type FirestoreStore struct {
	client   *firestore.Client
	pageSize int
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client, pageSize: PageSize}
}

func (s *FirestoreStore) itemRef(itemID string) *firestore.DocumentRef {
	return s.client.Collection(item.Collection).Doc(itemID)
}

func (s *FirestoreStore) requests(itemID string) *firestore.CollectionRef {
	return s.itemRef(itemID).Collection(request.Subcollection)
}

// GetItem reads the item.
func (s *FirestoreStore) GetItem(ctx context.Context, itemID string) (*item.Item, error) {
	doc, err := s.itemRef(itemID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, item.ErrNotFound
		}
		return nil, err
	}
	return item.FromSnapshot(doc)
}

// GetResult reads the stored result.
func (s *FirestoreStore) GetResult(ctx context.Context, itemID string) (*Result, error) {
	doc, err := s.client.Collection(Collection).Doc(itemID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeResult(doc)
}

// Participants pages through pending requests by document ID, fetching IDs only.
func (s *FirestoreStore) Participants(ctx context.Context, itemID string) ([]string, error) {
	base := s.requests(itemID).
		Where("status", "==", string(request.StatusPending)).
		Select().
		OrderBy(firestore.DocumentID, firestore.Asc).
		Limit(s.pageSize)

	var ids []string
	last := ""
	for {
		q := base
		if last != "" {
			q = q.StartAfter(last)
		}
		n, err := s.readPage(q.Documents(ctx), &ids)
		if err != nil {
			return nil, err
		}
		if n < s.pageSize {
			return ids, nil
		}
		last = ids[len(ids)-1]
	}
}

func (s *FirestoreStore) readPage(iter *firestore.DocumentIterator, ids *[]string) (int, error) {
	defer iter.Stop()
	n := 0
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		*ids = append(*ids, doc.Ref.ID)
		n++
	}
}

// Commit writes the result, the item and the winners' requests atomically.
func (s *FirestoreStore) Commit(ctx context.Context, res *Result) (*Result, error) {
	lotteryRef := s.client.Collection(Collection).Doc(res.ItemID)
	itemRef := s.itemRef(res.ItemID)
	var out *Result

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Get(lotteryRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		it, err := item.GetTx(tx, itemRef)
		if err != nil {
			return err
		}

		if existing != nil && existing.Exists() {
			prev, err := decodeResult(existing)
			if err != nil {
				return err
			}
			prev.Replayed = true
			out = prev
			return nil
		}
		if it.Status != item.StatusAvailable {
			return ErrNotDrawable
		}
		if it.RequestCount != res.ParticipantCount {
			return ErrParticipantsChanged
		}
		if err := s.checkWinnersPending(tx, res); err != nil {
			return err
		}
		if err := it.Transition(item.StatusDrawn, res.DrawnAt); err != nil {
			return err
		}
		it.WinnerIDs = res.Winners

		if err := tx.Create(lotteryRef, resultDoc{
			DonorID:          it.DonorID,
			Winners:          res.Winners,
			ParticipantCount: res.ParticipantCount,
			Seed:             res.Seed,
			DrawnAt:          res.DrawnAt,
			DrawnBy:          res.DrawnBy,
		}); err != nil {
			return err
		}
		if err := tx.Set(itemRef, item.ToDoc(it)); err != nil {
			return err
		}
		for _, uid := range res.Winners {
			if err := tx.Update(s.requests(res.ItemID).Doc(uid), statusUpdate(request.StatusSelected, res.DrawnAt)); err != nil {
				return err
			}
		}
		c := *res
		c.DonorID = it.DonorID
		out = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkWinnersPending reads every winner's request inside tx. A withdrawal
// followed by another user's request keeps the count unchanged, so the count
// check alone cannot catch it.
func (s *FirestoreStore) checkWinnersPending(tx *firestore.Transaction, res *Result) error {
	refs := make([]*firestore.DocumentRef, len(res.Winners))
	for i, uid := range res.Winners {
		refs[i] = s.requests(res.ItemID).Doc(uid)
	}
	docs, err := tx.GetAll(refs)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if !doc.Exists() {
			return ErrParticipantsChanged
		}
		st, err := doc.DataAt("status")
		if err != nil {
			return fmt.Errorf("read request %s: %w", doc.Ref.ID, err)
		}
		if st != string(request.StatusPending) {
			return ErrParticipantsChanged
		}
	}
	return nil
}

// MarkLosers updates losers' requests with a BulkWriter.
func (s *FirestoreStore) MarkLosers(ctx context.Context, itemID string, userIDs []string) error {
	bw := s.client.BulkWriter(ctx)
	now := time.Now().UTC()
	jobs := make([]*firestore.BulkWriterJob, 0, len(userIDs))
	var errs []error
	for _, uid := range userIDs {
		job, err := bw.Update(s.requests(itemID).Doc(uid), statusUpdate(request.StatusNotSelected, now))
		if err != nil {
			errs = append(errs, fmt.Errorf("enqueue %s: %w", uid, err))
			continue
		}
		jobs = append(jobs, job)
	}
	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func statusUpdate(st request.Status, at time.Time) []firestore.Update {
	return []firestore.Update{
		{Path: "status", Value: string(st)},
		{Path: "updated_at", Value: at},
	}
}

var _ Store = (*FirestoreStore)(nil)
