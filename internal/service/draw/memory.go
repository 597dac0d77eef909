package draw

import (
	"context"
	"slices"
	"sync"

	"github.com/freebies-japan/api/internal/service/item"
	"github.com/freebies-japan/api/internal/service/request"
)

// MemoryStore implements Store on top of the item and request mocks.
type MemoryStore struct {
	mu       sync.Mutex
	items    *item.MockItemService
	requests *request.MockRequestService
	results  map[string]Result

	// BeforeCommit, when set, runs at the start of every Commit. Tests use it
	// to change requests between the participant read and the commit.
	BeforeCommit func()
	// MarkLosersErr, when set, is returned by MarkLosers without writing.
	MarkLosersErr error
}

// NewMemoryStore creates a store sharing state with the given mocks.
func NewMemoryStore(items *item.MockItemService, requests *request.MockRequestService) *MemoryStore {
	return &MemoryStore{items: items, requests: requests, results: make(map[string]Result)}
}

func (s *MemoryStore) GetItem(ctx context.Context, itemID string) (*item.Item, error) {
	return s.items.Get(ctx, itemID)
}

func (s *MemoryStore) GetResult(_ context.Context, itemID string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.results[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	res.Winners = slices.Clone(res.Winners)
	return &res, nil
}

func (s *MemoryStore) Participants(_ context.Context, itemID string) ([]string, error) {
	return s.requests.UserIDsWithStatus(itemID, request.StatusPending), nil
}

func (s *MemoryStore) Commit(_ context.Context, res *Result) (*Result, error) {
	if s.BeforeCommit != nil {
		s.BeforeCommit()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.results[res.ItemID]; ok {
		prev.Winners = slices.Clone(prev.Winners)
		prev.Replayed = true
		return &prev, nil
	}
	var donorID string
	ok, err := s.requests.CompareAndSetStatus(res.ItemID, res.Winners, request.StatusPending, request.StatusSelected, func() error {
		return s.items.Mutate(res.ItemID, func(it *item.Item) error {
			if it.Status != item.StatusAvailable {
				return ErrNotDrawable
			}
			if it.RequestCount != res.ParticipantCount {
				return ErrParticipantsChanged
			}
			if err := it.Transition(item.StatusDrawn, res.DrawnAt); err != nil {
				return err
			}
			it.WinnerIDs = slices.Clone(res.Winners)
			donorID = it.DonorID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrParticipantsChanged
	}
	stored := *res
	stored.DonorID = donorID
	stored.Winners = slices.Clone(res.Winners)
	s.results[res.ItemID] = stored
	out := stored
	out.Winners = slices.Clone(res.Winners)
	return &out, nil
}

func (s *MemoryStore) MarkLosers(_ context.Context, itemID string, userIDs []string) error {
	if s.MarkLosersErr != nil {
		return s.MarkLosersErr
	}
	s.requests.SetStatus(itemID, userIDs, request.StatusNotSelected)
	return nil
}

var _ Store = (*MemoryStore)(nil)
