package request

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/freebies-japan/api/internal/platform/pagination"
	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/service/item"
)

// MockRequestService implements Service in memory on top of a mock item
// service, keeping item request counts in step.
type MockRequestService struct {
	mu       sync.RWMutex
	items    *item.MockItemService
	requests map[string]map[string]*Request
}

// NewMockRequestService creates a new mock service.
func NewMockRequestService(items *item.MockItemService) *MockRequestService {
	return &MockRequestService{items: items, requests: make(map[string]map[string]*Request)}
}

func (m *MockRequestService) Create(_ context.Context, a actor.Actor, itemID string, params CreateParams) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result *Request
	err := m.items.Mutate(itemID, func(it *item.Item) error {
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
		if prev, ok := m.requests[itemID][a.UID]; ok {
			if prev.Active() {
				return ErrAlreadyRequested
			}
			r.CreatedAt = prev.CreatedAt
		}
		it.RequestCount++
		it.UpdatedAt = now
		m.put(r)
		out := *r
		result = &out
		return nil
	})
	return result, err
}

func (m *MockRequestService) Withdraw(_ context.Context, a actor.Actor, itemID string) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result *Request
	err := m.items.Mutate(itemID, func(it *item.Item) error {
		r, ok := m.requests[itemID][a.UID]
		if !ok {
			return ErrNotFound
		}
		if r.Status != StatusPending || it.Status != item.StatusAvailable {
			return ErrNotWithdrawable
		}
		now := time.Now().UTC()
		r.Status = StatusWithdrawn
		r.UpdatedAt = now
		it.RequestCount--
		it.UpdatedAt = now
		out := *r
		result = &out
		return nil
	})
	return result, err
}

func (m *MockRequestService) Get(_ context.Context, itemID, userID string) (*Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[itemID][userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *MockRequestService) ListForItem(ctx context.Context, a actor.Actor, itemID string, params pagination.Params) (pagination.Page[Request], error) {
	cursor, err := pagination.DecodeTyped(params.Cursor, CursorType)
	if err != nil {
		return pagination.Page[Request]{}, err
	}
	it, err := m.items.Get(ctx, itemID)
	if err != nil {
		return pagination.Page[Request]{}, err
	}
	if !a.CanManage(it.DonorID) {
		return pagination.Page[Request]{}, ErrForbidden
	}
	m.mu.RLock()
	var reqs []Request
	for _, r := range m.requests[itemID] {
		reqs = append(reqs, *r)
	}
	m.mu.RUnlock()
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].UserID < reqs[j].UserID })
	return pagination.Paginate(reqs, cursor, params.PageSize(), CursorType, func(r Request) string { return r.UserID }), nil
}

func (m *MockRequestService) ListMine(_ context.Context, userID string, params pagination.Params) (pagination.Page[Request], error) {
	cursor, err := pagination.DecodeTyped(params.Cursor, CursorType)
	if err != nil {
		return pagination.Page[Request]{}, err
	}
	m.mu.RLock()
	var reqs []Request
	for _, byUser := range m.requests {
		if r, ok := byUser[userID]; ok {
			reqs = append(reqs, *r)
		}
	}
	m.mu.RUnlock()
	sort.Slice(reqs, func(i, j int) bool {
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
		}
		return reqs[i].ItemID < reqs[j].ItemID
	})
	return pagination.Paginate(reqs, cursor, params.PageSize(), CursorType, func(r Request) string { return r.ItemID }), nil
}

// Put stores r as-is. Tests use it to seed state without touching item counts.
func (m *MockRequestService) Put(r Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(&r)
}

func (m *MockRequestService) put(r *Request) {
	byUser, ok := m.requests[r.ItemID]
	if !ok {
		byUser = make(map[string]*Request)
		m.requests[r.ItemID] = byUser
	}
	byUser[r.UserID] = r
}

// UserIDsWithStatus returns the sorted IDs of users whose request for itemID
// has status st.
func (m *MockRequestService) UserIDsWithStatus(itemID string, st Status) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for uid, r := range m.requests[itemID] {
		if r.Status == st {
			ids = append(ids, uid)
		}
	}
	slices.Sort(ids)
	return ids
}

// SetStatus overwrites the status of the given users' requests for itemID.
// Unknown users are ignored.
func (m *MockRequestService) SetStatus(itemID string, userIDs []string, st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, uid := range userIDs {
		if r, ok := m.requests[itemID][uid]; ok {
			r.Status = st
			r.UpdatedAt = now
		}
	}
}

// CompareAndSetStatus moves the given users' requests for itemID from one
// status to another, provided every one of them currently has status from.
// fn runs under the same lock first and aborts the update by returning an
// error. It reports false without calling fn when a request is missing or
// has another status.
func (m *MockRequestService) CompareAndSetStatus(itemID string, userIDs []string, from, to Status, fn func() error) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, uid := range userIDs {
		if r, ok := m.requests[itemID][uid]; !ok || r.Status != from {
			return false, nil
		}
	}
	if fn != nil {
		if err := fn(); err != nil {
			return true, err
		}
	}
	now := time.Now().UTC()
	for _, uid := range userIDs {
		r := m.requests[itemID][uid]
		r.Status = to
		r.UpdatedAt = now
	}
	return true, nil
}

// Compile-time interface check
var _ Service = (*MockRequestService)(nil)
