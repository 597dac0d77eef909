package item

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freebies-japan/api/internal/platform/pagination"
	"github.com/freebies-japan/api/internal/service/actor"
)

// MockItemService implements Service in memory for unit tests. The request,
// lottery and payment mocks share it through Mutate.
type MockItemService struct {
	mu    sync.RWMutex
	items map[string]*Item
}

// NewMockItemService creates a new mock service.
func NewMockItemService() *MockItemService {
	return &MockItemService{items: make(map[string]*Item)}
}

func (m *MockItemService) Create(_ context.Context, a actor.Actor, params CreateParams) (*Item, error) {
	now := time.Now().UTC()
	if err := ValidateCreate(&params, a.UID, now); err != nil {
		return nil, err
	}
	it := &Item{
		ID:              uuid.NewString(),
		DonorID:         a.UID,
		Title:           params.Title,
		Description:     params.Description,
		Category:        params.Category,
		Condition:       params.Condition,
		Prefecture:      params.Prefecture,
		City:            params.City,
		ImagePaths:      slices.Clone(params.ImagePaths),
		Kind:            params.Kind,
		Price:           params.Price,
		Status:          StatusPendingReview,
		LotteryDeadline: params.LotteryDeadline,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.Put(*it)
	return it, nil
}

func (m *MockItemService) Get(_ context.Context, itemID string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(it), nil
}

func (m *MockItemService) List(_ context.Context, params ListParams) (pagination.Page[Item], error) {
	return m.page(params.Params, func(it *Item) bool {
		return it.Status == StatusAvailable &&
			(params.Kind == "" || it.Kind == params.Kind) &&
			(params.Category == "" || it.Category == params.Category) &&
			(params.Prefecture == "" || it.Prefecture == params.Prefecture)
	})
}

func (m *MockItemService) ListByDonor(_ context.Context, donorID string, params pagination.Params) (pagination.Page[Item], error) {
	return m.page(params, func(it *Item) bool { return it.DonorID == donorID })
}

func (m *MockItemService) page(params pagination.Params, keep func(*Item) bool) (pagination.Page[Item], error) {
	cursor, err := pagination.DecodeTyped(params.Cursor, CursorType)
	if err != nil {
		return pagination.Page[Item]{}, err
	}
	m.mu.RLock()
	var items []Item
	for _, it := range m.items {
		if keep(it) {
			items = append(items, *clone(it))
		}
	}
	m.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return pagination.Paginate(items, cursor, params.PageSize(), CursorType, func(it Item) string { return it.ID }), nil
}

func (m *MockItemService) Update(_ context.Context, a actor.Actor, itemID string, params UpdateParams) (*Item, error) {
	return m.apply(itemID, func(it *Item) error { return ApplyUpdate(it, a, params, time.Now().UTC()) })
}

func (m *MockItemService) Withdraw(_ context.Context, a actor.Actor, itemID string) (*Item, error) {
	return m.apply(itemID, func(it *Item) error { return ApplyWithdraw(it, a, time.Now().UTC()) })
}

func (m *MockItemService) Review(_ context.Context, a actor.Actor, itemID string, params ReviewParams) (*Item, error) {
	return m.apply(itemID, func(it *Item) error { return ApplyReview(it, a, params, time.Now().UTC()) })
}

func (m *MockItemService) UpdateDelivery(_ context.Context, a actor.Actor, itemID string, params DeliveryParams) (*Item, error) {
	return m.apply(itemID, func(it *Item) error { return ApplyDelivery(it, a, params, time.Now().UTC()) })
}

func (m *MockItemService) ListDueLotteries(_ context.Context, now time.Time, limit int) ([]Item, error) {
	m.mu.RLock()
	var due []Item
	for _, it := range m.items {
		if it.Kind == KindFree && it.Status == StatusAvailable &&
			it.LotteryDeadline != nil && !it.LotteryDeadline.After(now) {
			due = append(due, *clone(it))
		}
	}
	m.mu.RUnlock()
	sort.Slice(due, func(i, j int) bool { return due[i].LotteryDeadline.Before(*due[j].LotteryDeadline) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MockItemService) LapseLottery(_ context.Context, itemID string, now time.Time) error {
	_, err := m.apply(itemID, func(it *Item) error { return ApplyLapse(it, now) })
	return err
}

func (m *MockItemService) apply(itemID string, fn func(*Item) error) (*Item, error) {
	var out *Item
	err := m.Mutate(itemID, func(it *Item) error {
		if err := fn(it); err != nil {
			return err
		}
		out = clone(it)
		return nil
	})
	return out, err
}

// Put stores it, replacing any item with the same ID.
func (m *MockItemService) Put(it Item) {
	if it.ID == "" {
		panic(fmt.Sprintf("mock item without ID: %+v", it))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[it.ID] = clone(&it)
}

// Mutate runs fn against the stored item under the mock's lock. Changes are
// kept only when fn returns nil.
func (m *MockItemService) Mutate(itemID string, fn func(*Item) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return ErrNotFound
	}
	work := clone(it)
	if err := fn(work); err != nil {
		return err
	}
	m.items[itemID] = work
	return nil
}

func clone(it *Item) *Item {
	c := *it
	c.ImagePaths = slices.Clone(it.ImagePaths)
	c.WinnerIDs = slices.Clone(it.WinnerIDs)
	if it.LotteryDeadline != nil {
		d := *it.LotteryDeadline
		c.LotteryDeadline = &d
	}
	return &c
}

// Compile-time interface check
var _ Service = (*MockItemService)(nil)
