package payment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freebies-japan/api/internal/platform/pagination"
	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/service/item"
)

// MockPaymentService implements Service in memory on top of a mock item
// service.
type MockPaymentService struct {
	mu       sync.RWMutex
	items    *item.MockItemService
	payments map[string]*Payment
}

// NewMockPaymentService creates a new mock service.
func NewMockPaymentService(items *item.MockItemService) *MockPaymentService {
	return &MockPaymentService{items: items, payments: make(map[string]*Payment)}
}

func (m *MockPaymentService) Submit(_ context.Context, a actor.Actor, itemID string, params SubmitParams) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result *Payment
	err := m.items.Mutate(itemID, func(it *item.Item) error {
		p, err := NewPayment(uuid.NewString(), it, a.UID, params, time.Now().UTC())
		if err != nil {
			return err
		}
		m.payments[p.ID] = p
		out := *p
		result = &out
		return nil
	})
	return result, err
}

func (m *MockPaymentService) Get(_ context.Context, a actor.Actor, paymentID string) (*Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	if !CanView(p, a) {
		return nil, ErrForbidden
	}
	out := *p
	return &out, nil
}

func (m *MockPaymentService) ListMine(_ context.Context, buyerID string, params pagination.Params) (pagination.Page[Payment], error) {
	return m.page(params, func(p *Payment) bool { return p.BuyerID == buyerID })
}

func (m *MockPaymentService) ListAll(_ context.Context, params ListParams) (pagination.Page[Payment], error) {
	return m.page(params.Params, func(p *Payment) bool { return params.Status == "" || p.Status == params.Status })
}

func (m *MockPaymentService) page(params pagination.Params, keep func(*Payment) bool) (pagination.Page[Payment], error) {
	cursor, err := pagination.DecodeTyped(params.Cursor, CursorType)
	if err != nil {
		return pagination.Page[Payment]{}, err
	}
	m.mu.RLock()
	var out []Payment
	for _, p := range m.payments {
		if keep(p) {
			out = append(out, *p)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return pagination.Paginate(out, cursor, params.PageSize(), CursorType, func(p Payment) string { return p.ID }), nil
}

func (m *MockPaymentService) Approve(_ context.Context, a actor.Actor, paymentID string) (*Payment, error) {
	return m.decide(a, paymentID, Decision{To: StatusApproved})
}

func (m *MockPaymentService) Reject(_ context.Context, a actor.Actor, paymentID, reason string) (*Payment, error) {
	return m.decide(a, paymentID, Decision{To: StatusRejected, Reason: reason})
}

func (m *MockPaymentService) Cancel(_ context.Context, a actor.Actor, paymentID string) (*Payment, error) {
	return m.decide(a, paymentID, Decision{To: StatusCancelled})
}

func (m *MockPaymentService) decide(a actor.Actor, paymentID string, d Decision) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.payments[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	p := *stored
	err := m.items.Mutate(p.ItemID, func(it *item.Item) error {
		return d.Apply(&p, it, a, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	m.payments[paymentID] = &p
	out := p
	return &out, nil
}

// Compile-time interface check
var _ Service = (*MockPaymentService)(nil)
