package profile

import (
	"context"
	"sync"
	"time"
)

// MockProfileService implements Service in memory. Err, when set, fails every
// call; handler tests use it for the 500 paths.
type MockProfileService struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	Err      error
}

// NewMockProfileService creates a new mock service.
func NewMockProfileService() *MockProfileService {
	return &MockProfileService{profiles: make(map[string]Profile)}
}

func (m *MockProfileService) Create(_ context.Context, userID string, params CreateParams) (*Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if !params.Terms {
		return nil, ErrTermsRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[userID]; ok {
		return nil, ErrAlreadyExists
	}
	p := newProfile(userID, params, time.Now().UTC())
	m.profiles[userID] = *p
	return p, nil
}

func (m *MockProfileService) Get(_ context.Context, userID string) (*Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MockProfileService) Update(_ context.Context, userID string, params UpdateParams) (*Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	applyUpdate(&p, params, time.Now().UTC())
	m.profiles[userID] = p
	return &p, nil
}

func (m *MockProfileService) Delete(_ context.Context, userID string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[userID]; !ok {
		return ErrNotFound
	}
	delete(m.profiles, userID)
	return nil
}

// Put stores p as-is. Notification tests use it to seed recipients.
func (m *MockProfileService) Put(p Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

// Len reports how many profiles are stored.
func (m *MockProfileService) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}

var _ Service = (*MockProfileService)(nil)
