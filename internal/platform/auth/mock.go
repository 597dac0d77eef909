package auth

import (
	"context"
)

// MockVerifier provides fake token verification for tests. When Users is set
// the token is looked up there, so one router can serve several callers.
type MockVerifier struct {
	User  *User
	Users map[string]*User
	Error error
}

// Verify returns the configured user or error.
func (m *MockVerifier) Verify(_ context.Context, token string) (*User, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	if m.Users != nil {
		u, ok := m.Users[token]
		if !ok {
			return nil, ErrInvalidToken
		}
		return u, nil
	}
	return m.User, nil
}

// TestUser returns a standard non-admin test user.
func TestUser() *User {
	return &User{
		UID:           "test-user-123",
		Email:         "test@example.com",
		EmailVerified: true,
	}
}

// TestAdmin returns a standard admin test user.
func TestAdmin() *User {
	return &User{
		UID:           "admin-user-1",
		Email:         "admin@example.com",
		EmailVerified: true,
		Admin:         true,
	}
}

var _ Verifier = (*MockVerifier)(nil)
