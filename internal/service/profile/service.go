// Package profile stores per-user contact and delivery details.
package profile

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Service errors
var (
	ErrNotFound      = errors.New("profile not found")
	ErrAlreadyExists = errors.New("profile already exists")
	ErrTermsRequired = errors.New("terms must be accepted")
)

// Profile represents stored profile data.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
	PhoneNumber string
	PostalCode  string
	Prefecture  string
	City        string
	Address     string
	Marketing   bool
	Terms       bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams for creating a profile.
type CreateParams struct {
	DisplayName string
	Email       string
	PhoneNumber string
	PostalCode  string
	Prefecture  string
	City        string
	Address     string
	Marketing   bool
	Terms       bool
}

// UpdateParams for updating a profile.
type UpdateParams struct {
	DisplayName *string
	Email       *string
	PhoneNumber *string
	PostalCode  *string
	Prefecture  *string
	City        *string
	Address     *string
	Marketing   *bool
}

// Service defines profile operations.
//
// Implementations must normalize input data:
//   - Email: lowercase and trim whitespace
//   - Other text fields: trim whitespace
type Service interface {
	Create(ctx context.Context, userID string, params CreateParams) (*Profile, error)
	Get(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, userID string, params UpdateParams) (*Profile, error)
	Delete(ctx context.Context, userID string) error
}

func newProfile(userID string, params CreateParams, now time.Time) *Profile {
	return &Profile{
		ID:          userID,
		DisplayName: strings.TrimSpace(params.DisplayName),
		Email:       normalizeEmail(params.Email),
		PhoneNumber: strings.TrimSpace(params.PhoneNumber),
		PostalCode:  strings.TrimSpace(params.PostalCode),
		Prefecture:  strings.TrimSpace(params.Prefecture),
		City:        strings.TrimSpace(params.City),
		Address:     strings.TrimSpace(params.Address),
		Marketing:   params.Marketing,
		Terms:       params.Terms,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func applyUpdate(p *Profile, params UpdateParams, now time.Time) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.DisplayName, params.DisplayName)
	set(&p.PhoneNumber, params.PhoneNumber)
	set(&p.PostalCode, params.PostalCode)
	set(&p.Prefecture, params.Prefecture)
	set(&p.City, params.City)
	set(&p.Address, params.Address)
	if params.Email != nil {
		p.Email = normalizeEmail(*params.Email)
	}
	if params.Marketing != nil {
		p.Marketing = *params.Marketing
	}
	p.UpdatedAt = now
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTermsRequired):
		return "terms_required"
	default:
		return "internal_error"
	}
}
