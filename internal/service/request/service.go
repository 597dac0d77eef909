// Package request manages users' requests for free items.
package request

import (
	"context"
	"errors"
	"time"

	"github.com/freebies-japan/api/internal/platform/pagination"
	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/service/item"
)

// Service errors
var (
	ErrNotFound         = errors.New("request not found")
	ErrAlreadyRequested = errors.New("item already requested")
	ErrNotRequestable   = errors.New("item is not open for requests")
	ErrOwnItem          = errors.New("cannot request your own item")
	ErrNotWithdrawable  = errors.New("request can no longer be withdrawn")
	ErrForbidden        = errors.New("not allowed to view these requests")
)

// Subcollection is the name of the per-item request collection.
const Subcollection = "requests"

// CursorType tags pagination cursors issued for request listings.
const CursorType = "request"

// Status of a request.
type Status string

const (
	StatusPending     Status = "pending"
	StatusSelected    Status = "selected"
	StatusNotSelected Status = "not_selected"
	StatusWithdrawn   Status = "withdrawn"
)

// Request is one user's entry in an item's lottery.
type Request struct {
	ItemID    string
	UserID    string
	ItemTitle string
	Message   string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the request still counts towards the item.
func (r *Request) Active() bool {
	return r.Status != StatusWithdrawn
}

// CreateParams for requesting an item.
type CreateParams struct {
	Message string
}

// Service defines request operations.
type Service interface {
	Create(ctx context.Context, a actor.Actor, itemID string, params CreateParams) (*Request, error)
	Withdraw(ctx context.Context, a actor.Actor, itemID string) (*Request, error)
	Get(ctx context.Context, itemID, userID string) (*Request, error)
	ListForItem(ctx context.Context, a actor.Actor, itemID string, params pagination.Params) (pagination.Page[Request], error)
	ListMine(ctx context.Context, userID string, params pagination.Params) (pagination.Page[Request], error)
}

// CheckRequestable reports whether userID may request it at now.
func CheckRequestable(it *item.Item, userID string, now time.Time) error {
	if it.Kind != item.KindFree || it.Status != item.StatusAvailable {
		return ErrNotRequestable
	}
	if it.LotteryDeadline != nil && !now.Before(*it.LotteryDeadline) {
		return ErrNotRequestable
	}
	if it.DonorID == userID {
		return ErrOwnItem
	}
	return nil
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, item.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyRequested):
		return "already_requested"
	case errors.Is(err, ErrNotRequestable):
		return "not_requestable"
	case errors.Is(err, ErrOwnItem):
		return "own_item"
	case errors.Is(err, ErrNotWithdrawable):
		return "not_withdrawable"
	default:
		return "internal_error"
	}
}
