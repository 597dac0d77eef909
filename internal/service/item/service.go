// Package item manages donated items and their lifecycle.
package item

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/freebies-japan/api/internal/platform/pagination"
	"github.com/freebies-japan/api/internal/service/actor"
)

// Service errors
var (
	ErrNotFound          = errors.New("item not found")
	ErrForbidden         = errors.New("not allowed to modify this item")
	ErrInvalidTransition = errors.New("invalid item status transition")
	ErrNotEditable       = errors.New("item can no longer be edited")
	ErrInvalid           = errors.New("invalid item")
)

// CursorType tags pagination cursors issued for item listings.
const CursorType = "item"

// Kind distinguishes free lottery items from premium deposit items.
type Kind string

const (
	KindFree    Kind = "free"
	KindPremium Kind = "premium"
)

// Status is the lifecycle state of an item.
type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusAvailable     Status = "available"
	StatusRejected      Status = "rejected"
	StatusWithdrawn     Status = "withdrawn"
	StatusDrawn         Status = "drawn"
	StatusReserved      Status = "reserved"
	StatusSold          Status = "sold"
	StatusShipped       Status = "shipped"
	StatusDelivered     Status = "delivered"
)

// Condition grades the physical state of an item.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

var transitions = map[Status][]Status{
	StatusPendingReview: {StatusAvailable, StatusRejected, StatusWithdrawn},
	StatusAvailable:     {StatusDrawn, StatusReserved, StatusWithdrawn},
	StatusReserved:      {StatusSold, StatusAvailable},
	StatusDrawn:         {StatusShipped},
	StatusSold:          {StatusShipped},
	StatusShipped:       {StatusDelivered},
}

// CanTransition reports whether an item of kind may move from one status to
// another. Drawing is only defined for free items and reserving only for
// premium items.
func CanTransition(kind Kind, from, to Status) bool {
	if !slices.Contains(transitions[from], to) {
		return false
	}
	switch to {
	case StatusDrawn:
		return kind == KindFree
	case StatusReserved:
		return kind == KindPremium
	}
	return true
}

// Item is a donated item.
type Item struct {
	ID              string
	DonorID         string
	Title           string
	Description     string
	Category        string
	Condition       Condition
	Prefecture      string
	City            string
	ImagePaths      []string
	Kind            Kind
	Price           int64
	Status          Status
	LotteryDeadline *time.Time
	RequestCount    int
	WinnerIDs       []string
	ReservedBy      string
	BuyerID         string
	ReviewNote      string
	TrackingNumber  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Transition moves the item to status to or returns ErrInvalidTransition.
func (it *Item) Transition(to Status, now time.Time) error {
	if !CanTransition(it.Kind, it.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, it.Status, to)
	}
	it.Status = to
	it.UpdatedAt = now
	return nil
}

// Editable reports whether the donor may still change listing details.
func (it *Item) Editable() bool {
	return it.Status == StatusPendingReview || it.Status == StatusAvailable
}

// VisibleTo reports whether a reads the item. Available and finished items
// are public; anything else is limited to the donor and admins.
func (it *Item) VisibleTo(a actor.Actor) bool {
	switch it.Status {
	case StatusAvailable, StatusDrawn, StatusReserved, StatusSold, StatusShipped, StatusDelivered:
		return true
	}
	return a.CanManage(it.DonorID)
}

// CreateParams for listing a new item.
type CreateParams struct {
	Title           string
	Description     string
	Category        string
	Condition       Condition
	Prefecture      string
	City            string
	ImagePaths      []string
	Kind            Kind
	Price           int64
	LotteryDeadline *time.Time
}

// UpdateParams for editing an item. Nil fields are left unchanged.
type UpdateParams struct {
	Title           *string
	Description     *string
	Category        *string
	Condition       *Condition
	Prefecture      *string
	City            *string
	ImagePaths      *[]string
	Price           *int64
	LotteryDeadline *time.Time
}

// ListParams filters the public catalogue.
type ListParams struct {
	Kind       Kind
	Category   string
	Prefecture string
	pagination.Params
}

// ReviewParams is an admin moderation decision.
type ReviewParams struct {
	Approve bool
	Note    string
}

// DeliveryParams moves an item through fulfillment.
type DeliveryParams struct {
	Status         Status
	TrackingNumber string
}

// Service defines item operations.
type Service interface {
	Create(ctx context.Context, a actor.Actor, params CreateParams) (*Item, error)
	Get(ctx context.Context, itemID string) (*Item, error)
	List(ctx context.Context, params ListParams) (pagination.Page[Item], error)
	ListByDonor(ctx context.Context, donorID string, params pagination.Params) (pagination.Page[Item], error)
	Update(ctx context.Context, a actor.Actor, itemID string, params UpdateParams) (*Item, error)
	Withdraw(ctx context.Context, a actor.Actor, itemID string) (*Item, error)
	Review(ctx context.Context, a actor.Actor, itemID string, params ReviewParams) (*Item, error)
	UpdateDelivery(ctx context.Context, a actor.Actor, itemID string, params DeliveryParams) (*Item, error)
	ListDueLotteries(ctx context.Context, now time.Time, limit int) ([]Item, error)
	LapseLottery(ctx context.Context, itemID string, now time.Time) error
}

// ImagePrefix is the storage prefix images uploaded by donorID live under.
func ImagePrefix(donorID string) string {
	return "items/" + donorID + "/"
}

func checkImagePaths(paths []string, donorID string) error {
	prefix := ImagePrefix(donorID)
	for _, p := range paths {
		if !strings.HasPrefix(p, prefix) || strings.Contains(p, "..") {
			return fmt.Errorf("%w: image %q does not belong to the donor", ErrInvalid, p)
		}
	}
	return nil
}

// ValidateCreate checks kind-dependent fields and image ownership, and
// normalizes the input.
func ValidateCreate(params *CreateParams, donorID string, now time.Time) error {
	params.Title = strings.TrimSpace(params.Title)
	params.Prefecture = strings.TrimSpace(params.Prefecture)
	params.City = strings.TrimSpace(params.City)
	if params.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if err := checkImagePaths(params.ImagePaths, donorID); err != nil {
		return err
	}
	switch params.Kind {
	case KindFree:
		if params.Price != 0 {
			return fmt.Errorf("%w: free items have no price", ErrInvalid)
		}
		if params.LotteryDeadline != nil && !params.LotteryDeadline.After(now) {
			return fmt.Errorf("%w: lottery deadline must be in the future", ErrInvalid)
		}
	case KindPremium:
		if params.Price <= 0 {
			return fmt.Errorf("%w: premium items need a positive price", ErrInvalid)
		}
		if params.LotteryDeadline != nil {
			return fmt.Errorf("%w: premium items have no lottery", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, params.Kind)
	}
	return nil
}

// ApplyUpdate applies params to it after checking ownership and editability.
func ApplyUpdate(it *Item, a actor.Actor, params UpdateParams, now time.Time) error {
	if it.DonorID != a.UID {
		return ErrForbidden
	}
	if !it.Editable() {
		return ErrNotEditable
	}
	if params.Price != nil {
		if it.Kind != KindPremium {
			return fmt.Errorf("%w: free items have no price", ErrInvalid)
		}
		if *params.Price <= 0 {
			return fmt.Errorf("%w: premium items need a positive price", ErrInvalid)
		}
	}
	if params.LotteryDeadline != nil {
		if it.Kind != KindFree {
			return fmt.Errorf("%w: premium items have no lottery", ErrInvalid)
		}
		if !params.LotteryDeadline.After(now) {
			return fmt.Errorf("%w: lottery deadline must be in the future", ErrInvalid)
		}
	}
	if params.ImagePaths != nil {
		if err := checkImagePaths(*params.ImagePaths, it.DonorID); err != nil {
			return err
		}
	}
	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return fmt.Errorf("%w: title is required", ErrInvalid)
		}
		it.Title = title
	}
	if params.Description != nil {
		it.Description = *params.Description
	}
	if params.Category != nil {
		it.Category = *params.Category
	}
	if params.Condition != nil {
		it.Condition = *params.Condition
	}
	if params.Prefecture != nil {
		it.Prefecture = strings.TrimSpace(*params.Prefecture)
	}
	if params.City != nil {
		it.City = strings.TrimSpace(*params.City)
	}
	if params.ImagePaths != nil {
		it.ImagePaths = slices.Clone(*params.ImagePaths)
	}
	if params.Price != nil {
		it.Price = *params.Price
	}
	if params.LotteryDeadline != nil {
		d := params.LotteryDeadline.UTC()
		it.LotteryDeadline = &d
	}
	it.UpdatedAt = now
	return nil
}

// ApplyWithdraw withdraws it on behalf of a.
func ApplyWithdraw(it *Item, a actor.Actor, now time.Time) error {
	if !a.CanManage(it.DonorID) {
		return ErrForbidden
	}
	return it.Transition(StatusWithdrawn, now)
}

// ApplyReview records an admin moderation decision.
func ApplyReview(it *Item, a actor.Actor, params ReviewParams, now time.Time) error {
	if !a.Admin {
		return ErrForbidden
	}
	to := StatusRejected
	if params.Approve {
		to = StatusAvailable
	}
	if err := it.Transition(to, now); err != nil {
		return err
	}
	it.ReviewNote = strings.TrimSpace(params.Note)
	return nil
}

// ApplyDelivery moves a drawn or sold item to shipped, or shipped to delivered.
func ApplyDelivery(it *Item, a actor.Actor, params DeliveryParams, now time.Time) error {
	if !a.Admin {
		return ErrForbidden
	}
	if params.Status != StatusShipped && params.Status != StatusDelivered {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, it.Status, params.Status)
	}
	if err := it.Transition(params.Status, now); err != nil {
		return err
	}
	if tn := strings.TrimSpace(params.TrackingNumber); tn != "" {
		it.TrackingNumber = tn
	}
	return nil
}

// ApplyLapse clears the deadline of a due lottery nobody requested. The item
// stays available and the donor may set a new deadline.
func ApplyLapse(it *Item, now time.Time) error {
	if it.Kind != KindFree || it.Status != StatusAvailable ||
		it.LotteryDeadline == nil || it.LotteryDeadline.After(now) {
		return fmt.Errorf("%w: lottery is not due", ErrInvalidTransition)
	}
	if it.RequestCount > 0 {
		return fmt.Errorf("%w: lottery has requests", ErrInvalidTransition)
	}
	it.LotteryDeadline = nil
	it.UpdatedAt = now
	return nil
}

// CategorizeError converts errors to audit-safe categories.
func CategorizeError(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrNotEditable):
		return "not_editable"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	default:
		return "internal_error"
	}
}
