// Package payment records deposits for premium items and their review.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/freebies-japan/api/internal/platform/pagination"
	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/service/item"
)

// Service errors
var (
	ErrNotFound          = errors.New("payment not found")
	ErrForbidden         = errors.New("not allowed to access this payment")
	ErrNotPayable        = errors.New("item is not open for payment")
	ErrOwnItem           = errors.New("cannot pay for your own item")
	ErrAmountMismatch    = errors.New("amount does not match item price")
	ErrInvalidReceipt    = errors.New("receipt path does not belong to the payer")
	ErrInvalidTransition = errors.New("invalid payment status transition")
)

// Collection is the Firestore collection holding payments.
const Collection = "payments"

// CursorType tags pagination cursors issued for payment listings.
const CursorType = "payment"

// Status of a payment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Method is how the buyer paid.
type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodPayPay       Method = "paypay"
	MethodCreditCard   Method = "credit_card"
	MethodCash         Method = "cash"
)

// Payment is a deposit submitted for a premium item.
type Payment struct {
	ID          string
	ItemID      string
	ItemTitle   string
	BuyerID     string
	Amount      int64
	Method      Method
	Reference   string
	ReceiptPath string
	Status      Status
	Note        string
	ReviewedBy  string
	ReviewedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SubmitParams for paying a deposit.
type SubmitParams struct {
	Amount      int64
	Method      Method
	Reference   string
	ReceiptPath string
}

// ListParams filters the admin payment listing.
type ListParams struct {
	Status Status
	pagination.Params
}

// Service defines payment operations.
type Service interface {
	Submit(ctx context.Context, a actor.Actor, itemID string, params SubmitParams) (*Payment, error)
	Get(ctx context.Context, a actor.Actor, paymentID string) (*Payment, error)
	ListMine(ctx context.Context, buyerID string, params pagination.Params) (pagination.Page[Payment], error)
	ListAll(ctx context.Context, params ListParams) (pagination.Page[Payment], error)
	Approve(ctx context.Context, a actor.Actor, paymentID string) (*Payment, error)
	Reject(ctx context.Context, a actor.Actor, paymentID, reason string) (*Payment, error)
	Cancel(ctx context.Context, a actor.Actor, paymentID string) (*Payment, error)
}

// ReceiptPrefix is the storage prefix receipts uploaded by userID live under.
func ReceiptPrefix(userID string) string {
	return "receipts/" + userID + "/"
}

// NewPayment validates a submission against the item and reserves it.
func NewPayment(id string, it *item.Item, buyerID string, params SubmitParams, now time.Time) (*Payment, error) {
	if it.Kind != item.KindPremium || it.Status != item.StatusAvailable {
		return nil, ErrNotPayable
	}
	if it.DonorID == buyerID {
		return nil, ErrOwnItem
	}
	if params.Amount != it.Price {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrAmountMismatch, params.Amount, it.Price)
	}
	receipt := strings.TrimSpace(params.ReceiptPath)
	if receipt != "" && !strings.HasPrefix(receipt, ReceiptPrefix(buyerID)) {
		return nil, ErrInvalidReceipt
	}
	if err := it.Transition(item.StatusReserved, now); err != nil {
		return nil, err
	}
	it.ReservedBy = buyerID
	return &Payment{
		ID:          id,
		ItemID:      it.ID,
		ItemTitle:   it.Title,
		BuyerID:     buyerID,
		Amount:      params.Amount,
		Method:      params.Method,
		Reference:   strings.TrimSpace(params.Reference),
		ReceiptPath: receipt,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Decision is a status change applied to a pending payment and its item.
type Decision struct {
	To     Status
	Reason string
}

// Apply moves p and it according to d on behalf of a. Approve and reject are
// admin decisions; cancel belongs to the buyer.
func (d Decision) Apply(p *Payment, it *item.Item, a actor.Actor, now time.Time) error {
	switch d.To {
	case StatusApproved, StatusRejected:
		if !a.Admin {
			return ErrForbidden
		}
	case StatusCancelled:
		if p.BuyerID != a.UID {
			return ErrForbidden
		}
	default:
		return ErrInvalidTransition
	}
	if p.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, d.To)
	}

	itemTo := item.StatusAvailable
	if d.To == StatusApproved {
		itemTo = item.StatusSold
	}
	if err := it.Transition(itemTo, now); err != nil {
		return err
	}
	it.ReservedBy = ""
	if d.To == StatusApproved {
		it.BuyerID = p.BuyerID
	}

	p.Status = d.To
	p.UpdatedAt = now
	if d.To != StatusCancelled {
		p.ReviewedBy = a.UID
		p.ReviewedAt = &now
		p.Note = strings.TrimSpace(d.Reason)
	}
	return nil
}

// CanView reports whether a may read p.
func CanView(p *Payment, a actor.Actor) bool {
	return a.Admin || p.BuyerID == a.UID
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, item.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotPayable):
		return "not_payable"
	case errors.Is(err, ErrOwnItem):
		return "own_item"
	case errors.Is(err, ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, ErrInvalidReceipt):
		return "invalid_receipt"
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, item.ErrInvalidTransition):
		return "invalid_transition"
	default:
		return "internal_error"
	}
}
