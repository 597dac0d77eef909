package payments

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/freebies-japan/api/internal/platform/auth"
	"github.com/freebies-japan/api/internal/platform/pagination"
	"github.com/freebies-japan/api/internal/platform/timeutil"
	itemsvc "github.com/freebies-japan/api/internal/service/item"
	paymentsvc "github.com/freebies-japan/api/internal/service/payment"
)

// Register wires buyer payment routes into the provided API router.
func Register(api huma.API, svc paymentsvc.Service, prefix string) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-payment",
		Method:        http.MethodPost,
		Path:          "/items/{itemId}/payments",
		Summary:       "Pay the deposit for a premium item",
		Description:   "Records the caller's deposit and reserves the item until an admin reviews the payment.",
		Tags:          []string{"Payments"},
		DefaultStatus: http.StatusCreated,
		Security:      auth.Bearer,
	}, func(ctx context.Context, input *PaymentSubmitInput) (*PaymentSubmitOutput, error) {
		user := auth.UserFromContext(ctx)

		p, err := svc.Submit(ctx, user.Actor(), input.ItemID, paymentsvc.SubmitParams{
			Amount:      input.Body.Amount,
			Method:      paymentsvc.Method(input.Body.Method),
			Reference:   input.Body.Reference,
			ReceiptPath: input.Body.ReceiptPath,
		})
		if err != nil {
			return nil, MapServiceError(err)
		}
		return &PaymentSubmitOutput{
			Location: prefix + "/payments/" + p.ID,
			Body:     ToHTTPPayment(p),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-my-payments",
		Method:      http.MethodGet,
		Path:        "/me/payments",
		Summary:     "List my payments",
		Description: "Returns the caller's payments, newest first.",
		Tags:        []string{"Payments"},
		Security:    auth.Bearer,
	}, func(ctx context.Context, input *MyPaymentsInput) (*PaymentListOutput, error) {
		user := auth.UserFromContext(ctx)

		page, err := svc.ListMine(ctx, user.UID, input.Params)
		if err != nil {
			return nil, MapServiceError(err)
		}
		return &PaymentListOutput{
			Link: pagination.BuildLinkHeader(prefix+"/me/payments", url.Values{}, page.NextCursor, input.Limit),
			Body: PaymentList{Payments: ToHTTPPayments(page.Items)},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-payment",
		Method:      http.MethodGet,
		Path:        "/payments/{paymentId}",
		Summary:     "Get a payment",
		Description: "Visible to the buyer and admins.",
		Tags:        []string{"Payments"},
		Security:    auth.Bearer,
	}, func(ctx context.Context, input *PaymentGetInput) (*PaymentOutput, error) {
		user := auth.UserFromContext(ctx)

		p, err := svc.Get(ctx, user.Actor(), input.PaymentID)
		if err != nil {
			return nil, MapServiceError(err)
		}
		return &PaymentOutput{Body: ToHTTPPayment(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-payment",
		Method:      http.MethodPost,
		Path:        "/payments/{paymentId}/cancel",
		Summary:     "Cancel a pending payment",
		Description: "The buyer withdraws a payment that has not been reviewed. The item becomes available again.",
		Tags:        []string{"Payments"},
		Security:    auth.Bearer,
	}, func(ctx context.Context, input *PaymentCancelInput) (*PaymentOutput, error) {
		user := auth.UserFromContext(ctx)

		p, err := svc.Cancel(ctx, user.Actor(), input.PaymentID)
		if err != nil {
			return nil, MapServiceError(err)
		}
		return &PaymentOutput{Body: ToHTTPPayment(p)}, nil
	})
}

// MapServiceError maps payment service errors to HTTP problems.
func MapServiceError(err error) error {
	switch {
	case errors.Is(err, paymentsvc.ErrNotFound):
		return huma.Error404NotFound("payment not found")
	case errors.Is(err, itemsvc.ErrNotFound):
		return huma.Error404NotFound("item not found")
	case errors.Is(err, paymentsvc.ErrForbidden):
		return huma.Error403Forbidden("not allowed to access this payment")
	case errors.Is(err, paymentsvc.ErrOwnItem):
		return huma.Error403Forbidden("cannot pay for your own item")
	case errors.Is(err, paymentsvc.ErrNotPayable):
		return huma.Error409Conflict("item is not open for payment")
	case errors.Is(err, paymentsvc.ErrInvalidTransition), errors.Is(err, itemsvc.ErrInvalidTransition):
		return huma.Error409Conflict("payment has already been decided")
	case errors.Is(err, paymentsvc.ErrAmountMismatch):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, paymentsvc.ErrInvalidReceipt):
		return huma.Error422UnprocessableEntity("receipt must be uploaded by the payer")
	case errors.Is(err, pagination.ErrInvalidCursor):
		return huma.Error400BadRequest("invalid cursor")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}

// ToHTTPPayment converts a payment for a response.
func ToHTTPPayment(p *paymentsvc.Payment) Payment {
	return Payment{
		ID:          p.ID,
		ItemID:      p.ItemID,
		ItemTitle:   p.ItemTitle,
		BuyerID:     p.BuyerID,
		Amount:      p.Amount,
		Method:      string(p.Method),
		Reference:   p.Reference,
		ReceiptPath: p.ReceiptPath,
		Status:      string(p.Status),
		Note:        p.Note,
		ReviewedBy:  p.ReviewedBy,
		ReviewedAt:  timeutil.Ptr(p.ReviewedAt),
		CreatedAt:   timeutil.Time{Time: p.CreatedAt},
		UpdatedAt:   timeutil.Time{Time: p.UpdatedAt},
	}
}

// ToHTTPPayments converts a page of payments.
func ToHTTPPayments(ps []paymentsvc.Payment) []Payment {
	out := make([]Payment, 0, len(ps))
	for i := range ps {
		out = append(out, ToHTTPPayment(&ps[i]))
	}
	return out
}
