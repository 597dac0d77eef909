// Package admin exposes moderation, payment review and fulfillment routes.
// Every operation requires the admin custom claim.
package admin

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/freebies-japan/api/internal/http/v1/items"
	"github.com/freebies-japan/api/internal/http/v1/payments"
	"github.com/freebies-japan/api/internal/platform/auth"
	"github.com/freebies-japan/api/internal/platform/pagination"
	itemsvc "github.com/freebies-japan/api/internal/service/item"
	paymentsvc "github.com/freebies-japan/api/internal/service/payment"
)

// Register wires admin routes into the provided API router.
func Register(api huma.API, itemSvc itemsvc.Service, paymentSvc paymentsvc.Service, prefix string) {
	huma.Register(api, huma.Operation{
		OperationID: "admin-list-payments",
		Method:      http.MethodGet,
		Path:        "/admin/payments",
		Summary:     "List payments",
		Description: "Returns all payments, newest first, optionally filtered by status.",
		Tags:        []string{"Admin"},
		Security:    auth.Bearer,
		Metadata:    auth.AdminOnly(),
	}, func(ctx context.Context, input *PaymentListInput) (*payments.PaymentListOutput, error) {
		page, err := paymentSvc.ListAll(ctx, paymentsvc.ListParams{
			Status: paymentsvc.Status(input.Status),
			Params: input.Params,
		})
		if err != nil {
			return nil, payments.MapServiceError(err)
		}
		query := url.Values{}
		if input.Status != "" {
			query.Set("status", input.Status)
		}
		return &payments.PaymentListOutput{
			Link: pagination.BuildLinkHeader(prefix+"/admin/payments", query, page.NextCursor, input.Limit),
			Body: payments.PaymentList{Payments: payments.ToHTTPPayments(page.Items)},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-approve-payment",
		Method:      http.MethodPost,
		Path:        "/admin/payments/{paymentId}/approve",
		Summary:     "Approve a payment",
		Description: "Confirms the deposit. The item is marked sold to the buyer.",
		Tags:        []string{"Admin"},
		Security:    auth.Bearer,
		Metadata:    auth.AdminOnly(),
	}, func(ctx context.Context, input *PaymentApproveInput) (*payments.PaymentOutput, error) {
		user := auth.UserFromContext(ctx)

		p, err := paymentSvc.Approve(ctx, user.Actor(), input.PaymentID)
		if err != nil {
			return nil, payments.MapServiceError(err)
		}
		return &payments.PaymentOutput{Body: payments.ToHTTPPayment(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-reject-payment",
		Method:      http.MethodPost,
		Path:        "/admin/payments/{paymentId}/reject",
		Summary:     "Reject a payment",
		Description: "Rejects the deposit with a reason. The item becomes available again.",
		Tags:        []string{"Admin"},
		Security:    auth.Bearer,
		Metadata:    auth.AdminOnly(),
	}, func(ctx context.Context, input *PaymentRejectInput) (*payments.PaymentOutput, error) {
		user := auth.UserFromContext(ctx)

		p, err := paymentSvc.Reject(ctx, user.Actor(), input.PaymentID, input.Body.Reason)
		if err != nil {
			return nil, payments.MapServiceError(err)
		}
		return &payments.PaymentOutput{Body: payments.ToHTTPPayment(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-review-item",
		Method:      http.MethodPost,
		Path:        "/admin/items/{itemId}/review",
		Summary:     "Review a listing",
		Description: "Publishes a pending item or rejects it. The donor is notified either way.",
		Tags:        []string{"Admin"},
		Security:    auth.Bearer,
		Metadata:    auth.AdminOnly(),
	}, func(ctx context.Context, input *ItemReviewInput) (*items.ItemOutput, error) {
		user := auth.UserFromContext(ctx)

		it, err := itemSvc.Review(ctx, user.Actor(), input.ItemID, itemsvc.ReviewParams{
			Approve: input.Body.Approve,
			Note:    input.Body.Note,
		})
		if err != nil {
			return nil, mapItemError(err)
		}
		return &items.ItemOutput{Body: items.ToHTTPItem(it, user.Actor())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-update-delivery",
		Method:      http.MethodPost,
		Path:        "/admin/items/{itemId}/delivery",
		Summary:     "Update delivery status",
		Description: "Moves a drawn or sold item to shipped, or a shipped item to delivered. Recipients are notified on shipping.",
		Tags:        []string{"Admin"},
		Security:    auth.Bearer,
		Metadata:    auth.AdminOnly(),
	}, func(ctx context.Context, input *ItemDeliveryInput) (*items.ItemOutput, error) {
		user := auth.UserFromContext(ctx)

		it, err := itemSvc.UpdateDelivery(ctx, user.Actor(), input.ItemID, itemsvc.DeliveryParams{
			Status:         itemsvc.Status(input.Body.Status),
			TrackingNumber: input.Body.TrackingNumber,
		})
		if err != nil {
			return nil, mapItemError(err)
		}
		return &items.ItemOutput{Body: items.ToHTTPItem(it, user.Actor())}, nil
	})
}

func mapItemError(err error) error {
	switch {
	case errors.Is(err, itemsvc.ErrNotFound):
		return huma.Error404NotFound("item not found")
	case errors.Is(err, itemsvc.ErrForbidden):
		return huma.Error403Forbidden("admin privileges required")
	case errors.Is(err, itemsvc.ErrInvalidTransition):
		return huma.Error409Conflict(err.Error())
	default:
		return huma.Error500InternalServerError("internal error")
	}
}
