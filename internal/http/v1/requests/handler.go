package requests

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
	requestsvc "github.com/freebies-japan/api/internal/service/request"
)

// Register wires request routes into the provided API router.
func Register(api huma.API, svc requestsvc.Service, prefix string) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-request",
		Method:        http.MethodPost,
		Path:          "/items/{itemId}/requests",
		Summary:       "Request a free item",
		Description:   "Enters the caller into the item's lottery. One request per user and item.",
		Tags:          []string{"Requests"},
		DefaultStatus: http.StatusCreated,
		Security:      auth.Bearer,
	}, func(ctx context.Context, input *RequestCreateInput) (*RequestCreateOutput, error) {
		user := auth.UserFromContext(ctx)

		r, err := svc.Create(ctx, user.Actor(), input.ItemID, requestsvc.CreateParams{
			Message: input.Body.Message,
		})
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &RequestCreateOutput{
			Location: prefix + "/me/requests",
			Body:     toHTTPRequest(r),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-item-requests",
		Method:      http.MethodGet,
		Path:        "/items/{itemId}/requests",
		Summary:     "List requests for an item",
		Description: "Returns every request for the item. Donor and admins only.",
		Tags:        []string{"Requests"},
		Security:    auth.Bearer,
	}, func(ctx context.Context, input *RequestListInput) (*RequestListOutput, error) {
		user := auth.UserFromContext(ctx)

		page, err := svc.ListForItem(ctx, user.Actor(), input.ItemID, input.Params)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &RequestListOutput{
			Link: pagination.BuildLinkHeader(prefix+"/items/"+url.PathEscape(input.ItemID)+"/requests",
				url.Values{}, page.NextCursor, input.Limit),
			Body: RequestList{Requests: toHTTPRequests(page.Items)},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "withdraw-request",
		Method:      http.MethodDelete,
		Path:        "/items/{itemId}/requests/me",
		Summary:     "Withdraw my request",
		Description: "Withdraws the caller's pending request before the draw.",
		Tags:        []string{"Requests"},
		Security:    auth.Bearer,
	}, func(ctx context.Context, input *RequestWithdrawInput) (*RequestOutput, error) {
		user := auth.UserFromContext(ctx)

		r, err := svc.Withdraw(ctx, user.Actor(), input.ItemID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &RequestOutput{Body: toHTTPRequest(r)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-my-requests",
		Method:      http.MethodGet,
		Path:        "/me/requests",
		Summary:     "List my requests",
		Description: "Returns the caller's requests with their lottery outcome, newest first.",
		Tags:        []string{"Requests"},
		Security:    auth.Bearer,
	}, func(ctx context.Context, input *MyRequestsInput) (*RequestListOutput, error) {
		user := auth.UserFromContext(ctx)

		page, err := svc.ListMine(ctx, user.UID, input.Params)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &RequestListOutput{
			Link: pagination.BuildLinkHeader(prefix+"/me/requests", url.Values{}, page.NextCursor, input.Limit),
			Body: RequestList{Requests: toHTTPRequests(page.Items)},
		}, nil
	})
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, requestsvc.ErrNotFound):
		return huma.Error404NotFound("request not found")
	case errors.Is(err, itemsvc.ErrNotFound):
		return huma.Error404NotFound("item not found")
	case errors.Is(err, requestsvc.ErrAlreadyRequested):
		return huma.Error409Conflict("item already requested")
	case errors.Is(err, requestsvc.ErrNotRequestable):
		return huma.Error409Conflict("item is not open for requests")
	case errors.Is(err, requestsvc.ErrNotWithdrawable):
		return huma.Error409Conflict("request can no longer be withdrawn")
	case errors.Is(err, requestsvc.ErrOwnItem):
		return huma.Error403Forbidden("cannot request your own item")
	case errors.Is(err, requestsvc.ErrForbidden):
		return huma.Error403Forbidden("not allowed to view these requests")
	case errors.Is(err, pagination.ErrInvalidCursor):
		return huma.Error400BadRequest("invalid cursor")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}

func toHTTPRequest(r *requestsvc.Request) Request {
	return Request{
		ItemID:    r.ItemID,
		UserID:    r.UserID,
		ItemTitle: r.ItemTitle,
		Message:   r.Message,
		Status:    string(r.Status),
		CreatedAt: timeutil.Time{Time: r.CreatedAt},
		UpdatedAt: timeutil.Time{Time: r.UpdatedAt},
	}
}

func toHTTPRequests(rs []requestsvc.Request) []Request {
	out := make([]Request, 0, len(rs))
	for i := range rs {
		out = append(out, toHTTPRequest(&rs[i]))
	}
	return out
}
