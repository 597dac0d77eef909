package items

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/freebies-japan/api/internal/platform/auth"
	"github.com/freebies-japan/api/internal/platform/pagination"
	"github.com/freebies-japan/api/internal/platform/timeutil"
	"github.com/freebies-japan/api/internal/service/actor"
	itemsvc "github.com/freebies-japan/api/internal/service/item"
)

// Register wires item routes into the provided API router.
func Register(api huma.API, svc itemsvc.Service, verifier auth.Verifier, prefix string) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-item",
		Method:        http.MethodPost,
		Path:          "/items",
		Summary:       "Donate an item",
		Description:   "Creates a listing owned by the caller. New listings wait for admin review before they are public.",
		Tags:          []string{"Items"},
		DefaultStatus: http.StatusCreated,
		Security:      auth.Bearer,
	}, func(ctx context.Context, input *ItemCreateInput) (*ItemCreateOutput, error) {
		user := auth.UserFromContext(ctx)

		it, err := svc.Create(ctx, user.Actor(), itemsvc.CreateParams{
			Title:           input.Body.Title,
			Description:     input.Body.Description,
			Category:        input.Body.Category,
			Condition:       itemsvc.Condition(input.Body.Condition),
			Prefecture:      input.Body.Prefecture,
			City:            input.Body.City,
			ImagePaths:      input.Body.ImagePaths,
			Kind:            itemsvc.Kind(input.Body.Kind),
			Price:           input.Body.Price,
			LotteryDeadline: input.Body.LotteryDeadline,
		})
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &ItemCreateOutput{
			Location: prefix + "/items/" + it.ID,
			Body:     ToHTTPItem(it, user.Actor()),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-items",
		Method:      http.MethodGet,
		Path:        "/items",
		Summary:     "List available items",
		Description: "Returns available items, newest first. Use the cursor from the Link header to fetch the next page.",
		Tags:        []string{"Items"},
	}, func(ctx context.Context, input *ItemListInput) (*ItemListOutput, error) {
		page, err := svc.List(ctx, itemsvc.ListParams{
			Kind:       itemsvc.Kind(input.Kind),
			Category:   input.Category,
			Prefecture: input.Prefecture,
			Params:     input.Params,
		})
		if err != nil {
			return nil, mapServiceError(err)
		}

		query := url.Values{}
		if input.Kind != "" {
			query.Set("kind", input.Kind)
		}
		if input.Category != "" {
			query.Set("category", input.Category)
		}
		if input.Prefecture != "" {
			query.Set("prefecture", input.Prefecture)
		}
		return &ItemListOutput{
			Link: pagination.BuildLinkHeader(prefix+"/items", query, page.NextCursor, input.Limit),
			Body: ItemList{Items: toHTTPItems(page.Items, actor.Actor{})},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-item",
		Method:      http.MethodGet,
		Path:        "/items/{itemId}",
		Summary:     "Get an item",
		Description: "Public for listed items. Items pending review, rejected or withdrawn are visible to the donor and admins only.",
		Tags:        []string{"Items"},
	}, func(ctx context.Context, input *ItemGetInput) (*ItemOutput, error) {
		viewer := auth.OptionalUser(ctx, verifier, input.Authorization).Actor()

		it, err := svc.Get(ctx, input.ItemID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		if !it.VisibleTo(viewer) {
			return nil, huma.Error404NotFound("item not found")
		}
		return &ItemOutput{Body: ToHTTPItem(it, viewer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-item",
		Method:      http.MethodPatch,
		Path:        "/items/{itemId}",
		Summary:     "Update an item",
		Description: "Edits listing details. Only the donor may edit, and only before the item is drawn or reserved.",
		Tags:        []string{"Items"},
		Security:    auth.Bearer,
	}, func(ctx context.Context, input *ItemUpdateInput) (*ItemOutput, error) {
		user := auth.UserFromContext(ctx)
		if !hasItemUpdateFields(input) {
			return nil, huma.Error422UnprocessableEntity("at least one field must be provided")
		}

		params := itemsvc.UpdateParams{
			Title:           input.Body.Title,
			Description:     input.Body.Description,
			Category:        input.Body.Category,
			Prefecture:      input.Body.Prefecture,
			City:            input.Body.City,
			ImagePaths:      input.Body.ImagePaths,
			Price:           input.Body.Price,
			LotteryDeadline: input.Body.LotteryDeadline,
		}
		if input.Body.Condition != nil {
			c := itemsvc.Condition(*input.Body.Condition)
			params.Condition = &c
		}

		it, err := svc.Update(ctx, user.Actor(), input.ItemID, params)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &ItemOutput{Body: ToHTTPItem(it, user.Actor())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "withdraw-item",
		Method:      http.MethodDelete,
		Path:        "/items/{itemId}",
		Summary:     "Withdraw an item",
		Description: "Takes a listing off the market. Allowed for the donor and admins while the item is pending review or available.",
		Tags:        []string{"Items"},
		Security:    auth.Bearer,
	}, func(ctx context.Context, input *ItemWithdrawInput) (*ItemOutput, error) {
		user := auth.UserFromContext(ctx)

		it, err := svc.Withdraw(ctx, user.Actor(), input.ItemID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &ItemOutput{Body: ToHTTPItem(it, user.Actor())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-my-items",
		Method:      http.MethodGet,
		Path:        "/me/items",
		Summary:     "List my donations",
		Description: "Returns every item donated by the caller in any status, newest first.",
		Tags:        []string{"Items"},
		Security:    auth.Bearer,
	}, func(ctx context.Context, input *MyItemsInput) (*ItemListOutput, error) {
		user := auth.UserFromContext(ctx)

		page, err := svc.ListByDonor(ctx, user.UID, input.Params)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &ItemListOutput{
			Link: pagination.BuildLinkHeader(prefix+"/me/items", url.Values{}, page.NextCursor, input.Limit),
			Body: ItemList{Items: toHTTPItems(page.Items, user.Actor())},
		}, nil
	})
}

func hasItemUpdateFields(input *ItemUpdateInput) bool {
	b := input.Body
	return b.Title != nil || b.Description != nil || b.Category != nil ||
		b.Condition != nil || b.Prefecture != nil || b.City != nil ||
		b.ImagePaths != nil || b.Price != nil || b.LotteryDeadline != nil
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, itemsvc.ErrNotFound):
		return huma.Error404NotFound("item not found")
	case errors.Is(err, itemsvc.ErrForbidden):
		return huma.Error403Forbidden("not allowed to modify this item")
	case errors.Is(err, itemsvc.ErrNotEditable):
		return huma.Error409Conflict("item can no longer be edited")
	case errors.Is(err, itemsvc.ErrInvalidTransition):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, itemsvc.ErrInvalid):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, pagination.ErrInvalidCursor):
		return huma.Error400BadRequest("invalid cursor")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}

// ToHTTPItem converts it for a response. Winners and buyer are only shown to
// the donor and admins.
func ToHTTPItem(it *itemsvc.Item, viewer actor.Actor) Item {
	out := Item{
		ID:              it.ID,
		DonorID:         it.DonorID,
		Title:           it.Title,
		Description:     it.Description,
		Category:        it.Category,
		Condition:       string(it.Condition),
		Prefecture:      it.Prefecture,
		City:            it.City,
		ImagePaths:      slices.Clone(it.ImagePaths),
		Kind:            string(it.Kind),
		Price:           it.Price,
		Status:          string(it.Status),
		LotteryDeadline: timeutil.Ptr(it.LotteryDeadline),
		RequestCount:    it.RequestCount,
		ReviewNote:      it.ReviewNote,
		TrackingNumber:  it.TrackingNumber,
		CreatedAt:       timeutil.Time{Time: it.CreatedAt},
		UpdatedAt:       timeutil.Time{Time: it.UpdatedAt},
	}
	if out.ImagePaths == nil {
		out.ImagePaths = []string{}
	}
	if viewer.CanManage(it.DonorID) {
		out.WinnerIDs = slices.Clone(it.WinnerIDs)
		out.BuyerID = it.BuyerID
	}
	return out
}

func toHTTPItems(items []itemsvc.Item, viewer actor.Actor) []Item {
	out := make([]Item, 0, len(items))
	for i := range items {
		out = append(out, ToHTTPItem(&items[i], viewer))
	}
	return out
}
