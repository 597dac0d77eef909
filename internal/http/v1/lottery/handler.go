package lottery

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/freebies-japan/api/internal/platform/auth"
	"github.com/freebies-japan/api/internal/platform/timeutil"
	"github.com/freebies-japan/api/internal/service/actor"
	drawsvc "github.com/freebies-japan/api/internal/service/draw"
	itemsvc "github.com/freebies-japan/api/internal/service/item"
)

// Register wires lottery routes into the provided API router. verifier
// resolves the optional bearer token on the public result endpoint.
func Register(api huma.API, svc drawsvc.Service, verifier auth.Verifier, prefix string) {
	huma.Register(api, huma.Operation{
		OperationID: "draw-lottery",
		Method:      http.MethodPost,
		Path:        "/items/{itemId}/lottery",
		Summary:     "Draw the lottery for an item",
		Description: "Picks winners among pending requests and commits the result once. " +
			"Repeating the call returns the stored result. Donor and admins only.",
		Tags:          []string{"Lottery"},
		DefaultStatus: http.StatusCreated,
		Security:      auth.Bearer,
	}, func(ctx context.Context, input *DrawInput) (*DrawOutput, error) {
		user := auth.UserFromContext(ctx)

		res, err := svc.Draw(ctx, user.Actor(), input.ItemID, drawsvc.Params{
			Winners: input.Body.Winners,
			Seed:    input.Body.Seed,
		})
		if err != nil {
			return nil, mapServiceError(err)
		}
		status := http.StatusCreated
		if res.Replayed {
			status = http.StatusOK
		}
		return &DrawOutput{
			Status:   status,
			Location: prefix + "/items/" + res.ItemID + "/lottery",
			Body:     toHTTPResult(res, user.Actor()),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-lottery",
		Method:      http.MethodGet,
		Path:        "/items/{itemId}/lottery",
		Summary:     "Get the lottery result",
		Description: "Returns the committed draw for an item. Winner IDs are shown to the donor and admins; " +
			"other signed-in callers learn whether they were selected.",
		Tags: []string{"Lottery"},
	}, func(ctx context.Context, input *ResultInput) (*ResultOutput, error) {
		res, err := svc.Get(ctx, input.ItemID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		viewer := auth.OptionalUser(ctx, verifier, input.Authorization).Actor()
		return &ResultOutput{Body: toHTTPResult(res, viewer)}, nil
	})
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, drawsvc.ErrNotFound):
		return huma.Error404NotFound("lottery has not been drawn")
	case errors.Is(err, itemsvc.ErrNotFound):
		return huma.Error404NotFound("item not found")
	case errors.Is(err, drawsvc.ErrForbidden):
		return huma.Error403Forbidden("not allowed to draw this item")
	case errors.Is(err, drawsvc.ErrNotDrawable):
		return huma.Error409Conflict("item is not open for a draw")
	case errors.Is(err, drawsvc.ErrNoParticipants):
		return huma.Error409Conflict("item has no pending requests")
	case errors.Is(err, drawsvc.ErrParticipantsChanged):
		return huma.Error409Conflict("requests keep changing, try again")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}

func toHTTPResult(r *drawsvc.Result, viewer actor.Actor) Result {
	out := Result{
		ItemID:           r.ItemID,
		WinnerCount:      len(r.Winners),
		ParticipantCount: r.ParticipantCount,
		Seed:             r.Seed,
		DrawnAt:          timeutil.Time{Time: r.DrawnAt},
		DrawnBy:          r.DrawnBy,
		Replayed:         r.Replayed,
	}
	switch {
	case viewer.CanManage(r.DonorID):
		out.Winners = slices.Clone(r.Winners)
		if out.Winners == nil {
			out.Winners = []string{}
		}
	case viewer.UID != "":
		selected := slices.Contains(r.Winners, viewer.UID)
		out.Selected = &selected
	}
	return out
}
