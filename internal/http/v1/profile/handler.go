package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/freebies-japan/api/internal/platform/auth"
	"github.com/freebies-japan/api/internal/platform/timeutil"
	profilesvc "github.com/freebies-japan/api/internal/service/profile"
)

// Register registers the profile endpoints. Every operation acts on the
// caller's own profile, keyed by the token UID.
func Register(api huma.API, svc profilesvc.Service, prefix string) {
	huma.Register(api, operation("create-profile", http.MethodPost, "Create profile",
		"Stores contact and delivery details for the caller. Terms must be accepted.", http.StatusCreated),
		func(ctx context.Context, input *CreateInput) (*CreatedOutput, error) {
			b := input.Body
			if !b.Terms {
				return nil, huma.Error422UnprocessableEntity("terms must be accepted")
			}
			p, err := svc.Create(ctx, auth.UserFromContext(ctx).UID, profilesvc.CreateParams{
				DisplayName: b.DisplayName,
				Email:       b.Email,
				PhoneNumber: b.PhoneNumber,
				PostalCode:  b.PostalCode,
				Prefecture:  b.Prefecture,
				City:        b.City,
				Address:     b.Address,
				Marketing:   b.Marketing,
				Terms:       b.Terms,
			})
			if err != nil {
				return nil, mapServiceError(err)
			}
			return &CreatedOutput{Location: prefix + "/profile", Body: toHTTPProfile(p)}, nil
		})

	huma.Register(api, operation("get-profile", http.MethodGet, "Get profile",
		"Returns the caller's contact and delivery details.", 0),
		func(ctx context.Context, _ *struct{}) (*Output, error) {
			p, err := svc.Get(ctx, auth.UserFromContext(ctx).UID)
			if err != nil {
				return nil, mapServiceError(err)
			}
			return &Output{Body: toHTTPProfile(p)}, nil
		})

	huma.Register(api, operation("update-profile", http.MethodPatch, "Update profile",
		"Changes the provided fields. At least one field is required.", 0),
		func(ctx context.Context, input *UpdateInput) (*Output, error) {
			b := input.Body
			params := profilesvc.UpdateParams{
				DisplayName: b.DisplayName,
				Email:       b.Email,
				PhoneNumber: b.PhoneNumber,
				PostalCode:  b.PostalCode,
				Prefecture:  b.Prefecture,
				City:        b.City,
				Address:     b.Address,
				Marketing:   b.Marketing,
			}
			if params == (profilesvc.UpdateParams{}) {
				return nil, huma.Error422UnprocessableEntity("at least one field must be provided")
			}
			p, err := svc.Update(ctx, auth.UserFromContext(ctx).UID, params)
			if err != nil {
				return nil, mapServiceError(err)
			}
			return &Output{Body: toHTTPProfile(p)}, nil
		})

	huma.Register(api, operation("delete-profile", http.MethodDelete, "Delete profile",
		"Removes the caller's profile. Notifications stop until a new one is created.", http.StatusNoContent),
		func(ctx context.Context, _ *struct{}) (*struct{}, error) {
			if err := svc.Delete(ctx, auth.UserFromContext(ctx).UID); err != nil {
				return nil, mapServiceError(err)
			}
			return nil, nil
		})
}

func operation(id, method, summary, description string, status int) huma.Operation {
	return huma.Operation{
		OperationID:   id,
		Method:        method,
		Path:          "/profile",
		Summary:       summary,
		Description:   description,
		Tags:          []string{"Profile"},
		DefaultStatus: status,
		Security:      auth.Bearer,
	}
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, profilesvc.ErrNotFound):
		return huma.Error404NotFound("profile not found")
	case errors.Is(err, profilesvc.ErrAlreadyExists):
		return huma.Error409Conflict("profile already exists")
	case errors.Is(err, profilesvc.ErrTermsRequired):
		return huma.Error422UnprocessableEntity("terms must be accepted")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}

func toHTTPProfile(p *profilesvc.Profile) Profile {
	return Profile{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		PostalCode:  p.PostalCode,
		Prefecture:  p.Prefecture,
		City:        p.City,
		Address:     p.Address,
		Marketing:   p.Marketing,
		Terms:       p.Terms,
		CreatedAt:   timeutil.NewTime(p.CreatedAt),
		UpdatedAt:   timeutil.NewTime(p.UpdatedAt),
	}
}
