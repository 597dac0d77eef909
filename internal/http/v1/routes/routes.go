package routes

import (
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/freebies-japan/api/internal/http/v1/admin"
	"github.com/freebies-japan/api/internal/http/v1/items"
	"github.com/freebies-japan/api/internal/http/v1/lottery"
	"github.com/freebies-japan/api/internal/http/v1/payments"
	"github.com/freebies-japan/api/internal/http/v1/profile"
	"github.com/freebies-japan/api/internal/http/v1/requests"
	"github.com/freebies-japan/api/internal/http/v1/uploads"
	"github.com/freebies-japan/api/internal/platform/auth"
	drawsvc "github.com/freebies-japan/api/internal/service/draw"
	itemsvc "github.com/freebies-japan/api/internal/service/item"
	paymentsvc "github.com/freebies-japan/api/internal/service/payment"
	profilesvc "github.com/freebies-japan/api/internal/service/profile"
	requestsvc "github.com/freebies-japan/api/internal/service/request"
	uploadsvc "github.com/freebies-japan/api/internal/service/upload"
)

// Services are the dependencies of the v1 API.
type Services struct {
	Verifier auth.Verifier
	Profiles profilesvc.Service
	Items    itemsvc.Service
	Requests requestsvc.Service
	Draws    drawsvc.Service
	Payments paymentsvc.Service
	Uploads  uploadsvc.Service
}

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API, svc Services) {
	prefix := apiPrefix(api)

	// Apply auth middleware for protected endpoints
	api.UseMiddleware(auth.NewAuthMiddleware(api, svc.Verifier))

	profile.Register(api, svc.Profiles, prefix)
	items.Register(api, svc.Items, svc.Verifier, prefix)
	requests.Register(api, svc.Requests, prefix)
	lottery.Register(api, svc.Draws, svc.Verifier, prefix)
	payments.Register(api, svc.Payments, prefix)
	uploads.Register(api, svc.Uploads)
	admin.Register(api, svc.Items, svc.Payments, prefix)
}

func apiPrefix(api huma.API) string {
	for _, s := range api.OpenAPI().Servers {
		if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return ""
}
