package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/freebies-japan/api/internal/platform/auth"
	applog "github.com/freebies-japan/api/internal/platform/logging"
	appmiddleware "github.com/freebies-japan/api/internal/platform/middleware"
	"github.com/freebies-japan/api/internal/platform/respond"
	drawsvc "github.com/freebies-japan/api/internal/service/draw"
	itemsvc "github.com/freebies-japan/api/internal/service/item"
	paymentsvc "github.com/freebies-japan/api/internal/service/payment"
	profilesvc "github.com/freebies-japan/api/internal/service/profile"
	requestsvc "github.com/freebies-japan/api/internal/service/request"
	uploadsvc "github.com/freebies-japan/api/internal/service/upload"
)

func newTestRouter() chi.Router {
	items := itemsvc.NewMockItemService()
	items.Put(itemsvc.Item{ID: "item-1", DonorID: "donor-1", Title: "Stroller", Kind: itemsvc.KindFree, Status: itemsvc.StatusAvailable})
	requests := requestsvc.NewMockRequestService(items)

	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	router.Route("/v1", func(r chi.Router) {
		cfg := huma.DefaultConfig("RoutesTest", "test")
		cfg.Servers = []*huma.Server{{URL: "/v1"}}
		api := humachi.New(r, cfg)
		Register(api, Services{
			Verifier: &auth.MockVerifier{User: auth.TestUser()},
			Profiles: profilesvc.NewMockProfileService(),
			Items:    items,
			Requests: requests,
			Draws:    drawsvc.NewService(drawsvc.NewMemoryStore(items, requests), nil, 1),
			Payments: paymentsvc.NewMockPaymentService(items),
			Uploads:  &uploadsvc.MockUploadService{},
		})
	})
	return router
}

func TestRegisterRoutes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/v1/items", "", http.StatusOK},
		{http.MethodGet, "/v1/items/item-1", "", http.StatusOK},
		{http.MethodGet, "/v1/me/items", "", http.StatusOK},
		{http.MethodGet, "/v1/me/requests", "", http.StatusOK},
		{http.MethodGet, "/v1/me/payments", "", http.StatusOK},
		{http.MethodGet, "/v1/profile", "", http.StatusNotFound},
		{http.MethodGet, "/v1/items/item-1/lottery", "", http.StatusNotFound},
		{http.MethodPost, "/v1/uploads", `{"purpose":"item_image","contentType":"image/jpeg"}`, http.StatusCreated},
		{http.MethodGet, "/v1/admin/payments", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			req.Header.Set("Authorization", "Bearer valid-token")
			req.Header.Set(chimiddleware.RequestIDHeader, "routes-test")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestRegisterRoutesUsesServerPrefix(t *testing.T) {
	router := newTestRouter()

	body := `{"message":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/items/item-1/requests", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer valid-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if loc := resp.Header().Get("Location"); loc != "/v1/me/requests" {
		t.Fatalf("expected prefixed Location, got %q", loc)
	}
}

func TestRegisterRoutesPageSchemas(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var doc struct {
		Components struct {
			Schemas map[string]json.RawMessage `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode openapi: %v", err)
	}
	for _, name := range []string{"ItemList", "RequestList", "PaymentList"} {
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Errorf("schema %s missing", name)
		}
	}
}
