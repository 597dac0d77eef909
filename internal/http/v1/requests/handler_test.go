package requests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/freebies-japan/api/internal/platform/auth"
	applog "github.com/freebies-japan/api/internal/platform/logging"
	appmiddleware "github.com/freebies-japan/api/internal/platform/middleware"
	"github.com/freebies-japan/api/internal/platform/respond"
	itemsvc "github.com/freebies-japan/api/internal/service/item"
	requestsvc "github.com/freebies-japan/api/internal/service/request"
)

type fixture struct {
	items    *itemsvc.MockItemService
	requests *requestsvc.MockRequestService
	router   chi.Router
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{items: itemsvc.NewMockItemService()}
	f.requests = requestsvc.NewMockRequestService(f.items)
	f.items.Put(itemsvc.Item{ID: "item-1", DonorID: "donor-1", Title: "Stroller", Kind: itemsvc.KindFree, Status: itemsvc.StatusAvailable})
	f.items.Put(itemsvc.Item{ID: "premium-1", DonorID: "donor-1", Title: "Sofa", Kind: itemsvc.KindPremium, Price: 3000, Status: itemsvc.StatusAvailable})

	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	api := humachi.New(router, huma.DefaultConfig("RequestsTest", "test"))
	api.UseMiddleware(auth.NewAuthMiddleware(api, &auth.MockVerifier{Users: map[string]*auth.User{
		"donor-token": {UID: "donor-1"},
		"alice-token": {UID: "alice"},
		"bob-token":   {UID: "bob"},
		"admin-token": auth.TestAdmin(),
	}}))
	Register(api, f.requests, "/v1")
	f.router = router
	return f
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func TestCreateRequest(t *testing.T) {
	f := setup(t)

	resp := f.do(http.MethodPost, "/items/item-1/requests", "alice-token", `{"message":"Please!"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if loc := resp.Header().Get("Location"); loc != "/v1/me/requests" {
		t.Fatalf("unexpected Location %q", loc)
	}
	var r Request
	if err := json.Unmarshal(resp.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Status != "pending" || r.UserID != "alice" || r.ItemTitle != "Stroller" || r.Message != "Please!" {
		t.Fatalf("unexpected request %+v", r)
	}
}

func TestCreateRequestErrors(t *testing.T) {
	f := setup(t)
	if resp := f.do(http.MethodPost, "/items/item-1/requests", "alice-token", `{}`); resp.Code != http.StatusCreated {
		t.Fatalf("seed request failed: %d", resp.Code)
	}

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"duplicate", "/items/item-1/requests", "alice-token", http.StatusConflict},
		{"own item", "/items/item-1/requests", "donor-token", http.StatusForbidden},
		{"premium item", "/items/premium-1/requests", "bob-token", http.StatusConflict},
		{"unknown item", "/items/missing/requests", "bob-token", http.StatusNotFound},
		{"anonymous", "/items/item-1/requests", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(http.MethodPost, tt.path, tt.token, `{}`)
			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestListItemRequests(t *testing.T) {
	f := setup(t)
	for _, tok := range []string{"alice-token", "bob-token"} {
		f.do(http.MethodPost, "/items/item-1/requests", tok, `{}`)
	}

	if resp := f.do(http.MethodGet, "/items/item-1/requests", "alice-token", ""); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for requester, got %d", resp.Code)
	}

	for _, tok := range []string{"donor-token", "admin-token"} {
		resp := f.do(http.MethodGet, "/items/item-1/requests?limit=1", tok, "")
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", tok, resp.Code)
		}
		var page RequestList
		_ = json.Unmarshal(resp.Body.Bytes(), &page)
		if len(page.Requests) != 1 || page.Requests[0].UserID != "alice" {
			t.Fatalf("unexpected page %+v", page.Requests)
		}
		if link := nextLink(resp.Header()); !strings.Contains(link, "/v1/items/item-1/requests?") {
			t.Fatalf("unexpected Link %q", link)
		}
	}
}

func TestWithdrawRequest(t *testing.T) {
	f := setup(t)
	f.do(http.MethodPost, "/items/item-1/requests", "alice-token", `{}`)

	resp := f.do(http.MethodDelete, "/items/item-1/requests/me", "alice-token", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var r Request
	_ = json.Unmarshal(resp.Body.Bytes(), &r)
	if r.Status != "withdrawn" {
		t.Fatalf("expected withdrawn, got %s", r.Status)
	}

	if resp := f.do(http.MethodDelete, "/items/item-1/requests/me", "alice-token", ""); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second withdraw, got %d", resp.Code)
	}
	if resp := f.do(http.MethodDelete, "/items/item-1/requests/me", "bob-token", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without request, got %d", resp.Code)
	}

	// Withdrawn users may enter again.
	if resp := f.do(http.MethodPost, "/items/item-1/requests", "alice-token", `{}`); resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 on re-request, got %d", resp.Code)
	}
}

func TestListMyRequests(t *testing.T) {
	f := setup(t)
	f.do(http.MethodPost, "/items/item-1/requests", "alice-token", `{}`)

	resp := f.do(http.MethodGet, "/me/requests", "alice-token", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var page RequestList
	_ = json.Unmarshal(resp.Body.Bytes(), &page)
	if len(page.Requests) != 1 || page.Requests[0].ItemID != "item-1" {
		t.Fatalf("unexpected requests %+v", page.Requests)
	}

	resp = f.do(http.MethodGet, "/me/requests", "bob-token", "")
	_ = json.Unmarshal(resp.Body.Bytes(), &page)
	if len(page.Requests) != 0 {
		t.Fatalf("expected empty list, got %+v", page.Requests)
	}
}

// nextLink returns the rel="next" entry among the Link headers. The schema
// link transformer adds its own describedBy entry to every response.
func nextLink(h http.Header) string {
	for _, v := range h.Values("Link") {
		if strings.Contains(v, `rel="next"`) {
			return v
		}
	}
	return ""
}
