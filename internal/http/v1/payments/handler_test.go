package payments

import (
	"context"
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
	paymentsvc "github.com/freebies-japan/api/internal/service/payment"
)

type fixture struct {
	items  *itemsvc.MockItemService
	router chi.Router
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{items: itemsvc.NewMockItemService()}
	f.items.Put(itemsvc.Item{ID: "sofa", DonorID: "donor-1", Title: "Sofa", Kind: itemsvc.KindPremium, Price: 3000, Status: itemsvc.StatusAvailable})
	f.items.Put(itemsvc.Item{ID: "free", DonorID: "donor-1", Title: "Toys", Kind: itemsvc.KindFree, Status: itemsvc.StatusAvailable})

	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	api := humachi.New(router, huma.DefaultConfig("PaymentsTest", "test"))
	api.UseMiddleware(auth.NewAuthMiddleware(api, &auth.MockVerifier{Users: map[string]*auth.User{
		"donor-token": {UID: "donor-1"},
		"buyer-token": {UID: "buyer-1"},
		"other-token": {UID: "other-1"},
		"admin-token": auth.TestAdmin(),
	}}))
	Register(api, paymentsvc.NewMockPaymentService(f.items), "/v1")
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

func (f *fixture) submit(t *testing.T) Payment {
	t.Helper()
	resp := f.do(http.MethodPost, "/items/sofa/payments", "buyer-token",
		`{"amount":3000,"method":"bank_transfer","reference":"TX-1","receiptPath":"receipts/buyer-1/r.jpg"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var p Payment
	if err := json.Unmarshal(resp.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loc := resp.Header().Get("Location"); loc != "/v1/payments/"+p.ID {
		t.Fatalf("unexpected Location %q", loc)
	}
	return p
}

func TestSubmitPaymentReservesItem(t *testing.T) {
	f := setup(t)
	p := f.submit(t)
	if p.Status != "pending" || p.Amount != 3000 || p.ItemTitle != "Sofa" {
		t.Fatalf("unexpected payment %+v", p)
	}
	it, _ := f.items.Get(context.Background(), "sofa")
	if it.Status != itemsvc.StatusReserved || it.ReservedBy != "buyer-1" {
		t.Fatalf("expected reserved item, got %+v", it)
	}

	// The reserved item cannot be paid for twice.
	resp := f.do(http.MethodPost, "/items/sofa/payments", "other-token", `{"amount":3000,"method":"cash"}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestSubmitPaymentErrors(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		token string
		body  string
		want  int
	}{
		{"wrong amount", "/items/sofa/payments", "buyer-token", `{"amount":100,"method":"cash"}`, http.StatusUnprocessableEntity},
		{"foreign receipt", "/items/sofa/payments", "buyer-token", `{"amount":3000,"method":"cash","receiptPath":"receipts/other-1/r.jpg"}`, http.StatusUnprocessableEntity},
		{"unknown method", "/items/sofa/payments", "buyer-token", `{"amount":3000,"method":"bitcoin"}`, http.StatusUnprocessableEntity},
		{"own item", "/items/sofa/payments", "donor-token", `{"amount":3000,"method":"cash"}`, http.StatusForbidden},
		{"free item", "/items/free/payments", "buyer-token", `{"amount":3000,"method":"cash"}`, http.StatusConflict},
		{"missing item", "/items/nope/payments", "buyer-token", `{"amount":3000,"method":"cash"}`, http.StatusNotFound},
		{"anonymous", "/items/sofa/payments", "", `{"amount":3000,"method":"cash"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			resp := f.do(http.MethodPost, tt.path, tt.token, tt.body)
			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestGetPaymentAccess(t *testing.T) {
	f := setup(t)
	p := f.submit(t)

	for token, want := range map[string]int{
		"buyer-token": http.StatusOK,
		"admin-token": http.StatusOK,
		"other-token": http.StatusForbidden,
	} {
		if resp := f.do(http.MethodGet, "/payments/"+p.ID, token, ""); resp.Code != want {
			t.Fatalf("%s: expected %d, got %d", token, want, resp.Code)
		}
	}
	if resp := f.do(http.MethodGet, "/payments/missing", "buyer-token", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCancelPayment(t *testing.T) {
	f := setup(t)
	p := f.submit(t)

	if resp := f.do(http.MethodPost, "/payments/"+p.ID+"/cancel", "other-token", ""); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	resp := f.do(http.MethodPost, "/payments/"+p.ID+"/cancel", "buyer-token", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got Payment
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
	it, _ := f.items.Get(context.Background(), "sofa")
	if it.Status != itemsvc.StatusAvailable || it.ReservedBy != "" {
		t.Fatalf("expected item back on the market, got %+v", it)
	}
	if resp := f.do(http.MethodPost, "/payments/"+p.ID+"/cancel", "buyer-token", ""); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second cancel, got %d", resp.Code)
	}
}

func TestListMyPayments(t *testing.T) {
	f := setup(t)
	f.submit(t)

	resp := f.do(http.MethodGet, "/me/payments", "buyer-token", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var page PaymentList
	_ = json.Unmarshal(resp.Body.Bytes(), &page)
	if len(page.Payments) != 1 || page.Payments[0].BuyerID != "buyer-1" {
		t.Fatalf("unexpected payments %+v", page.Payments)
	}

	resp = f.do(http.MethodGet, "/me/payments", "other-token", "")
	_ = json.Unmarshal(resp.Body.Bytes(), &page)
	if len(page.Payments) != 0 {
		t.Fatalf("expected no payments, got %d", len(page.Payments))
	}
}
