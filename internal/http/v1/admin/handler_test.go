package admin

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

	"github.com/freebies-japan/api/internal/http/v1/items"
	"github.com/freebies-japan/api/internal/http/v1/payments"
	"github.com/freebies-japan/api/internal/platform/auth"
	applog "github.com/freebies-japan/api/internal/platform/logging"
	appmiddleware "github.com/freebies-japan/api/internal/platform/middleware"
	"github.com/freebies-japan/api/internal/platform/respond"
	"github.com/freebies-japan/api/internal/service/actor"
	itemsvc "github.com/freebies-japan/api/internal/service/item"
	"github.com/freebies-japan/api/internal/service/notification"
	paymentsvc "github.com/freebies-japan/api/internal/service/payment"
)

type fixture struct {
	items    *itemsvc.MockItemService
	payments *paymentsvc.MockPaymentService
	rec      *notification.Recorder
	router   chi.Router
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{items: itemsvc.NewMockItemService(), rec: &notification.Recorder{}}
	f.payments = paymentsvc.NewMockPaymentService(f.items)

	f.items.Put(itemsvc.Item{ID: "pending", DonorID: "donor-1", Title: "Desk", Kind: itemsvc.KindFree, Status: itemsvc.StatusPendingReview})
	f.items.Put(itemsvc.Item{ID: "drawn", DonorID: "donor-1", Title: "Bike", Kind: itemsvc.KindFree, Status: itemsvc.StatusDrawn, WinnerIDs: []string{"winner-1"}})
	f.items.Put(itemsvc.Item{ID: "sofa", DonorID: "donor-1", Title: "Sofa", Kind: itemsvc.KindPremium, Price: 3000, Status: itemsvc.StatusAvailable})

	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	api := humachi.New(router, huma.DefaultConfig("AdminTest", "test"))
	api.UseMiddleware(auth.NewAuthMiddleware(api, &auth.MockVerifier{Users: map[string]*auth.User{
		"user-token":  {UID: "donor-1"},
		"admin-token": auth.TestAdmin(),
	}}))
	Register(api,
		itemsvc.WithNotifications(f.items, f.rec),
		paymentsvc.WithEvents(f.payments, f.rec),
		"/v1")
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

func (f *fixture) submitPayment(t *testing.T) *paymentsvc.Payment {
	t.Helper()
	p, err := f.payments.Submit(context.Background(), actor.User("buyer-1"), "sofa", paymentsvc.SubmitParams{
		Amount: 3000,
		Method: paymentsvc.MethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return p
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	f := setup(t)
	paths := []struct{ method, path, body string }{
		{http.MethodGet, "/admin/payments", ""},
		{http.MethodPost, "/admin/payments/x/approve", ""},
		{http.MethodPost, "/admin/payments/x/reject", `{"reason":"no"}`},
		{http.MethodPost, "/admin/items/pending/review", `{"approve":true}`},
		{http.MethodPost, "/admin/items/drawn/delivery", `{"status":"shipped"}`},
	}
	for _, p := range paths {
		if resp := f.do(p.method, p.path, "user-token", p.body); resp.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", p.method, p.path, resp.Code)
		}
		if resp := f.do(p.method, p.path, "", p.body); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, resp.Code)
		}
	}
}

func TestReviewItem(t *testing.T) {
	f := setup(t)

	resp := f.do(http.MethodPost, "/admin/items/pending/review", "admin-token", `{"approve":true,"note":"Looks good"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var it items.Item
	_ = json.Unmarshal(resp.Body.Bytes(), &it)
	if it.Status != "available" || it.ReviewNote != "Looks good" {
		t.Fatalf("unexpected item %+v", it)
	}
	if ev := f.rec.OfKind(notification.KindItemApproved); len(ev) != 1 || ev[0].UserIDs[0] != "donor-1" {
		t.Fatalf("expected approval notification, got %+v", f.rec.Events())
	}

	// Already reviewed.
	if resp := f.do(http.MethodPost, "/admin/items/pending/review", "admin-token", `{"approve":false}`); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if resp := f.do(http.MethodPost, "/admin/items/missing/review", "admin-token", `{"approve":true}`); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestUpdateDelivery(t *testing.T) {
	f := setup(t)

	if resp := f.do(http.MethodPost, "/admin/items/drawn/delivery", "admin-token", `{"status":"delivered"}`); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 skipping shipped, got %d", resp.Code)
	}

	resp := f.do(http.MethodPost, "/admin/items/drawn/delivery", "admin-token", `{"status":"shipped","trackingNumber":"TRK-1"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var it items.Item
	_ = json.Unmarshal(resp.Body.Bytes(), &it)
	if it.Status != "shipped" || it.TrackingNumber != "TRK-1" || len(it.WinnerIDs) != 1 {
		t.Fatalf("unexpected item %+v", it)
	}
	shipped := f.rec.OfKind(notification.KindItemShipped)
	if len(shipped) != 1 || shipped[0].UserIDs[0] != "winner-1" || shipped[0].TrackingNumber != "TRK-1" {
		t.Fatalf("unexpected shipping notification %+v", shipped)
	}

	if resp := f.do(http.MethodPost, "/admin/items/drawn/delivery", "admin-token", `{"status":"delivered"}`); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for delivered, got %d", resp.Code)
	}
	if resp := f.do(http.MethodPost, "/admin/items/drawn/delivery", "admin-token", `{"status":"returned"}`); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown status, got %d", resp.Code)
	}
}

func TestApprovePayment(t *testing.T) {
	f := setup(t)
	p := f.submitPayment(t)

	resp := f.do(http.MethodPost, "/admin/payments/"+p.ID+"/approve", "admin-token", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got payments.Payment
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got.Status != "approved" || got.ReviewedBy != auth.TestAdmin().UID || got.ReviewedAt == nil {
		t.Fatalf("unexpected payment %+v", got)
	}
	it, _ := f.items.Get(context.Background(), "sofa")
	if it.Status != itemsvc.StatusSold || it.BuyerID != "buyer-1" {
		t.Fatalf("expected sold item, got %+v", it)
	}
	if ev := f.rec.OfKind(notification.KindPaymentApproved); len(ev) != 1 {
		t.Fatalf("expected approval notification, got %+v", f.rec.Events())
	}
	if resp := f.do(http.MethodPost, "/admin/payments/"+p.ID+"/reject", "admin-token", `{"reason":"late"}`); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 after approval, got %d", resp.Code)
	}
}

func TestRejectPayment(t *testing.T) {
	f := setup(t)
	p := f.submitPayment(t)

	if resp := f.do(http.MethodPost, "/admin/payments/"+p.ID+"/reject", "admin-token", `{}`); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without reason, got %d", resp.Code)
	}
	resp := f.do(http.MethodPost, "/admin/payments/"+p.ID+"/reject", "admin-token", `{"reason":"Transfer not received"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got payments.Payment
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got.Status != "rejected" || got.Note != "Transfer not received" {
		t.Fatalf("unexpected payment %+v", got)
	}
	it, _ := f.items.Get(context.Background(), "sofa")
	if it.Status != itemsvc.StatusAvailable {
		t.Fatalf("expected available item, got %s", it.Status)
	}
	rejected := f.rec.OfKind(notification.KindPaymentRejected)
	if len(rejected) != 1 || rejected[0].Note != "Transfer not received" {
		t.Fatalf("unexpected rejection notification %+v", rejected)
	}
}

func TestListPayments(t *testing.T) {
	f := setup(t)
	p := f.submitPayment(t)

	resp := f.do(http.MethodGet, "/admin/payments?status=pending", "admin-token", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var page payments.PaymentList
	_ = json.Unmarshal(resp.Body.Bytes(), &page)
	if len(page.Payments) != 1 || page.Payments[0].ID != p.ID {
		t.Fatalf("unexpected payments %+v", page.Payments)
	}

	resp = f.do(http.MethodGet, "/admin/payments?status=approved", "admin-token", "")
	_ = json.Unmarshal(resp.Body.Bytes(), &page)
	if len(page.Payments) != 0 {
		t.Fatalf("expected no approved payments, got %d", len(page.Payments))
	}
}
