package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	Handler()(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.Code)
	}

	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var h Response
	if err := json.Unmarshal(resp.Body.Bytes(), &h); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if h.Status != "healthy" || h.Checks != nil {
		t.Fatalf("unexpected response %+v", h)
	}
}

func TestHealthHandlerChecks(t *testing.T) {
	ok := Check{Name: "firestore", Fn: func(context.Context) error { return nil }}
	down := Check{Name: "storage", Fn: func(ctx context.Context) error {
		if _, has := ctx.Deadline(); !has {
			t.Error("check should run with a deadline")
		}
		return errors.New("unreachable")
	}}

	resp := httptest.NewRecorder()
	Handler(ok, down)(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	var h Response
	if err := json.Unmarshal(resp.Body.Bytes(), &h); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if h.Status != "unhealthy" || h.Checks["firestore"] != "ok" || h.Checks["storage"] != "unavailable" {
		t.Fatalf("unexpected response %+v", h)
	}
}
