package email

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u
}

func TestResendSenderRejectsEmptyRecipients(t *testing.T) {
	s := NewResendSender("re_test", "noreply@example.com")
	if err := s.Send(context.Background(), Message{Subject: "hi"}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}

func TestResendSenderPostsToAPI(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	s := NewResendSender("re_test", "Freebies <noreply@example.com>")
	s.client.BaseURL = mustParse(t, srv.URL+"/")

	err := s.Send(context.Background(), Message{
		To:      []string{"winner@example.com"},
		Subject: "You won",
		HTML:    "<p>Congratulations</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "winner@example.com") || !strings.Contains(body, "You won") {
		t.Fatalf("unexpected request body %s", body)
	}
}

func TestLogSender(t *testing.T) {
	if err := (LogSender{}).Send(context.Background(), Message{To: []string{"a@example.com"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (LogSender{}).Send(context.Background(), Message{}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}

func TestMockSender(t *testing.T) {
	m := &MockSender{}
	_ = m.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "one"})
	_ = m.Send(context.Background(), Message{To: []string{"b@example.com"}, Subject: "two"})
	if got := m.Messages(); len(got) != 2 || got[1].Subject != "two" {
		t.Fatalf("unexpected messages %+v", got)
	}

	m.Err = errors.New("down")
	if err := m.Send(context.Background(), Message{To: []string{"c@example.com"}}); err == nil {
		t.Fatal("expected configured error")
	}
}
