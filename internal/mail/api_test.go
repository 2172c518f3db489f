package mail

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPISender_SendsFullPayload(t *testing.T) {
	var (
		got  apiPayload
		auth string
		path string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := APISender{BaseURL: srv.URL, APIKey: "secret", From: "noreply@example.com"}
	err := sender.Send(Message{
		To:             "rae@example.com",
		Subject:        "Leak under sink",
		HTMLBody:       "<b>leak</b>",
		TextFallback:   "leak",
		InlineImageURL: "https://img.example.com/a.jpg",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if path != "/send" {
		t.Fatalf("expected /send path, got %q", path)
	}
	if auth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", auth)
	}
	if got.From != "noreply@example.com" || got.To != "rae@example.com" || got.Subject != "Leak under sink" {
		t.Fatalf("unexpected envelope %+v", got)
	}
	if got.ImageURL != "https://img.example.com/a.jpg" {
		t.Fatalf("expected picture URL in payload, got %q", got.ImageURL)
	}
}

func TestAPISender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sender := APISender{BaseURL: srv.URL}
	if err := sender.Send(Message{To: "rae@example.com"}); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestAPISender_RequiresRecipientAndURL(t *testing.T) {
	if err := (APISender{BaseURL: "http://mail.local"}).Send(Message{}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
	if err := (APISender{}).Send(Message{To: "rae@example.com"}); err == nil {
		t.Fatal("expected error without MAIL_API_URL")
	}
}
