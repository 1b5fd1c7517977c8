package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTelegramSenderSend(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	s := NewTelegramSender("bot-token", "42")
	s.apiBase = srv.URL
	if err := s.Send(context.Background(), "trade copied", "BUY $10"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotPath != "/botbot-token/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPayload["chat_id"] != "42" {
		t.Errorf("chat_id = %q, want 42", gotPayload["chat_id"])
	}
	if gotPayload["parse_mode"] != "Markdown" {
		t.Errorf("parse_mode = %q", gotPayload["parse_mode"])
	}
	if !strings.HasPrefix(gotPayload["text"], "*trade copied*\n") {
		t.Errorf("text = %q, want bolded title first", gotPayload["text"])
	}
}

func TestDiscordSenderSend(t *testing.T) {
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		// Discord's success response carries no body.
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	if err := s.Send(context.Background(), "daily limit", "cap reached"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotPayload["content"] != "**daily limit**\ncap reached" {
		t.Errorf("content = %q", gotPayload["content"])
	}
}

func TestSenderSurfacesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "invalid webhook"}`))
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	err := s.Send(context.Background(), "x", "y")
	if err == nil {
		t.Fatal("Send() error = nil on 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error %q does not carry the status", err)
	}
}

func TestSenderNames(t *testing.T) {
	if got := NewTelegramSender("t", "c").Name(); got != "telegram" {
		t.Errorf("telegram Name() = %q", got)
	}
	if got := NewDiscordSender("u").Name(); got != "discord" {
		t.Errorf("discord Name() = %q", got)
	}
}
