package polymarket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
)

func TestGetMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("condition_ids"); got != "0xcond1" {
			t.Errorf("condition_ids = %s, want 0xcond1", got)
		}
		w.Write([]byte(`[{"id": "123", "question": "Will it rain?", "condition_id": "0xcond1", "slug": "will-it-rain", "active": "true", "closed": false}]`))
	}))
	defer server.Close()

	client := NewGammaClient(server.URL)
	info, err := client.GetMarket(context.Background(), "0xcond1")
	if err != nil {
		t.Fatalf("GetMarket() error: %v", err)
	}
	if info.Question != "Will it rain?" {
		t.Errorf("Question = %q, want %q", info.Question, "Will it rain?")
	}
	if !info.Active {
		t.Error("Active = false, want true")
	}
	if info.Closed {
		t.Error("Closed = true, want false")
	}
}

func TestGetMarketEmptyQuestionDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "123", "condition_id": "0xcond1", "active": true}]`))
	}))
	defer server.Close()

	client := NewGammaClient(server.URL)
	info, err := client.GetMarket(context.Background(), "0xcond1")
	if err != nil {
		t.Fatalf("GetMarket() error: %v", err)
	}
	if info.Question != "Unknown" {
		t.Errorf("Question = %q, want Unknown", info.Question)
	}
}

func TestGetMarketEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewGammaClient(server.URL)
	if _, err := client.GetMarket(context.Background(), "0xmissing"); err == nil {
		t.Fatal("GetMarket() error = nil, want not-found error")
	}
}

func TestGetMarketNotFoundStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewGammaClient(server.URL)
	_, err := client.GetMarket(context.Background(), "0xcond1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
