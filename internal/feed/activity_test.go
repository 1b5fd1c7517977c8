package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
)

const testWallet = "0xAbC0000000000000000000000000000000000001"

func TestActivityFeedPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/activity" {
			t.Errorf("path = %q, want /activity", got)
		}
		if got := r.URL.Query().Get("address"); got != "0xabc0000000000000000000000000000000000001" {
			t.Errorf("address = %q, want lowercased wallet", got)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("limit = %q, want 20", got)
		}
		w.Write([]byte(`[
			{"id":"t1","timestamp":1714000000,"side":"BUY","usdcSize":120.5,"price":0.42,
			 "asset":"0xTOK1","conditionId":"0xCOND1","title":"Will it rain?","outcome":"Yes"},
			{"transactionHash":"0xHASH2","timestamp":1714000001,"type":"TRADE_SELL","value":"75",
			 "assetId":"0xTOK2","condition_id":"0xCOND2","question":"Another market"},
			{"id":"t3","timestamp":1714000002,"type":"REDEEM","usdcSize":500,"asset":"0xTOK3"},
			{"id":"t4","timestamp":1714000003,"side":"BUY","usdcSize":2,"asset":"0xTOK4"}
		]`))
	}))
	defer srv.Close()

	f := NewActivityFeed(srv.URL, testWallet, 20, 50)
	trades, err := f.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	// t3 has no resolvable side (redeem), t4 is below the size filter.
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2: %+v", len(trades), trades)
	}

	first := trades[0]
	if first.SourceTradeID != "t1" || first.Side != domain.SideBuy {
		t.Errorf("first = %+v", first)
	}
	if first.AmountUSD != 120.5 || first.Price != 0.42 {
		t.Errorf("first amount/price = %v/%v", first.AmountUSD, first.Price)
	}
	if first.MarketID != "0xCOND1" || first.MarketTitle != "Will it rain?" || first.Outcome != "Yes" {
		t.Errorf("first market fields = %+v", first)
	}
	if first.Key() != "t1" {
		t.Errorf("Key() = %q, want t1", first.Key())
	}

	second := trades[1]
	if second.SourceTradeID != "0xHASH2" {
		t.Errorf("second id = %q, want transactionHash fallback", second.SourceTradeID)
	}
	if second.Side != domain.SideSell {
		t.Errorf("second side = %q, want SELL inferred from type", second.Side)
	}
	if second.AmountUSD != 75 {
		t.Errorf("second amount = %v, want 75 from value", second.AmountUSD)
	}
	if second.Price != 0.5 {
		t.Errorf("second price = %v, want 0.5 default", second.Price)
	}
	if second.MarketTitle != "Another market" {
		t.Errorf("second title = %q, want question fallback", second.MarketTitle)
	}
	if second.Outcome != "YES" {
		t.Errorf("second outcome = %q, want YES default", second.Outcome)
	}
}

func TestActivityFeedAllowsMissingAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"t1","timestamp":1714000000,"side":"SELL","usdcSize":200}]`))
	}))
	defer srv.Close()

	f := NewActivityFeed(srv.URL, testWallet, 20, 0)
	trades, err := f.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].AssetID != "" {
		t.Errorf("AssetID = %q, want empty", trades[0].AssetID)
	}
	if trades[0].Replicable() {
		t.Error("Replicable() = true for trade without asset")
	}
}

func TestActivityFeedDoesNotReYieldAcrossPolls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"t1","timestamp":1714000000,"side":"BUY","usdcSize":500,"asset":"0xABC"}
		]`))
	}))
	defer srv.Close()

	f := NewActivityFeed(srv.URL, testWallet, 20, 0)

	first, err := f.Poll(context.Background())
	if err != nil {
		t.Fatalf("first Poll() error = %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first poll got %d trades, want 1", len(first))
	}

	// The endpoint pages over a sliding window, so the same record shows up
	// again next poll; the adapter swallows the repeat itself.
	second, err := f.Poll(context.Background())
	if err != nil {
		t.Fatalf("second Poll() error = %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second poll re-yielded %d trades: %+v", len(second), second)
	}
}

func TestActivityFeedPropagatesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewActivityFeed(srv.URL, testWallet, 20, 0)
	if _, err := f.Poll(context.Background()); err == nil {
		t.Fatal("Poll() = nil error on 429")
	}
}

func TestActivityFeedCompositeKeyWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"timestamp":1714000009,"side":"BUY","usdcSize":90,"asset":"0xTOK9"}]`))
	}))
	defer srv.Close()

	f := NewActivityFeed(srv.URL, testWallet, 20, 0)
	trades, err := f.Poll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 1 {
		t.Fatalf("got %d trades", len(trades))
	}
	if got := trades[0].Key(); got != "1714000009_0xTOK9" {
		t.Errorf("Key() = %q, want timestamp_asset composite", got)
	}
}
