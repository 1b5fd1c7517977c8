package feed

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
)

func TestDecodeItemsFramings(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":"a"},{"id":"b"}]`, 2},
		{"trades wrapper", `{"trades":[{"id":"a"}]}`, 1},
		{"data wrapper", `{"data":[{"id":"a"},{"id":"b"},{"id":"c"}]}`, 3},
		{"empty object", `{}`, 0},
		{"empty array", `[]`, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := decodeItems([]byte(tc.body))
			if err != nil {
				t.Fatalf("decodeItems() error = %v", err)
			}
			if len(items) != tc.want {
				t.Errorf("got %d items, want %d", len(items), tc.want)
			}
		})
	}
}

func TestDecodeItemsRejectsGarbage(t *testing.T) {
	if _, err := decodeItems([]byte(`not json`)); err == nil {
		t.Error("decodeItems(garbage) = nil error")
	}
}

func TestRecordStrFallbackOrder(t *testing.T) {
	r := record{"asset_id": "", "token_id": "tok-1", "market_id": "mkt-1"}
	if got := r.str("asset_id", "token_id", "market_id"); got != "tok-1" {
		t.Errorf("str() = %q, want tok-1 (first non-empty)", got)
	}
}

func TestRecordStrRendersNumbers(t *testing.T) {
	r := record{"timestamp": float64(1714000000)}
	if got := r.str("timestamp"); got != "1714000000" {
		t.Errorf("str(timestamp) = %q, want 1714000000", got)
	}
}

func TestRecordFirstNonZeroSkipsZeroes(t *testing.T) {
	r := record{"usdcSize": float64(0), "value": "150.5", "size": float64(3)}
	if got := r.firstNonZero("usdcSize", "value", "size"); got != 150.5 {
		t.Errorf("firstNonZero() = %v, want 150.5", got)
	}
}

func TestRecordNumOrKeepsPresentZero(t *testing.T) {
	r := record{"price": float64(0)}
	if got := r.numOr(0.5, "price"); got != 0 {
		t.Errorf("numOr() = %v, want 0 (present zero is not defaulted)", got)
	}
	if got := (record{}).numOr(0.5, "price"); got != 0.5 {
		t.Errorf("numOr() on missing key = %v, want 0.5", got)
	}
}

func TestCheckHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusOK, nil},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
	}

	for _, tc := range cases {
		err := checkHTTPStatus(tc.code, []byte("body"))
		if tc.want == nil {
			if err != nil {
				t.Errorf("checkHTTPStatus(%d) = %v, want nil", tc.code, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Errorf("checkHTTPStatus(%d) = %v, want %v", tc.code, err, tc.want)
		}
	}
}

func TestSeenSetAdmitsOnce(t *testing.T) {
	s := newSeenSet()
	if !s.admit("k1") {
		t.Fatal("admit(k1) = false on first sight")
	}
	if s.admit("k1") {
		t.Error("admit(k1) = true on repeat")
	}
	if !s.admit("k2") {
		t.Error("admit(k2) = false, keys must be independent")
	}
}

func TestSeenSetForgetsOldestAtCap(t *testing.T) {
	s := newSeenSet()
	for i := 0; i < seenLimit+1; i++ {
		s.admit(fmt.Sprintf("k%d", i))
	}
	// k0 fell out of the window and is admitted again; recent keys are not.
	if !s.admit("k0") {
		t.Error("admit(k0) = false after eviction")
	}
	if s.admit(fmt.Sprintf("k%d", seenLimit)) {
		t.Error("newest key was evicted out of order")
	}
}

func TestClobNotional(t *testing.T) {
	// Above 10 the size is a share count and gets priced out.
	if got := clobNotional(100, 0.4); got != 40 {
		t.Errorf("clobNotional(100, 0.4) = %v, want 40", got)
	}
	// At or below 10 the size is already USD.
	if got := clobNotional(8, 0.4); got != 8 {
		t.Errorf("clobNotional(8, 0.4) = %v, want 8", got)
	}
}
