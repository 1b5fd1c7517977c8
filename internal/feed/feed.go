// Package feed provides source adapters that poll heterogeneous Polymarket
// trade feeds and lower their wire shapes into domain.WhaleTrade values.
//
// The public feeds disagree on field names, casing, and payload framing, so
// each adapter resolves fields through an ordered fallback chain and skips
// records it cannot make sense of instead of failing the whole poll.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
)

// Source is a single trade feed. Poll returns the whale trades currently
// visible on the feed, newest page first. Each adapter filters its results
// through its own seen set, so re-polling an overlapping window never
// re-yields an item; cross-source dedup stays with the tracker.
type Source interface {
	Name() string
	Poll(ctx context.Context) ([]domain.WhaleTrade, error)
}

// defaultTimeout matches the upstream APIs' slowest observed responses.
const defaultTimeout = 30 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// doGet sends an unauthenticated GET and returns the raw body. Non-2xx
// statuses map onto domain sentinels so callers can branch on error class.
func doGet(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// seenLimit caps how many keys each adapter remembers. The feeds page from
// newest to oldest, so the live working set is one page; the cap only
// matters over very long uptimes.
const seenLimit = 4096

// seenSet is an adapter's private memory of the trade keys it has already
// yielded. Consecutive polls of a sliding window overlap heavily; filtering
// here keeps repeats from ever leaving the adapter.
type seenSet struct {
	mu    sync.Mutex
	keys  map[string]struct{}
	order []string
}

func newSeenSet() *seenSet {
	return &seenSet{keys: make(map[string]struct{})}
}

// admit records key and reports whether the adapter has not yielded it
// before. At the cap the oldest key is forgotten first.
func (s *seenSet) admit(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.keys[key]; dup {
		return false
	}
	s.keys[key] = struct{}{}
	s.order = append(s.order, key)
	if len(s.order) > seenLimit {
		delete(s.keys, s.order[0])
		s.order = s.order[1:]
	}
	return true
}

// record is one raw feed item. The feeds are inconsistent enough that typed
// structs would need an alias field per spelling; a map with ordered-fallback
// accessors keeps the resolution rules in one place.
type record map[string]any

// decodeItems unwraps the three framings the trade endpoints use: a bare
// JSON array, {"trades": [...]}, or {"data": [...]}.
func decodeItems(body []byte) ([]record, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var items []record
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		return items, nil
	}

	var wrapper struct {
		Trades []record `json:"trades"`
		Data   []record `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("decode wrapper: %w", err)
	}
	if wrapper.Trades != nil {
		return wrapper.Trades, nil
	}
	return wrapper.Data, nil
}

// str returns the first key whose value renders to a non-empty string.
// Numeric values are formatted, so feeds that send numeric timestamps or IDs
// still resolve.
func (r record) str(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		if s := asString(v); s != "" {
			return s
		}
	}
	return ""
}

// strOr is like str but falls back to def when no key resolves.
func (r record) strOr(def string, keys ...string) string {
	if s := r.str(keys...); s != "" {
		return s
	}
	return def
}

// firstNonZero returns the first key whose value parses to a non-zero
// number. Zero values fall through to the next key, mirroring how upstream
// clients chain these fields.
func (r record) firstNonZero(keys ...string) float64 {
	for _, k := range keys {
		if f, ok := asFloat(r[k]); ok && f != 0 {
			return f
		}
	}
	return 0
}

// numOr returns key parsed as a number, or def when the key is absent or
// unparseable. Unlike firstNonZero, a present zero is returned as zero.
func (r record) numOr(def float64, key string) float64 {
	v, ok := r[key]
	if !ok {
		return def
	}
	if f, ok := asFloat(v); ok {
		return f
	}
	return def
}

// boolOr returns key as a bool, or def when absent or not a bool.
func (r record) boolOr(def bool, key string) bool {
	if b, ok := r[key].(bool); ok {
		return b
	}
	return def
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64. Integral values (timestamps,
		// indexes) must not grow a ".000000" suffix.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
