package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
)

// SourceLiveStream identifies the real-time websocket feed.
const SourceLiveStream = "live-stream"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 60 * time.Second

	// streamBuffer bounds how many trades accumulate between polls before
	// the oldest are dropped.
	streamBuffer = 256
)

// LiveStreamFeed subscribes to the CLOB user websocket channel and buffers
// trade events between polls. Unlike the HTTP feeds it pushes rather than
// pulls, so Poll simply drains whatever arrived since the previous scan.
type LiveStreamFeed struct {
	wsURL       string
	wallet      string
	minTradeUSD float64

	mu     sync.Mutex
	conn   *websocket.Conn
	buf    []domain.WhaleTrade
	closed bool

	seen *seenSet
	done chan struct{}
}

// NewLiveStreamFeed creates the websocket adapter. wsURL is the CLOB
// websocket endpoint, e.g. "wss://ws-subscriptions-clob.polymarket.com/ws/user".
func NewLiveStreamFeed(wsURL, wallet string, minTradeUSD float64) *LiveStreamFeed {
	return &LiveStreamFeed{
		wsURL:       wsURL,
		wallet:      strings.ToLower(wallet),
		minTradeUSD: minTradeUSD,
		seen:        newSeenSet(),
		done:        make(chan struct{}),
	}
}

func (f *LiveStreamFeed) Name() string { return SourceLiveStream }

// Connect establishes the websocket connection and subscribes to trade
// events for the tracked wallet. The read loop keeps running until Close.
func (f *LiveStreamFeed) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fmt.Errorf("feed/live-stream: %w", domain.ErrFeedUnavailable)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed/live-stream: connect: %w", err)
	}
	f.conn = conn

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	sub := map[string]any{
		"type":    "subscribe",
		"channel": "user",
		"markets": []string{},
		"address": f.wallet,
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		f.conn = nil
		return fmt.Errorf("feed/live-stream: subscribe: %w", err)
	}

	go f.readLoop(conn)
	go f.pingLoop(conn)

	return nil
}

// Poll drains the trades buffered since the last call. It never fails: a
// dropped connection surfaces as an empty result while the read loop
// reconnects in the background.
func (f *LiveStreamFeed) Poll(ctx context.Context) ([]domain.WhaleTrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.buf) == 0 {
		return nil, nil
	}
	out := f.buf
	f.buf = nil
	return out, nil
}

// Close shuts down the connection and stops the read loop.
func (f *LiveStreamFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	close(f.done)

	if f.conn != nil {
		_ = f.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return f.conn.Close()
	}
	return nil
}

func (f *LiveStreamFeed) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		select {
		case <-f.done:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-f.done:
				return
			default:
			}
			f.reconnect()
			return
		}

		f.handleMessage(message)
	}
}

func (f *LiveStreamFeed) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage buffers trade events and drops everything else. Replays
// after a reconnect are filtered out by the seen set.
func (f *LiveStreamFeed) handleMessage(raw []byte) {
	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}
	if envelope.EventType != "trade" {
		return
	}

	var item record
	if err := json.Unmarshal(raw, &item); err != nil {
		return
	}

	t, ok := f.normalize(item)
	if !ok {
		return
	}
	if !f.seen.admit(t.Key()) {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf = append(f.buf, t)
	if len(f.buf) > streamBuffer {
		f.buf = f.buf[len(f.buf)-streamBuffer:]
	}
}

func (f *LiveStreamFeed) normalize(item record) (domain.WhaleTrade, bool) {
	side := domain.SideSell
	if strings.ToUpper(item.str("side")) == "BUY" {
		side = domain.SideBuy
	}

	size := item.firstNonZero("size")
	price := item.numOr(0.5, "price")
	amount := clobNotional(size, price)
	if amount < f.minTradeUSD {
		return domain.WhaleTrade{}, false
	}

	assetID := item.str("asset_id", "token_id")
	if assetID == "" {
		return domain.WhaleTrade{}, false
	}

	return domain.WhaleTrade{
		Source:        SourceLiveStream,
		SourceTradeID: item.str("id", "trade_id"),
		Timestamp:     item.str("timestamp", "match_time"),
		MarketID:      item.str("market", "condition_id"),
		MarketTitle:   item.strOr("Unknown", "market_slug"),
		Side:          side,
		Outcome:       outcomeFromIndex(item),
		AmountUSD:     amount,
		Price:         price,
		AssetID:       assetID,
	}, true
}

// reconnect re-establishes the connection with exponential backoff. It
// blocks until successful or the feed is closed.
func (f *LiveStreamFeed) reconnect() {
	delay := reconnectDelay

	for {
		select {
		case <-f.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := f.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}
