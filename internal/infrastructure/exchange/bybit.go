package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vitos/ltp_scanner/internal/domain"
	"go.uber.org/zap"
)

const (
	BybitBaseURL = "https://api.bybit.com"
	BybitWSURL   = "wss://stream.bybit.com/v5/public/linear"

	wsPingInterval      = 20 * time.Second
	wsReconnectDelay    = 500 * time.Millisecond
	wsMaxReconnectDelay = 30 * time.Second
)

// ErrUnsupportedTimeframe is returned for timeframes Bybit has no interval for.
var ErrUnsupportedTimeframe = errors.New("timeframe not supported by bybit")

var bybitIntervals = map[domain.Timeframe]string{
	domain.TFWeekly: "W",
	domain.TFDaily:  "D",
	domain.TF4h:     "240",
	domain.TF1h:     "60",
	domain.TF15m:    "15",
	domain.TF5m:     "5",
}

// BarCallback receives a confirmed (closed) bar from the kline stream.
type BarCallback func(symbol string, tf domain.Timeframe, bar domain.Bar)

// BybitAdapter reads public market data: REST klines and the kline stream.
type BybitAdapter struct {
	baseURL   string
	wsURL     string
	client    *http.Client
	logger    *zap.Logger
	wsConn    *websocket.Conn
	topics    []string
	closed    bool
	callbacks []BarCallback
	mu        sync.Mutex
}

func NewBybitAdapter(baseURL, wsURL string, logger *zap.Logger) *BybitAdapter {
	if baseURL == "" {
		baseURL = BybitBaseURL
	}
	if wsURL == "" {
		wsURL = BybitWSURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BybitAdapter{
		baseURL: baseURL,
		wsURL:   wsURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// --- REST API ---

func (b *BybitAdapter) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(body))
	}
	return body, nil
}

// GetCandles returns up to limit bars, oldest first.
func (b *BybitAdapter) GetCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Bar, error) {
	interval, ok := bybitIntervals[tf]
	if !ok {
		return nil, fmt.Errorf("%s: %w", tf, ErrUnsupportedTimeframe)
	}

	params := url.Values{}
	params.Set("category", "linear")
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	resp, err := b.get(ctx, "/v5/market/kline", params)
	if err != nil {
		return nil, err
	}

	var result struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List [][]string `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}
	if result.RetCode != 0 {
		return nil, fmt.Errorf("bybit kline error %d: %s", result.RetCode, result.RetMsg)
	}

	bars := make([]domain.Bar, 0, len(result.Result.List))
	for _, raw := range result.Result.List {
		// Format: [startTime, open, high, low, close, volume, turnover]
		if len(raw) < 6 {
			continue
		}
		ts, _ := strconv.ParseInt(raw[0], 10, 64)
		bars = append(bars, domain.Bar{
			Time:   ts / 1000,
			Open:   parseFloat(raw[1]),
			High:   parseFloat(raw[2]),
			Low:    parseFloat(raw[3]),
			Close:  parseFloat(raw[4]),
			Volume: parseFloat(raw[5]),
		})
	}

	// Bybit returns newest first
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// --- WebSocket ---

func (b *BybitAdapter) OnBarClose(callback BarCallback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, callback)
}

// Subscribe dials on first use and subscribes to kline topics for symbols.
// Topics are remembered and re-sent whenever the stream reconnects.
func (b *BybitAdapter) Subscribe(symbols []string, tf domain.Timeframe) error {
	interval, ok := bybitIntervals[tf]
	if !ok {
		return fmt.Errorf("%s: %w", tf, ErrUnsupportedTimeframe)
	}
	if len(symbols) == 0 {
		return nil
	}

	args := make([]string, len(symbols))
	for i, s := range symbols {
		args[i] = "kline." + interval + "." + s
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = false
	if b.wsConn != nil {
		if err := writeSubscribe(b.wsConn, args); err != nil {
			return err
		}
		b.topics = append(b.topics, args...)
		return nil
	}

	// a fresh stream carries every topic, including any left by a dropped one
	topics := append(append([]string(nil), b.topics...), args...)
	c, _, err := websocket.DefaultDialer.Dial(b.wsURL, nil)
	if err != nil {
		return err
	}
	if err := writeSubscribe(c, topics); err != nil {
		c.Close()
		return err
	}
	b.wsConn = c
	b.topics = topics
	go b.readLoop(c)
	go b.keepAlive(c)
	return nil
}

func writeSubscribe(conn *websocket.Conn, topics []string) error {
	return conn.WriteJSON(map[string]interface{}{
		"op":   "subscribe",
		"args": topics,
	})
}

// Close stops the stream for good; no reconnect follows.
func (b *BybitAdapter) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.wsConn == nil {
		return nil
	}
	err := b.wsConn.Close()
	b.wsConn = nil
	return err
}

type klineEvent struct {
	Topic string `json:"topic"`
	Data  []struct {
		Start     int64  `json:"start"`
		Open      string `json:"open"`
		High      string `json:"high"`
		Low       string `json:"low"`
		Close     string `json:"close"`
		Volume    string `json:"volume"`
		Confirm   bool   `json:"confirm"`
		Interval  string `json:"interval"`
		Timestamp int64  `json:"timestamp"`
	} `json:"data"`
}

// reconnect dials again with exponential backoff and re-sends every topic
// subscribed so far. It gives up only when the adapter is closed.
func (b *BybitAdapter) reconnect() {
	delay := wsReconnectDelay
	for attempt := 1; ; attempt++ {
		time.Sleep(delay)

		b.mu.Lock()
		if b.closed || b.wsConn != nil {
			b.mu.Unlock()
			return
		}
		topics := append([]string(nil), b.topics...)
		b.mu.Unlock()

		c, _, err := websocket.DefaultDialer.Dial(b.wsURL, nil)
		if err == nil {
			b.mu.Lock()
			if b.closed || b.wsConn != nil {
				b.mu.Unlock()
				c.Close()
				return
			}
			if err = writeSubscribe(c, topics); err == nil {
				b.wsConn = c
				b.mu.Unlock()
				b.logger.Info("WS reconnected", zap.Int("attempt", attempt), zap.Int("topics", len(topics)))
				go b.readLoop(c)
				go b.keepAlive(c)
				return
			}
			b.mu.Unlock()
			c.Close()
		}

		b.logger.Warn("WS reconnect failed", zap.Int("attempt", attempt), zap.Duration("retry_in", delay), zap.Error(err))
		delay *= 2
		if delay > wsMaxReconnectDelay {
			delay = wsMaxReconnectDelay
		}
	}
}

// keepAlive sends the application-level ping Bybit expects to keep idle
// public streams open. It stops once conn is no longer the active stream.
func (b *BybitAdapter) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for range ticker.C {
		b.mu.Lock()
		if b.wsConn != conn {
			b.mu.Unlock()
			return
		}
		err := conn.WriteJSON(map[string]string{"op": "ping"})
		b.mu.Unlock()
		if err != nil {
			b.logger.Warn("WS ping failed", zap.Error(err))
			return
		}
	}
}

func (b *BybitAdapter) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		b.mu.Lock()
		resubscribe := false
		topics := len(b.topics)
		if b.wsConn == conn {
			b.wsConn = nil
			resubscribe = !b.closed && topics > 0
		}
		b.mu.Unlock()
		if resubscribe {
			b.logger.Error("WS stream dropped, reconnecting", zap.Int("topics", topics))
			go b.reconnect()
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			b.logger.Warn("WS read error", zap.Error(err))
			return
		}

		var event klineEvent
		if err := json.Unmarshal(message, &event); err != nil {
			b.logger.Debug("WS unmarshal error", zap.Error(err))
			continue
		}
		if !strings.HasPrefix(event.Topic, "kline.") {
			continue
		}

		// kline.{interval}.{symbol}
		parts := strings.SplitN(event.Topic, ".", 3)
		if len(parts) != 3 {
			continue
		}
		tf, ok := timeframeForInterval(parts[1])
		if !ok {
			continue
		}
		symbol := parts[2]

		b.mu.Lock()
		callbacks := make([]BarCallback, len(b.callbacks))
		copy(callbacks, b.callbacks)
		b.mu.Unlock()

		for _, k := range event.Data {
			if !k.Confirm {
				continue
			}
			bar := domain.Bar{
				Time:   k.Start / 1000,
				Open:   parseFloat(k.Open),
				High:   parseFloat(k.High),
				Low:    parseFloat(k.Low),
				Close:  parseFloat(k.Close),
				Volume: parseFloat(k.Volume),
			}
			for _, cb := range callbacks {
				cb(symbol, tf, bar)
			}
		}
	}
}

func timeframeForInterval(interval string) (domain.Timeframe, bool) {
	for tf, iv := range bybitIntervals {
		if iv == interval {
			return tf, true
		}
	}
	return "", false
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
