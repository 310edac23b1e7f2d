package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/solana"
	"solana-token-radar/internal/storage"
)

// DefaultFeedURL is the PumpPortal real-time feed.
const DefaultFeedURL = "wss://pumpportal.fun/api/data"

const (
	baseReconnectDelay = time.Second
	maxReconnectDelay  = 30 * time.Second
	handshakeTimeout   = 30 * time.Second
)

// subscribeMessage requests the token migration stream.
var subscribeMessage = []byte(`{"method":"subscribeMigration"}`)

// Event is one token-creation notification from the feed.
type Event struct {
	Mint        string
	PoolAddress string
	Dex         string
}

// Listener maintains a persistent connection to the creation feed and
// idempotently records every announced token. Reconnects are unbounded;
// the listener only stops when its context is cancelled.
type Listener struct {
	url    string
	tokens storage.TokenStore
	pools  storage.PoolStore
	dialer *websocket.Dialer
	logger zerolog.Logger
	now    func() time.Time
}

// ListenerOption configures Listener.
type ListenerOption func(*Listener)

// WithFeedURL overrides the feed endpoint.
func WithFeedURL(url string) ListenerOption {
	return func(l *Listener) {
		l.url = url
	}
}

// WithLogger sets the listener logger.
func WithLogger(logger zerolog.Logger) ListenerOption {
	return func(l *Listener) {
		l.logger = logger
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) ListenerOption {
	return func(l *Listener) {
		l.now = now
	}
}

// NewListener creates a listener writing to the given stores.
func NewListener(tokens storage.TokenStore, pools storage.PoolStore, opts ...ListenerOption) *Listener {
	l := &Listener{
		url:    DefaultFeedURL,
		tokens: tokens,
		pools:  pools,
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run connects and processes events until ctx is cancelled. Connection loss
// triggers a reconnect with exponential backoff and jitter, capped but
// unlimited in attempts.
func (l *Listener) Run(ctx context.Context) error {
	delay := baseReconnectDelay
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := l.runConnection(ctx)
		if errors.Is(err, context.Canceled) {
			return err
		}
		l.logger.Warn().Err(err).Dur("retry_in", delay).Msg("feed connection lost, reconnecting")

		jittered := delay + time.Duration(rand.Int63n(int64(delay)/2+1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// runConnection dials, subscribes and reads until the connection breaks.
func (l *Listener) runConnection(ctx context.Context) error {
	conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", l.url, err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := conn.WriteMessage(websocket.TextMessage, subscribeMessage); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	l.logger.Info().Str("url", l.url).Msg("feed connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		event, ok := ParseEvent(data)
		if !ok {
			continue
		}
		if err := l.HandleEvent(ctx, event); err != nil {
			l.logger.Warn().Str("mint", event.Mint).Err(err).Msg("event handling failed")
		}
	}
}

// feedMessage covers the key variants the feed has been seen to use.
type feedMessage struct {
	Mint          string          `json:"mint"`
	TokenAddress  string          `json:"tokenAddress"`
	Address       string          `json:"address"`
	Pool          string          `json:"pool"`
	PoolAddress   string          `json:"pool_address"`
	LiquidityPool string          `json:"liquidity_pool_address"`
	Method        string          `json:"method"`
	Data          json.RawMessage `json:"data"`
}

// ParseEvent extracts a token-creation event from a raw feed message.
// Subscription acks and unrecognized payloads return ok=false.
func ParseEvent(data []byte) (*Event, bool) {
	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, false
	}
	if msg.Method != "" {
		// Subscription ack.
		return nil, false
	}

	mint := firstNonEmpty(msg.Mint, msg.TokenAddress, msg.Address)
	pool := firstNonEmpty(msg.PoolAddress, msg.LiquidityPool)
	dex := msg.Pool

	if mint == "" && len(msg.Data) > 0 {
		var nested feedMessage
		if err := json.Unmarshal(msg.Data, &nested); err == nil {
			mint = firstNonEmpty(nested.Mint, nested.TokenAddress, nested.Address)
			pool = firstNonEmpty(nested.PoolAddress, nested.LiquidityPool)
			dex = nested.Pool
		}
	}
	if mint == "" {
		return nil, false
	}
	return &Event{Mint: mint, PoolAddress: pool, Dex: dex}, true
}

// HandleEvent validates and records the token and any referenced pool.
// Replays of the same event are no-ops, which keeps ingestion at-least-once
// safe.
func (l *Listener) HandleEvent(ctx context.Context, event *Event) error {
	if err := solana.ValidateAddress(event.Mint); err != nil {
		return fmt.Errorf("mint: %w", err)
	}

	nowMs := l.now().UnixMilli()
	token := &domain.Token{
		Address:   event.Mint,
		Status:    domain.StatusInitial,
		CreatedAt: nowMs,
	}
	err := l.tokens.Insert(ctx, token)
	switch {
	case err == nil:
		l.logger.Info().Str("mint", event.Mint).Msg("token ingested")
	case errors.Is(err, storage.ErrDuplicateKey):
		// Already known.
	default:
		return fmt.Errorf("insert token: %w", err)
	}

	if event.PoolAddress == "" {
		return nil
	}
	if err := solana.ValidateAddress(event.PoolAddress); err != nil {
		l.logger.Warn().Str("pool", event.PoolAddress).Err(err).Msg("skipping invalid pool address")
		return nil
	}
	pool := &domain.Pool{
		PoolAddress:  event.PoolAddress,
		TokenAddress: event.Mint,
		Dex:          event.Dex,
		Active:       true,
		CreatedAt:    nowMs,
	}
	if err := l.pools.Insert(ctx, pool); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("insert pool: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
