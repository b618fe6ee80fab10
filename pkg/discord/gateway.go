package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatAck   = 11
)

const (
	IntentGuilds         = 1 << 0
	IntentGuildMessages  = 1 << 9
	IntentDirectMessages = 1 << 12
	IntentMessageContent = 1 << 15

	DefaultIntents = IntentGuilds | IntentGuildMessages | IntentDirectMessages | IntentMessageContent
)

var (
	ErrReconnect      = errors.New("gateway requested reconnect")
	ErrInvalidSession = errors.New("gateway session invalidated")
	ErrZombie         = errors.New("heartbeat not acknowledged")
)

type payload struct {
	Op   int             `json:"op"`
	Data json.RawMessage `json:"d,omitempty"`
	Seq  *int64          `json:"s,omitempty"`
	Type string          `json:"t,omitempty"`
}

type hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type identify struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type ready struct {
	User      *User  `json:"user"`
	SessionID string `json:"session_id"`
}

type MessageHandler func(ctx context.Context, m *Message)

type GatewayOption func(g *Gateway)

// WithGatewayURL skips the /gateway/bot lookup.
func WithGatewayURL(url string) GatewayOption {
	return func(g *Gateway) {
		g.url = func(context.Context) (string, error) { return url, nil }
	}
}

func WithIntents(intents int) GatewayOption {
	return func(g *Gateway) {
		g.intents = intents
	}
}

func WithReconnectWait(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.reconnectWait = d
	}
}

func NewGateway(token string, c *Client, logger *zap.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		token:         token,
		intents:       DefaultIntents,
		url:           c.GatewayURL,
		dialer:        websocket.DefaultDialer,
		reconnectWait: 5 * time.Second,
		log:           logger.With(zap.String("via", "gateway")),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Gateway receives events over the Discord websocket. Only MESSAGE_CREATE is
// forwarded, to the handler set with OnMessageCreate.
type Gateway struct {
	token         string
	intents       int
	url           func(ctx context.Context) (string, error)
	dialer        *websocket.Dialer
	reconnectWait time.Duration
	log           *zap.Logger

	onMessage MessageHandler
	self      atomic.Value // Snowflake

	wl    sync.Mutex
	conn  *websocket.Conn
	seq   int64
	acked int32
}

func (g *Gateway) OnMessageCreate(fn MessageHandler) {
	g.onMessage = fn
}

// Self is the bot user id, known after READY.
func (g *Gateway) Self() Snowflake {
	id, _ := g.self.Load().(Snowflake)
	return id
}

// Run keeps a session open until ctx is done, reconnecting after failures.
func (g *Gateway) Run(ctx context.Context) error {
	wait := time.Duration(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		wait = g.reconnectWait

		if err := g.session(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.log.With(zap.Error(err)).Info("session closed")
		}
	}
}

func (g *Gateway) session(ctx context.Context) error {
	u, err := g.url(ctx)
	if err != nil {
		return err
	}

	conn, _, err := g.dialer.DialContext(ctx, u+"?v=10&encoding=json", nil)
	if err != nil {
		return fmt.Errorf("dial %s failed: %w", u, err)
	}

	g.wl.Lock()
	g.conn = conn
	g.wl.Unlock()
	atomic.StoreInt64(&g.seq, 0)

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			g.wl.Lock()
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			g.wl.Unlock()
		case <-done:
		}
		_ = conn.Close()
	}()

	var p payload
	if err := conn.ReadJSON(&p); err != nil {
		return fmt.Errorf("read hello failed: %w", err)
	}
	if p.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", p.Op)
	}

	var h hello
	if err := json.Unmarshal(p.Data, &h); err != nil {
		return fmt.Errorf("decode hello failed: %w", err)
	}

	if err := g.send(opIdentify, identify{
		Token:   g.token,
		Intents: g.intents,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "pixelmirror",
			Device:  "pixelmirror",
		},
	}); err != nil {
		return fmt.Errorf("identify failed: %w", err)
	}

	zombie := make(chan struct{})
	go g.heartbeat(conn, time.Duration(h.HeartbeatInterval)*time.Millisecond, done, zombie)

	for {
		var p payload
		if err := conn.ReadJSON(&p); err != nil {
			select {
			case <-zombie:
				return ErrZombie
			default:
			}
			return fmt.Errorf("read failed: %w", err)
		}

		if p.Seq != nil {
			atomic.StoreInt64(&g.seq, *p.Seq)
		}

		switch p.Op {
		case opDispatch:
			g.dispatch(ctx, p.Type, p.Data)
		case opHeartbeat:
			if err := g.send(opHeartbeat, g.lastSeq()); err != nil {
				return err
			}
		case opHeartbeatAck:
			atomic.StoreInt32(&g.acked, 1)
		case opReconnect:
			return ErrReconnect
		case opInvalidSession:
			return ErrInvalidSession
		}
	}
}

func (g *Gateway) heartbeat(conn *websocket.Conn, interval time.Duration, done <-chan struct{}, zombie chan<- struct{}) {
	if interval <= 0 {
		interval = 40 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	atomic.StoreInt32(&g.acked, 1)
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if !atomic.CompareAndSwapInt32(&g.acked, 1, 0) {
				close(zombie)
				_ = conn.Close()
				return
			}
			if err := g.send(opHeartbeat, g.lastSeq()); err != nil {
				g.log.With(zap.Error(err)).Debug("heartbeat failed")
				return
			}
		}
	}
}

func (g *Gateway) lastSeq() *int64 {
	seq := atomic.LoadInt64(&g.seq)
	if seq == 0 {
		return nil
	}
	return &seq
}

func (g *Gateway) send(op int, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	g.wl.Lock()
	defer g.wl.Unlock()
	return g.conn.WriteJSON(payload{Op: op, Data: raw})
}

func (g *Gateway) dispatch(ctx context.Context, event string, data json.RawMessage) {
	switch event {
	case "READY":
		var r ready
		if err := json.Unmarshal(data, &r); err != nil {
			g.log.With(zap.Error(err)).Info("decode ready failed")
			return
		}
		if r.User != nil {
			g.self.Store(r.User.ID)
			g.log.With(zap.String("user", r.User.Username), zap.Stringer("id", r.User.ID)).Info("ready")
		}
	case "MESSAGE_CREATE":
		if g.onMessage == nil {
			return
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			g.log.With(zap.Error(err)).Info("decode message failed")
			return
		}
		go g.onMessage(ctx, &m)
	}
}
