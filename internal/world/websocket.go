package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"

	"github.com/hydra/aware/pkg/core"
	"github.com/hydra/aware/pkg/streaming"
)

const writeWait = 10 * time.Second

// WebsocketClient talks to the world service over JSON envelopes.
// Every Watch opens its own connection; pushes share one lazily dialed
// connection whose read loop routes push_result messages by id.
type WebsocketClient struct {
	url    string
	dialer *ws.Dialer
	logger *slog.Logger

	mu      sync.Mutex
	push    *ws.Conn
	pending map[string]chan pushReply
	closed  bool
}

type pushReply struct {
	result core.PushResult
	err    error
}

// NewWebsocketClient creates a client for the given ws:// or wss:// URL.
func NewWebsocketClient(url string, logger *slog.Logger) *WebsocketClient {
	return &WebsocketClient{
		url:     url,
		dialer:  ws.DefaultDialer,
		logger:  logger,
		pending: make(map[string]chan pushReply),
	}
}

// Watch opens a watch subscription. Cancelling ctx closes the connection,
// which unblocks any pending Recv.
func (c *WebsocketClient) Watch(ctx context.Context) (EventStream, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	data, err := streaming.Marshal(streaming.TypeWatch, "", nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := writeMessage(conn, data); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send watch: %w", err)
	}

	s := &wsStream{ctx: ctx, conn: conn, done: make(chan struct{})}
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

type wsStream struct {
	ctx       context.Context
	conn      *ws.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func (s *wsStream) Recv() (core.ChangeEvent, error) {
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() != nil {
				return core.ChangeEvent{}, s.ctx.Err()
			}
			if ws.IsCloseError(err, ws.CloseNormalClosure) {
				return core.ChangeEvent{}, io.EOF
			}
			return core.ChangeEvent{}, err
		}

		var env streaming.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			return core.ChangeEvent{}, fmt.Errorf("decode envelope: %w", err)
		}

		switch env.Type {
		case streaming.TypeEntityEvent:
			var ev core.ChangeEvent
			if err := json.Unmarshal(env.Payload, &ev); err != nil {
				return core.ChangeEvent{}, fmt.Errorf("decode entity event: %w", err)
			}
			return ev, nil
		case streaming.TypeError:
			var p streaming.ErrorPayload
			_ = json.Unmarshal(env.Payload, &p)
			return core.ChangeEvent{}, fmt.Errorf("world service: %s", p.Message)
		default:
			// Unknown message types are ignored for forward compatibility.
		}
	}
}

func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
		err = s.conn.Close()
	})
	return err
}

// Push sends entity mutations and waits for the matching push_result.
func (c *WebsocketClient) Push(ctx context.Context, changes []core.Entity) (core.PushResult, error) {
	conn, err := c.pushConn(ctx)
	if err != nil {
		return core.PushResult{}, err
	}

	id := uuid.NewString()
	data, err := streaming.Marshal(streaming.TypePush, id, streaming.PushPayload{Changes: changes})
	if err != nil {
		return core.PushResult{}, err
	}

	reply := make(chan pushReply, 1)
	c.mu.Lock()
	c.pending[id] = reply
	err = writeMessage(conn, data)
	c.mu.Unlock()
	if err != nil {
		c.dropPending(id)
		c.resetPush(conn, err)
		return core.PushResult{}, fmt.Errorf("send push: %w", err)
	}

	select {
	case r := <-reply:
		return r.result, r.err
	case <-ctx.Done():
		c.dropPending(id)
		return core.PushResult{}, ctx.Err()
	}
}

func (c *WebsocketClient) pushConn(ctx context.Context) (*ws.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("websocket client closed")
	}
	if c.push != nil {
		return c.push, nil
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	c.push = conn
	go c.readLoop(conn)
	return conn, nil
}

// readLoop routes push_result messages to their waiting Push call.
func (c *WebsocketClient) readLoop(conn *ws.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.resetPush(conn, err)
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(msg, &env); err != nil || env.Type != streaming.TypePushResult {
			c.logger.Debug("Ignoring non push_result message", "raw", string(msg))
			continue
		}

		var res core.PushResult
		if err := json.Unmarshal(env.Payload, &res); err != nil {
			c.deliver(env.ID, pushReply{err: fmt.Errorf("decode push result: %w", err)})
			continue
		}
		c.deliver(env.ID, pushReply{result: res})
	}
}

func (c *WebsocketClient) deliver(id string, r pushReply) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if ok {
		ch <- r
	}
}

func (c *WebsocketClient) dropPending(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// resetPush discards a broken push connection and fails every waiter.
func (c *WebsocketClient) resetPush(conn *ws.Conn, cause error) {
	c.mu.Lock()
	if c.push != conn {
		c.mu.Unlock()
		return
	}
	c.push = nil
	waiting := c.pending
	c.pending = make(map[string]chan pushReply)
	c.mu.Unlock()

	_ = conn.Close()
	for _, ch := range waiting {
		ch <- pushReply{err: fmt.Errorf("push connection lost: %w", cause)}
	}
}

// Close shuts the push connection. Open watch streams are closed by their owners.
func (c *WebsocketClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.push
	c.mu.Unlock()

	if conn != nil {
		c.resetPush(conn, errors.New("client closed"))
	}
	return nil
}

func writeMessage(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}
