package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClient is a JSON-RPC session over a single WebSocket connection.
// Calls are serialized: one request is in flight at a time, and any frame
// that does not answer it (subscription notifications, stale replies) is
// discarded.
type WSClient struct {
	url     string
	conn    *websocket.Conn
	timeout time.Duration

	mu     sync.Mutex
	nextID atomic.Uint64
}

// Dial opens a WebSocket session. timeout bounds each call; zero means calls
// are bounded only by their context.
func Dial(ctx context.Context, url string, timeout time.Duration) (*WSClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &WSClient{url: url, conn: conn, timeout: timeout}, nil
}

func (c *WSClient) URL() string { return c.url }

// Call sends one request and waits for the response with the same id.
func (c *WSClient) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID.Add(1)
	deadline := c.deadline(ctx)
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if err := c.conn.WriteJSON(newRequest(id, method, params)); err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	// Unblock the read below when the context is cancelled. Registered after
	// the deadline above so a cancellation cannot be overwritten by it.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()
	for {
		var resp Response
		if err := c.conn.ReadJSON(&resp); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read %s response: %w", method, err)
		}
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}

func (c *WSClient) deadline(ctx context.Context) time.Time {
	var d time.Time
	if c.timeout > 0 {
		d = time.Now().Add(c.timeout)
	}
	if cd, ok := ctx.Deadline(); ok && (d.IsZero() || cd.Before(d)) {
		d = cd
	}
	return d
}

// Close sends a close frame and releases the connection.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
