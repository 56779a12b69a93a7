// Package rpctest provides an in-memory rpc.Conn for tests.
package rpctest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Handler answers one call. Returning a nil result encodes as JSON null.
type Handler func(params []any) (any, error)

// Call records one invocation.
type Call struct {
	Method string
	Params []any
}

// Conn dispatches calls to per-method handlers and records them.
type Conn struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
	closed   bool
}

func NewConn() *Conn {
	return &Conn{handlers: make(map[string]Handler)}
}

// Handle registers h for method.
func (c *Conn) Handle(method string, h Handler) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = h
	return c
}

// Reply registers a handler that always returns v.
func (c *Conn) Reply(method string, v any) *Conn {
	return c.Handle(method, func([]any) (any, error) { return v, nil })
}

func (c *Conn) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	c.mu.Lock()
	h, ok := c.handlers[method]
	c.calls = append(c.calls, Call{Method: method, Params: params})
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("rpctest: no handler for %s", method)
	}
	v, err := h(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Calls returns the recorded calls in order.
func (c *Conn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// CallCount returns how many times method was called.
func (c *Conn) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Method == method {
			n++
		}
	}
	return n
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
