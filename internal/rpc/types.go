// Package rpc implements the JSON-RPC 2.0 transports used to talk to a
// Substrate node: a WebSocket session for the chain queries and a plain HTTP
// client for one-shot calls.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Request is a JSON-RPC 2.0 request.
//
//	{"jsonrpc":"2.0","method":"chain_getHeader","params":["0x..."],"id":1}
type Request struct {
	JSONRPC string `json:"jsonrpc"` // Always "2.0"
	Method  string `json:"method"`  // e.g. "chain_getBlock"
	Params  []any  `json:"params"`  // Positional arguments, never null on the wire
	ID      uint64 `json:"id"`      // Matches the response to the request
}

// Response is a JSON-RPC 2.0 response. Result is kept raw so each caller can
// decode it into its own shape; a missing block comes back as "null".
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`               // nil for subscription notifications
	Result  json.RawMessage `json:"result"`           // Raw JSON, decoded by the caller
	Error   *RPCError       `json:"error,omitempty"`  // Set when the node rejected the call
	Method  string          `json:"method,omitempty"` // Only set on notifications
}

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("HTTP %s", e.Status)
	}
	return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
}

// Caller performs a single JSON-RPC call and returns the raw result.
type Caller interface {
	Call(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// Conn is a Caller bound to a connection that must be released.
type Conn interface {
	Caller
	Close() error
}

// IsNull reports whether a raw result is absent or JSON null.
func IsNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func newRequest(id uint64, method string, params []any) Request {
	if params == nil {
		params = []any{}
	}
	return Request{JSONRPC: "2.0", Method: method, Params: params, ID: id}
}
