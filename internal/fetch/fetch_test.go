package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/artifact"
	"github.com/ggwpez/wtfwt/internal/chain"
	"github.com/ggwpez/wtfwt/internal/errkind"
	"github.com/ggwpez/wtfwt/internal/rpc"
	"github.com/ggwpez/wtfwt/internal/rpc/rpctest"
)

var (
	blockHash  = mustHash("0x" + strings.Repeat("aa", 32))
	parentHash = mustHash("0x" + strings.Repeat("bb", 32))
)

func mustHash(s string) chain.Hash {
	h, err := chain.ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

func header() map[string]any {
	return map[string]any{
		"parentHash":     parentHash.Hex(),
		"number":         "0x2a",
		"stateRoot":      "0x" + strings.Repeat("02", 32),
		"extrinsicsRoot": "0x" + strings.Repeat("03", 32),
		"digest":         map[string]any{"logs": []string{}},
	}
}

func chainConn() *rpctest.Conn {
	return rpctest.NewConn().
		Reply("chain_getHeader", header()).
		Reply("chain_getBlock", map[string]any{
			"block": map[string]any{
				"header":     header(),
				"extrinsics": []string{"0x0c0102", "0x0403", "0x0804"},
			},
			"justifications": nil,
		})
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("binary")
	require.NoError(t, err)
	assert.Equal(t, KindBinary, k)

	k, err = ParseKind("json")
	require.NoError(t, err)
	assert.Equal(t, KindJSON, k)

	_, err = ParseKind("auto")
	assert.Error(t, err)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(KindBinary, Options{})
	assert.Error(t, err)
	_, err = New(KindJSON, Options{})
	assert.Error(t, err)

	s, err := New(KindJSON, Options{HTTP: rpctest.NewConn(), Cache: artifact.NewCache(t.TempDir()), Log: zap.NewNop()})
	require.NoError(t, err)
	assert.Equal(t, KindJSON, s.Kind())
}

func TestBinaryFetch(t *testing.T) {
	cache := artifact.NewCache(t.TempDir())
	conn := chainConn()
	f := NewBinary(chain.NewClient(conn), cache, zap.NewNop())

	e, err := f.Fetch(context.Background(), blockHash)
	require.NoError(t, err)
	assert.Equal(t, artifact.OriginFetched, e.Origin)
	assert.Equal(t, cache.Path(artifact.BlockFile(blockHash)), e.Path)

	h := &chain.Header{
		ParentHash:     parentHash,
		Number:         "0x2a",
		StateRoot:      mustHash("0x" + strings.Repeat("02", 32)),
		ExtrinsicsRoot: mustHash("0x" + strings.Repeat("03", 32)),
	}
	head, err := h.Encode()
	require.NoError(t, err)

	got, err := os.ReadFile(e.Path)
	require.NoError(t, err)
	want := append(head, 0x0c, 0x0c, 0x01, 0x02, 0x04, 0x03, 0x08, 0x04)
	assert.Equal(t, want, got)
}

func TestBinaryFetchCacheHit(t *testing.T) {
	cache := artifact.NewCache(t.TempDir())
	_, err := cache.Write(artifact.BlockFile(blockHash), []byte("stale but trusted"), artifact.OriginFetched)
	require.NoError(t, err)

	conn := rpctest.NewConn()
	e, err := NewBinary(chain.NewClient(conn), cache, zap.NewNop()).Fetch(context.Background(), blockHash)
	require.NoError(t, err)
	assert.Equal(t, artifact.OriginCached, e.Origin)
	assert.Empty(t, conn.Calls(), "cache hit must not touch the network")

	data, err := os.ReadFile(e.Path)
	require.NoError(t, err)
	assert.Equal(t, "stale but trusted", string(data))
}

func TestBinaryFetchErrors(t *testing.T) {
	tests := []struct {
		name string
		conn *rpctest.Conn
		want errkind.Kind
	}{
		{
			name: "unknown block",
			conn: rpctest.NewConn().Reply("chain_getHeader", nil),
			want: errkind.BlockNotFound,
		},
		{
			name: "body missing",
			conn: rpctest.NewConn().Reply("chain_getHeader", header()).Reply("chain_getBlock", nil),
			want: errkind.BlockNotFound,
		},
		{
			name: "transport failure",
			conn: rpctest.NewConn().Handle("chain_getHeader", func([]any) (any, error) {
				return nil, errors.New("broken pipe")
			}),
			want: errkind.NetworkError,
		},
		{
			name: "node error",
			conn: rpctest.NewConn().Handle("chain_getHeader", func([]any) (any, error) {
				return nil, &rpc.RPCError{Code: -32000, Message: "Client error"}
			}),
			want: errkind.ChainQueryError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := artifact.NewCache(t.TempDir())
			_, err := NewBinary(chain.NewClient(tt.conn), cache, zap.NewNop()).Fetch(context.Background(), blockHash)
			require.Error(t, err)
			assert.Equal(t, tt.want, errkind.Of(err))

			_, ok, _ := cache.Lookup(artifact.BlockFile(blockHash))
			assert.False(t, ok, "failed fetch must not create a cache entry")
		})
	}
}

func blockServer(t *testing.T, handler func(w http.ResponseWriter, req rpc.Request)) *rpc.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpc.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return rpc.NewClient(rpc.ClientConfig{URL: srv.URL, Timeout: 2 * time.Second})
}

func TestJSONFetch(t *testing.T) {
	client := blockServer(t, func(w http.ResponseWriter, req rpc.Request) {
		assert.Equal(t, "chain_getBlock", req.Method)
		assert.Equal(t, []any{blockHash.Hex()}, req.Params)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"block":{"header":{"number":"0x2a"},"extrinsics":["0x0403"]},"justifications":null}}`))
	})

	cache := artifact.NewCache(t.TempDir())
	e, err := NewJSON(client, cache, zap.NewNop()).Fetch(context.Background(), blockHash)
	require.NoError(t, err)

	data, err := os.ReadFile(e.Path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"header":{"number":"0x2a"},"extrinsics":["0x0403"]}`, string(data))
	assert.Contains(t, string(data), "\n  \"header\"", "block JSON is pretty-printed")
}

func TestJSONFetchSendsHashAsGiven(t *testing.T) {
	raw := "0x" + strings.Repeat("AA", 32)
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"mixed case kept", raw, raw},
		{"no raw hash", "", blockHash.Hex()},
		{"raw hash of another block", parentHash.Hex(), blockHash.Hex()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []any
			client := blockServer(t, func(w http.ResponseWriter, req rpc.Request) {
				got = req.Params
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"block":{}}}`))
			})
			s, err := New(KindJSON, Options{HTTP: client, Cache: artifact.NewCache(t.TempDir()), Log: zap.NewNop(), RawHash: tt.raw})
			require.NoError(t, err)
			_, err = s.Fetch(context.Background(), blockHash)
			require.NoError(t, err)
			assert.Equal(t, []any{tt.want}, got)
		})
	}
}

func TestJSONFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, req rpc.Request)
		want    errkind.Kind
	}{
		{
			name: "null result",
			handler: func(w http.ResponseWriter, req rpc.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
			},
			want: errkind.BlockNotFound,
		},
		{
			name: "http status",
			handler: func(w http.ResponseWriter, req rpc.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			},
			want: errkind.HTTPStatusError,
		},
		{
			name: "rpc error",
			handler: func(w http.ResponseWriter, req rpc.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid params"}}`))
			},
			want: errkind.ChainQueryError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := blockServer(t, tt.handler)
			_, err := NewJSON(client, artifact.NewCache(t.TempDir()), zap.NewNop()).Fetch(context.Background(), blockHash)
			require.Error(t, err)
			assert.Equal(t, tt.want, errkind.Of(err))
		})
	}
}

func TestJSONFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := rpc.NewClient(rpc.ClientConfig{URL: url, Timeout: time.Second})
	_, err := NewJSON(client, artifact.NewCache(t.TempDir()), zap.NewNop()).Fetch(context.Background(), blockHash)
	require.Error(t, err)
	assert.Equal(t, errkind.NetworkError, errkind.Of(err))
}

func TestJSONFetchCacheHit(t *testing.T) {
	cache := artifact.NewCache(t.TempDir())
	_, err := cache.Write(artifact.BlockFile(blockHash), []byte(`{}`), artifact.OriginFetched)
	require.NoError(t, err)

	conn := rpctest.NewConn()
	e, err := NewJSON(conn, cache, zap.NewNop()).Fetch(context.Background(), blockHash)
	require.NoError(t, err)
	assert.Equal(t, artifact.OriginCached, e.Origin)
	assert.Empty(t, conn.Calls())
}
