package rpc

import (
	"fmt"
	"net/url"
)

// HTTPURL derives the HTTP endpoint that serves the same node as a WebSocket
// URL: ws:// becomes http:// and wss:// becomes https://. Host, path and
// query are kept as-is.
func HTTPURL(wsURL string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("parse rpc url: %w", err)
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("rpc url %q: expected ws or wss scheme", wsURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("rpc url %q: missing host", wsURL)
	}
	return u.String(), nil
}
