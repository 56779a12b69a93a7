package project

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/artifact"
	"github.com/ggwpez/wtfwt/internal/errkind"
)

// DefaultLockfileBaseURL serves raw files of GitHub repositories.
const DefaultLockfileBaseURL = "https://raw.githubusercontent.com"

// LockfileFetcher downloads Cargo.lock of the runtime repository at the
// pinned revision so the replay builds with the same dependency versions.
type LockfileFetcher struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewLockfileFetcher(baseURL string, timeout time.Duration, log *zap.Logger) *LockfileFetcher {
	if baseURL == "" {
		baseURL = DefaultLockfileBaseURL
	}
	return &LockfileFetcher{baseURL: baseURL, client: &http.Client{Timeout: timeout}, log: log}
}

// URL returns <base>/<repo>/<rev>/Cargo.lock.
func (f *LockfileFetcher) URL(repo, rev string) (string, error) {
	return url.JoinPath(f.baseURL, repo, rev, "Cargo.lock")
}

// Fetch downloads the lockfile and writes it verbatim into root.
func (f *LockfileFetcher) Fetch(ctx context.Context, root string, m Manifest) (artifact.Entry, error) {
	const op = "fetch lockfile"

	u, err := f.URL(m.SourceRepo, m.SourceRev)
	if err != nil {
		return artifact.Entry{}, errkind.E(errkind.LockfileFetchError, op, err)
	}
	f.log.Info("downloading lockfile", zap.String("url", u))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return artifact.Entry{}, errkind.E(errkind.LockfileFetchError, op, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return artifact.Entry{}, errkind.E(errkind.LockfileFetchError, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return artifact.Entry{}, errkind.Errorf(errkind.LockfileFetchError, op, "GET %s: HTTP %s", u, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return artifact.Entry{}, errkind.E(errkind.LockfileFetchError, op, fmt.Errorf("read body: %w", err))
	}

	e, err := artifact.NewCache(root).Write("Cargo.lock", body, artifact.OriginFetched)
	if err != nil {
		return artifact.Entry{}, errkind.E(errkind.LockfileFetchError, op, err)
	}
	f.log.Info("lockfile written", zap.String("path", e.Path), zap.Int64("bytes", e.Size))
	return e, nil
}
