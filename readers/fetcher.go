package readers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	DefaultMaxFetchBytes = 20 << 20
	DefaultFetchTimeout  = 30 * time.Second
)

// Fetcher downloads document bytes from http(s) URLs or reads them
// from file:// URLs, enforcing a size cap either way.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

type FetcherOption func(*Fetcher)

func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: DefaultFetchTimeout},
		maxBytes: DefaultMaxFetchBytes,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch returns the document bytes and the content type reported by
// the source. For file URLs the content type is left empty and format
// detection falls back to the file extension.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid document url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, rawURL)
	case "file", "":
		return f.readFile(u.Path)
	default:
		return nil, "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("document fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", fmt.Errorf("document exceeds size cap of %d bytes", f.maxBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (f *Fetcher) readFile(path string) ([]byte, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat document file: %w", err)
	}
	if info.Size() > f.maxBytes {
		return nil, "", fmt.Errorf("document exceeds size cap of %d bytes", f.maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document file: %w", err)
	}

	return data, "", nil
}
