package source

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"
)

const defaultUserAgent = "ripple/1.0"

// BasicClient streams plain URLs over HTTP. It serves sources whose resolved
// stream locations need no further negotiation, and doubles as the reference
// Client implementation.
type BasicClient struct {
	name       string
	httpClient *http.Client

	urlsMu sync.Mutex
	urls   map[string]string // descriptor ID -> stream URL
}

// NewBasicClient constructs a BasicClient for the named source. A nil
// httpClient gets a default with a sane timeout.
func NewBasicClient(name string, httpClient *http.Client) *BasicClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &BasicClient{
		name:       strings.ToLower(strings.TrimSpace(name)),
		httpClient: httpClient,
		urls:       make(map[string]string),
	}
}

func (c *BasicClient) Source() string {
	return c.name
}

// Resolve treats the input as a direct media URL and produces a single track
// descriptor. The item ID is derived from the URL so repeated fetches of the
// same location dedup against each other.
func (c *BasicClient) Resolve(ctx context.Context, urlOrID string) ([]ItemDescriptor, error) {
	parsed, err := url.Parse(strings.TrimSpace(urlOrID))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, Wrap(ErrNotFound, c.name, "resolve", fmt.Sprintf("not a fetchable URL: %q", urlOrID), err)
	}

	base := path.Base(parsed.Path)
	ext := strings.TrimPrefix(path.Ext(base), ".")
	title := strings.TrimSuffix(base, path.Ext(base))
	if title == "" || title == "/" || title == "." {
		title = parsed.Host
	}

	id := urlDigest(parsed.String())
	c.RegisterStreamURL(id, parsed.String())

	return []ItemDescriptor{{
		Source:    c.name,
		ID:        id,
		Kind:      KindTrack,
		Title:     title,
		Artist:    parsed.Host,
		Album:     "Downloads",
		Extension: ext,
		Quality:   QualityMax,
		Position:  1,
	}}, nil
}

// RegisterStreamURL remembers the backing URL for a descriptor ID.
// Descriptors produced by Resolve are registered automatically; callers that
// construct descriptors by hand register theirs here.
func (c *BasicClient) RegisterStreamURL(id, streamURL string) {
	c.urlsMu.Lock()
	defer c.urlsMu.Unlock()
	c.urls[id] = streamURL
}

// OpenStream issues a GET for the URL backing the descriptor.
func (c *BasicClient) OpenStream(ctx context.Context, d ItemDescriptor) (*Stream, error) {
	c.urlsMu.Lock()
	streamURL, ok := c.urls[d.ID]
	c.urlsMu.Unlock()
	if !ok {
		return nil, Wrap(ErrNotFound, c.name, "open stream", "descriptor has no stream URL", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, Wrap(ErrNotFound, c.name, "open stream", "build request", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Wrap(ErrTransient, c.name, "open stream", "request failed", err)
	}
	if err := classifyStatus(c.name, resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return &Stream{Body: resp.Body, Length: resp.ContentLength, Extension: d.Extension}, nil
}

func classifyStatus(sourceName string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Wrap(ErrAuth, sourceName, "open stream", fmt.Sprintf("status %d", status), nil)
	case status == http.StatusNotFound || status == http.StatusGone:
		return Wrap(ErrNotFound, sourceName, "open stream", fmt.Sprintf("status %d", status), nil)
	case status == http.StatusTooManyRequests || status >= 500:
		return Wrap(ErrTransient, sourceName, "open stream", fmt.Sprintf("status %d", status), nil)
	default:
		return Wrap(ErrNotFound, sourceName, "open stream", fmt.Sprintf("unexpected status %d", status), nil)
	}
}

func urlDigest(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
