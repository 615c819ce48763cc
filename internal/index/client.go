package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/reqhash/internal/config"
	"github.com/nao1215/reqhash/internal/model"
)

// simpleJSONMediaType is the PEP 691 JSON media type for simple API pages.
const simpleJSONMediaType = "application/vnd.pypi.simple.v1+json"

// acceptHeader asks for JSON first and falls back to HTML for indexes that
// only speak PEP 503.
const acceptHeader = simpleJSONMediaType + ", text/html;q=0.1"

// ReleaseFile is one distribution artifact listed on a project page.
type ReleaseFile struct {
	// Filename is the artifact filename, e.g. "requests-2.31.0-py3-none-any.whl".
	Filename string

	// URL is the absolute download URL.
	URL string

	// Digests maps algorithm names to hex digests the index published for
	// this file, from PEP 691 hash metadata or the PEP 503 URL fragment.
	Digests map[string]string
}

// Client queries PyPI-compatible simple API indexes.
//
// A single Client serves all configured indexes so that connection pooling
// is shared; per-index headers and timeouts come from the config file via
// the HeaderFunc option.
type Client struct {
	// hc is the underlying HTTP client.
	hc *http.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize limits project page bodies to protect against
	// misbehaving indexes.
	maxBodySize int64

	// headerFunc returns extra headers for a given index URL, nil for none.
	headerFunc func(indexURL string) map[string]string

	// timeoutFunc returns a per-index timeout override, zero for the
	// client-wide timeout.
	timeoutFunc func(indexURL string) time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
// Tests use this to point the client at a stub transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.hc.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize limits the size of index response bodies.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithHeaderFunc installs a hook that supplies extra headers per index URL,
// typically Authorization for private mirrors.
func WithHeaderFunc(fn func(indexURL string) map[string]string) Option {
	return func(c *Client) {
		c.headerFunc = fn
	}
}

// WithTimeoutFunc installs a hook that supplies a per-index timeout,
// typically a longer one for a slow private mirror. A zero return keeps
// the client-wide timeout.
func WithTimeoutFunc(fn func(indexURL string) time.Duration) Option {
	return func(c *Client) {
		c.timeoutFunc = fn
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an index client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		hc:          &http.Client{Timeout: config.DefaultTimeout},
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxIndexBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ProjectURL returns the simple API project page URL for a package.
// The package name is normalized per PEP 503 before joining.
func ProjectURL(indexURL, name string) string {
	return config.NormalizeIndexURL(indexURL) + "/" + model.NormalizeName(name) + "/"
}

// Probe checks whether the index serves the package.
// A 200 answer means available, 404 (and 410 from indexes that tombstone
// removed projects) means not available. Anything else, including transport
// errors, is ErrIndexUnavailable: a broken index must not be mistaken for
// a missing package.
func (c *Client) Probe(ctx context.Context, indexURL, name string) (bool, error) {
	resp, err := c.get(ctx, indexURL, ProjectURL(indexURL, name))
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrIndexUnavailable, indexURL, err)
	}
	defer resp.Body.Close()
	// Probe answers come from the status line alone; drain so the
	// connection returns to the pool.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck // Best effort drain

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s answered %s", ErrIndexUnavailable, indexURL, resp.Status)
	}
}

// Files fetches the distribution file listing for a package.
// It returns ErrPackageNotFound when the index has no project page, and
// ErrIndexUnavailable on transport or server errors.
func (c *Client) Files(ctx context.Context, indexURL, name string) ([]ReleaseFile, error) {
	pageURL := ProjectURL(indexURL, name)
	resp, err := c.get(ctx, indexURL, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIndexUnavailable, indexURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to body parsing.
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck // Best effort drain
		return nil, fmt.Errorf("%w: %s in %s", ErrPackageNotFound, model.NormalizeName(name), indexURL)
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck // Best effort drain
		return nil, fmt.Errorf("%w: %s answered %s", ErrIndexUnavailable, indexURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIndexUnavailable, indexURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, simpleJSONMediaType) || strings.HasPrefix(contentType, "application/json") {
		return parseSimpleJSON(body)
	}
	return parseSimpleHTML(body, pageURL)
}

// get issues a GET with the shared headers plus any per-index headers.
func (c *Client) get(ctx context.Context, indexURL, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptHeader)

	if c.headerFunc != nil {
		for k, v := range c.headerFunc(indexURL) {
			req.Header.Set(k, v)
		}
	}

	c.logger.Debug("index request", "url", rawURL)

	hc := c.hc
	if c.timeoutFunc != nil {
		if t := c.timeoutFunc(indexURL); t > 0 && t != hc.Timeout {
			// A shallow copy shares the transport and its connection
			// pool; only the deadline differs for this index.
			clone := *hc
			clone.Timeout = t
			hc = &clone
		}
	}
	return hc.Do(req)
}

// simpleJSONPage is the PEP 691 project page shape, reduced to the fields
// reqhash reads.
type simpleJSONPage struct {
	Files []struct {
		Filename string            `json:"filename"`
		URL      string            `json:"url"`
		Hashes   map[string]string `json:"hashes"`
	} `json:"files"`
}

// parseSimpleJSON decodes a PEP 691 project page.
func parseSimpleJSON(body []byte) ([]ReleaseFile, error) {
	var page simpleJSONPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON project page: %v", ErrUnexpectedResponse, err)
	}

	files := make([]ReleaseFile, 0, len(page.Files))
	for _, f := range page.Files {
		if f.Filename == "" || f.URL == "" {
			continue
		}
		digests := make(map[string]string, len(f.Hashes))
		for alg, digest := range f.Hashes {
			digests[strings.ToLower(alg)] = strings.ToLower(digest)
		}
		files = append(files, ReleaseFile{Filename: f.Filename, URL: f.URL, Digests: digests})
	}
	return files, nil
}

// resolveFileURL makes a file link absolute against the project page URL
// and splits off the digest fragment if present.
func resolveFileURL(base *url.URL, href string) (absolute string, fragmentAlg, fragmentDigest string) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", "", ""
	}

	if alg, digest, ok := strings.Cut(ref.Fragment, "="); ok {
		fragmentAlg = strings.ToLower(alg)
		fragmentDigest = strings.ToLower(digest)
	}
	ref.Fragment = ""

	return base.ResolveReference(ref).String(), fragmentAlg, fragmentDigest
}
