package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/litescript/ls-comets/internal/ephem"
	"github.com/litescript/ls-comets/internal/logging"
)

const (
	// DefaultURL is the MPC comet orbital elements file.
	DefaultURL = "https://www.minorplanetcenter.net/iau/MPCORB/CometEls.txt"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second
)

var errClientStatus = errors.New("mpc client error")

// Loader fetches and parses the catalog once, on first use.
type Loader struct {
	client   *http.Client
	url      string
	path     string
	logger   *logging.Logger
	attempts uint
	delay    time.Duration

	mu      sync.Mutex
	catalog *Catalog
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithURL sets a custom URL for CometEls.txt.
func WithURL(url string) LoaderOption {
	return func(l *Loader) {
		l.url = url
	}
}

// WithPath reads the catalog from a local file instead of the network.
func WithPath(path string) LoaderOption {
	return func(l *Loader) {
		l.path = path
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		l.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithRetry sets the number of download attempts and the initial delay.
func WithRetry(attempts uint, delay time.Duration) LoaderOption {
	return func(l *Loader) {
		l.attempts = attempts
		l.delay = delay
	}
}

// NewLoader creates a new catalog loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		url:      DefaultURL,
		logger:   logging.Discard(),
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		l.client = &http.Client{Timeout: DefaultTimeout}
	}
	return l
}

// Catalog returns the loaded catalog, loading it on the first call. A
// failed load is not remembered.
func (l *Loader) Catalog(ctx context.Context) (*Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.catalog != nil {
		return l.catalog, nil
	}

	raw, src, err := l.read(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}

	l.logger.Info("loaded %d comets from %s", len(entries), src)
	l.catalog = New(entries)
	return l.catalog, nil
}

// Body resolves a designation through the catalog.
func (l *Loader) Body(ctx context.Context, designation string) (ephem.Body, error) {
	c, err := l.Catalog(ctx)
	if err != nil {
		return ephem.Body{}, err
	}
	return c.Body(designation)
}

// Search runs Catalog.Search against the loaded catalog.
func (l *Loader) Search(ctx context.Context, q string, limit int) ([]Entry, error) {
	c, err := l.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return c.Search(q, limit), nil
}

func (l *Loader) read(ctx context.Context) ([]byte, string, error) {
	if l.path != "" {
		b, err := os.ReadFile(l.path)
		if err != nil {
			return nil, l.path, fmt.Errorf("read comet elements: %w", err)
		}
		return b, l.path, nil
	}

	var body []byte
	err := retry.Do(
		func() error {
			b, err := l.fetchOnce(ctx)
			if err != nil {
				if errors.Is(err, errClientStatus) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			body = b
			return nil
		},
		retry.Attempts(l.attempts),
		retry.Delay(l.delay),
		retry.MaxDelay(time.Minute),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			l.logger.Warn("comet elements download failed, retrying (attempt %d): %v", n+1, err)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, l.url, err
	}
	return body, l.url, nil
}

func (l *Loader) fetchOnce(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ls-comets/1.0 (comet visibility planner)")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch comet elements: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", errClientStatus, resp.StatusCode)
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
