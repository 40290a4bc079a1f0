// Package image builds Pollinations text-to-image requests and fetches the
// rendered image.
package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the Pollinations prompt endpoint.
	DefaultBaseURL = "https://image.pollinations.ai/prompt/"

	// DefaultSize is used for both dimensions when a request leaves them unset.
	DefaultSize = 1024

	// maxSeed bounds the cache-busting seed.
	maxSeed = 1_000_000

	// maxImageBytes bounds a fetched image.
	maxImageBytes = 20 << 20
)

// ErrEmptyDescription is returned when there is nothing to draw.
var ErrEmptyDescription = errors.New("write a description first")

// FetchError is returned when the image could not be retrieved.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("image request failed (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("image request failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Request describes one image. Zero dimensions fall back to the panel defaults.
type Request struct {
	Description string `json:"description"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// Image is a fetched render.
type Image struct {
	URL         string
	Seed        int
	ContentType string
	Data        []byte
}

// Config configures a Panel.
type Config struct {
	BaseURL string
	Width   int
	Height  int
	Timeout time.Duration
}

// Panel generates images. Each generation draws a new seed, so repeating a
// description yields a new picture.
type Panel struct {
	baseURL string
	width   int
	height  int
	client  *http.Client
	logger  *zap.Logger

	mu       sync.Mutex
	seedFn   func() int
	lastSeed int
}

// NewPanel creates a Panel.
func NewPanel(cfg Config, logger *zap.Logger) *Panel {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	return &Panel{
		baseURL:  baseURL,
		width:    cfg.Width,
		height:   cfg.Height,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		seedFn:   func() int { return rand.IntN(maxSeed) },
		lastSeed: -1,
	}
}

// WithSeedFunc replaces the seed source. Used by tests.
func (p *Panel) WithSeedFunc(fn func() int) *Panel {
	p.seedFn = fn
	return p
}

// nextSeed draws a seed that differs from the previous one.
func (p *Panel) nextSeed() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	seed := p.seedFn()
	for i := 0; seed == p.lastSeed && i < 8; i++ {
		seed = p.seedFn()
	}
	if seed == p.lastSeed {
		seed = (seed + 1) % maxSeed
	}
	p.lastSeed = seed
	return seed
}

// URL builds the request URL for req with the given seed.
func (p *Panel) URL(req Request, seed int) (string, error) {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return "", ErrEmptyDescription
	}

	q := url.Values{}
	q.Set("seed", strconv.Itoa(seed))
	if w := orDefault(req.Width, p.width); w > 0 {
		q.Set("width", strconv.Itoa(w))
	}
	if h := orDefault(req.Height, p.height); h > 0 {
		q.Set("height", strconv.Itoa(h))
	}
	q.Set("nologo", "true")

	return p.baseURL + url.PathEscape(desc) + "?" + q.Encode(), nil
}

// NewURL builds a request URL with a freshly drawn seed without fetching it.
func (p *Panel) NewURL(req Request) (string, int, error) {
	if strings.TrimSpace(req.Description) == "" {
		return "", 0, ErrEmptyDescription
	}
	seed := p.nextSeed()
	u, err := p.URL(req, seed)
	return u, seed, err
}

// Generate draws a seed, requests the render and returns it. Failures are
// reported as *FetchError.
func (p *Panel) Generate(ctx context.Context, req Request) (*Image, error) {
	u, seed, err := p.NewURL(req)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	p.logger.Debug("requesting image", zap.String("url", u), zap.Int("seed", seed))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{URL: u, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, &FetchError{URL: u, Status: resp.StatusCode, Err: fmt.Errorf("unexpected content type %q", contentType)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, &FetchError{URL: u, Status: resp.StatusCode, Err: err}
	}

	p.logger.Info("image generated",
		zap.Int("seed", seed),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return &Image{URL: u, Seed: seed, ContentType: mediaType, Data: data}, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
