package scrape

import (
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"

	"github.com/sells-group/sitebot/internal/model"
	"github.com/sells-group/sitebot/internal/resilience"
)

// ErrBlocked is returned when a site refuses automated access.
var ErrBlocked = eris.New("scrape: blocked")

// HTTPOptions configures an HTTPScraper.
type HTTPOptions struct {
	Timeout      time.Duration
	MaxAttempts  int
	MaxBodyBytes int64
	// Limiter is shared by all strategies so retries across profiles do
	// not hammer the same site. Nil disables outbound rate limiting.
	Limiter *rate.Limiter
}

// HTTPScraper fetches HTML via net/http using one header profile.
type HTTPScraper struct {
	client  *http.Client
	profile HeaderProfile
	opts    HTTPOptions
	retry   resilience.RetryConfig
}

// NewHTTPScraper creates an HTTPScraper for the given header profile.
func NewHTTPScraper(profile HeaderProfile, opts HTTPOptions) *HTTPScraper {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 2 << 20
	}
	retry := resilience.DefaultRetryConfig()
	retry.InitialBackoff = 250 * time.Millisecond
	retry.MaxBackoff = 2 * time.Second
	if opts.MaxAttempts > 0 {
		retry.MaxAttempts = opts.MaxAttempts
	}
	retry.OnRetry = resilience.RetryLogger("scrape", profile.Name)

	return &HTTPScraper{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		profile: profile,
		opts:    opts,
		retry:   retry,
	}
}

func (h *HTTPScraper) Name() string { return h.profile.Name }

// Supports accepts http and https URLs.
func (h *HTTPScraper) Supports(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Scrape fetches the URL, retrying transient failures.
func (h *HTTPScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	return resilience.DoVal(ctx, h.retry, func(ctx context.Context) (*Result, error) {
		return h.fetch(ctx, targetURL)
	})
}

func (h *HTTPScraper) fetch(ctx context.Context, targetURL string) (*Result, error) {
	if h.opts.Limiter != nil {
		if err := h.opts.Limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "scrape: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: %s: create request", h.profile.Name)
	}
	for k, v := range h.profile.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: %s: fetch", h.profile.Name)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.opts.MaxBodyBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: %s: read body", h.profile.Name)
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Wrapf(ErrBlocked, "%s: %s (status %d)", h.profile.Name, blockType, resp.StatusCode)
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("scrape: %s: status %d", h.profile.Name, resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("scrape: %s: status %d", h.profile.Name, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	return &Result{
		Page: model.FetchedPage{
			URL:         targetURL,
			FinalURL:    resp.Request.URL.String(),
			StatusCode:  resp.StatusCode,
			ContentType: contentType,
			HTML:        decodeCharset(body, contentType),
		},
		Strategy: h.profile.Name,
	}, nil
}

// decodeCharset converts a body in a declared non-UTF-8 charset to UTF-8.
// Unknown charsets and decode failures return the body unchanged.
func decodeCharset(body []byte, contentType string) []byte {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}
	cs := strings.ToLower(strings.TrimSpace(params["charset"]))
	if cs == "" || cs == "utf-8" || cs == "utf8" {
		return body
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		return body
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return decoded
}
