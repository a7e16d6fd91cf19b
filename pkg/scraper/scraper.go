package scraper

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// DefaultUserAgent is sent with every page request; the retailer serves a
// captcha to obviously non-browser clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0"

var errUnexpectedStatus = errors.New("unexpected status")

// CollyFetcher fetches single pages with a colly collector.
type CollyFetcher struct {
	colly  *colly.Collector
	logger *slog.Logger
}

// FetcherOption configures a CollyFetcher.
type FetcherOption func(*fetcherOptions)

type fetcherOptions struct {
	userAgent          string
	proxyURL           string
	insecureSkipVerify bool
	timeout            time.Duration
	logger             *slog.Logger
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) FetcherOption {
	return func(o *fetcherOptions) {
		o.userAgent = ua
	}
}

// WithProxy routes requests through a forward proxy. An empty URL disables it.
func WithProxy(proxyURL string) FetcherOption {
	return func(o *fetcherOptions) {
		o.proxyURL = proxyURL
	}
}

// WithInsecureSkipVerify disables TLS certificate validation.
func WithInsecureSkipVerify(skip bool) FetcherOption {
	return func(o *fetcherOptions) {
		o.insecureSkipVerify = skip
	}
}

// WithRequestTimeout bounds each request. Zero keeps colly's default.
func WithRequestTimeout(d time.Duration) FetcherOption {
	return func(o *fetcherOptions) {
		o.timeout = d
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(o *fetcherOptions) {
		o.logger = logger
	}
}

func NewCollyFetcher(opts ...FetcherOption) (*CollyFetcher, error) {
	o := fetcherOptions{
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if o.proxyURL != "" {
		u, err := url.Parse(o.proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("parse proxy url: %q needs a scheme and host", o.proxyURL)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	if o.insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	c := colly.NewCollector(
		colly.UserAgent(o.userAgent),
		colly.AllowURLRevisit(),
		// status codes are checked in OnResponse so any non-2xx is a FetchError
		colly.ParseHTTPErrorResponse(),
	)
	c.WithTransport(transport)
	if o.timeout > 0 {
		c.SetRequestTimeout(o.timeout)
	}
	c.DisableCookies()

	return &CollyFetcher{colly: c, logger: o.logger}, nil
}

// Fetch performs a single GET of target and returns the response body.
func (f *CollyFetcher) Fetch(ctx context.Context, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{URL: target, Err: err}
	}

	c := f.colly.Clone()

	var (
		body       string
		statusCode int
	)
	c.OnRequest(func(r *colly.Request) {
		f.logger.Debug("visiting", "url", r.URL.String())
	})
	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = string(r.Body)
	})

	if err := c.Visit(target); err != nil {
		return "", &FetchError{URL: target, Err: err}
	}
	if statusCode < 200 || statusCode > 299 {
		return "", &FetchError{URL: target, StatusCode: statusCode, Err: errUnexpectedStatus}
	}
	if err := ctx.Err(); err != nil {
		return "", &FetchError{URL: target, Err: err}
	}
	return body, nil
}
