package utils

import (
	"net"
	"net/http"
	"net/url"
	"time"
)

// defaults. can be moved to configs later
const (
	defaultClientTimeout         = 10 * time.Second // absolute deadline for the whole request
	defaultResponseHeaderTimeout = 5 * time.Second  // time to first byte of headers
	defaultIdleConnTimeout       = 90 * time.Second
	defaultTLSHandshakeTimeout   = 5 * time.Second

	defaultMaxConnsPerHost     = 64
	defaultMaxIdleConns        = 128
	defaultMaxIdleConnsPerHost = 64

	defaultDialerTimeout   = 2 * time.Second
	defaultDialerKeepAlive = 30 * time.Second
)

// ClientConfig captures tunables for the HTTP client/transport.
// All fields are optional. Zero values are replaced by defaults.
type ClientConfig struct {
	// Client-level deadline (caps total request time, including body read).
	ClientTimeout time.Duration

	// Transport timeouts.
	ResponseHeaderTimeout time.Duration
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration

	// Transport pool sizing.
	MaxConnsPerHost     int
	MaxIdleConns        int
	MaxIdleConnsPerHost int

	// Dialer options. DialerTimeout is the connect timeout and must stay
	// below ClientTimeout so a dead host fails before the request deadline.
	DialerTimeout   time.Duration
	DialerKeepAlive time.Duration

	Proxy func(*http.Request) (*url.URL, error) // default http.ProxyFromEnvironment
}

// ClientOption ----- Functional options pattern -----
type ClientOption func(*ClientConfig)

func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.ClientTimeout = d }
}
func WithResponseHeaderTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.ResponseHeaderTimeout = d }
}
func WithDialerTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.DialerTimeout = d }
}
func WithMaxConnsPerHost(n int) ClientOption { return func(c *ClientConfig) { c.MaxConnsPerHost = n } }

// NewHTTPClient builds an *http.Client with safe defaults overridden by opts.
// All zero/empty values are filled with defaults to avoid accidental infinite hangs.
func NewHTTPClient(opts ...ClientOption) *http.Client {
	cfg := ClientConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	sanitizeClientConfig(&cfg)

	tr := &http.Transport{
		Proxy: cfg.Proxy,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialerTimeout,
			KeepAlive: cfg.DialerKeepAlive,
		}).DialContext,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   cfg.ClientTimeout,
	}
}

// sanitizeClientConfig fills zero values so callers cannot produce a client
// without deadlines.
func sanitizeClientConfig(c *ClientConfig) {
	if c.ClientTimeout <= 0 {
		c.ClientTimeout = defaultClientTimeout
	}
	if c.ResponseHeaderTimeout <= 0 {
		c.ResponseHeaderTimeout = defaultResponseHeaderTimeout
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = defaultIdleConnTimeout
	}
	if c.TLSHandshakeTimeout <= 0 {
		c.TLSHandshakeTimeout = defaultTLSHandshakeTimeout
	}
	if c.DialerTimeout <= 0 {
		c.DialerTimeout = defaultDialerTimeout
	}
	if c.DialerKeepAlive <= 0 {
		c.DialerKeepAlive = defaultDialerKeepAlive
	}
	if c.MaxConnsPerHost <= 0 {
		c.MaxConnsPerHost = defaultMaxConnsPerHost
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if c.Proxy == nil {
		c.Proxy = http.ProxyFromEnvironment
	}
}
