package compile

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"braces.dev/errtrace"
	"github.com/google/uuid"
)

// Defaults for [Client].
const (
	DefaultURL            = "http://127.0.0.1:5000/compile"
	DefaultConnectTimeout = 8 * time.Second
	DefaultReadTimeout    = 15 * time.Second

	// MaxResponseSize bounds how much of a response body is read.
	MaxResponseSize = 32 << 20
)

// Client sends source code to a compile service.
//
// A Client is safe for concurrent use.
// Each call to Compile uses its own connection
// and closes it before returning.
type Client struct {
	// URL of the compile endpoint. Defaults to DefaultURL.
	URL string

	// ConnectTimeout bounds establishing a connection.
	// Defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// ReadTimeout bounds waiting for and reading the response.
	// Defaults to DefaultReadTimeout.
	ReadTimeout time.Duration

	// Advice is appended to client-side failure messages.
	// Defaults to DefaultAdvice. Set to "-" to omit it.
	Advice string

	// HTTPClient overrides the client used to send requests.
	// Its own timeouts apply in addition to ConnectTimeout and ReadTimeout.
	HTTPClient *http.Client

	// Log receives debug messages. Defaults to discarding them.
	Log *log.Logger

	once       sync.Once
	httpClient *http.Client
	log        *log.Logger
}

func (c *Client) init() {
	c.once.Do(func() {
		c.log = c.Log
		if c.log == nil {
			c.log = log.New(io.Discard, "", 0)
		}

		c.httpClient = c.HTTPClient
		if c.httpClient == nil {
			dialer := &net.Dialer{Timeout: c.connectTimeout()}
			c.httpClient = &http.Client{
				Transport: &http.Transport{
					Proxy:                 http.ProxyFromEnvironment,
					DialContext:           dialer.DialContext,
					ResponseHeaderTimeout: c.readTimeout(),
					DisableKeepAlives:     true,
				},
			}
		}
	})
}

func (c *Client) url() string {
	if c.URL == "" {
		return DefaultURL
	}
	return c.URL
}

func (c *Client) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return DefaultConnectTimeout
	}
	return c.ConnectTimeout
}

func (c *Client) readTimeout() time.Duration {
	if c.ReadTimeout <= 0 {
		return DefaultReadTimeout
	}
	return c.ReadTimeout
}

func (c *Client) advice() string {
	switch c.Advice {
	case "":
		return DefaultAdvice
	case "-":
		return ""
	default:
		return c.Advice
	}
}

// Compile sends src to the compile service and returns its response.
//
// The service's response is returned as-is regardless of the HTTP status.
// If the request fails, or the reply isn't a valid response,
// Compile returns a response in [PhaseClient] with an exit code of -1
// and the failure described in Stderr.
// The returned response is never nil.
//
// Cancelling ctx abandons the request.
func (c *Client) Compile(ctx context.Context, src string) *Response {
	c.init()

	id := uuid.NewString()
	c.log.Printf("compile[%v]: POST %v (%d bytes)", id, c.url(), len(src))

	res, err := c.exchange(ctx, id, src)
	if err != nil {
		c.log.Printf("compile[%v]: %v", id, err)
		return ClientError(c.url(), err, c.advice())
	}

	c.log.Printf("compile[%v]: %v", id, res)
	return res
}

func (c *Client) exchange(ctx context.Context, id, src string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout()+c.readTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(), strings.NewReader(src))
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", id)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxResponseSize))
	if err != nil {
		return nil, errtrace.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.log.Printf("compile[%v]: HTTP %v", id, res.Status)
	}

	return errtrace.Wrap2(decodeResponse(body))
}
