// Package apiclient is the thin wrapper over the marketplace HTTP API.
//
// Every call returns a Result: either the decoded value or the reason it
// failed. Nothing here panics on a network failure; callers branch on
// Result.OK explicitly.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"frontend/internal/domain"
	"frontend/internal/metrics"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 8 << 20

// Options tune a Client. Zero values fall back to sane defaults.
type Options struct {
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
	HTTP      *http.Client
	Logger    *zap.Logger
}

// Client issues JSON-over-HTTPS calls against one API base URL.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

func New(baseURL string, opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    opts.HTTP,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = 15 * time.Second
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type request struct {
	method      string
	resource    string
	query       url.Values
	body        []byte
	contentType string
	token       string
}

func (c *Client) endpoint(resource string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(resource, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends one request and unwraps the {success, data, message} envelope.
func (c *Client) do(ctx context.Context, r request) (json.RawMessage, error) {
	start := time.Now()
	data, err := c.send(ctx, r)
	metrics.ObserveAPICall(r.method, metricResource(r.resource), err == nil, time.Since(start))
	if err != nil {
		c.logger.Debug("api call failed",
			zap.String("method", r.method),
			zap.String("resource", r.resource),
			zap.Error(err),
		)
	}
	return data, err
}

func (c *Client) send(ctx context.Context, r request) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, domain.RemoteError{Msg: "request cancelled", Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.resource, r.query), body)
	if err != nil {
		return nil, domain.InternalError{Msg: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.RemoteError{Msg: "request timed out", Err: err}
		}
		return nil, domain.RemoteError{Msg: "api unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domain.RemoteError{Status: resp.StatusCode, Msg: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.RemoteError{Status: resp.StatusCode, Msg: extractMessage(raw, resp.StatusCode)}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, domain.RemoteError{Status: resp.StatusCode, Msg: "malformed response", Err: err}
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = extractMessage(raw, resp.StatusCode)
		}
		return nil, domain.RemoteError{Status: resp.StatusCode, Msg: msg}
	}
	return env.Data, nil
}

// extractMessage pulls a human message out of an error body of unknown shape.
func extractMessage(raw []byte, status int) string {
	if gjson.ValidBytes(raw) {
		for _, path := range []string{"message", "error.message", "error", "errors.0.message", "errors.0", "title"} {
			if v := gjson.GetBytes(raw, path); v.Exists() && v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
				return strings.TrimSpace(v.String())
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

// metricResource keeps label cardinality bounded by dropping ids.
func metricResource(resource string) string {
	resource = strings.Trim(resource, "/")
	if i := strings.IndexByte(resource, '/'); i > 0 {
		return resource[:i]
	}
	return resource
}
