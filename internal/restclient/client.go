package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultUploadTimeout = 60 * time.Second

	maxBodyBytes = 16 << 20
)

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	UploadTimeout time.Duration
	// Headers are sent on every call made by clients of this factory.
	Headers    map[string]string
	HTTPClient *http.Client
}

// Factory hands out per-resource clients that share transport and defaults.
type Factory struct {
	cfg    Config
	http   *http.Client
	logger *logrus.Entry
}

func NewFactory(cfg Config, logger *logrus.Logger) *Factory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Deadlines come from the per-call context.
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Factory{
		cfg:    cfg,
		http:   httpClient,
		logger: logger.WithField("component", "restclient"),
	}
}

// Resource builds a client for one backend resource such as "/api/tours".
// An empty token means the calls go out unauthenticated.
func (f *Factory) Resource(path, token string) *Client {
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	for k, v := range f.cfg.Headers {
		headers.Set(k, v)
	}
	if token != "" {
		headers.Set("Authorization", "Bearer "+token)
	}

	return &Client{
		factory: f,
		path:    "/" + strings.Trim(path, "/"),
		headers: headers,
	}
}

type Client struct {
	factory *Factory
	path    string
	headers http.Header
}

func (c *Client) Get(ctx context.Context, opts ...Option) *Result {
	return c.Do(ctx, http.MethodGet, "", nil, opts...)
}

func (c *Client) GetByID(ctx context.Context, id string, opts ...Option) *Result {
	if id == "" {
		return failure(KindInternal, 0, "id is required")
	}
	return c.Do(ctx, http.MethodGet, url.PathEscape(id), nil, opts...)
}

func (c *Client) Count(ctx context.Context, opts ...Option) *Result {
	return c.Do(ctx, http.MethodGet, "count", nil, opts...)
}

func (c *Client) Create(ctx context.Context, body interface{}, opts ...Option) *Result {
	return c.Do(ctx, http.MethodPost, "", body, opts...)
}

func (c *Client) Update(ctx context.Context, id string, body interface{}, opts ...Option) *Result {
	if id == "" {
		return failure(KindInternal, 0, "id is required")
	}
	return c.Do(ctx, http.MethodPut, url.PathEscape(id), body, opts...)
}

func (c *Client) Delete(ctx context.Context, id string, opts ...Option) *Result {
	if id == "" {
		return failure(KindInternal, 0, "id is required")
	}
	return c.Do(ctx, http.MethodDelete, url.PathEscape(id), nil, opts...)
}

// Do issues a JSON call against path/subpath. It is the escape hatch for
// sub-resources like "/api/roles/{id}/permissions".
func (c *Client) Do(ctx context.Context, method, subpath string, body interface{}, opts ...Option) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(KindInternal, 0, fmt.Sprintf("recovered: %v", r))
			c.logFailure(method, subpath, res)
		}
	}()

	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return failure(KindInternal, 0, fmt.Sprintf("failed to encode body: %v", err))
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	o := c.options(c.factory.cfg.Timeout, opts)
	return c.send(ctx, method, subpath, reader, contentType, o)
}

func (c *Client) options(timeout time.Duration, opts []Option) *callOptions {
	o := &callOptions{
		headers: c.headers.Clone(),
		params:  url.Values{},
		timeout: timeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (c *Client) send(ctx context.Context, method, subpath string, body io.Reader, contentType string, o *callOptions) *Result {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	endpoint := c.endpoint(subpath, o.params)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		res := failure(KindInternal, 0, fmt.Sprintf("failed to create request: %v", err))
		c.logFailure(method, subpath, res)
		return res
	}

	req.Header = o.headers
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.factory.http.Do(req)
	if err != nil {
		res := transportFailure(ctx, err)
		c.logFailure(method, subpath, res)
		return res
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		res := transportFailure(ctx, err)
		res.Status = resp.StatusCode
		res.Error.Status = resp.StatusCode
		c.logFailure(method, subpath, res)
		return res
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res := failure(kindForStatus(resp.StatusCode), resp.StatusCode, remoteMessage(data, resp.StatusCode))
		c.logFailure(method, subpath, res)
		return res
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && !json.Valid(data) {
		res := failure(KindDecode, resp.StatusCode, "backend returned a non-JSON body")
		c.logFailure(method, subpath, res)
		return res
	}

	return &Result{Status: resp.StatusCode, Data: json.RawMessage(data)}
}

func (c *Client) endpoint(subpath string, params url.Values) string {
	endpoint := c.factory.cfg.BaseURL + c.path
	if subpath = strings.Trim(subpath, "/"); subpath != "" {
		endpoint += "/" + subpath
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return endpoint
}

func (c *Client) logFailure(method, subpath string, res *Result) {
	fields := logrus.Fields{
		"method": method,
		"path":   strings.TrimRight(c.path+"/"+subpath, "/"),
		"status": res.Error.Status,
		"kind":   res.Error.Kind,
	}
	// 401 and 429 are expected outcomes the callers handle.
	if res.Error.Kind == KindUnauthorized || res.Error.Kind == KindRateLimited {
		c.factory.logger.WithFields(fields).Info(res.Error.Message)
		return
	}
	c.factory.logger.WithFields(fields).Warn(res.Error.Message)
}

func transportFailure(ctx context.Context, err error) *Result {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return failure(KindTimeout, 0, "backend request timed out")
	}
	return failure(KindTransport, 0, err.Error())
}
