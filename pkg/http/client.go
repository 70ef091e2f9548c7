package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodPut    = http.MethodPut
	MethodDelete = http.MethodDelete
	MethodPatch  = http.MethodPatch
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

// ClientOption configures HTTPClient.
type ClientOption func(*Client)

// RequestOptions holds HTTP request parameters.
type RequestOptions struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string][]string
	// Body may be []byte, string, io.Reader, FileUpload, a form map, or any JSON value.
	Body interface{}
	// Timeout overrides the client timeout for this request when positive.
	Timeout time.Duration
}

// FileUpload sends a single file as multipart/form-data.
type FileUpload struct {
	Field    string
	Filename string
	Reader   io.Reader
}

// ErrDecode wraps failures to decode a successful response body as JSON.
var ErrDecode = errors.New("decode json")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client represents an HTTP client with configurable timeout.
type Client struct {
	timeout   time.Duration
	transport http.RoundTripper
	client    *http.Client
}

// NewClient creates a new HTTP client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Per-request deadlines come from the context so long trainings can outlive the default.
	c.client = &http.Client{Transport: c.transport}
	return c
}

// Timeout returns the default per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// SendRequest sends an HTTP request and returns response.
// The caller must close the body; the request deadline ends when it does.
func (c *Client) SendRequest(ctx context.Context, opts *RequestOptions) (*http.Response, context.CancelFunc, error) {
	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	req, err := c.buildRequest(ctx, opts)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, cancel, nil
}

// SendAndParse sends request and parses JSON response.
func (c *Client) SendAndParse(ctx context.Context, opts *RequestOptions, dest interface{}) error {
	resp, cancel, err := c.SendRequest(ctx, opts)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if dest == nil {
		return nil
	}

	switch v := dest.(type) {
	case *[]byte:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		*v = body
	case io.Writer:
		if _, err := io.Copy(v, resp.Body); err != nil {
			return fmt.Errorf("copy body: %w", err)
		}
	default:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
	}

	return nil
}

func (c *Client) buildRequest(ctx context.Context, opts *RequestOptions) (*http.Request, error) {
	body, contentType, err := c.createRequestBody(opts)
	if err != nil {
		return nil, fmt.Errorf("create body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	c.addQueryParams(req, opts.QueryParams)
	c.addHeaders(req, opts.Headers, contentType)

	return req, nil
}

func (c *Client) createRequestBody(opts *RequestOptions) (io.Reader, string, error) {
	if opts.Body == nil {
		return nil, "", nil
	}

	switch v := opts.Body.(type) {
	case FileUpload:
		return multipartBody(v)
	case *FileUpload:
		return multipartBody(*v)
	case []byte:
		return bytes.NewReader(v), "", nil
	case io.Reader:
		return v, "", nil
	case string:
		return strings.NewReader(v), "", nil
	case map[string]string:
		values := url.Values{}
		for k, val := range v {
			values.Set(k, val)
		}
		return strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", nil
	default:
		jsonBody, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, "", fmt.Errorf("marshal json: %w", err)
		}
		return bytes.NewReader(jsonBody), "application/json", nil
	}
}

func multipartBody(f FileUpload) (io.Reader, string, error) {
	if f.Reader == nil {
		return nil, "", fmt.Errorf("multipart %q: nil reader", f.Field)
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(f.Field, f.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f.Reader); err != nil {
		return nil, "", fmt.Errorf("copy form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) addQueryParams(req *http.Request, params map[string][]string) {
	if len(params) > 0 {
		q := req.URL.Query()
		for key, values := range params {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
}

func (c *Client) addHeaders(req *http.Request, headers map[string]string, contentType string) {
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithTransport overrides the round tripper.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}
