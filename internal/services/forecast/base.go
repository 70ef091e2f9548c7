package forecast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	xhttp "UMKMForecast/pkg/http"

	"github.com/sethvargo/go-retry"
)

// HTTPServiceBase holds the base URL and client shared by backend calls.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPServiceBase builds a base over baseURL with a default per-request timeout.
func NewHTTPServiceBase(baseURL string, timeout time.Duration, opts ...xhttp.ClientOption) *HTTPServiceBase {
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &HTTPServiceBase{
		baseURL: baseURL,
		client:  xhttp.NewClient(opts...),
	}
}

// GetJSON fetches path under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, path string, dest interface{}) error {
	return b.do(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: b.baseURL + path}, dest)
}

// PostJSON posts the given payload to path under baseURL and decodes JSON into dest.
// A positive timeout overrides the client default for this call.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}, timeout time.Duration) error {
	return b.do(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + path,
		Body:    payload,
		Timeout: timeout,
	}, dest)
}

// PostMultipart uploads r as the form file field and decodes JSON into dest.
func (b *HTTPServiceBase) PostMultipart(ctx context.Context, path, field, filename string, r io.Reader, dest interface{}) error {
	return b.do(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    b.baseURL + path,
		Body:   xhttp.FileUpload{Field: field, Filename: filename, Reader: r},
	}, dest)
}

// GetJSONWithRetry retries GetJSON on transport failures and 5xx answers,
// backing off exponentially from 100ms. attempts counts the first try.
func (b *HTTPServiceBase) GetJSONWithRetry(ctx context.Context, path string, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.GetJSON(ctx, path, dest)
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := b.GetJSON(ctx, path, dest)
		if err != nil && transient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (b *HTTPServiceBase) do(ctx context.Context, opts *xhttp.RequestOptions, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("forecast http client not initialized")
	}
	if err := b.client.SendAndParse(ctx, opts, dest); err != nil {
		return fmt.Errorf("%s %s: %w", opts.Method, opts.URL, err)
	}
	return nil
}

// transient reports whether a failed call is worth repeating. The backend
// reports missing sessions as 500 with a "not found" detail, so those are final.
// A 200 whose body does not decode will not decode on the next try either.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, xhttp.ErrDecode) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError && !mentionsNotFound(se.Body)
	}
	return true
}
