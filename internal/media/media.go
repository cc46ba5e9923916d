// Package media resolves an image or video payload from either an inline
// base64 string or a remote URL. Remote fetches retry only on HTTP 429, with
// a linearly growing delay between attempts.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	maxAttempts    = 3
	defaultTimeout = 15 * time.Second

	// Providers block obvious bot agents; present a plain browser.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var (
	// ErrAmbiguousSource means neither or both of Base64 and URL were set.
	ErrAmbiguousSource = errors.New("exactly one of base64 or url must be provided")

	// ErrInvalidPayload means the inline payload decoded to nothing usable.
	ErrInvalidPayload = errors.New("invalid base64 payload")

	// ErrEmptyMedia means the remote URL answered with a zero-byte body.
	ErrEmptyMedia = errors.New("url returned empty content")
)

// FetchError reports a terminal remote failure, including 429s that survived
// every retry.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Source selects the media origin. Exactly one field must be set.
type Source struct {
	Base64 string
	URL    string
}

// Fetcher acquires media buffers. The zero value is not usable; call New.
type Fetcher struct {
	client *http.Client

	// retryDelay is the backoff unit: attempt n sleeps n*retryDelay before
	// the next try. Shrunk in tests.
	retryDelay time.Duration
}

func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		retryDelay: time.Second,
	}
}

// Acquire resolves the source into raw bytes.
func (f *Fetcher) Acquire(ctx context.Context, src Source) ([]byte, error) {
	hasInline := src.Base64 != ""
	hasURL := src.URL != ""
	if hasInline == hasURL {
		return nil, ErrAmbiguousSource
	}
	if hasInline {
		return decodeInline(src.Base64)
	}
	return f.fetch(ctx, src.URL)
}

// decodeInline strips a data-URI prefix ("data:image/jpeg;base64,...") if
// present and decodes the remainder.
func decodeInline(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	buf, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(buf) == 0 {
		return nil, ErrInvalidPayload
	}
	return buf, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		buf, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return buf, nil
		}
		lastErr = err
		if !retryable || attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * f.retryDelay):
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (buf []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	buf, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &FetchError{URL: url, Err: err}
	}
	if len(buf) == 0 {
		return nil, false, ErrEmptyMedia
	}
	return buf, false, nil
}
