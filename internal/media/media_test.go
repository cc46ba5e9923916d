package media

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testFetcher() *Fetcher {
	f := New(5 * time.Second)
	f.retryDelay = 10 * time.Millisecond
	return f
}

func TestAcquire_AmbiguousSource(t *testing.T) {
	f := testFetcher()
	ctx := context.Background()

	if _, err := f.Acquire(ctx, Source{}); !errors.Is(err, ErrAmbiguousSource) {
		t.Fatalf("expected ErrAmbiguousSource for empty source, got %v", err)
	}
	src := Source{Base64: "aGk=", URL: "http://example.com/a.jpg"}
	if _, err := f.Acquire(ctx, src); !errors.Is(err, ErrAmbiguousSource) {
		t.Fatalf("expected ErrAmbiguousSource for double source, got %v", err)
	}
}

func TestAcquire_InlineBase64(t *testing.T) {
	f := testFetcher()
	ctx := context.Background()

	payload := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	buf, err := f.Acquire(ctx, Source{Base64: payload})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if string(buf) != "jpeg-bytes" {
		t.Fatalf("unexpected payload %q", buf)
	}

	// data-URI prefix is stripped before decoding
	buf, err = f.Acquire(ctx, Source{Base64: "data:image/jpeg;base64," + payload})
	if err != nil {
		t.Fatalf("Acquire with prefix: %v", err)
	}
	if string(buf) != "jpeg-bytes" {
		t.Fatalf("unexpected payload %q", buf)
	}
}

func TestAcquire_InvalidInline(t *testing.T) {
	f := testFetcher()
	ctx := context.Background()

	if _, err := f.Acquire(ctx, Source{Base64: "!!!not-base64"}); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	// valid base64 of zero bytes
	if _, err := f.Acquire(ctx, Source{Base64: "data:image/png;base64,"}); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for empty decode, got %v", err)
	}
}

func TestAcquire_URLSuccess(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("image-data"))
	}))
	defer srv.Close()

	f := testFetcher()
	buf, err := f.Acquire(context.Background(), Source{URL: srv.URL})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if string(buf) != "image-data" {
		t.Fatalf("unexpected body %q", buf)
	}
	if gotAgent == "" || gotAgent == "Go-http-client/1.1" {
		t.Fatalf("expected browser user agent, got %q", gotAgent)
	}
}

func TestAcquire_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	f := testFetcher()
	if _, err := f.Acquire(context.Background(), Source{URL: srv.URL}); !errors.Is(err, ErrEmptyMedia) {
		t.Fatalf("expected ErrEmptyMedia, got %v", err)
	}
}

func TestAcquire_RetriesOn429ThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer srv.Close()

	f := testFetcher()
	start := time.Now()
	buf, err := f.Acquire(context.Background(), Source{URL: srv.URL})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if string(buf) != "finally" {
		t.Fatalf("unexpected body %q", buf)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
	// delays are 1x then 2x the retry unit
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected backoff delays, elapsed %v", elapsed)
	}
}

func TestAcquire_ExhaustsRetriesOn429(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := testFetcher()
	_, err := f.Acquire(context.Background(), Source{URL: srv.URL})
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 in error, got %d", fetchErr.StatusCode)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestAcquire_NoRetryOnOtherErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := testFetcher()
	_, err := f.Acquire(context.Background(), Source{URL: srv.URL})
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected single attempt, got %d", n)
	}
}

func TestAcquire_HonorsContextDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	f.retryDelay = 10 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Acquire(ctx, Source{URL: srv.URL})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
}
