package client

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/qrcdl/errs"
)

func TestNew(t *testing.T) {
	client := New()

	if client.HTTPClient == nil {
		t.Fatal("Expected HTTPClient to be initialized")
	}
	if client.HTTPClient.Timeout != defaultTimeout {
		t.Errorf("Expected timeout %v, got %v", defaultTimeout, client.HTTPClient.Timeout)
	}
	if client.Retries != defaultRetries {
		t.Errorf("Expected retries %d, got %d", defaultRetries, client.Retries)
	}
	if client.UserAgent != userAgentValue {
		t.Errorf("Expected user agent '%s', got '%s'", userAgentValue, client.UserAgent)
	}
	if client.Referer != refererValue {
		t.Errorf("Expected referer '%s', got '%s'", refererValue, client.Referer)
	}
}

func TestNewWith(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantTimeout time.Duration
		wantRetries int
		wantUA      string
		wantReferer string
	}{
		{
			name:        "custom",
			cfg:         Config{Timeout: 10 * time.Second, Retries: 5, UserAgent: "Custom Agent", Referer: "https://example.com/", ProxyURL: "http://proxy.example.com:8080"},
			wantTimeout: 10 * time.Second,
			wantRetries: 5,
			wantUA:      "Custom Agent",
			wantReferer: "https://example.com/",
		},
		{
			name:        "zero values",
			cfg:         Config{},
			wantTimeout: defaultTimeout,
			wantRetries: defaultRetries,
			wantUA:      userAgentValue,
			wantReferer: refererValue,
		},
		{
			name:        "negative values",
			cfg:         Config{Timeout: -time.Second, Retries: -1},
			wantTimeout: defaultTimeout,
			wantRetries: defaultRetries,
			wantUA:      userAgentValue,
			wantReferer: refererValue,
		},
		{
			name:        "invalid proxy ignored",
			cfg:         Config{ProxyURL: "invalid-proxy-url"},
			wantTimeout: defaultTimeout,
			wantRetries: defaultRetries,
			wantUA:      userAgentValue,
			wantReferer: refererValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewWith(tt.cfg)
			if client.HTTPClient.Timeout != tt.wantTimeout {
				t.Errorf("Expected timeout %v, got %v", tt.wantTimeout, client.HTTPClient.Timeout)
			}
			if client.Retries != tt.wantRetries {
				t.Errorf("Expected retries %d, got %d", tt.wantRetries, client.Retries)
			}
			if client.UserAgent != tt.wantUA {
				t.Errorf("Expected user agent '%s', got '%s'", tt.wantUA, client.UserAgent)
			}
			if client.Referer != tt.wantReferer {
				t.Errorf("Expected referer '%s', got '%s'", tt.wantReferer, client.Referer)
			}
		})
	}
}

func TestGetSetsDefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgentValue, r.Header.Get("User-Agent"))
		assert.Equal(t, refererValue, r.Header.Get("Referer"))
		assert.Equal(t, "gzip, deflate, br", r.Header.Get("Accept-Encoding"))
		_, _ = w.Write([]byte("test response"))
	}))
	defer server.Close()

	resp, err := New().Get(context.Background(), server.URL)
	require.NoError(t, err)
	body, err := ReadBody(resp)
	require.NoError(t, err)
	assert.Equal(t, "test response", string(body))
}

func TestGetWithBareClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != userAgentValue {
			t.Errorf("Expected User-Agent '%s', got '%s'", userAgentValue, ua)
		}
		if ref := r.Header.Get("Referer"); ref != "" {
			t.Errorf("Expected no Referer, got '%s'", ref)
		}
	}))
	defer server.Close()

	for _, retries := range []int{-1, 0, 1} {
		client := &Client{HTTPClient: &http.Client{Timeout: 5 * time.Second}, Retries: retries}
		resp, err := client.Get(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("retries=%d: expected no error, got %v", retries, err)
		}
		_ = resp.Body.Close()
	}
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := New().Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoReturnsLastServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewWith(Config{Retries: 2})
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestDoRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewWith(Config{Retries: 1})
	_, err := client.Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, errs.ErrRateLimited)
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resp, err := New().Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostReplaysBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"q":1}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := New().Post(context.Background(), server.URL, "application/json", []byte(`{"q":1}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewWith(Config{Retries: 10}).Get(ctx, server.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func compress(t *testing.T, encoding string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	switch encoding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "br":
		w = brotli.NewWriter(&buf)
	case "deflate":
		w = zlib.NewWriter(&buf)
	case "raw-deflate":
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		require.NoError(t, err)
		w = fw
	default:
		return data
	}
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestReadBody(t *testing.T) {
	payload := []byte(`MusicJsonCallback({"retcode":0})`)
	tests := []struct {
		encoding string
		header   string
	}{
		{"identity", ""},
		{"gzip", "gzip"},
		{"br", "br"},
		{"deflate", "deflate"},
		{"raw-deflate", "deflate"},
	}

	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			resp := &http.Response{
				Header: http.Header{},
				Body:   io.NopCloser(bytes.NewReader(compress(t, tt.encoding, payload))),
			}
			if tt.header != "" {
				resp.Header.Set("Content-Encoding", tt.header)
			}
			got, err := ReadBody(resp)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}

	resp := &http.Response{Header: http.Header{"Content-Encoding": {"zstd"}}, Body: io.NopCloser(bytes.NewReader(nil))}
	_, err := ReadBody(resp)
	assert.Error(t, err)
}

func TestProxyFromURLString(t *testing.T) {
	proxyFunc, err := proxyFromURLString("http://proxy.example.com:8080")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if proxyFunc == nil {
		t.Fatal("Expected proxy function to be non-nil")
	}

	for _, raw := range []string{"://invalid-url", "invalid-proxy-url"} {
		if _, err := proxyFromURLString(raw); err == nil {
			t.Errorf("Expected error for proxy URL %q", raw)
		}
	}
}
