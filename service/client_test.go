package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(server *httptest.Server) *Client {
	client := NewClient(server.URL, server.Client())
	client.retryBase = time.Millisecond
	client.retryCap = 2 * time.Millisecond
	return client
}

func TestGetJSON_Non2xxReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := newTestClient(server)
	client.maxAttempts = 1

	var out map[string]any
	err := client.getJSON(context.Background(), "/fail", &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetJSON_RetriesTransientServerErrors(t *testing.T) {
	var attempts int32
	var requestIDs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestIDs = append(requestIDs, r.Header.Get("X-Request-ID"))
		current := atomic.AddInt32(&attempts, 1)
		if current < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("retry later"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	client.maxAttempts = 3

	var out map[string]any
	if err := client.getJSON(context.Background(), "/retry", &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if ok, _ := out["ok"].(bool); !ok {
		t.Fatalf("unexpected payload: %+v", out)
	}
	if requestIDs[0] == "" || requestIDs[0] != requestIDs[2] {
		t.Fatalf("expected one request id across retries, got %v", requestIDs)
	}
}

func TestGetJSON_DoesNotRetryOnClientErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad seats"}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	var out map[string]any
	err := client.getJSON(context.Background(), "/bad-request", &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "bad seats" {
		t.Fatalf("expected API error with message, got %v", err)
	}
}

func TestPostJSON_NeverRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server)
	client.maxAttempts = 3

	if err := client.PayBooking(context.Background(), "b-1"); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestBearerTokenAndUnauthorizedHook(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	client.SetTokenSource(func() string { return "abc" })
	var hooks int32
	client.OnUnauthorized(func() { atomic.AddInt32(&hooks, 1) })

	_, err := client.MyBookings(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected wrapped API error, got %v", err)
	}
	if auth != "Bearer abc" {
		t.Fatalf("unexpected authorization header: %q", auth)
	}
	if hooks != 1 {
		t.Fatalf("expected hook to run once, got %d", hooks)
	}
}

func TestLogin_BadCredentialsSkipsUnauthorizedHook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	var hooks int32
	client.OnUnauthorized(func() { atomic.AddInt32(&hooks, 1) })

	_, err := client.Login(context.Background(), modelCreds("ann", "secret"))
	if err == nil || errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected plain API error, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Fatalf("expected server message in error, got %v", err)
	}
	if hooks != 0 {
		t.Fatal("expected hook not to run for login")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("  http://example.test/api/ ", nil)
	if client.BaseURL() != "http://example.test/api" {
		t.Fatalf("unexpected base url: %s", client.BaseURL())
	}
	if client.httpClient.Timeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %s", client.httpClient.Timeout)
	}
	if NewClient("", nil).BaseURL() != DefaultBaseURL {
		t.Fatal("expected default base url")
	}
}

func TestRetryDelay_Capped(t *testing.T) {
	client := NewClient("", nil)
	client.retryBase = 100 * time.Millisecond
	client.retryCap = 300 * time.Millisecond

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, expected := range want {
		if got := client.retryDelay(i + 1); got != expected {
			t.Fatalf("attempt %d: expected %s, got %s", i+1, expected, got)
		}
	}
}

func readBody(t *testing.T, r *http.Request) string {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}
