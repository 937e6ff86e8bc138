package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRetryAfterHeader(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"soon", 0},
		{time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.header); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestRetryPolicyBackoffDoublesUpToCeiling(t *testing.T) {
	p := retryPolicy{attempts: 10, base: time.Second, ceiling: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := p.backoff(i + 1); got != w {
			t.Fatalf("attempt %d: got %v, want %v", i+1, got, w)
		}
	}
}

func TestRetryPolicyStopsOnPermanentErrors(t *testing.T) {
	p := defaultRetryPolicy()
	ctx := context.Background()
	if _, again := p.next(ctx, &StatusError{Code: http.StatusUnauthorized}, 1); again {
		t.Fatal("401 must not be retried")
	}
	if _, again := p.next(ctx, errors.New("boom"), 1); again {
		t.Fatal("unknown errors must not be retried")
	}
	if _, again := p.next(ctx, &StatusError{Code: http.StatusBadGateway}, p.maxAttempts()); again {
		t.Fatal("retry budget must be honoured")
	}
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, again := p.next(canceled, &StatusError{Code: http.StatusBadGateway}, 1); again {
		t.Fatal("canceled context must stop retries")
	}
}

func TestClientDoesNotRetryUnauthorized(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"}, WithSleeper(func(time.Duration) {}))
	_, err := client.Complete(context.Background(), "system", "File Name: a.txt")
	var status *StatusError
	if !errors.As(err, &status) || status.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single request, got %d", calls)
	}
	if strings.Contains(err.Error(), "gave up") {
		t.Fatalf("single attempt must not report retries: %v", err)
	}
}

func TestClientGivesUpAfterServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithRetryMaxAttempts(3),
		WithRetryBackoff(0, 0),
	)
	_, err := client.Complete(context.Background(), "system", "File Name: a.txt")
	if err == nil || !strings.Contains(err.Error(), "gave up after 3 attempts") {
		t.Fatalf("expected give-up error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 requests, got %d", calls)
	}
}

func TestUnfenceAndSnippet(t *testing.T) {
	if got := unfence("```JSON\n{\"a\":1}\n```"); got != `{"a":1}` {
		t.Fatalf("unfence: %q", got)
	}
	if got := snippet("  a\n\tb  "); got != "a b" {
		t.Fatalf("snippet: %q", got)
	}
	if got := snippet(strings.Repeat("x", snippetLimit+5)); !strings.HasSuffix(got, "...") || len(got) != snippetLimit+3 {
		t.Fatalf("snippet truncation: %q", got)
	}
	if snippet("") != "<empty>" {
		t.Fatal("empty snippet")
	}
}
