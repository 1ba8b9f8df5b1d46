package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewHostLimiter(t *testing.T) {
	limiter := NewHostLimiter(5 * time.Second)
	if limiter == nil {
		t.Fatal("NewHostLimiter() returned nil")
	}
	if limiter.interval != 5*time.Second {
		t.Errorf("interval = %v, want %v", limiter.interval, 5*time.Second)
	}
	if limiter.limiters == nil {
		t.Error("limiters map is nil")
	}
}

func TestHostLimiter_WaitForHost(t *testing.T) {
	tests := []struct {
		name    string
		urlStr  string
		wantErr bool
	}{
		{name: "valid https URL", urlStr: "https://example.org/article/1", wantErr: false},
		{name: "valid http URL", urlStr: "http://example.org/feed.xml", wantErr: false},
		{name: "invalid URL", urlStr: "not-a-url", wantErr: true},
		{name: "empty URL", urlStr: "", wantErr: true},
	}

	limiter := NewHostLimiter(50 * time.Millisecond)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := limiter.WaitForHost(context.Background(), tt.urlStr)
			if (err != nil) != tt.wantErr {
				t.Errorf("WaitForHost() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHostLimiter_RateLimitingBehavior(t *testing.T) {
	limiter := NewHostLimiter(200 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.WaitForHost(ctx, "https://example.org/a"); err != nil {
		t.Fatalf("first WaitForHost() failed: %v", err)
	}
	if d := time.Since(start); d > 50*time.Millisecond {
		t.Errorf("first call took too long: %v", d)
	}

	start = time.Now()
	if err := limiter.WaitForHost(ctx, "https://example.org/b"); err != nil {
		t.Fatalf("second WaitForHost() failed: %v", err)
	}
	if d := time.Since(start); d < 150*time.Millisecond {
		t.Errorf("second call to same host was not rate limited: %v", d)
	}

	start = time.Now()
	if err := limiter.WaitForHost(ctx, "https://other.org/a"); err != nil {
		t.Fatalf("third WaitForHost() failed: %v", err)
	}
	if d := time.Since(start); d > 50*time.Millisecond {
		t.Errorf("call to different host took too long: %v", d)
	}
}

func TestHostLimiter_RaiseFloor(t *testing.T) {
	limiter := NewHostLimiter(10 * time.Millisecond)
	limiter.RaiseFloor("example.org", 200*time.Millisecond)

	ctx := context.Background()
	if err := limiter.WaitForHost(ctx, "https://example.org/a"); err != nil {
		t.Fatalf("WaitForHost() failed: %v", err)
	}

	start := time.Now()
	if err := limiter.WaitForHost(ctx, "https://example.org/b"); err != nil {
		t.Fatalf("WaitForHost() failed: %v", err)
	}
	if d := time.Since(start); d < 150*time.Millisecond {
		t.Errorf("robots crawl-delay floor was not respected: %v", d)
	}
}

func TestHostLimiter_RecordRateLimitHit(t *testing.T) {
	limiter := NewHostLimiter(10 * time.Millisecond)
	limiter.RecordRateLimitHit("example.org", 150*time.Millisecond)

	ctx := context.Background()
	if err := limiter.WaitForHost(ctx, "https://example.org/a"); err != nil {
		t.Fatalf("WaitForHost() failed: %v", err)
	}

	start := time.Now()
	if err := limiter.WaitForHost(ctx, "https://example.org/b"); err != nil {
		t.Fatalf("WaitForHost() failed: %v", err)
	}
	if d := time.Since(start); d < 100*time.Millisecond {
		t.Errorf("429 backoff was not applied: %v", d)
	}
}

func TestHostLimiter_ContextCancellation(t *testing.T) {
	limiter := NewHostLimiter(1 * time.Second)
	url := "https://example.org/a"

	if err := limiter.WaitForHost(context.Background(), url); err != nil {
		t.Fatalf("setup call failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := limiter.WaitForHost(ctx, url)
	duration := time.Since(start)

	if err == nil {
		t.Error("expected context cancellation error, got nil")
	}
	if duration > 300*time.Millisecond {
		t.Errorf("context cancellation took too long: %v", duration)
	}
}
