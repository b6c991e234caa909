package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	limiter := New(context.Background(), Config{RequestsPerMinute: 3})

	for i := 0; i < 3; i++ {
		if !limiter.Allow("batch") {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	if limiter.Allow("batch") {
		t.Error("fourth request should be blocked")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter := New(context.Background(), Config{RequestsPerMinute: 1})

	if !limiter.Allow("batch-a") {
		t.Error("batch-a first request should be allowed")
	}
	if !limiter.Allow("batch-b") {
		t.Error("batch-b first request should be allowed")
	}
	if limiter.Allow("batch-a") {
		t.Error("batch-a second request should be blocked")
	}
	if limiter.Allow("batch-b") {
		t.Error("batch-b second request should be blocked")
	}
}

func TestLimiterRemainingRequests(t *testing.T) {
	limiter := New(context.Background(), Config{RequestsPerMinute: 5})

	if remaining := limiter.RemainingRequests("k"); remaining != 5 {
		t.Errorf("RemainingRequests() = %d, want 5", remaining)
	}

	limiter.Allow("k")
	limiter.Allow("k")
	limiter.Allow("k")

	if remaining := limiter.RemainingRequests("k"); remaining != 2 {
		t.Errorf("RemainingRequests() = %d, want 2", remaining)
	}

	limiter.Allow("k")
	limiter.Allow("k")

	if remaining := limiter.RemainingRequests("k"); remaining != 0 {
		t.Errorf("RemainingRequests() = %d, want 0", remaining)
	}
}

func TestLimiterResetTime(t *testing.T) {
	limiter := New(context.Background(), Config{RequestsPerMinute: 1})

	before := time.Now()
	limiter.Allow("k")

	resetTime := limiter.ResetTime("k")

	expected := before.Add(time.Minute)
	tolerance := 2 * time.Second

	if resetTime.Before(expected.Add(-tolerance)) || resetTime.After(expected.Add(tolerance)) {
		t.Errorf("ResetTime() = %v, expected around %v", resetTime, expected)
	}
}

func TestLimiterDefaults(t *testing.T) {
	limiter := New(context.Background(), Config{})

	for i := 0; i < 10; i++ {
		if !limiter.Allow("k") {
			t.Errorf("request %d should be allowed with defaults", i+1)
		}
	}
	if limiter.Allow("k") {
		t.Error("11th request should be blocked")
	}
}

func TestLimiterWaitHonorsCancellation(t *testing.T) {
	limiter := New(context.Background(), Config{RequestsPerMinute: 1})
	limiter.Allow("k")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "k"); err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}

func TestLimiterWaitReturnsOnCapacity(t *testing.T) {
	limiter := New(context.Background(), Config{RequestsPerMinute: 2, Window: 100 * time.Millisecond})
	limiter.Allow("k")
	limiter.Allow("k")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := limiter.Wait(ctx, "k"); err != nil {
		t.Errorf("Wait() error = %v, want nil once window slides", err)
	}
}

func TestLimiterConcurrent(t *testing.T) {
	limiter := New(context.Background(), Config{RequestsPerMinute: 100})

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 20; j++ {
				limiter.Allow("k")
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if remaining := limiter.RemainingRequests("k"); remaining != 0 {
		t.Errorf("RemainingRequests() = %d, want 0 after concurrent access", remaining)
	}
}
