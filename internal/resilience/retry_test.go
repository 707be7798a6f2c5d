package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		Attempts:  attempts,
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
		Factor:    2,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(3), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesTransientUntilSuccess(t *testing.T) {
	var calls int
	var retried []int
	p := fastPolicy(3)
	p.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	err := Do(context.Background(), p, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("throttled"), "429")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("unexpected retry attempts: %v", retried)
	}
}

func TestDo_StopsAfterAttempts(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(2), func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("down"), "")
	})
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	var calls int
	perm := errors.New("bad query")
	err := Do(context.Background(), fastPolicy(5), func(_ context.Context) error {
		calls++
		return perm
	})
	if !errors.Is(err, perm) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{Attempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, Factor: 2}

	var calls int
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, p, func(_ context.Context) error {
			calls++
			return NewTransientError(errors.New("retry me"), "")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error")
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestCall_ReturnsValue(t *testing.T) {
	var calls int
	got, err := Call(context.Background(), fastPolicy(3), func(_ context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, NewTransientError(errors.New("blip"), "")
		}
		return []string{"a", "b"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 values, got %v", got)
	}
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	p := RetryPolicy{Attempts: 10, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Factor: 2}.normalized()
	p.Jitter = 0

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, time.Second, time.Second}
	for i, w := range want {
		if got := p.backoff(i + 1); got != w {
			t.Errorf("attempt %d: expected %v, got %v", i+1, w, got)
		}
	}
}

func TestBackoff_JitterStaysInRange(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Factor: 2, Jitter: 0.5}.normalized()
	for i := 0; i < 100; i++ {
		d := p.backoff(1)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("jittered delay out of range: %v", d)
		}
	}
}

func TestConfig_RetryPolicy(t *testing.T) {
	p := Config{RetryAttempts: 4, RetryBaseMS: 50, RetryMaxMS: 2000, RetryFactor: 3, RetryJitter: 0.1}.RetryPolicy()
	if p.Attempts != 4 || p.BaseDelay != 50*time.Millisecond || p.MaxDelay != 2*time.Second || p.Factor != 3 || p.Jitter != 0.1 {
		t.Errorf("unexpected policy: %+v", p)
	}

	def := Config{RetryJitter: -1}.RetryPolicy()
	if def.Attempts != 3 || def.Jitter != DefaultRetryPolicy().Jitter {
		t.Errorf("expected defaults, got %+v", def)
	}
}
