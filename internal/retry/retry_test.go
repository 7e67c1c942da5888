package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestDoSuccessFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{Attempts: 3}, nil, func(context.Context, int) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoFatalErrorStopsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	rec := &recordedSleeps{}
	calls := 0
	err := Do(context.Background(), Config{Attempts: 5, Step: time.Second, Sleep: rec.sleep},
		func(err error) bool { return !errors.Is(err, fatal) },
		func(context.Context, int) error {
			calls++
			return fatal
		})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		t.Fatal("fatal error should not be reported as exhaustion")
	}
	if calls != 1 || len(rec.delays) != 0 {
		t.Fatalf("expected single call without sleep, got calls=%d sleeps=%v", calls, rec.delays)
	}
}

func TestDoLinearBackoffAndAttemptIndex(t *testing.T) {
	transient := errors.New("transient")
	rec := &recordedSleeps{}
	var seen []int
	err := Do(context.Background(), Config{Attempts: 4, Step: 3 * time.Second, Sleep: rec.sleep}, nil,
		func(_ context.Context, attempt int) error {
			seen = append(seen, attempt)
			if attempt < 2 {
				return transient
			}
			return nil
		})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if len(seen) != 3 || seen[0] != 0 || seen[2] != 2 {
		t.Fatalf("unexpected attempt indexes: %v", seen)
	}
	want := []time.Duration{3 * time.Second, 6 * time.Second}
	if len(rec.delays) != len(want) {
		t.Fatalf("unexpected sleeps: %v", rec.delays)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Fatalf("sleep %d: got %v want %v", i, rec.delays[i], want[i])
		}
	}
}

func TestDoExhaustion(t *testing.T) {
	transient := errors.New("still failing")
	rec := &recordedSleeps{}
	calls := 0
	err := Do(context.Background(), Config{Attempts: 3, Step: time.Second, Sleep: rec.sleep}, nil,
		func(context.Context, int) error {
			calls++
			return transient
		})
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 || calls != 3 {
		t.Fatalf("unexpected attempts: reported=%d calls=%d", exhausted.Attempts, calls)
	}
	if !errors.Is(err, transient) {
		t.Fatal("ExhaustedError should unwrap to the last error")
	}
	if len(rec.delays) != 2 {
		t.Fatalf("expected no sleep after final attempt, got %v", rec.delays)
	}
}

func TestDelayCapped(t *testing.T) {
	cfg := Config{Step: 10 * time.Second, MaxDelay: 25 * time.Second}
	if got := cfg.Delay(0); got != 10*time.Second {
		t.Fatalf("Delay(0) = %v", got)
	}
	if got := cfg.Delay(4); got != 25*time.Second {
		t.Fatalf("Delay(4) = %v, want cap", got)
	}
	if got := (Config{}).Delay(3); got != 0 {
		t.Fatalf("zero step should not wait, got %v", got)
	}
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Config{Attempts: 5, Step: time.Hour}, nil, func(context.Context, int) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call before cancellation, got %d", calls)
	}
}
