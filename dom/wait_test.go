package dom

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitFor_ImmediateTrue(t *testing.T) {
	calls := 0
	err := WaitFor(context.Background(), "ready", 0, time.Millisecond, func() (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestWaitFor_EventuallyTrue(t *testing.T) {
	calls := 0
	err := WaitFor(context.Background(), "ready", time.Second, time.Millisecond, func() (bool, error) {
		calls++
		return calls >= 3, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestWaitFor_Timeout(t *testing.T) {
	boom := errors.New("detached")
	err := WaitFor(context.Background(), "upi input", 20*time.Millisecond, 5*time.Millisecond, func() (bool, error) {
		return false, boom
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TimeoutError, got %T", err)
	}
	if te.What != "upi input" || !errors.Is(err, boom) {
		t.Fatalf("unexpected timeout error: %v", te)
	}
}

func TestWaitFor_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitFor(ctx, "never", time.Second, 10*time.Millisecond, func() (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPause(t *testing.T) {
	if err := Pause(context.Background(), 0); err != nil {
		t.Fatalf("zero pause: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Pause(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestChangedSequence(t *testing.T) {
	seq := ChangedSequence()
	want := []EventKind{EventInput, EventChange, EventBlur, EventKeyDown, EventKeyUp}
	if len(seq) != len(want) {
		t.Fatalf("len = %d", len(seq))
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("seq[%d] = %s, want %s", i, seq[i], want[i])
		}
	}
	seq[0] = EventClick
	if ChangedSequence()[0] != EventInput {
		t.Fatal("ChangedSequence must return a copy")
	}
}
