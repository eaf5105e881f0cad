package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// --- Unit Tests ---

func TestStagesRunInOrder(t *testing.T) {
	c := New(time.Second)

	var mu sync.Mutex
	var order []string
	record := func(name string) Closer {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	c.Register("telemetry", StageTelemetry, record("telemetry"))
	c.Register("session", StageSession, record("session"))
	c.Register("transport", StageTransport, record("transport"))

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	want := []string{"session", "transport", "telemetry"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestSameStageRunsConcurrently(t *testing.T) {
	c := New(time.Second)

	gate := make(chan struct{})
	meet := func(ctx context.Context) error {
		// Both closers must be running for either to pass the gate.
		select {
		case gate <- struct{}{}:
		case <-gate:
		case <-time.After(500 * time.Millisecond):
			return errors.New("peer never arrived")
		}
		return nil
	}
	c.Register("a", StageTransport, meet)
	c.Register("b", StageTransport, meet)

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestShutdownRunsOnce(t *testing.T) {
	c := New(time.Second)

	var calls int
	c.Register("one", StageSession, func(ctx context.Context) error {
		calls++
		return nil
	})

	c.Shutdown(context.Background())
	c.Shutdown(context.Background())
	if calls != 1 {
		t.Fatalf("closer ran %d times, want 1", calls)
	}
}

func TestFailedCloserDoesNotStopLaterStages(t *testing.T) {
	c := New(time.Second)

	bad := errors.New("boom")
	var telemetryRan bool
	c.Register("session", StageSession, func(ctx context.Context) error { return bad })
	c.Register("telemetry", StageTelemetry, func(ctx context.Context) error {
		telemetryRan = true
		return nil
	})

	err := c.Shutdown(context.Background())
	if !errors.Is(err, bad) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if !telemetryRan {
		t.Error("later stage skipped after failure")
	}
}

func TestTimeoutAbortsRemainingStages(t *testing.T) {
	c := New(50 * time.Millisecond)

	var lateRan bool
	c.Register("slow", StageSession, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	c.Register("late", StageTelemetry, func(ctx context.Context) error {
		lateRan = true
		return nil
	})

	if err := c.Shutdown(context.Background()); err == nil {
		t.Fatal("expected an error after timeout")
	}
	if lateRan {
		t.Error("stage ran after deadline")
	}
}

func TestDoneClosesAfterShutdown(t *testing.T) {
	c := New(time.Second)

	select {
	case <-c.Done():
		t.Fatal("done closed before shutdown")
	default:
	}

	c.Shutdown(context.Background())
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("done never closed")
	}
}
