// Package shutdown coordinates staged teardown of a voice session process.
//
// A session process has ordering constraints when it stops: the frame loop
// must drain before the transport closes, and telemetry flushes last so the
// teardown itself is still observed. Stages express that order; closers in
// the same stage run concurrently.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
)

// Stages in teardown order.
const (
	// StageSession stops frame processing and disambiguation timers.
	StageSession = 10
	// StageTransport closes the control channel and the tool client.
	StageTransport = 20
	// StageTelemetry flushes observers and the trace provider.
	StageTelemetry = 30
)

// DefaultTimeout bounds a full teardown.
const DefaultTimeout = 15 * time.Second

// ErrTimeout reports that teardown ran out of time mid-stage.
var ErrTimeout = errors.New("shutdown timed out")

// Closer tears one component down.
type Closer func(ctx context.Context) error

type registration struct {
	name  string
	stage int
	close Closer
}

// Coordinator runs registered closers stage by stage.
type Coordinator struct {
	timeout time.Duration

	mu      sync.Mutex
	closers []registration
	once    sync.Once
	err     error
	done    chan struct{}
}

// New creates a coordinator. A timeout of zero means DefaultTimeout.
func New(timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coordinator{timeout: timeout, done: make(chan struct{})}
}

// Register adds a named closer at a stage. Closers at lower stages run
// first; closers at the same stage run concurrently.
func (c *Coordinator) Register(name string, stage int, close Closer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, registration{name: name, stage: stage, close: close})
}

// Shutdown runs all closers once. Later calls return the first run's error.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		c.err = c.run(ctx)
		close(c.done)
	})
	<-c.done
	return c.err
}

// Done is closed when teardown has finished.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// WaitForSignal blocks until SIGINT or SIGTERM arrives or the context
// ends, then runs Shutdown.
func (c *Coordinator) WaitForSignal(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	return c.Shutdown(context.Background())
}

func (c *Coordinator) run(ctx context.Context) error {
	c.mu.Lock()
	closers := make([]registration, len(c.closers))
	copy(closers, c.closers)
	c.mu.Unlock()

	sort.SliceStable(closers, func(i, j int) bool {
		return closers[i].stage < closers[j].stage
	})

	var firstErr error
	for start := 0; start < len(closers); {
		end := start
		for end < len(closers) && closers[end].stage == closers[start].stage {
			end++
		}

		select {
		case <-ctx.Done():
			return ErrTimeout
		default:
		}

		if err := runStage(ctx, closers[start:end]); err != nil && firstErr == nil {
			firstErr = err
		}
		start = end
	}
	return firstErr
}

func runStage(ctx context.Context, group []registration) error {
	errs := make([]error, len(group))
	var wg sync.WaitGroup
	for i, reg := range group {
		wg.Add(1)
		go func(idx int, r registration) {
			defer wg.Done()
			if err := r.close(ctx); err != nil {
				errs[idx] = fmt.Errorf("%s: %w", r.name, err)
			}
		}(i, reg)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
