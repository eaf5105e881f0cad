package transport

import (
	"testing"
	"time"

	"github.com/voxtlabs/voxtrade/frame"
)

func TestPipe_RoundTrip(t *testing.T) {
	a, b := Pipe(DefaultConfig())
	defer a.Close()
	defer b.Close()

	if err := a.Send(frame.New(map[string]interface{}{"type": "response.done"})); err != nil {
		t.Fatalf("send error: %v", err)
	}

	select {
	case f := <-b.Recv():
		if f.Type != "response.done" {
			t.Errorf("type = %q, want response.done", f.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for frame")
	}
}

func TestPipe_Ordering(t *testing.T) {
	a, b := Pipe(DefaultConfig())
	defer a.Close()
	defer b.Close()

	for i, typ := range []string{"one", "two", "three"} {
		if err := a.Send(frame.New(map[string]interface{}{"type": typ})); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	for _, want := range []string{"one", "two", "three"} {
		f := <-b.Recv()
		if f.Type != want {
			t.Errorf("type = %q, want %q", f.Type, want)
		}
	}
}

func TestPipe_SendAfterClose(t *testing.T) {
	a, b := Pipe(DefaultConfig())
	b.Close()

	a.Close()
	if err := a.Send(frame.ResponseTrigger()); err != ErrClosed {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestPipe_CloseEndsPeerRecv(t *testing.T) {
	a, b := Pipe(DefaultConfig())

	a.Close()

	select {
	case _, ok := <-b.Recv():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("peer recv not closed")
	}
}
