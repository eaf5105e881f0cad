package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxtlabs/voxtrade/frame"
)

// --- Unit Tests ---

func TestWebSocketConfig_Defaults(t *testing.T) {
	cfg := DefaultWebSocketConfig()
	if cfg.MaxMessageSize != 1024*1024 {
		t.Errorf("MaxMessageSize = %d, want 1MB", cfg.MaxMessageSize)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", cfg.WriteTimeout)
	}
}

// --- Integration Tests ---

func TestWebSocketTransport_RoundTrip(t *testing.T) {
	// Create test server
	var serverTransport *WebSocketTransport
	upgrader := NewWebSocketUpgrader()
	serverReady := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade error: %v", err)
			return
		}
		serverTransport = NewWebSocketTransport(conn, DefaultWebSocketConfig())
		close(serverReady)
	}))
	defer server.Close()

	// Connect client
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer clientConn.Close()

	// Wait for server to set up transport
	<-serverReady

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Start server transport
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		serverTransport.Run(ctx)
	}()

	// Client sends a call-created frame
	clientConn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"response.function_call.created","item_id":"it_1","name":"resolve_token"}`))

	// Server receives
	select {
	case f := <-serverTransport.Recv():
		if f.Type != "response.function_call.created" {
			t.Errorf("type = %q, want response.function_call.created", f.Type)
		}
		if frame.ItemID(f) != "it_1" {
			t.Errorf("item id = %q, want it_1", frame.ItemID(f))
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for frame")
	}

	// Server sends a response trigger
	serverTransport.Send(frame.ResponseTrigger())

	// Client receives it
	clientConn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := clientConn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}

	var obj map[string]interface{}
	json.Unmarshal(data, &obj)
	if obj["type"] != "response.create" {
		t.Errorf("type = %v, want response.create", obj["type"])
	}

	cancel()
	wg.Wait()
}

// --- Failure Tests ---

func TestWebSocketTransport_SendAfterClose(t *testing.T) {
	var serverTransport *WebSocketTransport
	upgrader := NewWebSocketUpgrader()
	serverReady := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _ := upgrader.Upgrade(w, r, nil)
		serverTransport = NewWebSocketTransport(conn, DefaultWebSocketConfig())
		close(serverReady)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	clientConn, _, _ := websocket.DefaultDialer.Dial(wsURL, nil)
	clientConn.Close()

	<-serverReady

	serverTransport.Close()

	if err := serverTransport.Send(frame.ResponseTrigger()); err != ErrClosed {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestWebSocketTransport_MalformedJSONSkipped(t *testing.T) {
	var serverTransport *WebSocketTransport
	upgrader := NewWebSocketUpgrader()
	serverReady := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _ := upgrader.Upgrade(w, r, nil)
		serverTransport = NewWebSocketTransport(conn, DefaultWebSocketConfig())
		close(serverReady)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	clientConn, _, _ := websocket.DefaultDialer.Dial(wsURL, nil)
	defer clientConn.Close()

	<-serverReady

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go serverTransport.Run(ctx)

	// Malformed input is dropped; the next valid frame still arrives.
	clientConn.WriteMessage(websocket.TextMessage, []byte(`{invalid`))
	clientConn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.done"}`))

	select {
	case f := <-serverTransport.Recv():
		if f.Type != "response.done" {
			t.Errorf("type = %q, want response.done", f.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("valid frame after malformed input was not delivered")
	}
}

func TestWebSocketTransport_ClientDisconnect(t *testing.T) {
	var serverTransport *WebSocketTransport
	upgrader := NewWebSocketUpgrader()
	serverReady := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _ := upgrader.Upgrade(w, r, nil)
		serverTransport = NewWebSocketTransport(conn, DefaultWebSocketConfig())
		close(serverReady)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	clientConn, _, _ := websocket.DefaultDialer.Dial(wsURL, nil)

	<-serverReady

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		serverTransport.Run(ctx)
		close(done)
	}()

	// Disconnect client
	clientConn.Close()

	// Transport should handle disconnect gracefully
	select {
	case <-done:
		// Good, transport exited
	case <-time.After(time.Second):
		cancel() // Force exit
	}
}
